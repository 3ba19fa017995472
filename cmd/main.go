package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/config"
	"github.com/oksasatya/go-library-management/internal/container"
	pginfra "github.com/oksasatya/go-library-management/internal/infrastructure/postgres"
	"github.com/oksasatya/go-library-management/internal/infrastructure/search"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
	"github.com/oksasatya/go-library-management/internal/router"
	"github.com/oksasatya/go-library-management/pkg/helpers"
	"github.com/oksasatya/go-library-management/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	if err := pginfra.MigrateUp(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	caps, err := pginfra.DetectCapabilities(ctx, pginfra.NewGateway(pool, logger))
	if err != nil {
		log.Fatalf("failed to inspect schema: %v", err)
	}
	logger.WithField("loan_terms", caps.LoanTerms).Info("schema capabilities detected")

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	c := &container.Container{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
		Caps:   caps,
		Redis:  rdb,
		JWT:    helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL),
	}

	// Optional integrations: the API keeps serving without them.
	if pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue); err != nil {
		helpers.LogError(logger, "rabbitmq unavailable, loan events disabled", err, nil)
	} else {
		c.Rabbit = pub
		defer pub.Close()
	}
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		if es, err := search.NewClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass); err != nil {
			helpers.LogError(logger, "elasticsearch unavailable, full-text search uses postgres", err, nil)
		} else {
			c.ES = es
		}
	}
	if cfg.GCSBucket != "" {
		if gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath); err != nil {
			helpers.LogError(logger, "gcs unavailable, report archive disabled", err, logrus.Fields{"bucket": cfg.GCSBucket})
		} else {
			c.GCS = gcs
			defer func() { _ = gcs.Close() }()
		}
	}
	c.Wire()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled || cfg.IsDevelopment() {
		r.Use(gin.Logger())
	}
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	reg := router.NewRegistry(r)
	router.InitModules(reg, c)
	reg.RegisterAll()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}
