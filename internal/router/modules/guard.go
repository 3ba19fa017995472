package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-library-management/internal/interface/middleware"
)

// Guard bundles the middleware shared by the feature modules.
type Guard struct {
	Redis *redis.Client
	Auth  gin.HandlerFunc
}

// Protected returns a group that requires a session and applies the
// per-IP and per-user limits of authenticated traffic.
func (g Guard) Protected(rg *gin.RouterGroup) *gin.RouterGroup {
	return rg.Group("/",
		g.Auth,
		middleware.RateLimit(g.Redis, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(g.Redis, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
}

// Librarian is Protected restricted to LIBRARIAN and ADMIN.
func (g Guard) Librarian(rg *gin.RouterGroup) *gin.RouterGroup {
	return g.Protected(rg).Group("/", middleware.RequireLibrarian())
}
