package router

import (
	"github.com/oksasatya/go-library-management/internal/container"
	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
	"github.com/oksasatya/go-library-management/internal/router/modules"
)

// InitModules builds the HTTP handlers from the container and registers one
// module per feature. Call it once during startup, after c.Wire.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config
	auth := middleware.Auth(c.Redis, c.JWT)
	guard := modules.Guard{Redis: c.Redis, Auth: auth}

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(c.Identity, c.Logger, cfg.CookieDomain, cfg.CookieSecure), guard))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(c.Identity, c.Logger), guard))
	r.Add(modules.NewBookModule(handlers.NewBookHandler(c.Catalog, c.Logger), guard))
	r.Add(modules.NewLoanModule(handlers.NewLoanHandler(c.Loans, c.Logger), guard))
	r.Add(modules.NewReportModule(handlers.NewReportHandler(c.Reports, c.Dashboard, c.Logger), guard))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis))
	}
}
