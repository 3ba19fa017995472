package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
)

// ReportModule serves the dashboard and the low-stock report.
type ReportModule struct {
	Handler *handlers.ReportHandler
	Guard   Guard
}

func NewReportModule(h *handlers.ReportHandler, g Guard) *ReportModule {
	return &ReportModule{Handler: h, Guard: g}
}

func (m *ReportModule) Register(rg *gin.RouterGroup) {
	auth := m.Guard.Protected(rg)
	{
		auth.GET("/dashboard", m.Handler.Dashboard)
		auth.GET("/reports/low-stock", m.Handler.LowStock)
		auth.GET("/reports/low-stock/download", m.Handler.Download)
	}

	lib := m.Guard.Librarian(rg)
	lib.POST("/reports/low-stock/archive", m.Handler.Archive)
}
