package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
	"github.com/oksasatya/go-library-management/pkg/response"
)

type Reports interface {
	LowStock(ctx context.Context, threshold int) ([]entity.Book, error)
	LowStockExport(ctx context.Context, threshold int) (string, []byte, error)
	ArchiveExport(ctx context.Context, threshold int) (string, error)
}

// Stats backs the dashboard.
type Stats interface {
	Summary(ctx context.Context, p application.Principal) entity.Stats
}

type ReportHandler struct {
	Svc    Reports
	Stats  Stats
	Logger *logrus.Logger
}

func NewReportHandler(svc Reports, dashboard Stats, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{Svc: svc, Stats: dashboard, Logger: logger}
}

// LowStock GET /api/reports/low-stock?threshold=
func (h *ReportHandler) LowStock(c *gin.Context) {
	threshold := application.ParseThreshold(c.Query("threshold"))
	books, err := h.Svc.LowStock(c.Request.Context(), threshold)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBookDTOs(books), "low stock", gin.H{"count": len(books), "threshold": threshold})
}

// Download GET /api/reports/low-stock/download?threshold=
func (h *ReportHandler) Download(c *gin.Context) {
	name, data, err := h.Svc.LowStockExport(c.Request.Context(), application.ParseThreshold(c.Query("threshold")))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Archive POST /api/reports/low-stock/archive?threshold=
func (h *ReportHandler) Archive(c *gin.Context) {
	url, err := h.Svc.ArchiveExport(c.Request.Context(), application.ParseThreshold(c.Query("threshold")))
	if errors.Is(err, application.ErrArchiveDisabled) {
		response.Error[any](c, http.StatusServiceUnavailable, "report archive not configured", response.ErrorBody{Code: "archive_disabled"})
		return
	}
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusCreated, gin.H{"url": url}, "report archived", nil)
}

// Dashboard GET /api/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	stats := h.Stats.Summary(c.Request.Context(), middleware.CurrentPrincipal(c))
	response.Success(c, http.StatusOK, stats, "dashboard", nil)
}
