package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
	"github.com/oksasatya/go-library-management/pkg/response"
)

type Loans interface {
	Create(ctx context.Context, p application.Principal, in application.CreateLoanInput) (*entity.Loan, error)
	Return(ctx context.Context, p application.Principal, loanID int64) (application.ReturnResult, error)
	List(ctx context.Context, p application.Principal, activeOnly bool) ([]entity.LoanView, error)
}

type LoanHandler struct {
	Svc    Loans
	Logger *logrus.Logger
}

func NewLoanHandler(svc Loans, logger *logrus.Logger) *LoanHandler {
	return &LoanHandler{Svc: svc, Logger: logger}
}

// user_id and penalty are ignored for readers, who always borrow for
// themselves under the default penalty.
type createLoanRequest struct {
	BookID       int64  `json:"book_id" binding:"required,gt=0"`
	UserID       int64  `json:"user_id" binding:"omitempty,gt=0"`
	DurationDays int    `json:"duration_days" binding:"omitempty,gte=1,lte=365"`
	Penalty      string `json:"penalty" binding:"omitempty,max=100"`
}

// List GET /api/loans?active=true
func (h *LoanHandler) List(c *gin.Context) {
	views, err := h.Svc.List(c.Request.Context(), middleware.CurrentPrincipal(c), queryBool(c, "active"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.List(c, toLoanViewDTOs(views), "loans")
}

// Create POST /api/loans
func (h *LoanHandler) Create(c *gin.Context) {
	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	loan, err := h.Svc.Create(c.Request.Context(), middleware.CurrentPrincipal(c), application.CreateLoanInput{
		BookID:       req.BookID,
		UserID:       req.UserID,
		DurationDays: req.DurationDays,
		Penalty:      req.Penalty,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toLoanDTO(loan), "loan created", nil)
}

// Return POST /api/loans/:id/return
func (h *LoanHandler) Return(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	res, err := h.Svc.Return(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	msg := "loan returned"
	if res.AlreadyReturned {
		msg = "loan already returned"
	}
	response.Success(c, http.StatusOK, toLoanDTO(res.Loan), msg, gin.H{"already_returned": res.AlreadyReturned})
}
