package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
)

type LoanModule struct {
	Handler *handlers.LoanHandler
	Guard   Guard
}

func NewLoanModule(h *handlers.LoanHandler, g Guard) *LoanModule {
	return &LoanModule{Handler: h, Guard: g}
}

func (m *LoanModule) Register(rg *gin.RouterGroup) {
	auth := m.Guard.Protected(rg)
	{
		auth.GET("/loans", m.Handler.List)
		auth.POST("/loans", m.Handler.Create)
	}

	lib := m.Guard.Librarian(rg)
	lib.POST("/loans/:id/return", m.Handler.Return)
}
