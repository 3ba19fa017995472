package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
)

// UserModule exposes account administration to librarians.
type UserModule struct {
	Handler *handlers.UserHandler
	Guard   Guard
}

func NewUserModule(h *handlers.UserHandler, g Guard) *UserModule {
	return &UserModule{Handler: h, Guard: g}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	lib := m.Guard.Librarian(rg)
	{
		lib.GET("/users", m.Handler.List)
		lib.POST("/users", m.Handler.Create)
		lib.GET("/users/:id", m.Handler.Get)
		lib.PUT("/users/:id", m.Handler.Update)
	}
}
