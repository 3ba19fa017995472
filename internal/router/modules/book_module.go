package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
)

// BookModule wires the catalog. Reads are open to every signed-in user,
// writes need librarian rights.
type BookModule struct {
	Handler *handlers.BookHandler
	Guard   Guard
}

func NewBookModule(h *handlers.BookHandler, g Guard) *BookModule {
	return &BookModule{Handler: h, Guard: g}
}

func (m *BookModule) Register(rg *gin.RouterGroup) {
	auth := m.Guard.Protected(rg)
	{
		auth.GET("/books", m.Handler.List)
		auth.GET("/books/fulltext", m.Handler.FullText)
		auth.GET("/books/:id", m.Handler.Get)
	}

	lib := m.Guard.Librarian(rg)
	{
		lib.POST("/books", m.Handler.Create)
		lib.PUT("/books/:id", m.Handler.Update)
		lib.DELETE("/books/:id", m.Handler.Delete)
	}
}
