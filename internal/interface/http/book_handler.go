package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/pkg/response"
)

const defaultSearchSize = 20

type Catalog interface {
	List(ctx context.Context, q string, availableOnly bool) ([]entity.Book, error)
	Get(ctx context.Context, id int64) (*entity.Book, error)
	Create(ctx context.Context, in application.BookInput) (*entity.Book, error)
	Update(ctx context.Context, id int64, in application.BookInput) (*entity.Book, error)
	Delete(ctx context.Context, id int64) error
	FullTextSearch(ctx context.Context, q string, size int) ([]entity.Book, error)
}

type BookHandler struct {
	Svc    Catalog
	Logger *logrus.Logger
}

func NewBookHandler(svc Catalog, logger *logrus.Logger) *BookHandler {
	return &BookHandler{Svc: svc, Logger: logger}
}

type bookRequest struct {
	Title           string `json:"title" binding:"required,max=255"`
	Author          string `json:"author" binding:"required,max=255"`
	PublicationYear int    `json:"publication_year" binding:"omitempty,pubyear"`
	Genre           string `json:"genre" binding:"omitempty,max=100"`
	ISBN            string `json:"isbn" binding:"omitempty,max=20"`
	TotalCopies     *int   `json:"total_copies" binding:"omitempty,copies"`
	AvailableCopies *int   `json:"available_copies" binding:"omitempty,copies"`
}

func (r bookRequest) input() application.BookInput {
	return application.BookInput{
		Title:           r.Title,
		Author:          r.Author,
		PublicationYear: r.PublicationYear,
		Genre:           r.Genre,
		ISBN:            r.ISBN,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
	}
}

// List GET /api/books?q=&available=true
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.Svc.List(c.Request.Context(), c.Query("q"), queryBool(c, "available"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.List(c, toBookDTOs(books), "books")
}

// FullText GET /api/books/fulltext?q=&size=
func (h *BookHandler) FullText(c *gin.Context) {
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultSearchSize)))
	if err != nil || size <= 0 {
		size = defaultSearchSize
	}
	size = min(size, application.MaxFullTextResults)

	books, err := h.Svc.FullTextSearch(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.List(c, toBookDTOs(books), "books")
}

// Get GET /api/books/:id
func (h *BookHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	b, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBookDTO(b), "book", nil)
}

// Create POST /api/books
func (h *BookHandler) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	b, err := h.Svc.Create(c.Request.Context(), req.input())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toBookDTO(b), "book created", nil)
}

// Update PUT /api/books/:id
func (h *BookHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	b, err := h.Svc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBookDTO(b), "book updated", nil)
}

// Delete DELETE /api/books/:id
func (h *BookHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"id": id}, "book deleted", nil)
}
