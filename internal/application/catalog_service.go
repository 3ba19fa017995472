package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

// MaxFullTextResults caps the number of books a full-text search returns.
const MaxFullTextResults = 100

// CatalogService manages books. The full-text index is optional and only
// ever updated after the database write succeeded.
type CatalogService struct {
	Books  repository.BookRepository
	Index  BookIndexer
	Logger *logrus.Logger
}

func NewCatalogService(books repository.BookRepository, index BookIndexer, logger *logrus.Logger) *CatalogService {
	return &CatalogService{Books: books, Index: index, Logger: logger}
}

// BookInput carries the editable fields of a book. Nil copy counts keep the
// stored value on update. On create a nil TotalCopies means one copy and a
// nil AvailableCopies means every copy is on the shelf.
type BookInput struct {
	Title           string
	Author          string
	PublicationYear int
	Genre           string
	ISBN            string
	TotalCopies     *int
	AvailableCopies *int
}

// List searches the catalog when q is set and lists it otherwise.
// availableOnly drops books without a free copy.
func (s *CatalogService) List(ctx context.Context, q string, availableOnly bool) ([]entity.Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		if availableOnly {
			return s.Books.ListAvailable(ctx)
		}
		return s.Books.ListAll(ctx)
	}

	books, err := s.Books.Search(ctx, q)
	if err != nil || !availableOnly {
		return books, err
	}
	out := books[:0]
	for _, b := range books {
		if b.IsAvailable() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (*entity.Book, error) {
	if id <= 0 {
		return nil, apperror.Invalid("id", "must be a positive integer")
	}
	return s.Books.GetByID(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, in BookInput) (*entity.Book, error) {
	if err := validateBook(in); err != nil {
		return nil, err
	}
	b := &entity.Book{}
	apply(b, in)
	b.Normalize()

	if err := s.Books.Create(ctx, b); err != nil {
		return nil, err
	}
	s.index(ctx, b)
	return b, nil
}

func (s *CatalogService) Update(ctx context.Context, id int64, in BookInput) (*entity.Book, error) {
	if id <= 0 {
		return nil, apperror.Invalid("id", "must be a positive integer")
	}
	if err := validateBook(in); err != nil {
		return nil, err
	}
	b, err := s.Books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(b, in)
	b.Normalize()

	if err := s.Books.Update(ctx, b); err != nil {
		return nil, err
	}
	s.index(ctx, b)
	return b, nil
}

// Delete removes a book. Books referenced by loans cannot be deleted and
// yield an error matching apperror.ErrConflict.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.Invalid("id", "must be a positive integer")
	}
	if err := s.Books.Delete(ctx, id); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("book_id", id).Warn("es delete failed")
		}
	}
	return nil
}

// FullTextSearch ranks books by relevance through the search index, falling
// back to the database search when no index is configured or it fails. The
// index only decides the order; the books themselves are read from the
// database so copy counts are current.
func (s *CatalogService) FullTextSearch(ctx context.Context, q string, size int) ([]entity.Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Invalid("q", "is required")
	}
	size = min(size, MaxFullTextResults)
	if s.Index != nil {
		ids, err := s.Index.SearchIDs(ctx, q, size)
		if err == nil {
			return s.ranked(ctx, ids)
		}
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("es search failed, using database search")
		}
	}
	books, err := s.Books.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if size > 0 && len(books) > size {
		books = books[:size]
	}
	return books, nil
}

// ranked loads ids in the given order. Ids deleted since they were indexed
// are skipped.
func (s *CatalogService) ranked(ctx context.Context, ids []int64) ([]entity.Book, error) {
	if len(ids) == 0 {
		return []entity.Book{}, nil
	}
	books, err := s.Books.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]entity.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	out := make([]entity.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *CatalogService) index(ctx context.Context, b *entity.Book) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, b); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("book_id", b.ID).Warn("es index failed")
	}
}

func validateBook(in BookInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperror.Invalid("title", "is required")
	}
	if strings.TrimSpace(in.Author) == "" {
		return apperror.Invalid("author", "is required")
	}
	if in.PublicationYear != 0 && in.PublicationYear < entity.MinPublicationYear {
		return apperror.Invalid("publication_year", fmt.Sprintf("must be %d or later", entity.MinPublicationYear))
	}
	if in.TotalCopies != nil && *in.TotalCopies < 0 {
		return apperror.Invalid("total_copies", "must not be negative")
	}
	if in.AvailableCopies != nil && *in.AvailableCopies < 0 {
		return apperror.Invalid("available_copies", "must not be negative")
	}
	return nil
}

func apply(b *entity.Book, in BookInput) {
	b.Title = strings.TrimSpace(in.Title)
	b.Author = strings.TrimSpace(in.Author)
	b.PublicationYear = in.PublicationYear
	b.Genre = strings.TrimSpace(in.Genre)
	b.ISBN = strings.TrimSpace(in.ISBN)
	if in.TotalCopies != nil {
		b.TotalCopies = *in.TotalCopies
	}
	if b.TotalCopies <= 0 {
		b.TotalCopies = 1
	}
	if in.AvailableCopies != nil {
		b.AvailableCopies = *in.AvailableCopies
	} else if b.ID == 0 {
		b.AvailableCopies = b.TotalCopies
	}
}
