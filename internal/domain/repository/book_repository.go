package repository

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

// BookRepository defines catalog persistence. Lookups of a missing id return
// an error matching apperror.ErrNotFound.
type BookRepository interface {
	ListAll(ctx context.Context) ([]entity.Book, error)
	ListAvailable(ctx context.Context) ([]entity.Book, error)
	Search(ctx context.Context, term string) ([]entity.Book, error)
	GetByID(ctx context.Context, id int64) (*entity.Book, error)
	// ListByIDs returns the books among ids that exist, in no particular order.
	ListByIDs(ctx context.Context, ids []int64) ([]entity.Book, error)
	GetLowStock(ctx context.Context, threshold int) ([]entity.Book, error)
	Create(ctx context.Context, b *entity.Book) error
	Update(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id int64) error

	// DecrementAvailable takes one copy off the shelf only if one is left.
	// It reports false when no row qualified.
	DecrementAvailable(ctx context.Context, id int64) (bool, error)
	// IncrementAvailable puts one copy back, never above the total.
	IncrementAvailable(ctx context.Context, id int64) error
}
