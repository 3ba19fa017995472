package repository

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

// LoanFilter narrows loan listings. A nil UserID means every user.
type LoanFilter struct {
	UserID     *int64
	ActiveOnly bool
}

// LoanRepository defines loan persistence.
type LoanRepository interface {
	Insert(ctx context.Context, l *entity.Loan) error
	GetByID(ctx context.Context, id int64) (*entity.Loan, error)
	// MarkReturned flips an ACTIVE loan to RETURNED and reports false when the
	// loan was not ACTIVE anymore.
	MarkReturned(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f LoanFilter) ([]entity.LoanView, error)
}
