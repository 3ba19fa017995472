package postgres

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

// UnitOfWork binds the book, user and loan repositories to one transaction.
type UnitOfWork struct {
	gw   *Gateway
	caps Capabilities
}

func NewUnitOfWork(gw *Gateway, caps Capabilities) *UnitOfWork {
	return &UnitOfWork{gw: gw, caps: caps}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return u.gw.InTx(ctx, func(tx *Gateway) error {
		return fn(ctx, repository.Repositories{
			Books: NewBookRepository(tx),
			Users: NewUserRepository(tx),
			Loans: NewLoanRepository(tx, u.caps),
		})
	})
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)
