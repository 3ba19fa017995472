package repository

import "context"

// Repositories groups the repositories bound to one unit of work.
type Repositories struct {
	Books BookRepository
	Users UserRepository
	Loans LoanRepository
}

// UnitOfWork runs fn inside a single transaction. It commits when fn returns
// nil and rolls back otherwise, returning fn's error unchanged.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
