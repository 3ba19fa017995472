package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

const dialectPostgres = "postgres"

var errBuildQuery = errors.New("failed to build query")

type loanRow struct {
	ID           int64      `db:"id"`
	BookID       int64      `db:"book_id"`
	UserID       int64      `db:"user_id"`
	LoanedAt     time.Time  `db:"loaned_at"`
	ReturnedAt   *time.Time `db:"returned_at"`
	Status       string     `db:"status"`
	DurationDays *int       `db:"duration_days"`
	Penalty      *string    `db:"penalty"`
}

func (r loanRow) toEntity() entity.Loan {
	return entity.Loan{
		ID:           r.ID,
		BookID:       r.BookID,
		UserID:       r.UserID,
		LoanedAt:     r.LoanedAt,
		ReturnedAt:   r.ReturnedAt,
		Status:       entity.LoanStatus(r.Status),
		DurationDays: r.DurationDays,
		Penalty:      r.Penalty,
	}
}

type loanViewRow struct {
	loanRow
	BookTitle string `db:"book_title"`
	UserName  string `db:"user_name"`
	UserEmail string `db:"user_email"`
}

// LoanRepository persists loans. Without the loan-terms columns, duration and
// penalty are neither written nor read.
type LoanRepository struct {
	gw   *Gateway
	caps Capabilities
}

func NewLoanRepository(gw *Gateway, caps Capabilities) *LoanRepository {
	return &LoanRepository{gw: gw, caps: caps}
}

func (r *LoanRepository) Insert(ctx context.Context, l *entity.Loan) error {
	if l.Status == "" {
		l.Status = entity.LoanActive
	}

	rec := goqu.Record{
		"book_id": l.BookID,
		"user_id": l.UserID,
		"status":  string(l.Status),
	}
	if r.caps.LoanTerms {
		rec["duration_days"] = l.DurationDays
		rec["penalty"] = l.Penalty
	}

	stmt, args, err := goqu.Dialect(dialectPostgres).
		Insert("loans").
		Rows(rec).
		Returning("id", "loaned_at").
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("%w: %w", errBuildQuery, err)
	}

	if err := r.gw.db.QueryRow(ctx, stmt, args...).Scan(&l.ID, &l.LoanedAt); err != nil {
		return r.gw.fail("loans.insert", err)
	}
	if !r.caps.LoanTerms {
		l.DurationDays = nil
		l.Penalty = nil
	}
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id int64) (*entity.Loan, error) {
	stmt, args, err := r.baseSelect().
		Where(goqu.I("l.id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBuildQuery, err)
	}

	row, err := selectOne[loanViewRow](ctx, r.gw, "loans.get", stmt, args...)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound("loan", id)
	}
	l := row.toEntity()
	return &l, nil
}

func (r *LoanRepository) MarkReturned(ctx context.Context, id int64) (bool, error) {
	n, err := r.gw.Execute(ctx, `
		UPDATE loans
		SET status = 'RETURNED', returned_at = now()
		WHERE id = @id AND status = 'ACTIVE'
	`, pgx.NamedArgs{"id": id})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// List returns loans newest first, joined with book title and user identity.
func (r *LoanRepository) List(ctx context.Context, f repository.LoanFilter) ([]entity.LoanView, error) {
	q := r.baseSelect().Order(goqu.I("l.id").Desc())
	if f.UserID != nil {
		q = q.Where(goqu.I("l.user_id").Eq(*f.UserID))
	}
	if f.ActiveOnly {
		q = q.Where(goqu.I("l.status").Eq(string(entity.LoanActive)))
	}

	stmt, args, err := q.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBuildQuery, err)
	}

	rows, err := selectAll[loanViewRow](ctx, r.gw, "loans.list", stmt, args...)
	if err != nil {
		return nil, err
	}
	out := make([]entity.LoanView, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.LoanView{
			Loan:      row.toEntity(),
			BookTitle: row.BookTitle,
			UserName:  row.UserName,
			UserEmail: row.UserEmail,
		})
	}
	return out, nil
}

func (r *LoanRepository) baseSelect() *goqu.SelectDataset {
	cols := []any{
		goqu.I("l.id"), goqu.I("l.book_id"), goqu.I("l.user_id"),
		goqu.I("l.loaned_at"), goqu.I("l.returned_at"), goqu.I("l.status"),
	}
	if r.caps.LoanTerms {
		cols = append(cols, goqu.I("l.duration_days"), goqu.I("l.penalty"))
	} else {
		cols = append(cols,
			goqu.L("NULL::int").As("duration_days"),
			goqu.L("NULL::text").As("penalty"))
	}
	cols = append(cols,
		goqu.I("b.title").As("book_title"),
		goqu.I("u.name").As("user_name"),
		goqu.I("u.email").As("user_email"))

	return goqu.Dialect(dialectPostgres).
		From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("l.user_id")))).
		Select(cols...)
}

var _ repository.LoanRepository = (*LoanRepository)(nil)
