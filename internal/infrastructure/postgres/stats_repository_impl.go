package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

type StatsRepository struct {
	gw *Gateway
}

func NewStatsRepository(gw *Gateway) *StatsRepository {
	return &StatsRepository{gw: gw}
}

// Snapshot counts users, books and active loans. When activeLoansOf is set,
// only that user's active loans are counted.
func (r *StatsRepository) Snapshot(ctx context.Context, activeLoansOf *int64) entity.Stats {
	return entity.Stats{
		Users:       r.gw.SafeCount(ctx, `SELECT COUNT(*) AS c FROM users`),
		Books:       r.gw.SafeCount(ctx, `SELECT COUNT(*) AS c FROM books`),
		ActiveLoans: r.countActiveLoans(ctx, activeLoansOf),
	}
}

// countActiveLoans counts ACTIVE loans, optionally for a single user.
func (r *StatsRepository) countActiveLoans(ctx context.Context, userID *int64) int64 {
	q := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(goqu.COUNT(goqu.Star()).As("c")).
		Where(goqu.C("status").Eq(string(entity.LoanActive)))
	if userID != nil {
		q = q.Where(goqu.C("user_id").Eq(*userID))
	}
	stmt, args, err := q.Prepared(true).ToSQL()
	if err != nil {
		if r.gw.logger != nil {
			r.gw.logger.WithError(err).Debug("build active loans count")
		}
		return 0
	}
	return r.gw.SafeCount(ctx, stmt, args...)
}

var _ repository.StatsRepository = (*StatsRepository)(nil)
