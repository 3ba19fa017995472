package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
)

// SQLSTATE codes mapped onto the domain taxonomy.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Gateway executes parameterized statements against Postgres. Pass either
// positional arguments or a single pgx.NamedArgs for @name binds.
//
// A Gateway built by NewGateway runs every write in its own transaction; the
// Gateway handed to an InTx callback shares the caller's transaction.
type Gateway struct {
	db     dbtx
	logger *logrus.Logger
	inTx   bool
}

func NewGateway(pool *pgxpool.Pool, logger *logrus.Logger) *Gateway {
	return &Gateway{db: pool, logger: logger}
}

// QueryOne returns the first row as a map keyed by lower-cased column name,
// or nil when the statement produced no rows.
func (g *Gateway) QueryOne(ctx context.Context, stmt string, args ...any) (map[string]any, error) {
	rows, err := g.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, g.fail("query_one", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, g.fail("query_one", err)
		}
		return nil, nil
	}
	m, err := rowMap(rows)
	if err != nil {
		return nil, g.fail("query_one", err)
	}
	return m, nil
}

// QueryAll returns every row as a map keyed by lower-cased column name.
func (g *Gateway) QueryAll(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	rows, err := g.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, g.fail("query_all", err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	for rows.Next() {
		m, err := rowMap(rows)
		if err != nil {
			return nil, g.fail("query_all", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, g.fail("query_all", err)
	}
	return out, nil
}

// Execute runs a write statement and returns the number of affected rows.
// Outside a transaction the statement is committed on success and rolled back
// on failure.
func (g *Gateway) Execute(ctx context.Context, stmt string, args ...any) (int64, error) {
	if g.inTx {
		tag, err := g.db.Exec(ctx, stmt, args...)
		if err != nil {
			return 0, g.fail("execute", err)
		}
		return tag.RowsAffected(), nil
	}

	var affected int64
	err := pgx.BeginFunc(ctx, g.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, stmt, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, g.fail("execute", err)
	}
	return affected, nil
}

// SafeCount reads column "c" of the first row and degrades to 0 on any error.
// Use it only where "unknown" may be shown as "none".
func (g *Gateway) SafeCount(ctx context.Context, stmt string, args ...any) int64 {
	m, err := g.QueryOne(ctx, stmt, args...)
	if err != nil {
		if g.logger != nil {
			g.logger.WithError(err).WithField("stmt", compact(stmt)).Debug("safe count failed")
		}
		return 0
	}
	if m == nil {
		return 0
	}
	return toInt64(m["c"])
}

// InTx runs fn against a Gateway bound to a fresh transaction. fn's error is
// returned unchanged after rollback; begin/commit failures are wrapped.
func (g *Gateway) InTx(ctx context.Context, fn func(tx *Gateway) error) error {
	var fnErr error
	err := pgx.BeginFunc(ctx, g.db, func(tx pgx.Tx) error {
		fnErr = fn(&Gateway{db: tx, logger: g.logger, inTx: true})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return g.fail("transaction", err)
	}
	return nil
}

// fail logs the driver error and wraps it for the domain layer. Constraint
// violations additionally match apperror.ErrConflict or apperror.ErrValidation.
func (g *Gateway) fail(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &apperror.PersistenceError{Op: op, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeForeignKeyViolation:
			err = fmt.Errorf("%w: %s (%s)", apperror.ErrConflict, pgErr.ConstraintName, pgErr.Message)
		case codeCheckViolation:
			err = fmt.Errorf("%w: %w", apperror.Invalid(pgErr.ConstraintName, "violates check constraint"), pgErr)
		}
	}

	if g.logger != nil {
		g.logger.WithError(err).WithFields(logrus.Fields{"op": op, "in_tx": g.inTx}).Error("statement failed")
	}
	return &apperror.PersistenceError{Op: op, Err: err}
}

// selectAll scans every row into T using its `db` tags.
func selectAll[T any](ctx context.Context, g *Gateway, op, stmt string, args ...any) ([]T, error) {
	rows, err := g.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, g.fail(op, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, g.fail(op, err)
	}
	return out, nil
}

// selectOne scans the single row into T, returning nil when there is none.
func selectOne[T any](ctx context.Context, g *Gateway, op, stmt string, args ...any) (*T, error) {
	rows, err := g.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, g.fail(op, err)
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, g.fail(op, err)
	}
	return v, nil
}

func rowMap(rows pgx.Rows) (map[string]any, error) {
	vals, err := rows.Values()
	if err != nil {
		return nil, err
	}
	fds := rows.FieldDescriptions()
	m := make(map[string]any, len(fds))
	for i, fd := range fds {
		m[strings.ToLower(fd.Name)] = vals[i]
	}
	return m, nil
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int:
		return int64(x)
	case float64:
		return int64(x)
	}
	return 0
}

func compact(stmt string) string {
	return strings.Join(strings.Fields(stmt), " ")
}
