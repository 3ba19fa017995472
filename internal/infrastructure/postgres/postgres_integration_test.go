//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
	"github.com/oksasatya/go-library-management/internal/infrastructure/postgres"
)

const migrationsDir = "../../../db/migrations"

type fixture struct {
	pool  *pgxpool.Pool
	gw    *postgres.Gateway
	caps  postgres.Capabilities
	books *postgres.BookRepository
	users *postgres.UserRepository
	loans *postgres.LoanRepository
	stats *postgres.StatsRepository
	uow   *postgres.UnitOfWork
}

func setupDB(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:alpine",
		tcpostgres.WithDatabase("library"),
		tcpostgres.WithUsername("library"),
		tcpostgres.WithPassword("library"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, postgres.MigrateUp(dsn, migrationsDir, logger))

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	gw := postgres.NewGateway(pool, logger)
	caps, err := postgres.DetectCapabilities(ctx, gw)
	require.NoError(t, err)

	return &fixture{
		pool:  pool,
		gw:    gw,
		caps:  caps,
		books: postgres.NewBookRepository(gw),
		users: postgres.NewUserRepository(gw),
		loans: postgres.NewLoanRepository(gw, caps),
		stats: postgres.NewStatsRepository(gw),
		uow:   postgres.NewUnitOfWork(gw, caps),
	}
}

func (f *fixture) book(t *testing.T, title, author string, total, available int) *entity.Book {
	t.Helper()
	b := &entity.Book{Title: title, Author: author, TotalCopies: total, AvailableCopies: available}
	require.NoError(t, f.books.Create(context.Background(), b))
	return b
}

func (f *fixture) user(t *testing.T, email string) *entity.User {
	t.Helper()
	u := &entity.User{Name: "Ana", Email: email, PasswordHash: "x:y", Role: entity.RoleReader}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestPostgres(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()

	t.Run("capabilities detect loan terms", func(t *testing.T) {
		assert.True(t, f.caps.LoanTerms)
	})

	t.Run("search ignores case and accents", func(t *testing.T) {
		f.book(t, "Cien años de soledad", "Gabriel García Márquez", 3, 3)
		f.book(t, "Rayuela", "Julio Cortázar", 1, 1)

		got, err := f.books.Search(ctx, "márquez")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Cien años de soledad", got[0].Title)

		got, err = f.books.Search(ctx, "CORTAZAR")
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("create clamps available to total", func(t *testing.T) {
		b := f.book(t, "Clamp", "A", 2, 9)
		assert.Equal(t, 2, b.AvailableCopies)
	})

	t.Run("missing book is not found", func(t *testing.T) {
		_, err := f.books.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		f.user(t, "dup@example.com")
		err := f.users.Create(ctx, &entity.User{Name: "B", Email: "DUP@example.com", PasswordHash: "x:y", Role: entity.RoleReader})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("decrement only while copies remain", func(t *testing.T) {
		b := f.book(t, "Single", "A", 1, 1)

		ok, err := f.books.DecrementAvailable(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = f.books.DecrementAvailable(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, f.books.IncrementAvailable(ctx, b.ID))
		require.NoError(t, f.books.IncrementAvailable(ctx, b.ID))
		got, err := f.books.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AvailableCopies)
	})

	t.Run("concurrent decrements never oversell", func(t *testing.T) {
		b := f.book(t, "Contended", "A", 1, 1)

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := f.books.DecrementAvailable(ctx, b.ID)
				if err == nil && ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("loan lifecycle", func(t *testing.T) {
		b := f.book(t, "Loanable", "A", 2, 2)
		u := f.user(t, "reader@example.com")
		days := 7
		penalty := entity.DefaultPenalty

		l := &entity.Loan{BookID: b.ID, UserID: u.ID, DurationDays: &days, Penalty: &penalty}
		require.NoError(t, f.loans.Insert(ctx, l))
		assert.NotZero(t, l.ID)
		assert.Equal(t, entity.LoanActive, l.Status)

		got, err := f.loans.GetByID(ctx, l.ID)
		require.NoError(t, err)
		require.NotNil(t, got.DurationDays)
		assert.Equal(t, 7, *got.DurationDays)

		views, err := f.loans.List(ctx, repository.LoanFilter{UserID: &u.ID, ActiveOnly: true})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "Loanable", views[0].BookTitle)
		assert.Equal(t, "reader@example.com", views[0].UserEmail)

		ok, err := f.loans.MarkReturned(ctx, l.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = f.loans.MarkReturned(ctx, l.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err = f.loans.GetByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.LoanReturned, got.Status)
		assert.NotNil(t, got.ReturnedAt)
	})

	t.Run("book with loans cannot be deleted", func(t *testing.T) {
		b := f.book(t, "Referenced", "A", 1, 1)
		u := f.user(t, "ref@example.com")
		require.NoError(t, f.loans.Insert(ctx, &entity.Loan{BookID: b.ID, UserID: u.ID}))

		err := f.books.Delete(ctx, b.ID)
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("unit of work rolls back on error", func(t *testing.T) {
		b := f.book(t, "Rollback", "A", 1, 1)
		boom := errors.New("boom")

		err := f.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
			ok, err := repos.Books.DecrementAvailable(ctx, b.ID)
			require.NoError(t, err)
			require.True(t, ok)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := f.books.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AvailableCopies)
	})

	t.Run("low stock ordered by availability then title", func(t *testing.T) {
		got, err := f.books.GetLowStock(ctx, 2)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		for i, b := range got {
			assert.LessOrEqual(t, b.AvailableCopies, 2)
			if i == 0 {
				continue
			}
			prev := got[i-1]
			assert.LessOrEqual(t, prev.AvailableCopies, b.AvailableCopies)
			if prev.AvailableCopies == b.AvailableCopies {
				assert.LessOrEqual(t, prev.Title, b.Title)
			}
		}
	})

	t.Run("list by ids skips missing rows", func(t *testing.T) {
		a := f.book(t, "Por ids A", "A", 1, 1)
		b := f.book(t, "Por ids B", "B", 1, 1)
		got, err := f.books.ListByIDs(ctx, []int64{b.ID, 999999, a.ID})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("gateway rows are keyed by lower-cased column", func(t *testing.T) {
		rows, err := f.gw.QueryAll(ctx, `SELECT id AS "ID", title AS "Title" FROM books ORDER BY id LIMIT 2`)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Contains(t, rows[0], "id")
		assert.Contains(t, rows[0], "title")
		assert.NotContains(t, rows[0], "Title")

		none, err := f.gw.QueryAll(ctx, `SELECT id FROM books WHERE id < 0`)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		_, err = f.gw.QueryAll(ctx, `SELECT * FROM no_such_table`)
		assert.True(t, apperror.IsPersistence(err))
	})

	t.Run("safe count degrades to zero", func(t *testing.T) {
		assert.Positive(t, f.gw.SafeCount(ctx, `SELECT COUNT(*) AS c FROM books`))
		assert.Zero(t, f.gw.SafeCount(ctx, `SELECT COUNT(*) AS c FROM no_such_table`))
		assert.Zero(t, f.gw.SafeCount(ctx, `SELECT 1 AS c WHERE false`))
	})

	t.Run("concurrent loan creates lend the last copy once", func(t *testing.T) {
		b := f.book(t, "Ultima copia", "A", 1, 1)
		u := f.user(t, "race@example.com")
		svc := application.NewLoanService(f.uow, f.loans, nil, nil)
		librarian := application.Principal{UserID: u.ID, Role: entity.RoleLibrarian}

		const callers = 8
		var wg sync.WaitGroup
		errs := make(chan error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Create(ctx, librarian, application.CreateLoanInput{BookID: b.ID, UserID: u.ID})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		created := 0
		for err := range errs {
			if err == nil {
				created++
				continue
			}
			assert.ErrorIs(t, err, apperror.ErrUnavailable)
		}
		assert.Equal(t, 1, created)

		var rows int
		require.NoError(t, f.pool.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE book_id = $1`, b.ID).Scan(&rows))
		assert.Equal(t, 1, rows)

		got, err := f.books.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.AvailableCopies)
	})

	t.Run("stats snapshot", func(t *testing.T) {
		s := f.stats.Snapshot(ctx, nil)
		assert.Positive(t, s.Users)
		assert.Positive(t, s.Books)
		assert.Positive(t, s.ActiveLoans)

		none := int64(999999)
		assert.Zero(t, f.stats.Snapshot(ctx, &none).ActiveLoans)
	})
}

func TestLowStockScenario(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()

	empty := f.book(t, "Pedro Páramo", "Rulfo", 2, 0)
	f.book(t, "Rayuela", "Cortázar", 3, 3)
	two := f.book(t, "Aura", "Fuentes", 2, 2)

	got, err := f.books.GetLowStock(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, empty.ID, got[0].ID)
	assert.Equal(t, two.ID, got[1].ID)
}

func TestCapabilitiesWithoutLoanTerms(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()

	_, err := f.pool.Exec(ctx, `ALTER TABLE loans DROP COLUMN penalty`)
	require.NoError(t, err)

	caps, err := postgres.DetectCapabilities(ctx, f.gw)
	require.NoError(t, err)
	assert.False(t, caps.LoanTerms)

	loans := postgres.NewLoanRepository(f.gw, caps)
	b := f.book(t, "Legacy", "A", 1, 1)
	u := f.user(t, "legacy@example.com")
	days := 3
	l := &entity.Loan{BookID: b.ID, UserID: u.ID, DurationDays: &days}
	require.NoError(t, loans.Insert(ctx, l))
	assert.Nil(t, l.DurationDays)

	got, err := loans.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DurationDays)
	assert.Nil(t, got.Penalty)
}
