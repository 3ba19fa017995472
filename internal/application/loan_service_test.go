package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/event"
)

var librarian = Principal{UserID: 1000, Role: entity.RoleLibrarian}

func newLoanFixture() (*LoanService, *memStore, *recordingPublisher) {
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewLoanService(store, memLoans{store}, pub, nil)
	return svc, store, pub
}

func TestLoanCreateAndReturnCycle(t *testing.T) {
	svc, store, _ := newLoanFixture()
	ctx := context.Background()
	book := store.addBook("Pedro Páramo", "Juan Rulfo", 1, 1)
	user := store.addUser("Ana", "ana@example.com", entity.RoleReader)

	loan, err := svc.Create(ctx, librarian, CreateLoanInput{BookID: book.ID, UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.LoanActive, loan.Status)
	assert.Equal(t, 0, store.book(book.ID).AvailableCopies)

	_, err = svc.Create(ctx, librarian, CreateLoanInput{BookID: book.ID, UserID: user.ID})
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
	assert.Equal(t, 1, store.loanCount(), "a rejected loan must not be stored")

	res, err := svc.Return(ctx, librarian, loan.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyReturned)
	assert.Equal(t, entity.LoanReturned, res.Loan.Status)
	assert.NotNil(t, res.Loan.ReturnedAt)
	assert.Equal(t, 1, store.book(book.ID).AvailableCopies)

	res, err = svc.Return(ctx, librarian, loan.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyReturned)
	assert.Equal(t, 1, store.book(book.ID).AvailableCopies)
}

func TestLoanCreateDefaults(t *testing.T) {
	svc, store, _ := newLoanFixture()
	book := store.addBook("Ficciones", "Borges", 2, 2)
	user := store.addUser("Ana", "ana@example.com", entity.RoleReader)

	for _, days := range []int{0, -3} {
		loan, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: user.ID, DurationDays: days})
		require.NoError(t, err)
		require.NotNil(t, loan.DurationDays)
		assert.Equal(t, entity.DefaultLoanDays, *loan.DurationDays)
		require.NotNil(t, loan.Penalty)
		assert.Equal(t, entity.DefaultPenalty, *loan.Penalty)
	}
}

func TestLoanCreateValidation(t *testing.T) {
	svc, store, _ := newLoanFixture()
	user := store.addUser("Ana", "ana@example.com", entity.RoleReader)
	book := store.addBook("Ficciones", "Borges", 1, 1)

	_, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: 0, UserID: user.ID})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: -1})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Zero(t, store.loanCount())
}

func TestLoanCreateMissingEntities(t *testing.T) {
	svc, store, _ := newLoanFixture()
	book := store.addBook("Ficciones", "Borges", 1, 1)
	user := store.addUser("Ana", "ana@example.com", entity.RoleReader)

	_, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: 9999, UserID: user.ID})
	assert.ErrorIs(t, err, apperror.ErrUnavailable)

	_, err = svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: 9999})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 1, store.book(book.ID).AvailableCopies)
}

func TestLoanCreateRollsBackWhenDecrementLoses(t *testing.T) {
	svc, store, _ := newLoanFixture()
	book := store.addBook("Ficciones", "Borges", 1, 1)
	user := store.addUser("Ana", "ana@example.com", entity.RoleReader)
	store.failDecrement = true

	_, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: user.ID})
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
	assert.Zero(t, store.loanCount())
	assert.Equal(t, 1, store.book(book.ID).AvailableCopies)
}

func TestLoanCreateConcurrentNeverOversells(t *testing.T) {
	svc, store, _ := newLoanFixture()
	book := store.addBook("Rayuela", "Cortázar", 2, 2)
	user := store.addUser("Ana", "ana@example.com", entity.RoleReader)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: user.ID}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, created)
	assert.Equal(t, 0, store.book(book.ID).AvailableCopies)
	assert.Equal(t, 2, store.loanCount())
}

func TestLoanCreateReaderBorrowsForThemselves(t *testing.T) {
	svc, store, _ := newLoanFixture()
	book := store.addBook("Ficciones", "Borges", 1, 1)
	reader := store.addUser("Ana", "ana@example.com", entity.RoleReader)
	other := store.addUser("Luis", "luis@example.com", entity.RoleReader)

	loan, err := svc.Create(context.Background(), Principal{UserID: reader.ID, Role: entity.RoleReader},
		CreateLoanInput{BookID: book.ID, UserID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, reader.ID, loan.UserID)
}

func TestLoanCreateReaderGetsDefaultPenalty(t *testing.T) {
	svc, store, _ := newLoanFixture()
	book := store.addBook("Ficciones", "Borges", 2, 2)
	reader := store.addUser("Ana", "ana@example.com", entity.RoleReader)

	loan, err := svc.Create(context.Background(), Principal{UserID: reader.ID, Role: entity.RoleReader},
		CreateLoanInput{BookID: book.ID, Penalty: "sin multa"})
	require.NoError(t, err)
	require.NotNil(t, loan.Penalty)
	assert.Equal(t, entity.DefaultPenalty, *loan.Penalty)

	loan, err = svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: reader.ID, Penalty: "2Q por dia"})
	require.NoError(t, err)
	require.NotNil(t, loan.Penalty)
	assert.Equal(t, "2Q por dia", *loan.Penalty)
}

func TestLoanReturnRequiresLibrarian(t *testing.T) {
	svc, store, _ := newLoanFixture()
	book := store.addBook("Ficciones", "Borges", 1, 1)
	reader := store.addUser("Ana", "ana@example.com", entity.RoleReader)
	loan, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: reader.ID})
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), Principal{UserID: reader.ID, Role: entity.RoleReader}, loan.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, 0, store.book(book.ID).AvailableCopies)

	res, err := svc.Return(context.Background(), Principal{UserID: 1, Role: entity.RoleAdmin}, loan.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyReturned)
}

func TestLoanReturnErrors(t *testing.T) {
	svc, _, _ := newLoanFixture()

	_, err := svc.Return(context.Background(), librarian, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Return(context.Background(), librarian, 42)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLoanListScopesReaders(t *testing.T) {
	svc, store, _ := newLoanFixture()
	book := store.addBook("Ficciones", "Borges", 5, 5)
	ana := store.addUser("Ana", "ana@example.com", entity.RoleReader)
	luis := store.addUser("Luis", "luis@example.com", entity.RoleReader)

	first, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: ana.ID})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: ana.ID})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: luis.ID})
	require.NoError(t, err)
	_, err = svc.Return(context.Background(), librarian, first.ID)
	require.NoError(t, err)

	all, err := svc.List(context.Background(), librarian, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[1].ID, "newest first")

	own, err := svc.List(context.Background(), Principal{UserID: ana.ID, Role: entity.RoleReader}, false)
	require.NoError(t, err)
	assert.Len(t, own, 2)
	for _, v := range own {
		assert.Equal(t, ana.ID, v.UserID)
		assert.Equal(t, "Ficciones", v.BookTitle)
	}

	active, err := svc.List(context.Background(), Principal{UserID: ana.ID, Role: entity.RoleReader}, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

}

func TestLoanEventsPublished(t *testing.T) {
	svc, store, pub := newLoanFixture()
	book := store.addBook("Ficciones", "Borges", 2, 2)
	user := store.addUser("Ana", "ana@example.com", entity.RoleReader)

	loan, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: user.ID, DurationDays: 7})
	require.NoError(t, err)

	events := pub.all()
	require.Len(t, events, 2)
	created := events[0].(event.Event)
	assert.Equal(t, event.LoanCreated, created.Type)
	assert.Equal(t, loan.ID, created.LoanID)
	assert.Equal(t, "ana@example.com", created.UserEmail)
	assert.Equal(t, 1, created.AvailableCopies)
	require.NotNil(t, created.DueAt)
	assert.Equal(t, loan.LoanedAt.AddDate(0, 0, 7), *created.DueAt)

	lowStock := events[1].(event.Event)
	assert.Equal(t, event.BookLowStock, lowStock.Type)
	assert.Equal(t, book.ID, lowStock.BookID)

	_, err = svc.Return(context.Background(), librarian, loan.ID)
	require.NoError(t, err)
	events = pub.all()
	require.Len(t, events, 3)
	assert.Equal(t, event.LoanReturned, events[2].(event.Event).Type)
}

func TestLoanPublishFailureDoesNotFailCreate(t *testing.T) {
	svc, store, pub := newLoanFixture()
	pub.err = errBoom
	book := store.addBook("Ficciones", "Borges", 3, 3)
	user := store.addUser("Ana", "ana@example.com", entity.RoleReader)

	_, err := svc.Create(context.Background(), librarian, CreateLoanInput{BookID: book.ID, UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, store.book(book.ID).AvailableCopies)
}
