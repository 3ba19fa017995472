package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/event"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

const publishTimeout = 3 * time.Second

// LoanService runs the loan workflow. Create and Return each execute in a
// single transaction, so inventory and loan rows always change together.
type LoanService struct {
	UoW    repository.UnitOfWork
	Loans  repository.LoanRepository
	Events EventPublisher
	Logger *logrus.Logger

	DefaultDays       int
	DefaultPenalty    string
	LowStockThreshold int
}

func NewLoanService(uow repository.UnitOfWork, loans repository.LoanRepository, events EventPublisher, logger *logrus.Logger) *LoanService {
	return &LoanService{
		UoW:               uow,
		Loans:             loans,
		Events:            events,
		Logger:            logger,
		DefaultDays:       entity.DefaultLoanDays,
		DefaultPenalty:    entity.DefaultPenalty,
		LowStockThreshold: 1,
	}
}

type CreateLoanInput struct {
	BookID       int64
	UserID       int64
	DurationDays int
	Penalty      string
}

// ReturnResult reports the loan after Return. AlreadyReturned is set when the
// call changed nothing because the loan was already closed.
type ReturnResult struct {
	Loan            *entity.Loan
	AlreadyReturned bool
}

// Create lends one copy of a book. Principals without librarian rights can
// only borrow for themselves under the default penalty; their UserID replaces
// the requested one.
func (s *LoanService) Create(ctx context.Context, p Principal, in CreateLoanInput) (*entity.Loan, error) {
	if !p.Role.IsLibrarian() {
		in.UserID = p.UserID
		in.Penalty = ""
	}
	if in.BookID <= 0 {
		return nil, apperror.Invalid("book_id", "must be a positive integer")
	}
	if in.UserID <= 0 {
		return nil, apperror.Invalid("user_id", "must be a positive integer")
	}

	days := in.DurationDays
	if days <= 0 {
		days = s.defaultDays()
	}
	penalty := strings.TrimSpace(in.Penalty)
	if penalty == "" {
		penalty = s.defaultPenalty()
	}

	var (
		loan entity.Loan
		book entity.Book
		user entity.User
	)
	err := s.UoW.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		b, err := repos.Books.GetByID(ctx, in.BookID)
		if errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("book %d: %w", in.BookID, apperror.ErrUnavailable)
		}
		if err != nil {
			return err
		}
		if !b.IsAvailable() {
			return fmt.Errorf("book %d: %w", in.BookID, apperror.ErrUnavailable)
		}

		u, err := repos.Users.GetByID(ctx, in.UserID)
		if err != nil {
			return err
		}

		loan = entity.Loan{
			BookID:       b.ID,
			UserID:       u.ID,
			Status:       entity.LoanActive,
			DurationDays: &days,
			Penalty:      &penalty,
		}
		if err := repos.Loans.Insert(ctx, &loan); err != nil {
			return err
		}

		ok, err := repos.Books.DecrementAvailable(ctx, b.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("book %d: %w", in.BookID, apperror.ErrUnavailable)
		}
		b.AvailableCopies--

		book, user = *b, *u
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrUnavailable) {
			loansRejected.Add(1)
		}
		return nil, err
	}

	loansCreated.Add(1)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"loan_id": loan.ID, "book_id": book.ID, "user_id": user.ID, "available": book.AvailableCopies,
		}).Info("loan created")
	}

	s.publish(ctx, loanEvent(event.LoanCreated, &loan, &book, &user))
	if book.AvailableCopies <= s.LowStockThreshold {
		s.publish(ctx, bookEvent(event.BookLowStock, &book))
	}
	return &loan, nil
}

// Return closes an ACTIVE loan and puts the copy back on the shelf. Only
// librarians process returns. Returning a loan twice is a successful no-op.
func (s *LoanService) Return(ctx context.Context, p Principal, loanID int64) (ReturnResult, error) {
	if !p.Role.IsLibrarian() {
		return ReturnResult{}, apperror.ErrForbidden
	}
	if loanID <= 0 {
		return ReturnResult{}, apperror.Invalid("loan_id", "must be a positive integer")
	}

	var (
		res  ReturnResult
		book *entity.Book
		user *entity.User
	)
	err := s.UoW.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		l, err := repos.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		res.Loan = l
		if l.IsReturned() {
			res.AlreadyReturned = true
			return nil
		}

		ok, err := repos.Loans.MarkReturned(ctx, l.ID)
		if err != nil {
			return err
		}
		if !ok {
			// closed concurrently between the read and the update
			res.AlreadyReturned = true
			return nil
		}
		if err := repos.Books.IncrementAvailable(ctx, l.BookID); err != nil {
			return err
		}

		now := time.Now().UTC()
		l.Status = entity.LoanReturned
		l.ReturnedAt = &now

		if book, err = repos.Books.GetByID(ctx, l.BookID); err != nil {
			return err
		}
		user, err = repos.Users.GetByID(ctx, l.UserID)
		return err
	})
	if err != nil {
		return ReturnResult{}, err
	}
	if res.AlreadyReturned {
		return res, nil
	}

	loansReturned.Add(1)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"loan_id": loanID, "book_id": book.ID}).Info("loan returned")
	}
	s.publish(ctx, loanEvent(event.LoanReturned, res.Loan, book, user))
	return res, nil
}

// List returns loans newest first. Principals without librarian rights only
// ever see their own loans.
func (s *LoanService) List(ctx context.Context, p Principal, activeOnly bool) ([]entity.LoanView, error) {
	return s.Loans.List(ctx, repository.LoanFilter{UserID: p.scope(), ActiveOnly: activeOnly})
}

func (s *LoanService) defaultDays() int {
	if s.DefaultDays > 0 {
		return s.DefaultDays
	}
	return entity.DefaultLoanDays
}

func (s *LoanService) defaultPenalty() string {
	if s.DefaultPenalty != "" {
		return s.DefaultPenalty
	}
	return entity.DefaultPenalty
}

// publish is best-effort: the loan is committed whether or not the queue
// accepts the event.
func (s *LoanService) publish(ctx context.Context, evt event.Event) {
	if s.Events == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.Events.PublishJSON(c, evt); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("event", evt.Type).Warn("publish event failed")
	}
}

func loanEvent(t event.Type, l *entity.Loan, b *entity.Book, u *entity.User) event.Event {
	evt := bookEvent(t, b)
	evt.LoanID = l.ID
	evt.UserID = u.ID
	evt.UserName = u.Name
	evt.UserEmail = u.Email
	evt.DueAt = l.DueAt()
	if l.Penalty != nil {
		evt.Penalty = *l.Penalty
	}
	return evt
}

func bookEvent(t event.Type, b *entity.Book) event.Event {
	return event.Event{
		Type:            t,
		OccurredAt:      time.Now().UTC(),
		BookID:          b.ID,
		BookTitle:       b.Title,
		BookAuthor:      b.Author,
		AvailableCopies: b.AvailableCopies,
		TotalCopies:     b.TotalCopies,
	}
}
