package entity

import "time"

type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanReturned LoanStatus = "RETURNED"
)

const (
	DefaultLoanDays = 14
	DefaultPenalty  = "1Q por dia"
)

// Loan links one copy of a book to one user. Status only ever moves from
// ACTIVE to RETURNED, and ReturnedAt is set exactly when it does.
type Loan struct {
	ID           int64
	BookID       int64
	UserID       int64
	LoanedAt     time.Time
	ReturnedAt   *time.Time
	Status       LoanStatus
	DurationDays *int
	Penalty      *string
}

// IsReturned reports whether the loan reached its terminal state.
func (l *Loan) IsReturned() bool {
	return l.Status == LoanReturned
}

// DueAt is LoanedAt plus the loan duration, or nil when no duration was recorded.
func (l *Loan) DueAt() *time.Time {
	if l.DurationDays == nil {
		return nil
	}
	due := l.LoanedAt.AddDate(0, 0, *l.DurationDays)
	return &due
}

// LoanView is a loan joined with the display fields of its book and user.
type LoanView struct {
	Loan
	BookTitle string
	UserName  string
	UserEmail string
}
