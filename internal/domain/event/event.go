// Package event defines the messages published on the loan events queue.
package event

import "time"

type Type string

const (
	LoanCreated  Type = "loan.created"
	LoanReturned Type = "loan.returned"
	BookLowStock Type = "book.low_stock"
)

// Event is one queue message. Fields that do not apply to Type are left zero.
type Event struct {
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	LoanID    int64      `json:"loan_id,omitempty"`
	UserID    int64      `json:"user_id,omitempty"`
	UserName  string     `json:"user_name,omitempty"`
	UserEmail string     `json:"user_email,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Penalty   string     `json:"penalty,omitempty"`

	BookID          int64  `json:"book_id"`
	BookTitle       string `json:"book_title,omitempty"`
	BookAuthor      string `json:"book_author,omitempty"`
	AvailableCopies int    `json:"available_copies"`
	TotalCopies     int    `json:"total_copies"`
}
