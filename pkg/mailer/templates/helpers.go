package templates

import (
	"time"
)

const dateLayout = "02 January 2006"

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithBook(title, author string) Option {
	return func(d *EmailData) {
		d.BookTitle = title
		d.BookAuthor = author
	}
}

func WithStock(available, total int) Option {
	return func(d *EmailData) {
		d.AvailableCopies = available
		d.TotalCopies = total
	}
}

// WithLoan sets the loan reference, its due date (if known) and the late fee.
func WithLoan(id int64, dueAt *time.Time, penalty string) Option {
	return func(d *EmailData) {
		d.LoanID = id
		d.Penalty = penalty
		if dueAt != nil {
			d.DueAt = dueAt.UTC()
			d.DueAtText = d.DueAt.Format(dateLayout)
		}
	}
}

// NewEmailData fills the common fields and applies opts.
func NewEmailData(appName, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:    name,
		Email:   email,
		Type:    typ,
		AppName: appName,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
