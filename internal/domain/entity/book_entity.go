package entity

import "time"

// MinPublicationYear is the oldest publication year the catalog accepts.
const MinPublicationYear = 1900

// Book is a catalog entry. AvailableCopies counts the copies not on loan and
// always stays within [0, TotalCopies].
type Book struct {
	ID              int64
	Title           string
	Author          string
	PublicationYear int
	Genre           string
	ISBN            string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}

// IsAvailable reports whether at least one copy can be lent.
func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// Normalize keeps at least one copy and clamps the available count into
// [0, TotalCopies].
func (b *Book) Normalize() {
	if b.TotalCopies <= 0 {
		b.TotalCopies = 1
	}
	if b.AvailableCopies < 0 {
		b.AvailableCopies = 0
	}
	if b.AvailableCopies > b.TotalCopies {
		b.AvailableCopies = b.TotalCopies
	}
}
