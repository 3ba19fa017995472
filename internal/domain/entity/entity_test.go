package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" librarian ")
	assert.True(t, ok)
	assert.Equal(t, RoleLibrarian, r)

	_, ok = ParseRole("BIBLIOTECARIO")
	assert.False(t, ok)
}

func TestRoleIsLibrarian(t *testing.T) {
	assert.True(t, RoleLibrarian.IsLibrarian())
	assert.True(t, RoleAdmin.IsLibrarian())
	assert.False(t, RoleReader.IsLibrarian())
	assert.False(t, Role("").IsLibrarian())
}

func TestBookNormalize(t *testing.T) {
	b := Book{TotalCopies: 0}
	b.Normalize()
	assert.Equal(t, 1, b.TotalCopies)
	assert.Equal(t, 0, b.AvailableCopies)

	b = Book{TotalCopies: 3, AvailableCopies: 7}
	b.Normalize()
	assert.Equal(t, 3, b.AvailableCopies)

	b = Book{TotalCopies: 3, AvailableCopies: -2}
	b.Normalize()
	assert.Equal(t, 0, b.AvailableCopies)

	b = Book{TotalCopies: 4}
	b.Normalize()
	assert.Equal(t, 0, b.AvailableCopies, "an explicit zero is kept")
}

func TestLoanDueAt(t *testing.T) {
	loaned := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l := Loan{LoanedAt: loaned}
	assert.Nil(t, l.DueAt())

	days := 14
	l.DurationDays = &days
	assert.Equal(t, loaned.AddDate(0, 0, 14), *l.DueAt())
}
