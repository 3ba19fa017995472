package handlers

import (
	"time"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

type bookDTO struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	PublicationYear int       `json:"publication_year,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	ISBN            string    `json:"isbn,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
}

func toBookDTO(b *entity.Book) bookDTO {
	return bookDTO{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		PublicationYear: b.PublicationYear,
		Genre:           b.Genre,
		ISBN:            b.ISBN,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
	}
}

func toBookDTOs(books []entity.Book) []bookDTO {
	out := make([]bookDTO, 0, len(books))
	for i := range books {
		out = append(out, toBookDTO(&books[i]))
	}
	return out
}

type userDTO struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func toUserDTO(u *entity.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func toUserDTOs(users []entity.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	return out
}

type loanDTO struct {
	ID           int64             `json:"id"`
	BookID       int64             `json:"book_id"`
	UserID       int64             `json:"user_id"`
	BookTitle    string            `json:"book_title,omitempty"`
	UserName     string            `json:"user_name,omitempty"`
	UserEmail    string            `json:"user_email,omitempty"`
	Status       entity.LoanStatus `json:"status"`
	LoanedAt     time.Time         `json:"loaned_at"`
	ReturnedAt   *time.Time        `json:"returned_at,omitempty"`
	DurationDays *int              `json:"duration_days,omitempty"`
	Penalty      *string           `json:"penalty,omitempty"`
	DueAt        *time.Time        `json:"due_at,omitempty"`
}

func toLoanDTO(l *entity.Loan) loanDTO {
	return loanDTO{
		ID:           l.ID,
		BookID:       l.BookID,
		UserID:       l.UserID,
		Status:       l.Status,
		LoanedAt:     l.LoanedAt,
		ReturnedAt:   l.ReturnedAt,
		DurationDays: l.DurationDays,
		Penalty:      l.Penalty,
		DueAt:        l.DueAt(),
	}
}

func toLoanViewDTOs(views []entity.LoanView) []loanDTO {
	out := make([]loanDTO, 0, len(views))
	for i := range views {
		d := toLoanDTO(&views[i].Loan)
		d.BookTitle = views[i].BookTitle
		d.UserName = views[i].UserName
		d.UserEmail = views[i].UserEmail
		out = append(out, d)
	}
	return out
}
