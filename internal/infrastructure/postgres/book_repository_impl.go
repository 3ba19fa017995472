package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

const bookColumns = `id, title, author, publication_year, genre, isbn, total_copies, available_copies, created_at`

type bookRow struct {
	ID              int64     `db:"id"`
	Title           string    `db:"title"`
	Author          string    `db:"author"`
	PublicationYear *int      `db:"publication_year"`
	Genre           *string   `db:"genre"`
	ISBN            *string   `db:"isbn"`
	TotalCopies     int       `db:"total_copies"`
	AvailableCopies int       `db:"available_copies"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r bookRow) toEntity() entity.Book {
	b := entity.Book{
		ID:              r.ID,
		Title:           r.Title,
		Author:          r.Author,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
		CreatedAt:       r.CreatedAt,
	}
	if r.PublicationYear != nil {
		b.PublicationYear = *r.PublicationYear
	}
	if r.Genre != nil {
		b.Genre = *r.Genre
	}
	if r.ISBN != nil {
		b.ISBN = *r.ISBN
	}
	return b
}

func booksFrom(rows []bookRow) []entity.Book {
	out := make([]entity.Book, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out
}

type BookRepository struct {
	gw *Gateway
}

func NewBookRepository(gw *Gateway) *BookRepository {
	return &BookRepository{gw: gw}
}

func (r *BookRepository) ListAll(ctx context.Context) ([]entity.Book, error) {
	rows, err := selectAll[bookRow](ctx, r.gw, "books.list",
		`SELECT `+bookColumns+` FROM books ORDER BY title`)
	if err != nil {
		return nil, err
	}
	return booksFrom(rows), nil
}

func (r *BookRepository) ListAvailable(ctx context.Context) ([]entity.Book, error) {
	rows, err := selectAll[bookRow](ctx, r.gw, "books.list_available",
		`SELECT `+bookColumns+` FROM books WHERE available_copies > 0 ORDER BY title`)
	if err != nil {
		return nil, err
	}
	return booksFrom(rows), nil
}

// Search matches term as a substring of title, author or genre, ignoring case
// and accents.
func (r *BookRepository) Search(ctx context.Context, term string) ([]entity.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListAll(ctx)
	}
	rows, err := selectAll[bookRow](ctx, r.gw, "books.search", `
		SELECT `+bookColumns+`
		FROM books
		WHERE unaccent(title) ILIKE unaccent(@pattern::text)
		   OR unaccent(author) ILIKE unaccent(@pattern::text)
		   OR unaccent(COALESCE(genre, '')) ILIKE unaccent(@pattern::text)
		ORDER BY title
	`, pgx.NamedArgs{"pattern": "%" + escapeLike(term) + "%"})
	if err != nil {
		return nil, err
	}
	return booksFrom(rows), nil
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*entity.Book, error) {
	row, err := selectOne[bookRow](ctx, r.gw, "books.get",
		`SELECT `+bookColumns+` FROM books WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound("book", id)
	}
	b := row.toEntity()
	return &b, nil
}

func (r *BookRepository) ListByIDs(ctx context.Context, ids []int64) ([]entity.Book, error) {
	if len(ids) == 0 {
		return []entity.Book{}, nil
	}
	rows, err := selectAll[bookRow](ctx, r.gw, "books.list_by_ids",
		`SELECT `+bookColumns+` FROM books WHERE id = ANY(@ids)`, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, err
	}
	return booksFrom(rows), nil
}

func (r *BookRepository) GetLowStock(ctx context.Context, threshold int) ([]entity.Book, error) {
	rows, err := selectAll[bookRow](ctx, r.gw, "books.low_stock", `
		SELECT `+bookColumns+`
		FROM books
		WHERE available_copies <= @threshold
		ORDER BY available_copies ASC, title
	`, pgx.NamedArgs{"threshold": threshold})
	if err != nil {
		return nil, err
	}
	return booksFrom(rows), nil
}

func (r *BookRepository) Create(ctx context.Context, b *entity.Book) error {
	row := r.gw.db.QueryRow(ctx, `
		INSERT INTO books (title, author, publication_year, genre, isbn, total_copies, available_copies)
		VALUES (@title, @author, @year, @genre, @isbn, @total, LEAST(@available::int, @total::int))
		RETURNING id, available_copies, created_at
	`, bookArgs(b))
	if err := row.Scan(&b.ID, &b.AvailableCopies, &b.CreatedAt); err != nil {
		return r.gw.fail("books.create", err)
	}
	return nil
}

// Update rewrites the editable fields. The stored available count never
// exceeds the stored total.
func (r *BookRepository) Update(ctx context.Context, b *entity.Book) error {
	args := bookArgs(b)
	args["id"] = b.ID
	row := r.gw.db.QueryRow(ctx, `
		UPDATE books
		SET title = @title,
		    author = @author,
		    publication_year = @year,
		    genre = @genre,
		    isbn = @isbn,
		    total_copies = @total,
		    available_copies = LEAST(@available::int, @total::int)
		WHERE id = @id
		RETURNING available_copies, created_at
	`, args)
	if err := row.Scan(&b.AvailableCopies, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("book", b.ID)
		}
		return r.gw.fail("books.update", err)
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.gw.Execute(ctx, `DELETE FROM books WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("book", id)
	}
	return nil
}

func (r *BookRepository) DecrementAvailable(ctx context.Context, id int64) (bool, error) {
	n, err := r.gw.Execute(ctx, `
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE id = @id AND available_copies > 0
	`, pgx.NamedArgs{"id": id})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *BookRepository) IncrementAvailable(ctx context.Context, id int64) error {
	n, err := r.gw.Execute(ctx, `
		UPDATE books
		SET available_copies = LEAST(available_copies + 1, total_copies)
		WHERE id = @id
	`, pgx.NamedArgs{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("book", id)
	}
	return nil
}

func bookArgs(b *entity.Book) pgx.NamedArgs {
	return pgx.NamedArgs{
		"title":     b.Title,
		"author":    b.Author,
		"year":      nullInt(b.PublicationYear),
		"genre":     nullString(b.Genre),
		"isbn":      nullString(b.ISBN),
		"total":     b.TotalCopies,
		"available": b.AvailableCopies,
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(i int) *int {
	if i == 0 {
		return nil
	}
	return &i
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ repository.BookRepository = (*BookRepository)(nil)
