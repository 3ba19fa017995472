package main

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

const demoPassword = "password123"

type seedUser struct {
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
}

type seedBook struct {
	Title           string `db:"title"`
	Author          string `db:"author"`
	PublicationYear int    `db:"publication_year"`
	Genre           string `db:"genre"`
	ISBN            string `db:"isbn"`
	TotalCopies     int    `db:"total_copies"`
	AvailableCopies int    `db:"available_copies"`
}

var demoUsers = []seedUser{
	{Name: "Bibliotecaria Demo", Email: "librarian@example.com", Role: string(entity.RoleLibrarian)},
	{Name: "Lector Demo", Email: "reader@example.com", Role: string(entity.RoleReader)},
}

var demoBooks = []seedBook{
	{Title: "Cien años de soledad", Author: "Gabriel García Márquez", PublicationYear: 1967, Genre: "Novela", ISBN: "9780307474728", TotalCopies: 4, AvailableCopies: 4},
	{Title: "Rayuela", Author: "Julio Cortázar", PublicationYear: 1963, Genre: "Novela", ISBN: "9788437604572", TotalCopies: 2, AvailableCopies: 2},
	{Title: "Ficciones", Author: "Jorge Luis Borges", PublicationYear: 1944, Genre: "Cuento", ISBN: "9780802130303", TotalCopies: 3, AvailableCopies: 3},
	{Title: "Pedro Páramo", Author: "Juan Rulfo", PublicationYear: 1955, Genre: "Novela", ISBN: "9788437604183", TotalCopies: 1, AvailableCopies: 1},
	{Title: "El Señor Presidente", Author: "Miguel Ángel Asturias", PublicationYear: 1946, Genre: "Novela", ISBN: "9788420633121", TotalCopies: 2, AvailableCopies: 2},
}

const upsertUserSQL = `
	INSERT INTO users (name, email, password_hash, role)
	VALUES (:name, :email, :password_hash, :role)
	ON CONFLICT (email) DO UPDATE
	SET name = EXCLUDED.name, role = EXCLUDED.role, password_hash = EXCLUDED.password_hash`

// books have no natural unique key, so existing title/author pairs are skipped
const insertBookSQL = `
	INSERT INTO books (title, author, publication_year, genre, isbn, total_copies, available_copies)
	SELECT CAST(:title AS TEXT), CAST(:author AS TEXT), CAST(:publication_year AS INTEGER),
	       CAST(:genre AS TEXT), CAST(:isbn AS TEXT), CAST(:total_copies AS INTEGER), CAST(:available_copies AS INTEGER)
	WHERE NOT EXISTS (SELECT 1 FROM books WHERE title = CAST(:title AS TEXT) AND author = CAST(:author AS TEXT))`

func (a *app) seedCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo accounts and books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sqlx.Open("pgx", a.cfg.PostgresDSN())
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer func() { _ = db.Close() }()

			users, books, err := seed(cmd.Context(), db, password)
			if err != nil {
				return err
			}
			a.logger.WithField("users", users).WithField("books", books).Info("seed complete")
			cmd.Printf("demo accounts use password %q\n", password)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", demoPassword, "password for the demo accounts")
	return cmd
}

// seed runs in one transaction and reports how many rows it touched.
func seed(ctx context.Context, db *sqlx.DB, password string) (users, books int64, err error) {
	if len(password) < 8 {
		return 0, 0, fmt.Errorf("password must be at least 8 characters long")
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, u := range demoUsers {
		if u.PasswordHash, err = helpers.HashPassword(password); err != nil {
			return 0, 0, err
		}
		res, err := tx.NamedExecContext(ctx, upsertUserSQL, u)
		if err != nil {
			return 0, 0, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		n, _ := res.RowsAffected()
		users += n
	}
	for _, b := range demoBooks {
		res, err := tx.NamedExecContext(ctx, insertBookSQL, b)
		if err != nil {
			return 0, 0, fmt.Errorf("seed book %q: %w", b.Title, err)
		}
		n, _ := res.RowsAffected()
		books += n
	}
	err = tx.Commit()
	return users, books, err
}
