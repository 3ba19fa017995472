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

const userColumns = `id, name, email, password_hash, role, created_at`

type userRow struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toEntity() entity.User {
	return entity.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         entity.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

type UserRepository struct {
	gw *Gateway
}

func NewUserRepository(gw *Gateway) *UserRepository {
	return &UserRepository{gw: gw}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.gw.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES (@name, @email, @hash, @role)
		RETURNING id, created_at
	`, pgx.NamedArgs{
		"name":  u.Name,
		"email": strings.ToLower(u.Email),
		"hash":  u.PasswordHash,
		"role":  string(u.Role),
	})
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return r.gw.fail("users.create", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	row, err := selectOne[userRow](ctx, r.gw, "users.get",
		`SELECT `+userColumns+` FROM users WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound("user", id)
	}
	u := row.toEntity()
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row, err := selectOne[userRow](ctx, r.gw, "users.get_by_email",
		`SELECT `+userColumns+` FROM users WHERE email = @email`,
		pgx.NamedArgs{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound("user", email)
	}
	u := row.toEntity()
	return &u, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]entity.User, error) {
	rows, err := selectAll[userRow](ctx, r.gw, "users.list",
		`SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	out := make([]entity.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// Update rewrites name, email and role. The password hash is left as stored.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	row := r.gw.db.QueryRow(ctx, `
		UPDATE users
		SET name = @name, email = @email, role = @role
		WHERE id = @id
		RETURNING created_at
	`, pgx.NamedArgs{
		"id":    u.ID,
		"name":  u.Name,
		"email": strings.ToLower(u.Email),
		"role":  string(u.Role),
	})
	if err := row.Scan(&u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("user", u.ID)
		}
		return r.gw.fail("users.update", err)
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
