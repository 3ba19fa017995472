package repository

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

// UserRepository defines the interface for account persistence.
// Update never touches the password hash.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListAll(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}
