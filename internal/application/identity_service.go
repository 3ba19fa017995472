package application

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

// IdentityService authenticates accounts, manages their redis sessions and
// administers the user list.
type IdentityService struct {
	Users  repository.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewIdentityService(users repository.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *IdentityService {
	return &IdentityService{Users: users, JWT: jwt, Redis: rdb, Logger: logger}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Authenticate validates email/password and returns the user without issuing
// tokens. Unknown emails and wrong passwords are indistinguishable.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, apperror.ErrInvalidCredentials
	}
	return u, nil
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *IdentityService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.sign(u, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    strconv.FormatInt(u.ID, 10),
			"email":      u.Email,
			"name":       u.Name,
			"role":       string(u.Role),
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.JWT.RefreshTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			if s.Logger != nil {
				s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
			}
			return TokenPair{}, rErr
		}
	}
	return pair, nil
}

// Refresh validates the refresh token against the live session, then rotates
// the session id and both tokens.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (TokenPair, *entity.User, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, nil, apperror.ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, nil, apperror.ErrInvalidCredentials
	}

	key := helpers.SessionKey(u.ID)
	if s.Redis != nil {
		sid, rErr := s.Redis.HGet(ctx, key, "sid").Result()
		if rErr != nil || sid != claims.SessionID {
			return TokenPair{}, nil, apperror.ErrInvalidCredentials
		}
	}

	sid := uuid.NewString()
	pair, err := s.sign(u, sid)
	if err != nil {
		return TokenPair{}, nil, err
	}
	if s.Redis != nil {
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"role":       string(u.Role),
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.JWT.RefreshTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			return TokenPair{}, nil, rErr
		}
	}
	return pair, u, nil
}

// Logout drops the session so outstanding tokens stop working.
func (s *IdentityService) Logout(ctx context.Context, userID int64) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, helpers.SessionKey(userID)).Err()
}

func (s *IdentityService) sign(u *entity.User, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, string(u.Role), sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, string(u.Role), sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *IdentityService) GetProfile(ctx context.Context, userID int64) (*entity.User, error) {
	return s.Users.GetByID(ctx, userID)
}

func (s *IdentityService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.Users.ListAll(ctx)
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// CreateUser registers an account. An empty role means READER.
func (s *IdentityService) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.Invalid("name", "is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.Invalid("email", "must be a valid email")
	}
	if len(in.Password) < 8 {
		return nil, apperror.Invalid("password", "must be at least 8 characters long")
	}
	role := entity.RoleReader
	if strings.TrimSpace(in.Role) != "" {
		r, ok := entity.ParseRole(in.Role)
		if !ok {
			return nil, apperror.Invalid("role", "must be one of: LIBRARIAN, ADMIN, READER")
		}
		role = r
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type UpdateUserInput struct {
	Name  string
	Email string
	Role  string
}

// UpdateUser changes name, email and role. Blank fields keep their value.
// The password is never changed here.
func (s *IdentityService) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*entity.User, error) {
	if id <= 0 {
		return nil, apperror.Invalid("id", "must be a positive integer")
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		if !strings.Contains(email, "@") {
			return nil, apperror.Invalid("email", "must be a valid email")
		}
		u.Email = email
	}
	if strings.TrimSpace(in.Role) != "" {
		r, ok := entity.ParseRole(in.Role)
		if !ok {
			return nil, apperror.Invalid("role", "must be one of: LIBRARIAN, ADMIN, READER")
		}
		u.Role = r
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		if n, _ := s.Redis.Exists(ctx, key).Result(); n > 0 {
			s.Redis.HSet(ctx, key, map[string]any{
				"name":       u.Name,
				"email":      u.Email,
				"role":       string(u.Role),
				"updated_at": nowRFC3339(),
			})
		}
	}
	return u, nil
}
