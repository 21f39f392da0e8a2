package auth

import (
	"context"

	"github.com/redmonkez12/car-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID string) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserRepository is the credential store used by the auth service
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// RateLimiter reports whether another request for key is allowed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
