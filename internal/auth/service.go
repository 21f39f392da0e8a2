package auth

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/redmonkez12/car-api/internal/password"
	"github.com/redmonkez12/car-api/internal/user"
)

var (
	ErrUserNotFound       = errors.New("user doesn't exist")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
)

type signupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signinInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Service handles authentication business logic
type Service struct {
	users    UserRepository
	tokens   TokenService
	validate *validator.Validate
}

func NewService(users UserRepository, tokens TokenService) *Service {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})

	return &Service{
		users:    users,
		tokens:   tokens,
		validate: validate,
	}
}

// Signup creates a new account. The password is hashed before it reaches the store.
func (s *Service) Signup(ctx context.Context, name, email, pass string) (*user.User, error) {
	in := signupInput{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: pass}
	if err := s.check(in); err != nil {
		return nil, err
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.New(in.Name, in.Email, hash)
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// Signin checks the credentials and returns a signed token for the user
func (s *Service) Signin(ctx context.Context, email, pass string) (string, error) {
	if err := s.check(signinInput{Email: strings.TrimSpace(email), Password: pass}); err != nil {
		return "", err
	}

	existing, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !password.Verify(existing.PasswordHash, pass) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existing.ID)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

// GetUser returns the account for id. The password hash never leaves through JSON.
func (s *Service) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

// check runs struct validation and folds the failures into one ErrValidation
func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email address")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, ", "))
}
