// Package auth implements accounts and access control: password hashing,
// signed access tokens, the role and policy model used by the HTTP guard,
// and the account service behind registration and login.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/iliyamo/movie-catalog/internal/apperr"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// TokenTypeBearer is reported alongside every issued token.
const TokenTypeBearer = "bearer"

// UserStore persists accounts.
type UserStore interface {
	// Create assigns u.ID and returns ErrEmailExists on a taken email.
	Create(ctx context.Context, u *model.User) error
	// GetByEmail returns ErrUserNotFound when email is unknown.
	GetByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// Credentials is the payload of register and login requests.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service registers and authenticates accounts.
type Service struct {
	users    UserStore
	hasher   *Hasher
	tokens   *TokenService
	validate *validator.Validate
}

func NewService(users UserStore, hasher *Hasher, tokens *TokenService) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens, validate: apperr.NewValidator()}
}

// Register creates an account. An empty role selects RoleUser.
func (s *Service) Register(ctx context.Context, in Credentials) (model.User, error) {
	role, ok := ParseRole(in.Role)
	if !ok {
		return model.User{}, apperr.Validation("role must be %q or %q", RoleUser, RoleAdmin)
	}
	return s.create(ctx, in, role)
}

// CreateAdmin creates an account with RoleAdmin regardless of in.Role.
func (s *Service) CreateAdmin(ctx context.Context, in Credentials) (model.User, error) {
	return s.create(ctx, in, RoleAdmin)
}

func (s *Service) create(ctx context.Context, in Credentials, role Role) (model.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return model.User{}, apperr.FromValidation(err)
	}
	if len(in.Password) > MaxPasswordBytes {
		return model.User{}, apperr.Validation("password must be at most %d bytes", MaxPasswordBytes)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, oops.Wrapf(err, "hash password")
	}
	u := model.User{Email: in.Email, PasswordHash: hash, Role: role.String()}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return model.User{}, apperr.Conflict("a user with this email already exists")
		}
		return model.User{}, oops.With("email", in.Email).Wrapf(err, "create user")
	}
	return u, nil
}

// Login checks the password for email and issues an access token. Unknown
// emails and wrong passwords fail with the same Unauthorized error.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, errBadCredentials()
		}
		return LoginResult{}, oops.Wrapf(err, "load user")
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return LoginResult{}, errBadCredentials()
	}
	role, ok := ParseRole(u.Role)
	if !ok {
		return LoginResult{}, oops.With("email", u.Email, "role", u.Role).Errorf("stored user has unknown role")
	}
	tok, err := s.tokens.Issue(u.Email, role)
	if err != nil {
		return LoginResult{}, oops.Wrapf(err, "sign token")
	}
	return LoginResult{AccessToken: tok.Token, TokenType: TokenTypeBearer}, nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, oops.Wrapf(err, "list users")
	}
	return users, nil
}

func errBadCredentials() error {
	return apperr.Unauthorized("incorrect email or password")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
