package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/movie-catalog/internal/apperr"
)

// DefaultTokenTTL is the lifetime of tokens issued without an explicit ttl.
const DefaultTokenTTL = 30 * time.Minute

// Claims is the claim bundle carried by an access token. The subject is the
// account email.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Identity is the verified caller behind a token.
type Identity struct {
	Email string
	Role  Role
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with secret. A ttl of zero
// or less selects DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime used by Issue.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for email with the configured ttl.
func (s *TokenService) Issue(email string, role Role) (AccessToken, error) {
	return s.IssueWithTTL(email, role, s.ttl)
}

// IssueWithTTL signs a token that expires ttl from now. A ttl of zero
// yields a token that is already expired.
func (s *TokenService) IssueWithTTL(email string, role Role, ttl time.Duration) (AccessToken, error) {
	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks the signature, algorithm and expiry of raw and returns the
// identity it carries. Every failure is an Unauthorized error.
func (s *TokenService) Verify(raw string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperr.Unauthorized("token expired")
		}
		return Identity{}, apperr.Unauthorized("invalid token")
	}
	if !claims.ExpiresAt.After(s.now()) {
		return Identity{}, apperr.Unauthorized("token expired")
	}
	if claims.Subject == "" {
		return Identity{}, apperr.Unauthorized("invalid token: missing subject")
	}
	role := Role(claims.Role)
	if !role.Valid() {
		return Identity{}, apperr.Unauthorized("invalid token: unknown role")
	}
	return Identity{Email: claims.Subject, Role: role}, nil
}
