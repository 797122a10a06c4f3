// Package adminauth issues and verifies the HS256 bearer tokens that guard
// the admin API.
package adminauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

const (
	DefaultTTL = 12 * time.Hour
	issuer     = "storefront"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

type Authority struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Authority {
	return &Authority{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for the admin identified by email.
func (a *Authority) Issue(email string, role Role, ttl time.Duration) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := a.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authority) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

// FromRequest verifies the bearer token in r's Authorization header.
func (a *Authority) FromRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	return a.Verify(strings.TrimSpace(token))
}
