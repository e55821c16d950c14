package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Privileged roles allowed to manage recordings (host-equivalent).
const (
	RoleHost   = "host"
	RoleCoHost = "co-host"
)

// IsPrivileged reports whether role may start/stop recordings and list the catalog.
func IsPrivileged(role string) bool {
	return role == RoleHost || role == RoleCoHost
}

// Claims holds the verified token payload. Tokens are issued by the auth
// collaborator; the role travels in a metadata object, with a flat role
// claim accepted as a fallback.
type Claims struct {
	Identity string         `json:"identity,omitempty"`
	Name     string         `json:"name,omitempty"`
	Role     string         `json:"role,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	jwt.RegisteredClaims
}

// ResolvedRole returns the role claim, preferring metadata.role.
func (c *Claims) ResolvedRole() string {
	if c.Metadata != nil {
		if r, ok := c.Metadata["role"].(string); ok && r != "" {
			return r
		}
	}
	return c.Role
}

// JWTService verifies bearer tokens. This service never issues tokens.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a verification-only JWT service.
func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

// Validate parses and validates a token, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
