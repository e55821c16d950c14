package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestValidate(t *testing.T) {
	svc := NewJWTService(testSecret)

	token := signToken(t, testSecret, &Claims{
		Identity: "user1",
		Name:     "User One",
		Metadata: map[string]any{"role": "host"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Identity != "user1" || claims.Name != "User One" {
		t.Errorf("claims = %+v", claims)
	}
	if got := claims.ResolvedRole(); got != "host" {
		t.Errorf("ResolvedRole() = %q, want metadata role", got)
	}
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService(testSecret)

	expired := signToken(t, testSecret, &Claims{
		Identity: "user1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	if _, err := svc.Validate(expired); err == nil {
		t.Error("expired token accepted")
	}

	wrongKey := signToken(t, "other-secret", &Claims{Identity: "user1"})
	if _, err := svc.Validate(wrongKey); err == nil {
		t.Error("token signed with another secret accepted")
	}

	if _, err := svc.Validate("not-a-token"); err == nil {
		t.Error("garbage token accepted")
	}

	empty := NewJWTService("")
	valid := signToken(t, testSecret, &Claims{Identity: "user1"})
	if _, err := empty.Validate(valid); err == nil {
		t.Error("service with empty secret accepted a token")
	}
}

func TestResolvedRole(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   string
	}{
		{"metadata role wins", Claims{Role: "viewer", Metadata: map[string]any{"role": "co-host"}}, "co-host"},
		{"flat role fallback", Claims{Role: "host"}, "host"},
		{"empty metadata role falls back", Claims{Role: "host", Metadata: map[string]any{"role": ""}}, "host"},
		{"non-string metadata role falls back", Claims{Role: "host", Metadata: map[string]any{"role": 7}}, "host"},
		{"nothing", Claims{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.ResolvedRole(); got != tt.want {
				t.Errorf("ResolvedRole() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsPrivileged(t *testing.T) {
	for role, want := range map[string]bool{
		"host": true, "co-host": true, "viewer": false, "": false,
	} {
		if got := IsPrivileged(role); got != want {
			t.Errorf("IsPrivileged(%q) = %v, want %v", role, got, want)
		}
	}
}
