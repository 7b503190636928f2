package service

import (
	"errors"
	"testing"
	"time"

	"neon-nexus/internal/domain"
)

func testUser() domain.User {
	return domain.User{
		ID:          "u1",
		Email:       "sam@example.com",
		DisplayName: "Sam",
		AvatarURL:   "https://example.com/a.png",
	}
}

func TestJWTServiceGenerateAndParse(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "sam@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.AvatarURL != "https://example.com/a.png" {
		t.Fatalf("expected avatar claim, got %q", claims.AvatarURL)
	}
}

func TestJWTServiceRefreshRotates(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	next, err := svc.RefreshPair(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh pair: %v", err)
	}
	if next.AccessToken == "" {
		t.Fatalf("expected new access token")
	}

	// Un refresh consumido queda revocado.
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on reuse, got %v", err)
	}
}

func TestJWTServiceAccessTokenIsNotRefresh(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if _, err := svc.RefreshPair(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTServiceWrongSecret(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, time.Hour)
	other := NewJWTService("otro", 15*time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if _, err := other.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTServiceExpiredAccessToken(t *testing.T) {
	svc := NewJWTService("secret", time.Nanosecond, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTServiceRevokeRefresh(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if err := svc.RevokeRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid after revoke, got %v", err)
	}
}
