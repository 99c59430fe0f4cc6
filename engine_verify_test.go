package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestVerifyRejectsGarbage(t *testing.T) {
	up := newMockUserProvider()
	engine, _ := newLoginEngine(t, engineTestConfig(), up)
	ctx := context.Background()

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := engine.Verify(ctx, token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	up := newMockUserProvider()
	seedUser(t, up, "u1", "alice", "alice@example.com", "correct-password-123")

	engine, _ := newLoginEngine(t, engineTestConfig(), up)
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(result.AccessToken, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", result.AccessToken)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := engine.Verify(ctx, tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered token, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	up := newMockUserProvider()
	seedUser(t, up, "u1", "alice", "alice@example.com", "correct-password-123")

	cfg := engineTestConfig()
	cfg.JWT.AccessTTL = 30 * time.Millisecond
	cfg.JWT.Leeway = 0
	engine, _ := newLoginEngine(t, cfg, up)
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := engine.Verify(ctx, result.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyAfterLogout(t *testing.T) {
	up := newMockUserProvider()
	seedUser(t, up, "u1", "alice", "alice@example.com", "correct-password-123")

	engine, _ := newLoginEngine(t, engineTestConfig(), up)
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := engine.Logout(ctx, result.AccessToken, ""); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// The token is still within its signed lifetime; revocation wins.
	if _, err := engine.Verify(ctx, result.AccessToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after logout, got %v", err)
	}
}

func TestVerifyAfterSessionExpiry(t *testing.T) {
	up := newMockUserProvider()
	seedUser(t, up, "u1", "alice", "alice@example.com", "correct-password-123")

	engine, mr := newLoginEngine(t, engineTestConfig(), up)
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// The record's TTL tracks AccessTTL; past it only the signature
	// remains, and signature alone is not enough with a reachable store.
	mr.FastForward(engineTestConfig().JWT.AccessTTL + time.Minute)

	_, err = engine.Verify(ctx, result.AccessToken)
	if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected session or token expiry, got %v", err)
	}
}

func TestVerifyDegradedOnStoreFault(t *testing.T) {
	up := newMockUserProvider()
	seedUser(t, up, "u1", "alice", "alice@example.com", "correct-password-123")

	engine, mr := newLoginEngine(t, engineTestConfig(), up)
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	mr.Close()

	auth, err := engine.Verify(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("expected degraded acceptance, got %v", err)
	}
	if !auth.Degraded {
		t.Fatal("expected Degraded=true when the revocation check is skipped")
	}
	if auth.Identity != "u1" {
		t.Fatalf("expected identity u1, got %s", auth.Identity)
	}
}

func TestVerifyWithoutStoreSkipsRevocationCheck(t *testing.T) {
	up := newMockUserProvider()
	seedUser(t, up, "u1", "alice", "alice@example.com", "correct-password-123")

	engine, err := New().
		WithConfig(engineTestConfig()).
		WithRedis(nil).
		WithUserProvider(up).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	result, err := engine.Login(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	auth, err := engine.Verify(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !auth.Degraded {
		t.Fatal("expected Degraded=true in stateless mode")
	}
}
