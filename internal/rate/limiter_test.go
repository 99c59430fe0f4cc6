package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, cfg), mr
}

func loginConfig() Config {
	return Config{
		MaxLoginAttempts:        3,
		LoginCooldownDuration:   time.Minute,
		EnableRefreshThrottle:   true,
		MaxRefreshAttempts:      3,
		RefreshCooldownDuration: time.Minute,
	}
}

func TestLoginBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, loginConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.CheckLogin(ctx, "alice", ""); err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
		if err := limiter.IncrementLogin(ctx, "alice", ""); err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
	}

	if err := limiter.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after budget burned, got %v", err)
	}

	// Another identifier has its own counter.
	if err := limiter.CheckLogin(ctx, "bob", ""); err != nil {
		t.Fatalf("unrelated identifier throttled: %v", err)
	}
}

func TestLoginCooldownExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, loginConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = limiter.IncrementLogin(ctx, "alice", "")
	}
	if err := limiter.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.CheckLogin(ctx, "alice", ""); err != nil {
		t.Fatalf("expected budget restored after cooldown, got %v", err)
	}
}

func TestResetLoginClearsCounters(t *testing.T) {
	cfg := loginConfig()
	cfg.EnableIPThrottle = true
	limiter, _ := newTestLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = limiter.IncrementLogin(ctx, "alice", "198.51.100.9")
	}
	if err := limiter.CheckLogin(ctx, "alice", "198.51.100.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	if err := limiter.ResetLogin(ctx, "alice", "198.51.100.9"); err != nil {
		t.Fatalf("ResetLogin failed: %v", err)
	}
	if err := limiter.CheckLogin(ctx, "alice", "198.51.100.9"); err != nil {
		t.Fatalf("expected clean budget after reset, got %v", err)
	}
}

func TestIPThrottleCountsAcrossIdentifiers(t *testing.T) {
	cfg := loginConfig()
	cfg.EnableIPThrottle = true
	limiter, _ := newTestLimiter(t, cfg)
	ctx := context.Background()

	// Same IP attacking different identifiers still burns one IP budget.
	for _, identifier := range []string{"alice", "bob", "carol"} {
		if err := limiter.IncrementLogin(ctx, identifier, "198.51.100.9"); err != nil {
			t.Fatalf("increment for %s failed: %v", identifier, err)
		}
	}

	if err := limiter.CheckLogin(ctx, "dave", "198.51.100.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP budget exhausted, got %v", err)
	}
	if err := limiter.CheckLogin(ctx, "dave", "203.0.113.5"); err != nil {
		t.Fatalf("different IP should be clean, got %v", err)
	}
}

func TestCheckRefreshBudget(t *testing.T) {
	limiter, mr := newTestLimiter(t, loginConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.CheckRefresh(ctx, "fingerprint-hex"); err != nil {
			t.Fatalf("refresh %d throttled early: %v", i, err)
		}
	}
	if err := limiter.CheckRefresh(ctx, "fingerprint-hex"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := limiter.CheckRefresh(ctx, "fingerprint-hex"); err != nil {
		t.Fatalf("expected budget restored after cooldown, got %v", err)
	}
}

func TestCheckRefreshDisabled(t *testing.T) {
	cfg := loginConfig()
	cfg.EnableRefreshThrottle = false
	limiter, _ := newTestLimiter(t, cfg)

	for i := 0; i < 10; i++ {
		if err := limiter.CheckRefresh(context.Background(), "fingerprint-hex"); err != nil {
			t.Fatalf("disabled throttle must never limit, got %v", err)
		}
	}
}

func TestLimiterRedisFault(t *testing.T) {
	limiter, mr := newTestLimiter(t, loginConfig())
	ctx := context.Background()
	mr.Close()

	if err := limiter.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("CheckLogin: expected ErrRedisUnavailable, got %v", err)
	}
	if err := limiter.IncrementLogin(ctx, "alice", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("IncrementLogin: expected ErrRedisUnavailable, got %v", err)
	}
	if err := limiter.CheckRefresh(ctx, "fp"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("CheckRefresh: expected ErrRedisUnavailable, got %v", err)
	}
}
