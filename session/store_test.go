package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, "ac", 16), mr
}

func fp(value string) [32]byte {
	return sha256.Sum256([]byte(value))
}

func TestEnabled(t *testing.T) {
	store, _ := newTestStore(t)
	if !store.Enabled() {
		t.Fatal("expected store with client to be enabled")
	}

	disabled := NewStore(nil, "ac", 16)
	if disabled.Enabled() {
		t.Fatal("expected store without client to be disabled")
	}

	var nilStore *Store
	if nilStore.Enabled() {
		t.Fatal("expected nil store to be disabled")
	}
}

func TestSaveAndGetAccess(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	access, refresh := fp("access-1"), fp("refresh-1")
	if err := store.Save(ctx, "u1", access, refresh, time.Minute, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.GetAccess(ctx, "u1")
	if err != nil {
		t.Fatalf("GetAccess failed: %v", err)
	}
	if got != access {
		t.Fatal("stored access fingerprint does not match")
	}
}

func TestGetAccessMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.GetAccess(context.Background(), "nobody")
	if !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
}

func TestGetAccessCorruptRecord(t *testing.T) {
	store, mr := newTestStore(t)

	if err := mr.Set("ac:access:u1", "short"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := store.GetAccess(context.Background(), "u1")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable for corrupt record, got %v", err)
	}
}

func TestSaveOverwritesPriorSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "u1", fp("access-1"), fp("refresh-1"), time.Minute, time.Hour); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(ctx, "u1", fp("access-2"), fp("refresh-2"), time.Minute, time.Hour); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.GetAccess(ctx, "u1")
	if err != nil {
		t.Fatalf("GetAccess failed: %v", err)
	}
	if got != fp("access-2") {
		t.Fatal("expected second session to win")
	}

	if _, err := store.FindIdentityByRefresh(ctx, fp("refresh-1")); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected first refresh fingerprint gone, got %v", err)
	}
}

func TestAccessRecordExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "u1", fp("access-1"), fp("refresh-1"), time.Minute, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.GetAccess(ctx, "u1"); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected access record expired, got %v", err)
	}

	// The refresh record has its own, longer TTL.
	identity, err := store.FindIdentityByRefresh(ctx, fp("refresh-1"))
	if err != nil {
		t.Fatalf("FindIdentityByRefresh failed: %v", err)
	}
	if identity != "u1" {
		t.Fatalf("expected identity u1, got %s", identity)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := store.FindIdentityByRefresh(ctx, fp("refresh-1")); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected refresh record expired, got %v", err)
	}
}

func TestFindIdentityByRefresh(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// More identities than one SCAN batch, to exercise cursor iteration.
	for i := 0; i < 40; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		if err := store.Save(ctx, id, fp("access-"+id), fp("refresh-"+id), time.Minute, time.Hour); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}

	identity, err := store.FindIdentityByRefresh(ctx, fp("refresh-c1"))
	if err != nil {
		t.Fatalf("FindIdentityByRefresh failed: %v", err)
	}
	if identity != "c1" {
		t.Fatalf("expected identity c1, got %s", identity)
	}

	if _, err := store.FindIdentityByRefresh(ctx, fp("never-issued")); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil for unknown fingerprint, got %v", err)
	}
}

func TestRotate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "u1", fp("access-1"), fp("refresh-1"), time.Minute, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	err := store.Rotate(ctx, "u1", fp("refresh-1"), fp("refresh-2"), fp("access-2"), time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	got, err := store.GetAccess(ctx, "u1")
	if err != nil {
		t.Fatalf("GetAccess after rotate failed: %v", err)
	}
	if got != fp("access-2") {
		t.Fatal("expected rotated access fingerprint")
	}

	// The consumed fingerprint no longer rotates.
	err = store.Rotate(ctx, "u1", fp("refresh-1"), fp("refresh-3"), fp("access-3"), time.Hour, time.Minute)
	if !errors.Is(err, ErrRefreshMismatch) {
		t.Fatalf("expected ErrRefreshMismatch on replay, got %v", err)
	}

	// The current one still does.
	err = store.Rotate(ctx, "u1", fp("refresh-2"), fp("refresh-3"), fp("access-3"), time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("second rotate failed: %v", err)
	}
}

func TestRotateMissingSession(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Rotate(context.Background(), "nobody", fp("refresh-1"), fp("refresh-2"), fp("access-2"), time.Hour, time.Minute)
	if !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil for absent session, got %v", err)
	}
}

func TestRotateRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "u1", fp("access-1"), fp("refresh-1"), time.Minute, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(50 * time.Minute)

	if err := store.Rotate(ctx, "u1", fp("refresh-1"), fp("refresh-2"), fp("access-2"), time.Hour, time.Minute); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	// 50 minutes into the original hour plus another 50: only a reset TTL
	// keeps the record alive.
	mr.FastForward(50 * time.Minute)

	identity, err := store.FindIdentityByRefresh(ctx, fp("refresh-2"))
	if err != nil {
		t.Fatalf("expected rotated record alive, got %v", err)
	}
	if identity != "u1" {
		t.Fatalf("expected identity u1, got %s", identity)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "u1", fp("access-1"), fp("refresh-1"), time.Minute, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Delete(ctx, "u1"); err != nil {
			t.Fatalf("Delete %d failed: %v", i, err)
		}
	}

	if _, err := store.GetAccess(ctx, "u1"); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected record gone, got %v", err)
	}
	if _, err := store.FindIdentityByRefresh(ctx, fp("refresh-1")); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected refresh record gone, got %v", err)
	}
}

func TestStoreFaultsWrapErrRedisUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "u1", fp("access-1"), fp("refresh-1"), time.Minute, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.Close()

	if err := store.Save(ctx, "u1", fp("access-1"), fp("refresh-1"), time.Minute, time.Hour); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Save: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.GetAccess(ctx, "u1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("GetAccess: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.FindIdentityByRefresh(ctx, fp("refresh-1")); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("FindIdentityByRefresh: expected ErrRedisUnavailable, got %v", err)
	}
	if err := store.Rotate(ctx, "u1", fp("refresh-1"), fp("refresh-2"), fp("access-2"), time.Hour, time.Minute); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Rotate: expected ErrRedisUnavailable, got %v", err)
	}
	if err := store.Delete(ctx, "u1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Delete: expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Ping: expected ErrRedisUnavailable, got %v", err)
	}
}

func TestPing(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
