package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport fault returned by this
// package. Callers branch on it to enter degraded mode.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrRefreshMismatch is returned by Rotate when the session exists but the
// provided fingerprint is not the current one: the artifact was already
// rotated out, either by a racing refresh or by a replayed old value.
var ErrRefreshMismatch = errors.New("refresh fingerprint mismatch")

const fingerprintSize = 32

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 1
	rotateStatusRotated  int64 = 2
)

// rotateScript is the compare-and-swap at the heart of refresh rotation:
// compare the stored refresh fingerprint against the presented one, and only
// on a match install the next refresh and access fingerprints with fresh
// TTLs. Running it server-side keeps the read-compare-write in one atomic
// step, so two racing refreshes leave exactly one surviving session.
const rotateScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[4])
redis.call("SET", KEYS[2], ARGV[3], "PX", ARGV[5])
return 2
`

var rotateLua = redis.NewScript(rotateScript)

// Store is the Redis-backed session store. A nil Redis client is a valid
// configuration: the store then reports Enabled() == false and the engine
// runs in stateless-JWT-only mode from the start.
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	scanBatch int64
}

// NewStore creates a session [Store]. prefix namespaces all keys; scanBatch
// bounds the COUNT hint used by the refresh-lookup scan.
func NewStore(redisClient redis.UniversalClient, prefix string, scanBatch int64) *Store {
	if scanBatch <= 0 {
		scanBatch = 256
	}
	return &Store{
		redis:     redisClient,
		prefix:    prefix,
		scanBatch: scanBatch,
	}
}

// Enabled reports whether a Redis client was configured at all. It is the
// capability flag the engine branches on once per flow; transport faults at
// call time surface as [ErrRedisUnavailable] instead.
func (s *Store) Enabled() bool {
	return s != nil && s.redis != nil
}

func (s *Store) accessKey(identity string) string {
	return s.prefix + ":access:" + identity
}

func (s *Store) refreshKey(identity string) string {
	return s.prefix + ":refresh:" + identity
}

func (s *Store) refreshPattern() string {
	return s.prefix + ":refresh:*"
}

// Save persists both fingerprints for an identity, overwriting any prior
// session record. The overwrite is the rotation point that terminates a
// previous session for the same identity.
//
//	Performance: 2 Redis commands in one MULTI/EXEC round trip.
func (s *Store) Save(
	ctx context.Context,
	identity string,
	accessFingerprint, refreshFingerprint [fingerprintSize]byte,
	accessTTL, refreshTTL time.Duration,
) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accessKey(identity), accessFingerprint[:], accessTTL)
		pipe.Set(ctx, s.refreshKey(identity), refreshFingerprint[:], refreshTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// GetAccess retrieves the stored access-token fingerprint for an identity.
// Returns redis.Nil when no record exists (session revoked, superseded, or
// naturally expired).
//
//	Performance: 1 Redis GET.
func (s *Store) GetAccess(ctx context.Context, identity string) ([fingerprintSize]byte, error) {
	var fp [fingerprintSize]byte

	data, err := s.redis.Get(ctx, s.accessKey(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fp, err
		}
		return fp, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(data) != fingerprintSize {
		return fp, fmt.Errorf("%w: corrupt access record", ErrRedisUnavailable)
	}

	copy(fp[:], data)
	return fp, nil
}

// FindIdentityByRefresh scans the refresh namespace for a record whose
// stored fingerprint equals the presented one and returns the owning
// identity. Returns redis.Nil when no record matches.
//
// This is O(live sessions) and is the store's stated scalability ceiling.
// The production-grade replacement is a reverse index (fingerprint →
// identity) written transactionally alongside Save and Rotate, which turns
// this into a point lookup.
func (s *Store) FindIdentityByRefresh(ctx context.Context, fingerprint [fingerprintSize]byte) (string, error) {
	var cursor uint64
	keyPrefix := s.prefix + ":refresh:"

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.refreshPattern(), s.scanBatch).Result()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		if len(keys) > 0 {
			values, err := s.redis.MGet(ctx, keys...).Result()
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			for i, value := range values {
				stored, ok := value.(string)
				if !ok || len(stored) != fingerprintSize {
					continue // expired between SCAN and MGET, or corrupt
				}
				if subtle.ConstantTimeCompare([]byte(stored), fingerprint[:]) == 1 {
					return strings.TrimPrefix(keys[i], keyPrefix), nil
				}
			}
		}

		cursor = next
		if cursor == 0 {
			return "", redis.Nil
		}
	}
}

// Rotate atomically replaces both fingerprints for an identity, conditional
// on the presented refresh fingerprint still being current. On success the
// pre-rotation artifact is permanently invalid.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-swap).
func (s *Store) Rotate(
	ctx context.Context,
	identity string,
	providedFingerprint, nextRefreshFingerprint, nextAccessFingerprint [fingerprintSize]byte,
	refreshTTL, accessTTL time.Duration,
) error {
	result, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.refreshKey(identity), s.accessKey(identity)},
		providedFingerprint[:],
		nextRefreshFingerprint[:],
		nextAccessFingerprint[:],
		refreshTTL.Milliseconds(),
		accessTTL.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch result {
	case rotateStatusNotFound:
		return redis.Nil
	case rotateStatusMismatch:
		return ErrRefreshMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrRedisUnavailable, result)
	}
}

// Delete removes both records for an identity, making both artifacts
// immediately unusable regardless of their TTLs. Deleting an absent session
// is not an error.
//
//	Performance: 1 Redis DEL of two keys.
func (s *Store) Delete(ctx context.Context, identity string) error {
	err := s.redis.Del(ctx, s.accessKey(identity), s.refreshKey(identity)).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
