package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

const refreshArtifactSize = 32

// NewRefreshArtifact returns a fresh opaque refresh artifact: 32 bytes of
// CSPRNG output, base64url without padding. The artifact carries no embedded
// claims; ownership is established only by fingerprint lookup in the store.
func NewRefreshArtifact() (string, error) {
	var raw [refreshArtifactSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ValidateRefreshArtifact rejects values that cannot be an artifact this
// package produced. Callers use it to short-circuit store lookups for
// garbage input without leaking which check failed.
func ValidateRefreshArtifact(artifact string) error {
	raw, err := base64.RawURLEncoding.DecodeString(artifact)
	if err != nil {
		return err
	}
	if len(raw) != refreshArtifactSize {
		return errors.New("invalid artifact size")
	}
	return nil
}

// Fingerprint hashes a token or artifact for storage. The store holds only
// fingerprints, never the replayable value itself; deleting the fingerprint
// is what makes revocation effective.
func Fingerprint(value string) [32]byte {
	return sha256.Sum256([]byte(value))
}

// FingerprintEqual compares two fingerprints in constant time.
func FingerprintEqual(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
