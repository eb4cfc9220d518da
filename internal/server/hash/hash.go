// Package hash derives and verifies salted password digests using argon2id.
package hash

import (
	"crypto/subtle"

	"github.com/avoronov/secretwall/internal/common"
	"golang.org/x/crypto/argon2"
)

// argon2id parameters: 1 pass, 64 MiB, 4 lanes, 32-byte key.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLen       = 32
	saltLen      = 16
)

// Hash derives a one-way digest of plaintext with a fresh random salt.
// The digest is never reversible; both values are safe to persist.
func Hash(plaintext string) (digest, salt []byte) {
	salt = common.GenerateRandByteArray(saltLen)
	digest = derive(plaintext, salt)
	return digest, salt
}

// Verify recomputes the digest of plaintext with the stored salt and compares
// it against the stored digest in constant time. Malformed or missing stored
// material yields false, never an error, and the comparison path is the same
// regardless of where a mismatch occurs.
func Verify(plaintext string, digest, salt []byte) bool {
	if len(digest) != keyLen || len(salt) == 0 {
		// Still burn a derivation so a corrupt record is not
		// distinguishable by timing.
		_ = derive(plaintext, make([]byte, saltLen))
		return false
	}
	candidate := derive(plaintext, salt)
	return subtle.ConstantTimeCompare(digest, candidate) == 1
}

func derive(plaintext string, salt []byte) []byte {
	return argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonThreads, keyLen)
}
