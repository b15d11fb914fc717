// Package fingerprint derives the cache keys addresses are tracked
// under. Raw addresses never reach a store backend: every key is a
// salted BLAKE2b-256 digest, so a leaked verified-player dump cannot be
// mapped back to addresses without the salt.
package fingerprint

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

const (
	// KeySize is the length of a derived key in bytes. Keys are
	// rendered as hex, so stored strings are twice this long.
	KeySize = blake2b.Size256

	// SaltSize is the required salt length in bytes.
	SaltSize = 16
)

// ErrSaltSize is returned for salts that are not SaltSize bytes.
var ErrSaltSize = errors.New("fingerprint: salt must be 16 bytes")

// Keyer derives store keys with a fixed salt. A Keyer is immutable and
// safe for concurrent use. Deployments sharing a store must share the
// salt, otherwise their verified sets are disjoint.
type Keyer struct {
	salt []byte
}

// NewKeyer builds a Keyer around the given salt.
func NewKeyer(salt []byte) (*Keyer, error) {
	if len(salt) != SaltSize {
		return nil, ErrSaltSize
	}
	owned := make([]byte, SaltSize)
	copy(owned, salt)
	if _, err := blake2b.New256(owned); err != nil {
		return nil, err
	}
	return &Keyer{salt: owned}, nil
}

// RandomSalt draws a fresh salt. Deployments that do not configure one
// get ephemeral keys: caches survive a process restart only with a
// configured salt.
func RandomSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Address derives the key an address is tracked under, in both the
// verified and the blacklist store.
func (k *Keyer) Address(addr string) string {
	return k.digest([]byte(addr))
}

func (k *Keyer) digest(data []byte) string {
	// Key length was validated in NewKeyer; New256 cannot fail here.
	h, _ := blake2b.New256(k.salt)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
