package sealfile

import (
	"crypto/sha256"
	"fmt"
	"golang.org/x/crypto/pbkdf2"
	"runtime"
)

const (
	// DefaultIterations is the PBKDF2 work factor used for every container.
	// It may be raised in a future format, but must never be lowered.
	DefaultIterations = 390_000
	// KeySize is the size of a derived AES-256 key.
	KeySize = 256 / 8
	// SaltSize is the size of the random salt stored in each container.
	SaltSize = 16
)

// Key is an AES key used to seal or open a container payload.
type Key []byte

// Salt is a slice of secure random bytes used with PBKDF2 to derive a Key from a Passphrase.
type Salt []byte

// Passphrase is a human-readable string, encoded as UTF-8, used to derive a Key.
type Passphrase []byte

// KeyDeriver turns a Passphrase and Salt into a Key.
// Implementations must be deterministic for the same inputs.
type KeyDeriver interface {
	DeriveKey(pass Passphrase, salt Salt) (Key, error)
}

var _ KeyDeriver = (*PBKDF2Deriver)(nil)

// PBKDF2Deriver derives keys with PBKDF2-HMAC-SHA256.
type PBKDF2Deriver struct {
	iterations int
}

type DeriverOpt = func(*PBKDF2Deriver) error

// SetIterations raises the iteration count above DefaultIterations.
// Containers must be opened with the same count they were sealed with.
func SetIterations(iterations int) DeriverOpt {
	return func(d *PBKDF2Deriver) error {
		if iterations < DefaultIterations {
			return fmt.Errorf("iterations cannot be lower than %d", DefaultIterations)
		}
		d.iterations = iterations
		return nil
	}
}

// NewPBKDF2Deriver creates a PBKDF2Deriver using DefaultIterations unless changed by a DeriverOpt.
func NewPBKDF2Deriver(opts ...DeriverOpt) (*PBKDF2Deriver, error) {
	d := &PBKDF2Deriver{
		iterations: DefaultIterations,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Iterations reports the configured work factor.
func (d *PBKDF2Deriver) Iterations() int {
	return d.iterations
}

// DeriveKey derives a KeySize key from the passphrase and salt.
// This doesn't ensure that the given passphrase is the *correct* passphrase for any container.
func (d *PBKDF2Deriver) DeriveKey(pass Passphrase, salt Salt) (Key, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrCryptoBackend, SaltSize, len(salt))
	}
	return pbkdf2.Key(pass, salt, d.iterations, KeySize, sha256.New), nil
}

// ZeroBytes overwrites b with zeros. Use it to clear passphrases and plaintext that are no longer needed.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
