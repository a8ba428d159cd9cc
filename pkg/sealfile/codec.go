package sealfile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// NonceSize is the AES-GCM nonce length at the start of the payload.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length at the end of the payload.
	TagSize = 16
)

// Container is a complete sealed file: Magic, Salt, then the AEAD payload.
type Container []byte

// Plaintext is an unencrypted payload.
type Plaintext []byte

// Codec seals and opens containers.
// A Codec is not modified after construction, so it may be shared between goroutines.
type Codec struct {
	deriver KeyDeriver
	random  io.Reader
}

type CodecOpt = func(*Codec) error

// WithKeyDeriver replaces the default PBKDF2Deriver.
func WithKeyDeriver(deriver KeyDeriver) CodecOpt {
	return func(c *Codec) error {
		if deriver == nil {
			return fmt.Errorf("nil key deriver")
		}
		c.deriver = deriver
		return nil
	}
}

// WithRandom replaces crypto/rand as the source of salts and nonces.
// Only use this option for testing; the source must be cryptographically secure.
func WithRandom(r io.Reader) CodecOpt {
	return func(c *Codec) error {
		if r == nil {
			return fmt.Errorf("nil random source")
		}
		c.random = r
		return nil
	}
}

// NewCodec creates a Codec that uses a default PBKDF2Deriver and crypto/rand unless changed by a CodecOpt.
func NewCodec(opts ...CodecOpt) (*Codec, error) {
	c := &Codec{
		random: rand.Reader,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.deriver == nil {
		deriver, err := NewPBKDF2Deriver()
		if err != nil {
			return nil, err
		}
		c.deriver = deriver
	}
	return c, nil
}

// Encrypt seals data with a key derived from pass and a fresh random salt.
func (c *Codec) Encrypt(data Plaintext, pass Passphrase) (Container, error) {
	salt := make(Salt, SaltSize)
	if _, err := io.ReadFull(c.random, salt); err != nil {
		return nil, fmt.Errorf("%w: failed to generate salt: %v", ErrCryptoBackend, err)
	}
	header, err := newHeader(salt)
	if err != nil {
		return nil, err
	}
	headerBytes, err := header.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode header: %v", ErrCryptoBackend, err)
	}

	key, err := c.deriveKey(pass, salt)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("%w: failed to generate nonce: %v", ErrCryptoBackend, err)
	}

	out := make(Container, 0, HeaderSize+NonceSize+len(data)+TagSize)
	out = append(out, headerBytes...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, headerBytes), nil
}

// Decrypt verifies and opens a container sealed by Encrypt.
// A container with a bad header fails with ErrMalformedContainer before any key is derived.
// Every other failure to open the payload is reported as ErrAuthenticationFailed.
func (c *Codec) Decrypt(data Container, pass Passphrase) (Plaintext, error) {
	var header Header
	if err := header.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	key, err := c.deriveKey(pass, header.SaltBytes())
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	payload := data[HeaderSize:]
	if len(payload) < NonceSize+TagSize {
		return nil, ErrAuthenticationFailed
	}
	nonce, sealed := payload[:NonceSize], payload[NonceSize:]
	plain, err := gcm.Open(nil, nonce, sealed, data[:HeaderSize])
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	if plain == nil {
		plain = Plaintext{}
	}
	return plain, nil
}

func (c *Codec) deriveKey(pass Passphrase, salt Salt) (Key, error) {
	key, err := c.deriver.DeriveKey(pass, salt)
	if errors.Is(err, ErrCryptoBackend) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: key derivation failed: %v", ErrCryptoBackend, err)
	}
	if len(key) != KeySize {
		ZeroBytes(key)
		return nil, fmt.Errorf("%w: derived key must be %d bytes, got %d", ErrCryptoBackend, KeySize, len(key))
	}
	return key, nil
}

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoBackend, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoBackend, err)
	}
	return gcm, nil
}

// Encrypt seals data using a default Codec.
func Encrypt(data Plaintext, pass Passphrase) (Container, error) {
	c, err := NewCodec()
	if err != nil {
		return nil, err
	}
	return c.Encrypt(data, pass)
}

// Decrypt opens a container using a default Codec.
func Decrypt(data Container, pass Passphrase) (Plaintext, error) {
	c, err := NewCodec()
	if err != nil {
		return nil, err
	}
	return c.Decrypt(data, pass)
}
