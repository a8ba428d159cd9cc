package sealfile

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

// countingDeriver is a low cost KeyDeriver that records how often it's called.
type countingDeriver struct {
	calls int
}

func (d *countingDeriver) DeriveKey(pass Passphrase, salt Salt) (Key, error) {
	d.calls++
	return pbkdf2.Key(pass, salt, 1, KeySize, sha256.New), nil
}

type failingDeriver struct{}

func (failingDeriver) DeriveKey(Passphrase, Salt) (Key, error) {
	return nil, errors.New("backend unavailable")
}

type shortKeyDeriver struct{}

func (shortKeyDeriver) DeriveKey(Passphrase, Salt) (Key, error) {
	return make(Key, KeySize/2), nil
}

func fastCodec(t *testing.T) (*Codec, *countingDeriver) {
	t.Helper()
	d := new(countingDeriver)
	c, err := NewCodec(WithKeyDeriver(d))
	require.NoError(t, err)
	return c, d
}

func TestEncryptDecrypt(t *testing.T) {
	const (
		password = "correct-horse"
		data     = "hello"
	)

	sealed, err := Encrypt(Plaintext(data), Passphrase(password))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x53, 0x43, 0x31}, []byte(sealed[:MagicSize]))
	assert.Len(t, sealed, HeaderSize+NonceSize+len(data)+TagSize)

	plain, err := Decrypt(sealed, Passphrase(password))
	require.NoError(t, err)
	assert.Equal(t, data, string(plain))

	_, err = Decrypt(sealed, Passphrase("wrong-password"))
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, UserFacingAuthMessage, UserMessage(err))
}

func TestCodec_RoundTrip(t *testing.T) {
	c, _ := fastCodec(t)
	binary := make([]byte, 4096)
	_, err := rand.Read(binary)
	require.NoError(t, err)

	tests := map[string]struct {
		data Plaintext
		pass Passphrase
	}{
		"Empty plaintext": {
			data: Plaintext{},
			pass: Passphrase("password"),
		},
		"Nil plaintext": {
			data: nil,
			pass: Passphrase("password"),
		},
		"Empty passphrase": {
			data: Plaintext("How wonderful life is while you're in the world"),
			pass: nil,
		},
		"Unicode passphrase": {
			data: Plaintext("A secret message"),
			pass: Passphrase("pässwörd 🔑 パスワード"),
		},
		"Binary content": {
			data: binary,
			pass: Passphrase("s3cre+"),
		},
		"Looks like a container": {
			data: Plaintext("SC1SC1SC1SC1SC1SC1SC1SC1"),
			pass: Passphrase("password"),
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			sealed, err := c.Encrypt(tc.data, tc.pass)
			require.NoError(t, err)
			assert.NotEqual(t, []byte(tc.data), []byte(sealed))

			plain, err := c.Decrypt(sealed, tc.pass)
			require.NoError(t, err)
			require.NotNil(t, plain)
			assert.Equal(t, len(tc.data), len(plain))
			assert.True(t, bytes.Equal(tc.data, plain))
		})
	}
}

func TestCodec_WrongPassphrase(t *testing.T) {
	c, _ := fastCodec(t)
	sealed, err := c.Encrypt(Plaintext("A secret message"), Passphrase("passphrase"))
	require.NoError(t, err)

	for _, pass := range []string{"Passphrase", "passphrase ", "", "developer"} {
		_, err := c.Decrypt(sealed, Passphrase(pass))
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "Passphrase %q should not open the container", pass)
	}
}

func TestCodec_TamperedBits(t *testing.T) {
	c, _ := fastCodec(t)
	orig, err := c.Encrypt(Plaintext("hello"), Passphrase("correct-horse"))
	require.NoError(t, err)

	for i := 0; i < len(orig)*8; i++ {
		tampered := bytes.Clone(orig)
		tampered[i/8] ^= 1 << (i % 8)
		plain, err := c.Decrypt(tampered, Passphrase("correct-horse"))
		require.Error(t, err, "Flipping bit %d should be detected", i)
		assert.Nil(t, plain)
		if i/8 < MagicSize {
			assert.ErrorIs(t, err, ErrMalformedContainer, "Bit %d is in the magic tag", i)
		} else {
			assert.ErrorIs(t, err, ErrAuthenticationFailed, "Bit %d is past the magic tag", i)
		}
	}
}

func TestCodec_Truncated(t *testing.T) {
	c, _ := fastCodec(t)
	orig, err := c.Encrypt(Plaintext("hello"), Passphrase("correct-horse"))
	require.NoError(t, err)

	for n := 0; n < len(orig); n++ {
		_, err := c.Decrypt(orig[:n], Passphrase("correct-horse"))
		if n < HeaderSize {
			assert.ErrorIs(t, err, ErrMalformedContainer, "Length %d is shorter than the header", n)
		} else {
			assert.ErrorIs(t, err, ErrAuthenticationFailed, "Length %d truncates the payload", n)
		}
	}
	appended := append(bytes.Clone(orig), 0)
	_, err = c.Decrypt(appended, Passphrase("correct-horse"))
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestCodec_UniqueSalts(t *testing.T) {
	c, _ := fastCodec(t)
	const trials = 64
	seen := map[string]bool{}
	salts := map[string]bool{}
	for i := 0; i < trials; i++ {
		sealed, err := c.Encrypt(Plaintext("same data"), Passphrase("same password"))
		require.NoError(t, err)
		seen[string(sealed)] = true
		salts[string(sealed[MagicSize:HeaderSize])] = true
	}
	assert.Len(t, seen, trials, "Every container should be distinct")
	assert.Len(t, salts, trials, "Every salt should be distinct")
}

func TestCodec_MalformedSkipsKDF(t *testing.T) {
	c, d := fastCodec(t)
	tests := map[string]Container{
		"Empty":          nil,
		"Short":          Container("SC1"),
		"Header minus 1": append(Container("SC1"), make([]byte, SaltSize-1)...),
		"Bad magic":      append(Container("XC1"), make([]byte, SaltSize+64)...),
		"PNG":            append(Container{0x89, 'P', 'N', 'G'}, make([]byte, 64)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(data, Passphrase("password"))
			assert.ErrorIs(t, err, ErrMalformedContainer)
			assert.Equal(t, UserFacingAuthMessage, UserMessage(err))
		})
	}
	assert.Equal(t, 0, d.calls, "Malformed input should never reach the KDF")

	_, err := c.Decrypt(append(Container("SC1"), make([]byte, SaltSize)...), Passphrase("password"))
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, 1, d.calls)
}

func TestCodec_BackendFailures(t *testing.T) {
	_, err := NewCodec(WithKeyDeriver(nil))
	assert.Error(t, err)
	_, err = NewCodec(WithRandom(nil))
	assert.Error(t, err)

	c, err := NewCodec(WithKeyDeriver(new(countingDeriver)), WithRandom(bytes.NewBuffer(nil)))
	require.NoError(t, err)
	_, err = c.Encrypt(Plaintext("data"), Passphrase("password"))
	assert.ErrorIs(t, err, ErrCryptoBackend, "An exhausted random source should fail")

	c, err = NewCodec(WithKeyDeriver(new(countingDeriver)), WithRandom(bytes.NewReader(make([]byte, SaltSize))))
	require.NoError(t, err)
	_, err = c.Encrypt(Plaintext("data"), Passphrase("password"))
	assert.ErrorIs(t, err, ErrCryptoBackend, "Running out of randomness for the nonce should fail")

	c, err = NewCodec(WithKeyDeriver(failingDeriver{}))
	require.NoError(t, err)
	_, err = c.Encrypt(Plaintext("data"), Passphrase("password"))
	assert.ErrorIs(t, err, ErrCryptoBackend)
	_, err = c.Decrypt(append(Container("SC1"), make([]byte, SaltSize+NonceSize+TagSize)...), Passphrase("password"))
	assert.ErrorIs(t, err, ErrCryptoBackend)
	assert.NotErrorIs(t, err, ErrAuthenticationFailed)

	c, err = NewCodec(WithKeyDeriver(shortKeyDeriver{}))
	require.NoError(t, err)
	_, err = c.Encrypt(Plaintext("data"), Passphrase("password"))
	assert.ErrorIs(t, err, ErrCryptoBackend)
}

func TestCodec_DeterministicRandom(t *testing.T) {
	random := bytes.Repeat([]byte{0x42}, SaltSize+NonceSize)
	c, err := NewCodec(WithKeyDeriver(new(countingDeriver)), WithRandom(bytes.NewReader(random)))
	require.NoError(t, err)
	sealed, err := c.Encrypt(Plaintext("hello"), Passphrase("correct-horse"))
	require.NoError(t, err)
	assert.Equal(t, random[:SaltSize], []byte(sealed[MagicSize:HeaderSize]))
	assert.Equal(t, random[SaltSize:], []byte(sealed[HeaderSize:HeaderSize+NonceSize]))
}
