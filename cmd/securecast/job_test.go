package main

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/saylorsolutions/securecast/cmd/internal"
	"github.com/saylorsolutions/securecast/pkg/sealfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

type cheapDeriver struct{}

func (cheapDeriver) DeriveKey(pass sealfile.Passphrase, salt sealfile.Salt) (sealfile.Key, error) {
	return pbkdf2.Key(pass, salt, 1, sealfile.KeySize, sha256.New), nil
}

func cheapCodec(t *testing.T) *sealfile.Codec {
	t.Helper()
	c, err := sealfile.NewCodec(sealfile.WithKeyDeriver(cheapDeriver{}))
	require.NoError(t, err)
	return c
}

func TestPlanJob(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "photo.jpg")
	sealed := filepath.Join(dir, "photo.jpg.enc")
	require.NoError(t, os.WriteFile(plain, []byte("jpeg"), 0600))
	require.NoError(t, os.WriteFile(sealed, []byte("SC1"), 0600))
	cfg := internal.DefaultConfig()

	tests := map[string]struct {
		mode      mode
		in        string
		out       string
		overwrite bool
		expected  string
		expectErr bool
	}{
		"Encrypt default output": {
			mode:      modeEncrypt,
			in:        plain,
			overwrite: true,
			expected:  sealed,
		},
		"Encrypt existing output": {
			mode:      modeEncrypt,
			in:        plain,
			expectErr: true,
		},
		"Decrypt default output": {
			mode:     modeDecrypt,
			in:       sealed,
			expected: filepath.Join(dir, "photo.jpg.dec"),
		},
		"Explicit output": {
			mode:     modeDecrypt,
			in:       sealed,
			out:      filepath.Join(dir, "restored.jpg"),
			expected: filepath.Join(dir, "restored.jpg"),
		},
		"Output is input": {
			mode:      modeEncrypt,
			in:        plain,
			out:       plain,
			overwrite: true,
			expectErr: true,
		},
		"Stdin": {
			mode:     modeEncrypt,
			in:       stdio,
			expected: stdio,
		},
		"Missing input": {
			mode:      modeEncrypt,
			in:        filepath.Join(dir, "missing"),
			expectErr: true,
		},
		"Directory input": {
			mode:      modeEncrypt,
			in:        dir,
			expectErr: true,
		},
		"Empty input": {
			mode:      modeDecrypt,
			expectErr: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := cfg
			cfg.Overwrite = tc.overwrite
			j, err := planJob(tc.mode, tc.in, tc.out, cfg)
			if tc.expectErr {
				assert.ErrorIs(t, err, internal.ErrUsage)
				t.Log(err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.mode, j.mode)
			assert.Equal(t, tc.expected, j.out)
		})
	}
}

func TestJob_Run(t *testing.T) {
	var (
		codec   = cheapCodec(t)
		dir     = t.TempDir()
		plain   = filepath.Join(dir, "notes.txt")
		sealed  = filepath.Join(dir, "notes.txt.enc")
		opened  = filepath.Join(dir, "notes.txt.dec")
		fromIn  = filepath.Join(dir, "stdin.enc")
		data    = []byte("meeting at noon")
		pass    = sealfile.Passphrase("correct-horse")
		stdout  bytes.Buffer
		discard bytes.Buffer
	)
	require.NoError(t, os.WriteFile(plain, data, 0600))

	require.NoError(t, job{mode: modeEncrypt, in: plain, out: sealed}.run(codec, pass, nil, nil))
	require.NoError(t, job{mode: modeDecrypt, in: sealed, out: opened}.run(codec, pass, nil, nil))
	got, err := os.ReadFile(opened)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, job{mode: modeDecrypt, in: sealed, out: stdio}.run(codec, pass, nil, &stdout))
	assert.Equal(t, data, stdout.Bytes())

	require.NoError(t, job{mode: modeEncrypt, in: stdio, out: fromIn}.run(codec, pass, bytes.NewReader(data), nil))
	stdout.Reset()
	require.NoError(t, job{mode: modeDecrypt, in: fromIn, out: stdio}.run(codec, pass, nil, &stdout))
	assert.Equal(t, data, stdout.Bytes())

	container, err := os.ReadFile(fromIn)
	require.NoError(t, err)
	toOut := filepath.Join(dir, "stdin.dec")
	require.NoError(t, job{mode: modeDecrypt, in: stdio, out: toOut}.run(codec, pass, bytes.NewReader(container), nil))
	got, err = os.ReadFile(toOut)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	err = job{mode: modeDecrypt, in: sealed, out: stdio}.run(codec, sealfile.Passphrase("wrong"), nil, &discard)
	assert.ErrorIs(t, err, sealfile.ErrAuthenticationFailed)
	assert.Equal(t, 0, discard.Len())

	err = job{mode: modeDecrypt, in: stdio, out: filepath.Join(dir, "never")}.run(codec, pass, bytes.NewReader([]byte("garbage")), nil)
	assert.ErrorIs(t, err, sealfile.ErrMalformedContainer)
	assert.NoFileExists(t, filepath.Join(dir, "never"))
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "encrypt", modeEncrypt.String())
	assert.Equal(t, "decrypt", modeDecrypt.String())
}
