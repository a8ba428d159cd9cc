package main

import (
	"fmt"
	"github.com/saylorsolutions/securecast/cmd/internal"
	"github.com/saylorsolutions/securecast/pkg/sealfile"
	"io"
	"os"
	"path/filepath"
)

// stdio is used as a FILE or --output argument to mean stdin or stdout.
const stdio = "-"

type mode int

const (
	modeEncrypt mode = iota
	modeDecrypt
)

func (m mode) String() string {
	if m == modeEncrypt {
		return "encrypt"
	}
	return "decrypt"
}

type job struct {
	mode mode
	in   string
	out  string
}

// planJob validates the input path and resolves the output path from cfg when out is empty.
func planJob(m mode, in, out string, cfg internal.Config) (job, error) {
	if in == "" {
		return job{}, fmt.Errorf("%w: please select a file first", internal.ErrUsage)
	}
	if in != stdio {
		stat, err := os.Stat(in)
		if err != nil || !stat.Mode().IsRegular() {
			return job{}, fmt.Errorf("%w: '%s' is not a valid file", internal.ErrUsage, in)
		}
	}
	if out == "" {
		switch {
		case in == stdio:
			out = stdio
		case m == modeEncrypt:
			out = cfg.EncryptedPath(in)
		default:
			out = cfg.DecryptedPath(in)
		}
	}
	if out != stdio {
		if in != stdio && sameFile(in, out) {
			return job{}, fmt.Errorf("%w: output '%s' is the same as the input", internal.ErrUsage, out)
		}
		if _, err := os.Stat(out); err == nil && !cfg.Overwrite {
			return job{}, fmt.Errorf("%w: output '%s' already exists, use --force to overwrite it", internal.ErrUsage, out)
		}
	}
	return job{mode: m, in: in, out: out}, nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// run performs the job. stdin and stdout are used when in or out is stdio.
func (j job) run(codec *sealfile.Codec, pass sealfile.Passphrase, stdin io.Reader, stdout io.Writer) error {
	if j.in != stdio && j.out != stdio {
		if j.mode == modeEncrypt {
			return codec.EncryptFile(j.in, j.out, pass)
		}
		return codec.DecryptFile(j.in, j.out, pass)
	}

	src := stdin
	if j.in != stdio {
		f, err := os.Open(filepath.Clean(j.in))
		if err != nil {
			return fmt.Errorf("%w: %v", sealfile.ErrIO, err)
		}
		defer func() {
			_ = f.Close()
		}()
		src = f
	}
	if j.out == stdio {
		if j.mode == modeEncrypt {
			return codec.EncryptStream(stdout, src, pass)
		}
		return codec.DecryptStream(stdout, src, pass)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("%w: failed to read input: %v", sealfile.ErrIO, err)
	}
	if j.mode == modeEncrypt {
		sealed, err := codec.Encrypt(data, pass)
		if err != nil {
			return err
		}
		return sealfile.WriteFileAtomic(j.out, sealed)
	}
	plain, err := codec.Decrypt(data, pass)
	if err != nil {
		return err
	}
	defer sealfile.ZeroBytes(plain)
	return sealfile.WriteFileAtomic(j.out, plain)
}
