package sealfile

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/natefinch/atomic"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OutputFileMode is used for every file written by EncryptFile and DecryptFile.
const OutputFileMode os.FileMode = 0600

// EncryptStream reads all of src, seals it, and writes the container to dst.
// The entire input is held in memory.
func (c *Codec) EncryptStream(dst io.Writer, src io.Reader, pass Passphrase) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("%w: failed to read input: %v", ErrIO, err)
	}
	sealed, err := c.Encrypt(data, pass)
	if err != nil {
		return err
	}
	if _, err := dst.Write(sealed); err != nil {
		return fmt.Errorf("%w: failed to write output: %v", ErrIO, err)
	}
	return nil
}

// DecryptStream reads a whole container from src and writes the plaintext to dst.
// Nothing is written to dst unless the container is authenticated.
func (c *Codec) DecryptStream(dst io.Writer, src io.Reader, pass Passphrase) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("%w: failed to read input: %v", ErrIO, err)
	}
	plain, err := c.Decrypt(data, pass)
	if err != nil {
		return err
	}
	defer ZeroBytes(plain)
	if _, err := dst.Write(plain); err != nil {
		return fmt.Errorf("%w: failed to write output: %v", ErrIO, err)
	}
	return nil
}

// EncryptFile seals the file at inPath and writes the container to outPath.
func (c *Codec) EncryptFile(inPath, outPath string, pass Passphrase) error {
	data, err := readFile(inPath)
	if err != nil {
		return err
	}
	sealed, err := c.Encrypt(data, pass)
	if err != nil {
		return err
	}
	return WriteFileAtomic(outPath, sealed)
}

// DecryptFile opens the container at inPath and writes the plaintext to outPath.
// outPath is left untouched if the container can't be authenticated.
func (c *Codec) DecryptFile(inPath, outPath string, pass Passphrase) error {
	data, err := readFile(inPath)
	if err != nil {
		return err
	}
	plain, err := c.Decrypt(data, pass)
	if err != nil {
		return err
	}
	defer ZeroBytes(plain)
	return WriteFileAtomic(outPath, plain)
}

// InspectFile reads the header of the container at path.
func InspectFile(path string) (Info, error) {
	data, err := readFile(path)
	if err != nil {
		return Info{}, err
	}
	return Inspect(data)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return data, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place,
// so a reader never observes a partially written output. The result always has OutputFileMode.
func WriteFileAtomic(path string, data []byte) error {
	path = filepath.Clean(path)
	// atomic.WriteFile carries over the mode of a file it replaces.
	if err := os.Chmod(path, OutputFileMode); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to set output permissions: %v", ErrIO, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: failed to write output: %v", ErrIO, err)
	}
	if err := os.Chmod(path, OutputFileMode); err != nil {
		return fmt.Errorf("%w: failed to set output permissions: %v", ErrIO, err)
	}
	return nil
}
