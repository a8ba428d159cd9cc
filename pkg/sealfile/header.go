package sealfile

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	bin "github.com/saylorsolutions/binmap"
)

const (
	// MagicSize is the length of the leading format tag.
	MagicSize = 3
	// HeaderSize is the number of bytes before the AEAD payload.
	HeaderSize = MagicSize + SaltSize
)

// Magic identifies a SecureCast container.
var Magic = [MagicSize]byte{'S', 'C', '1'}

// Header is the fixed-width prefix of every container.
type Header struct {
	Magic [MagicSize]byte
	Salt  [SaltSize]byte
}

func (h *Header) mapper() bin.Mapper {
	fields := make([]bin.Mapper, 0, HeaderSize)
	for i := range h.Magic {
		fields = append(fields, bin.Byte(&h.Magic[i]))
	}
	for i := range h.Salt {
		fields = append(fields, bin.Byte(&h.Salt[i]))
	}
	return bin.MapSequence(fields...)
}

func newHeader(salt Salt) (*Header, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrCryptoBackend, SaltSize, len(salt))
	}
	h := &Header{Magic: Magic}
	copy(h.Salt[:], salt)
	return h, nil
}

// MarshalBinary encodes the header as it appears at the start of a container.
func (h *Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := h.mapper().Write(&buf, binary.BigEndian); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes and validates a header from the start of data.
// Any trailing payload bytes are ignored.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: need at least %d bytes, got %d", ErrMalformedContainer, HeaderSize, len(data))
	}
	if subtle.ConstantTimeCompare(data[:MagicSize], Magic[:]) != 1 {
		return fmt.Errorf("%w: missing %q tag", ErrMalformedContainer, Magic[:])
	}
	if err := h.mapper().Read(bytes.NewReader(data[:HeaderSize]), binary.BigEndian); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	return nil
}

// SaltBytes returns a copy of the header salt.
func (h *Header) SaltBytes() Salt {
	salt := make(Salt, SaltSize)
	copy(salt, h.Salt[:])
	return salt
}

// Info describes a container without opening it.
type Info struct {
	Header
	PayloadSize int
}

// Inspect parses the container header without performing any cryptographic work.
func Inspect(data Container) (Info, error) {
	var info Info
	if err := info.Header.UnmarshalBinary(data); err != nil {
		return Info{}, err
	}
	info.PayloadSize = len(data) - HeaderSize
	return info, nil
}
