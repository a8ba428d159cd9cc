package sealfile

import (
	"errors"
	"fmt"
)

// UserFacingAuthMessage is shown for both malformed containers and failed authentication.
const UserFacingAuthMessage = "wrong password or corrupted file"

var (
	// ErrMalformedContainer is returned when input is too short or doesn't start with Magic.
	// It's detected before any cryptographic work is done.
	ErrMalformedContainer = errors.New("malformed container")
	// ErrAuthenticationFailed is returned when the payload can't be authenticated.
	// A wrong passphrase and a corrupted payload are deliberately reported the same way.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrCryptoBackend is returned when the random source, KDF, or cipher itself fails.
	ErrCryptoBackend = errors.New("crypto backend failure")
	// ErrIO is returned when reading input or writing output fails.
	ErrIO = errors.New("i/o failure")
)

// UserMessage maps an error returned from this package to a message suitable for display.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedContainer), errors.Is(err, ErrAuthenticationFailed):
		return UserFacingAuthMessage
	case errors.Is(err, ErrIO):
		return fmt.Sprintf("unable to read or write file: %v", err)
	default:
		return fmt.Sprintf("operation failed: %v", err)
	}
}
