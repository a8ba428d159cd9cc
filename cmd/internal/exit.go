package internal

import (
	"errors"
	"fmt"
	"github.com/saylorsolutions/securecast/pkg/sealfile"
	"os"
	"strings"
)

const (
	ExitOK = iota
	ExitFailure
	ExitUsage
	ExitAuth
	ExitIO
)

// ErrUsage marks errors caused by invalid command line input.
var ErrUsage = errors.New("usage error")

// Echo will emit the given message without any logging formatting.
func Echo(msg string, args ...any) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, _ = fmt.Fprintf(os.Stderr, msg, args...)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, sealfile.ErrMalformedContainer), errors.Is(err, sealfile.ErrAuthenticationFailed):
		return ExitAuth
	case errors.Is(err, sealfile.ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}

// Exit reports err and exits with ExitCode(err).
// Usage errors are echoed as-is, everything else is logged with its user facing message.
func Exit(log Logger, err error) {
	if err == nil {
		os.Exit(ExitOK)
	}
	if errors.Is(err, ErrUsage) {
		Echo("%v", err)
	} else {
		log.Errorf("%s", sealfile.UserMessage(err))
	}
	os.Exit(ExitCode(err))
}
