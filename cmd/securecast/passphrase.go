package main

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/saylorsolutions/securecast/pkg/sealfile"
	"golang.org/x/term"
	"io"
	"os"
	"runtime"
)

// PassphraseEnvVar may hold the passphrase for non-interactive use.
const PassphraseEnvVar = "SECURECAST_PASSWORD"

var errEmptyPassphrase = errors.New("please enter a password")

// passwordReader reads a passphrase without echo from a terminal file descriptor.
type passwordReader func(fd int) ([]byte, error)

type prompter struct {
	readPassword passwordReader
	isTerminal   func(fd int) bool
	getenv       func(string) string
	prompts      io.Writer
}

func newPrompter() *prompter {
	return &prompter{
		readPassword: term.ReadPassword,
		isTerminal:   term.IsTerminal,
		getenv:       os.Getenv,
		prompts:      os.Stderr,
	}
}

// passphrase returns the passphrase from PassphraseEnvVar, or prompts for it.
// When confirm is true, the passphrase must be entered twice.
func (p *prompter) passphrase(confirm bool) (sealfile.Passphrase, error) {
	if envPass := p.getenv(PassphraseEnvVar); envPass != "" {
		return sealfile.Passphrase(envPass), nil
	}

	pass, err := p.read("Enter password: ")
	if err != nil {
		return nil, err
	}
	if len(pass) == 0 {
		return nil, errEmptyPassphrase
	}
	if !confirm {
		return pass, nil
	}

	again, err := p.read("Confirm password: ")
	if err != nil {
		sealfile.ZeroBytes(pass)
		return nil, err
	}
	defer sealfile.ZeroBytes(again)
	if !bytes.Equal(pass, again) {
		sealfile.ZeroBytes(pass)
		return nil, errors.New("passwords do not match")
	}
	return pass, nil
}

func (p *prompter) read(prompt string) ([]byte, error) {
	_, _ = fmt.Fprint(p.prompts, prompt)
	defer func() {
		_, _ = fmt.Fprintln(p.prompts)
	}()

	fd := int(os.Stdin.Fd())
	if p.isTerminal(fd) {
		return p.readPassword(fd)
	}

	// STDIN is piped, so the passphrase has to come from the controlling terminal.
	tty, err := os.Open("/dev/tty")
	if err != nil {
		if runtime.GOOS == "windows" {
			return nil, fmt.Errorf("password must be set with %s when STDIN is piped", PassphraseEnvVar)
		}
		return nil, fmt.Errorf("cannot read password: STDIN is piped and /dev/tty is not available, set %s", PassphraseEnvVar)
	}
	defer func() {
		_ = tty.Close()
	}()
	return p.readPassword(int(tty.Fd()))
}
