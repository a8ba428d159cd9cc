package main

import (
	"github.com/briandowns/spinner"
	"os"
	"time"
)

// startSpinner shows progress on stderr while a long key derivation runs.
// Nothing is shown unless enabled. The returned func stops the spinner.
func startSpinner(message string, enabled bool) func() {
	if !enabled {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	// Ignore color errors, the spinner works without them.
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}
