package internal

import (
	"fmt"
	"github.com/fatih/color"
	"io"
	"os"
)

// Logger writes prefixed, colored messages.
// Passphrases and keys must never be passed to it.
type Logger struct {
	Verbose bool
	Debug   bool
	Out     io.Writer
	Err     io.Writer
}

func (l Logger) out() io.Writer {
	if l.Out == nil {
		return os.Stdout
	}
	return l.Out
}

func (l Logger) err() io.Writer {
	if l.Err == nil {
		return os.Stderr
	}
	return l.Err
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		_, _ = fmt.Fprintf(l.out(), color.GreenString("[info] ")+msg+"\n", args...)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		_, _ = fmt.Fprintf(l.out(), color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	_, _ = fmt.Fprintf(l.err(), color.YellowString("[warn] ")+msg+"\n", args...)
}

func (l Logger) Errorf(msg string, args ...any) {
	_, _ = fmt.Fprintf(l.err(), color.RedString("[error] ")+msg+"\n", args...)
}

// Successf always prints to the standard output with a check mark.
func (l Logger) Successf(msg string, args ...any) {
	_, _ = fmt.Fprintf(l.out(), color.GreenString("✓")+" "+msg+"\n", args...)
}
