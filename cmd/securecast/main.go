package main

import (
	"encoding/hex"
	"fmt"
	"github.com/saylorsolutions/securecast/cmd/internal"
	"github.com/saylorsolutions/securecast/pkg/sealfile"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
	"io"
	"os"
)

var version = "dev"

type cli struct {
	log      internal.Logger
	prompter *prompter
	stdin    io.Reader
	stdout   io.Writer
	// interactive is true when a spinner may be drawn on stderr.
	interactive bool
}

func main() {
	c := &cli{
		prompter:    newPrompter(),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		interactive: term.IsTerminal(int(os.Stderr.Fd())),
	}
	if err := c.run(os.Args[1:]); err != nil {
		internal.Exit(c.log, err)
	}
}

func (c *cli) run(args []string) error {
	var (
		helpFlag    bool
		forceFlag   bool
		verboseFlag bool
		debugFlag   bool
		outputFlag  string
		configFlag  string
	)
	flags := flag.NewFlagSet("securecast", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	flags.BoolVarP(&helpFlag, "help", "h", false, "Prints this usage information.")
	flags.BoolVarP(&forceFlag, "force", "f", false, "Overwrite the output file if it already exists.")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Print informational messages instead of a progress spinner.")
	flags.BoolVar(&debugFlag, "debug", false, "Print debug messages. Passwords and keys are never printed.")
	flags.StringVarP(&outputFlag, "output", "o", "", "Output path. Use - for STDOUT. Defaults to FILE with the configured suffix.")
	flags.StringVarP(&configFlag, "config", "c", "", "Path to a YAML config file. Defaults to ~/.securecast/config.yaml if it exists.")
	flags.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, `
securecast seals a file into a password protected container, and opens it again with the same password.

USAGE:  securecast [FLAGS] COMMAND [FILE]

COMMANDS:
    encrypt FILE    Seal FILE, writing FILE.enc by default.
    decrypt FILE    Open FILE, writing FILE without .enc plus .dec by default.
    info FILE       Print the container header without asking for a password.
    tui             Start the interactive terminal interface.
    version         Print the version.

FILE may be - to read from STDIN.

FLAGS:
%s
PASSWORD:
    Set the %s environment variable, or enter it interactively.

SECURITY:
    Containers use AES-256-GCM with a key derived by PBKDF2-HMAC-SHA256 (%d iterations).
    A wrong password and a corrupted file are reported the same way.
`, flags.FlagUsages(), PassphraseEnvVar, sealfile.DefaultIterations)
	}

	if len(args) == 0 {
		flags.Usage()
		return nil
	}
	if err := flags.Parse(args); err != nil {
		flags.Usage()
		return fmt.Errorf("%w: error parsing flags: %v", internal.ErrUsage, err)
	}
	if helpFlag {
		flags.Usage()
		return nil
	}

	cfg, err := internal.Load(configFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", internal.ErrUsage, err)
	}
	if forceFlag {
		cfg.Overwrite = true
	}
	c.log.Verbose = verboseFlag || cfg.Verbose
	c.log.Debug = debugFlag
	if outputFlag == stdio {
		// Keep STDOUT clean for the payload.
		c.log.Out = os.Stderr
	}

	command := flags.Arg(0)
	switch command {
	case "encrypt", "decrypt":
		if flags.NArg() != 2 {
			return fmt.Errorf("%w: %s requires exactly one FILE argument", internal.ErrUsage, command)
		}
		m := modeEncrypt
		if command == "decrypt" {
			m = modeDecrypt
		}
		return c.process(m, flags.Arg(1), outputFlag, cfg)
	case "info":
		if flags.NArg() != 2 {
			return fmt.Errorf("%w: info requires exactly one FILE argument", internal.ErrUsage)
		}
		return c.info(flags.Arg(1))
	case "tui":
		codec, err := sealfile.NewCodec()
		if err != nil {
			return err
		}
		return runTUI(codec, cfg)
	case "version":
		_, _ = fmt.Fprintf(c.stdout, "securecast version %s\n", version)
		return nil
	case "":
		flags.Usage()
		return fmt.Errorf("%w: missing COMMAND", internal.ErrUsage)
	default:
		flags.Usage()
		return fmt.Errorf("%w: unknown command: %s", internal.ErrUsage, command)
	}
}

func (c *cli) process(m mode, in, out string, cfg internal.Config) error {
	j, err := planJob(m, in, out, cfg)
	if err != nil {
		return err
	}
	if j.out == stdio {
		c.log.Out = os.Stderr
	}
	c.log.Debugf("Planned %s job: input '%s', output '%s'", j.mode, j.in, j.out)

	pass, err := c.prompter.passphrase(m == modeEncrypt)
	if err != nil {
		return fmt.Errorf("%w: %w", internal.ErrUsage, err)
	}
	defer sealfile.ZeroBytes(pass)

	codec, err := sealfile.NewCodec()
	if err != nil {
		return err
	}
	c.log.Infof("Deriving key with %d PBKDF2 iterations", sealfile.DefaultIterations)
	stop := startSpinner(fmt.Sprintf("Running %s...", j.mode), c.interactive && !c.log.Verbose && !c.log.Debug)
	err = j.run(codec, pass, c.stdin, c.stdout)
	stop()
	if err != nil {
		return fmt.Errorf("failed to %s '%s': %w", j.mode, j.in, err)
	}
	if j.out != stdio {
		c.log.Successf("Output file created: %s", j.out)
	}
	return nil
}

func (c *cli) info(path string) error {
	var (
		info sealfile.Info
		err  error
	)
	if path == stdio {
		data, readErr := io.ReadAll(c.stdin)
		if readErr != nil {
			return fmt.Errorf("%w: %v", sealfile.ErrIO, readErr)
		}
		info, err = sealfile.Inspect(data)
	} else {
		info, err = sealfile.InspectFile(path)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "Format:       %s\n", string(info.Magic[:]))
	_, _ = fmt.Fprintf(c.stdout, "Salt:         %s\n", hex.EncodeToString(info.Salt[:]))
	_, _ = fmt.Fprintf(c.stdout, "KDF:          PBKDF2-HMAC-SHA256, %d iterations\n", sealfile.DefaultIterations)
	_, _ = fmt.Fprintf(c.stdout, "Cipher:       AES-256-GCM\n")
	_, _ = fmt.Fprintf(c.stdout, "Payload size: %d bytes\n", info.PayloadSize)
	return nil
}
