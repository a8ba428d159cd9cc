package internal

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strings"
)

const (
	userConfigDir  = ".securecast"
	userConfigFile = "config.yaml"

	DefaultEncryptedSuffix = ".enc"
	DefaultDecryptedSuffix = ".dec"
)

// Config holds front end settings. Nothing here affects the container format.
type Config struct {
	EncryptedSuffix string `yaml:"encrypted_suffix"`
	DecryptedSuffix string `yaml:"decrypted_suffix"`
	Overwrite       bool   `yaml:"overwrite"`
	Verbose         bool   `yaml:"verbose"`
}

// ValidationError describes a single invalid config value.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// DefaultConfig returns a configuration matching the behavior without any config file.
func DefaultConfig() Config {
	return Config{
		EncryptedSuffix: DefaultEncryptedSuffix,
		DecryptedSuffix: DefaultDecryptedSuffix,
	}
}

// UserConfigPath returns the path to the user configuration file.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, userConfigDir, userConfigFile), nil
}

// Load merges the user config file over the defaults, if one exists.
// If path is not empty, it's used instead of the user config and must exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := mergeConfigFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if userPath, err := UserConfigPath(); err == nil {
		if err := mergeConfigFile(&cfg, userPath); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config: %s", formatValidationErrors(errs))
	}
	return cfg, nil
}

func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	mergeConfig(cfg, &overlay)
	return nil
}

func mergeConfig(dst, src *Config) {
	if src.EncryptedSuffix != "" {
		dst.EncryptedSuffix = src.EncryptedSuffix
	}
	if src.DecryptedSuffix != "" {
		dst.DecryptedSuffix = src.DecryptedSuffix
	}
	dst.Overwrite = dst.Overwrite || src.Overwrite
	dst.Verbose = dst.Verbose || src.Verbose
}

// Validate checks every field and returns all problems found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateSuffix("encrypted_suffix", c.EncryptedSuffix)...)
	errs = append(errs, validateSuffix("decrypted_suffix", c.DecryptedSuffix)...)
	if strings.EqualFold(c.EncryptedSuffix, c.DecryptedSuffix) {
		errs = append(errs, ValidationError{
			Path:    "decrypted_suffix",
			Message: fmt.Sprintf("must differ from encrypted_suffix '%s'", c.EncryptedSuffix),
		})
	}
	return errs
}

func validateSuffix(path, suffix string) []ValidationError {
	switch {
	case suffix == "":
		return []ValidationError{{Path: path, Message: "must not be empty"}}
	case !strings.HasPrefix(suffix, "."):
		return []ValidationError{{Path: path, Message: fmt.Sprintf("must start with '.', got '%s'", suffix)}}
	case strings.ContainsAny(suffix, `/\`):
		return []ValidationError{{Path: path, Message: fmt.Sprintf("must not contain path separators, got '%s'", suffix)}}
	}
	return nil
}

func formatValidationErrors(errs []ValidationError) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "%d validation errors:\n", len(errs))
	for _, err := range errs {
		b.WriteString("  - " + err.Error() + "\n")
	}
	return b.String()
}

// EncryptedPath is the default output for encrypting in.
func (c Config) EncryptedPath(in string) string {
	return in + c.EncryptedSuffix
}

// DecryptedPath is the default output for decrypting in.
// A trailing EncryptedSuffix is removed, ignoring case, before DecryptedSuffix is appended.
func (c Config) DecryptedPath(in string) string {
	base := in
	if n := len(c.EncryptedSuffix); len(base) >= n && strings.EqualFold(base[len(base)-n:], c.EncryptedSuffix) {
		base = base[:len(base)-n]
	}
	return base + c.DecryptedSuffix
}
