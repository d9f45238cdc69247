package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvRoot       = "LABSROOT"
	EnvDevRoot    = "LABS_DEV_ROOT"
	EnvPublicRoot = "LABS_PUBLIC_ROOT"
	EnvDebug      = "PLAYV_DEBUG"
	EnvNoColor    = "NO_COLOR"
)

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	ConfigPath string
	Root       string
	Match      string
	Debug      bool
	NoColor    bool

	// Flags to track if they were explicitly set by the user
	DebugSet   bool
	NoColorSet bool
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRoot); v != "" {
		c.Root = v
	}
	if v := os.Getenv(EnvDevRoot); v != "" {
		c.DevRoot = v
	}
	if v := os.Getenv(EnvPublicRoot); v != "" {
		c.PublicRoot = v
	}
	if b := getEnvBool(EnvDebug); b != nil {
		c.Debug = *b
	}
	// Any non-empty NO_COLOR disables color.
	if os.Getenv(EnvNoColor) != "" {
		c.NoColor = true
	}
}

func (c *Config) applyFlags(f CliFlags) {
	if f.Root != "" {
		c.Root = f.Root
	}
	if f.Match != "" {
		c.Match = f.Match
	}
	if f.DebugSet {
		c.Debug = f.Debug
	}
	if f.NoColorSet {
		c.NoColor = f.NoColor
	}
}

// getEnvBool returns the parsed value of the first set variable, or nil.
// Unparseable non-empty values count as true.
func getEnvBool(names ...string) *bool {
	for _, name := range names {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			b = true
		}
		return &b
	}
	return nil
}
