package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/pkg/labs"
	"github.com/dkoosis/playv/pkg/stream"
)

// Config file names.
const (
	LocalConfigFile = ".playv.yaml"
	UserConfigFile  = "config.yaml"
	EnvFile         = ".env"
	appDir          = "playv"
)

// Constants for default values.
const (
	DefaultBuildTool   = "make"
	DefaultTestTarget  = "test"
	DefaultCleanTarget = "clean"
	DefaultChunkSize   = 4096
)

// Colors are lipgloss color strings for the score board.
type Colors struct {
	Pass   string `yaml:"pass"`
	Fail   string `yaml:"fail"`
	Unset  string `yaml:"unset"`
	Accent string `yaml:"accent"`
	Muted  string `yaml:"muted"`
}

// Config is the resolved application configuration.
type Config struct {
	Root       string `yaml:"root"`
	DevRoot    string `yaml:"dev_root"`
	PublicRoot string `yaml:"public_root"`

	BuildTool    string      `yaml:"build_tool"`
	TestTarget   string      `yaml:"test_target"`
	CleanTarget  string      `yaml:"clean_target"`
	Editor       []string    `yaml:"editor"`
	WaveViewer   []string    `yaml:"wave_viewer"`
	Layout       labs.Layout `yaml:"layout"`
	Match        string      `yaml:"match"`
	HeaderFormat string      `yaml:"header_format"`
	ChunkSize    int         `yaml:"chunk_size"` // In bytes

	HistoryPath string `yaml:"history_path"`
	LogPath     string `yaml:"log_path"`
	NoColor     bool   `yaml:"no_color"`
	Debug       bool   `yaml:"debug"`
	Colors      Colors `yaml:"colors"`

	// Source is the config file that was loaded, empty for defaults only.
	Source string `yaml:"-"`
}

// Defaults returns the hardcoded configuration.
func Defaults() *Config {
	return &Config{
		BuildTool:    DefaultBuildTool,
		TestTarget:   DefaultTestTarget,
		CleanTarget:  DefaultCleanTarget,
		Editor:       []string{"code", "-n"},
		WaveViewer:   []string{"gtkwave"},
		Layout:       labs.DefaultLayout(),
		Match:        stream.MatchContains.String(),
		HeaderFormat: job.DefaultHeaderFormat,
		ChunkSize:    DefaultChunkSize,
		HistoryPath:  defaultDataPath(os.UserConfigDir, "history.db"),
		LogPath:      defaultDataPath(os.UserCacheDir, "playv.log"),
		Colors: Colors{
			Pass:   "#a8f0a8",
			Fail:   "#f0a8a8",
			Unset:  "#cccccc",
			Accent: "#7aa2f7",
			Muted:  "#808080",
		},
	}
}

// Load resolves the configuration from every source. An explicit config path
// that cannot be read is an error; the implicit locations are optional.
func Load(flags CliFlags) (*Config, error) {
	cfg := Defaults()

	path, explicit := flags.ConfigPath, flags.ConfigPath != ""
	if !explicit {
		path = getConfigPath()
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyFlags(flags)
	cfg.Layout = cfg.Layout.WithDefaults()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	// #nosec G304 -- path is the user's own config file
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.Source = path
	return nil
}

// Validate checks the settings a session needs before it starts.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("labs root not set (use --root or LABSROOT)")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("labs root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("labs root %s is not a directory", c.Root)
	}
	if _, err := stream.ParseMatchMode(c.Match); err != nil {
		return err
	}
	if c.BuildTool == "" {
		return errors.New("build_tool must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	return nil
}

// MatchMode returns the parsed marker match mode, falling back to containment.
func (c *Config) MatchMode() stream.MatchMode {
	m, err := stream.ParseMatchMode(c.Match)
	if err != nil {
		return stream.MatchContains
	}
	return m
}

// Commands returns the job builders for this configuration.
func (c *Config) Commands() job.Commands {
	return job.Commands{
		BuildTool:    c.BuildTool,
		TestTarget:   c.TestTarget,
		CleanTarget:  c.CleanTarget,
		HeaderFormat: c.HeaderFormat,
		Editor:       c.Editor,
		WaveViewer:   c.WaveViewer,
		Layout:       c.Layout,
	}
}

// getConfigPath tries to find the configuration file.
// It checks the local directory first, then the user config directory.
func getConfigPath() string {
	if _, err := os.Stat(LocalConfigFile); err == nil {
		return LocalConfigFile
	}
	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	userPath := filepath.Join(configHome, appDir, UserConfigFile)
	if _, err := os.Stat(userPath); err == nil {
		return userPath
	}
	return ""
}

func defaultDataPath(base func() (string, error), name string) string {
	dir, err := base()
	if err != nil || dir == "" {
		return filepath.Join(".", "."+appDir+"-"+name)
	}
	return filepath.Join(dir, appDir, name)
}
