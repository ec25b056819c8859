package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Sources lists the directories scanned and watched for capture files.
type Sources struct {
	Roots []string `toml:"roots"`
}

// Destinations lists transfer targets. A target is either a local path or a
// remote host:path specification consumable by rsync.
type Destinations struct {
	Targets []string `toml:"targets"`
	Shuffle bool     `toml:"shuffle"`
}

// Transfer contains rsync invocation settings.
type Transfer struct {
	RsyncBinary    string `toml:"rsync_binary"`
	BandwidthLimit int    `toml:"bandwidth_limit"`
	IOPriority     string `toml:"io_priority"`
	PreflightFile  string `toml:"preflight_file"`
}

// Locking toggles the concurrency-limiting policies applied around transfers.
type Locking struct {
	GlobalSingleTransfer    bool `toml:"global_single_transfer"`
	PerSourceSingleTransfer bool `toml:"per_source_single_transfer"`
}

// Backoff contains retry pacing for recoverable destination conditions.
type Backoff struct {
	ShortSeconds           int `toml:"short_seconds"`
	LongSeconds            int `toml:"long_seconds"`
	UnmountedEscalateAfter int `toml:"unmounted_escalate_after"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shuttle.
type Config struct {
	Paths        Paths        `toml:"paths"`
	Sources      Sources      `toml:"sources"`
	Destinations Destinations `toml:"destinations"`
	Transfer     Transfer     `toml:"transfer"`
	Locking      Locking      `toml:"locking"`
	Backoff      Backoff      `toml:"backoff"`
	Logging      Logging      `toml:"logging"`
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shuttle/config.toml")
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("shuttle.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RsyncBinary returns the rsync executable to invoke.
func (c *Config) RsyncBinary() string {
	if strings.TrimSpace(c.Transfer.RsyncBinary) != "" {
		return c.Transfer.RsyncBinary
	}
	return "rsync"
}

// ShortBackoff returns the pause applied after recoverable failures.
func (c *Config) ShortBackoff() time.Duration {
	return time.Duration(c.Backoff.ShortSeconds) * time.Second
}

// LongBackoff returns the escalated pause applied after repeated
// not-mounted retries against the same destination.
func (c *Config) LongBackoff() time.Duration {
	return time.Duration(c.Backoff.LongSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
