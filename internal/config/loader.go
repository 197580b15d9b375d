package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrNotFound is returned by Load when the config file does not exist
var ErrNotFound = errors.New("config file not found")

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand path
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	// Read file
	data, err := os.ReadFile(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (run 'emlsave config init' to create)", ErrNotFound, expandedPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Parse TOML
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Expand paths in config
	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, but a missing file yields the defaults
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		cfg = Default()
		if err := cfg.expandPaths(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Gmail.CredentialsPath,
		&c.Cache.Path,
		&c.Output.Dir,
		&c.Output.MboxPath,
		&c.Log.Dir,
	} {
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Account validation
	if c.Account.Provider != "graph" && c.Account.Provider != "gmail" {
		errs = append(errs, fmt.Errorf("account.provider must be 'graph' or 'gmail', got '%s'", c.Account.Provider))
	}

	// Graph validation
	if len(c.Graph.Scopes) == 0 {
		errs = append(errs, errors.New("graph.scopes must list at least one scope"))
	}
	if u, err := url.Parse(c.Graph.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("graph.base_url must be an absolute URL, got '%s'", c.Graph.BaseURL))
	}

	// Gmail validation
	if c.Account.Provider == "gmail" && c.Gmail.CredentialsPath == "" {
		errs = append(errs, errors.New("gmail.credentials_path is required"))
	}

	// Cache validation
	if c.Cache.Backend != "sqlite" && c.Cache.Backend != "keyring" {
		errs = append(errs, fmt.Errorf("cache.backend must be 'sqlite' or 'keyring', got '%s'", c.Cache.Backend))
	}
	if c.Cache.Backend == "sqlite" && c.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path is required for the sqlite backend"))
	}

	// Fetch validation
	if c.Fetch.PauseMS < 0 || c.Fetch.PauseMS > 60000 {
		errs = append(errs, errors.New("fetch.pause_ms must be between 0 and 60000"))
	}
	if c.Fetch.TimeoutSec < 1 {
		errs = append(errs, errors.New("fetch.timeout_sec must be at least 1"))
	}

	// Output validation
	switch c.Output.Format {
	case "eml":
		if c.Output.Dir == "" {
			errs = append(errs, errors.New("output.dir is required"))
		}
	case "mbox":
		if c.Output.MboxPath == "" {
			errs = append(errs, errors.New("output.mbox_path is required for the mbox format"))
		}
	default:
		errs = append(errs, fmt.Errorf("output.format must be 'eml' or 'mbox', got '%s'", c.Output.Format))
	}

	// Log validation
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got '%s'", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// EnsureDirectories creates the directories the cache, output and logs live in
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Output.Dir}
	if c.Cache.Backend == "sqlite" {
		dirs = append(dirs, filepath.Dir(c.Cache.Path))
	}
	if c.Output.Format == "mbox" {
		dirs = append(dirs, filepath.Dir(c.Output.MboxPath))
	}
	if c.Log.Dir != "" {
		dirs = append(dirs, c.Log.Dir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
