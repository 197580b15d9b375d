package config

import "time"

// Config represents the application configuration
type Config struct {
	Account AccountConfig `toml:"account"`
	Graph   GraphConfig   `toml:"graph"`
	Gmail   GmailConfig   `toml:"gmail"`
	Cache   CacheConfig   `toml:"cache"`
	Fetch   FetchConfig   `toml:"fetch"`
	Output  OutputConfig  `toml:"output"`
	Log     LogConfig     `toml:"log"`
}

// AccountConfig selects the mail backend
type AccountConfig struct {
	Provider string `toml:"provider"`
}

// GraphConfig contains Microsoft Graph settings
type GraphConfig struct {
	ClientID    string   `toml:"client_id"`
	Tenant      string   `toml:"tenant"`
	Scopes      []string `toml:"scopes"`
	BaseURL     string   `toml:"base_url"`
	RedirectURI string   `toml:"redirect_uri"`
}

// GmailConfig contains Gmail-specific settings
type GmailConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	// Endpoint overrides the API root, empty for the public API
	Endpoint string `toml:"endpoint"`
}

// CacheConfig selects where identity tokens are kept
type CacheConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// FetchConfig tunes message retrieval
type FetchConfig struct {
	PauseMS       int  `toml:"pause_ms"`
	TimeoutSec    int  `toml:"timeout_sec"`
	SubjectSearch bool `toml:"subject_search"`
}

// Pause returns the delay between retrieval strategies
func (f FetchConfig) Pause() time.Duration {
	return time.Duration(f.PauseMS) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// OutputConfig controls where messages are saved
type OutputConfig struct {
	Dir       string `toml:"dir"`
	Format    string `toml:"format"`
	MboxPath  string `toml:"mbox_path"`
	Overwrite bool   `toml:"overwrite"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level string `toml:"level"`
	Dir   string `toml:"dir"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Provider: "graph",
		},
		Graph: GraphConfig{
			Tenant:  "common",
			Scopes:  []string{"Mail.Read"},
			BaseURL: "https://graph.microsoft.com/v1.0/me",
		},
		Gmail: GmailConfig{
			CredentialsPath: "~/.config/emlsave/credentials.json",
		},
		Cache: CacheConfig{
			Backend: "sqlite",
			Path:    "~/.local/share/emlsave/tokens.db",
		},
		Fetch: FetchConfig{
			PauseMS:       500,
			TimeoutSec:    60,
			SubjectSearch: true,
		},
		Output: OutputConfig{
			Dir:      ".",
			Format:   "eml",
			MboxPath: "~/.local/share/emlsave/saved.mbox",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}
