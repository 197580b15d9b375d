package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vijay-prabhu/emlsave/internal/config"
	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/email/gmail"
	"github.com/vijay-prabhu/emlsave/internal/email/graph"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/session"
	"github.com/vijay-prabhu/emlsave/internal/tokenstore"
)

// backend is a mail API that can also find the newest Inbox message
type backend interface {
	session.Backend
	email.LatestFinder
}

// app holds what every mailbox command needs
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *credential.Provider
	backend  backend
	session  *session.Session

	store   tokenstore.Store
	cleanup func() error
}

// newApp loads the configuration and wires the backend and credential provider
func newApp() (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger, cleanup, err := setupLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, cleanup: cleanup}
	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout()}

	switch cfg.Account.Provider {
	case "gmail":
		a.backend = gmail.New(cfg.Gmail.Endpoint, httpClient, logger)
		a.provider = credential.NewProvider(a.newGmailClient, logger)
	default:
		g := graph.New(cfg.Graph.BaseURL, httpClient, logger)
		g.SubjectSearch = cfg.Fetch.SubjectSearch
		g.Permissions = cfg.Graph.Scopes
		a.backend = g
		a.provider = credential.NewProvider(a.newGraphClient, logger)
	}

	a.session = a.newSession()

	logger.Debug("configuration loaded", "config", configPath, "provider", cfg.Account.Provider, "cache", cfg.Cache.Backend)
	return a, nil
}

// newSession builds the one download session the process reuses
func (a *app) newSession() *session.Session {
	return session.New(session.Config{
		Credentials: a.provider,
		Backend:     a.backend,
		Fetcher:     &fetch.Fetcher{Pause: a.cfg.Fetch.Pause(), Logger: a.logger},
		Logger:      a.logger,
	})
}

func (a *app) openStore() (tokenstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := tokenstore.Open(a.cfg.Cache.Backend, a.cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token cache: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) newGraphClient(ctx context.Context) (credential.Client, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return credential.NewMSAL(credential.MSALConfig{
		ClientID:    a.cfg.Graph.ClientID,
		Tenant:      a.cfg.Graph.Tenant,
		RedirectURI: a.cfg.Graph.RedirectURI,
		Store:       store,
	})
}

func (a *app) newGmailClient(ctx context.Context) (credential.Client, error) {
	oauthConfig, err := credential.LoadGoogleConfig(a.cfg.Gmail.CredentialsPath, gmail.Scopes...)
	if err != nil {
		return nil, err
	}
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return credential.NewOAuth(oauthConfig, store, "gmail:"+oauthConfig.ClientID, a.logger), nil
}

// Close releases the token cache and the log file
func (a *app) Close() error {
	if a.store != nil {
		a.store.Close()
	}
	return a.cleanup()
}
