// Package credential acquires bearer tokens for the mail APIs.
//
// Provider implements the acquisition flow (cached account, silent first,
// interactive when the identity service asks for it) on top of a Client,
// which wraps a concrete identity library.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// FailureKind tags why a token acquisition failed
type FailureKind int

const (
	// Other covers every failure that another prompt would not fix
	Other FailureKind = iota
	// NeedsInteraction means the user must sign in or consent again
	NeedsInteraction
)

func (k FailureKind) String() string {
	if k == NeedsInteraction {
		return "needs-interaction"
	}
	return "other"
}

// AcquireError is returned by Client acquisitions
type AcquireError struct {
	Kind FailureKind
	Err  error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("token acquisition failed (%s): %v", e.Kind, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }

// InitError means the identity client could not be set up
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("identity client setup failed: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// AuthError means no token could be obtained
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Account is a cached signed-in identity
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Token is an issued bearer token
type Token struct {
	AccessToken string
	ExpiresOn   time.Time
	Account     Account
}

// Client is the identity library seen by the Provider
type Client interface {
	// Accounts lists accounts in the client's cache
	Accounts(ctx context.Context) ([]Account, error)
	// SignIn runs an interactive sign-in and returns the new account
	SignIn(ctx context.Context, scopes []string) (Account, error)
	// AcquireSilent returns a token from cache or refresh without prompting
	AcquireSilent(ctx context.Context, account Account, scopes []string) (Token, error)
	// AcquireInteractive prompts the user for a fresh token
	AcquireInteractive(ctx context.Context, account Account, scopes []string) (Token, error)
	// SignOut removes the account from the cache
	SignOut(ctx context.Context, account Account) error
}

// Provider owns one identity client for the life of the process
type Provider struct {
	newClient func(ctx context.Context) (Client, error)
	logger    *slog.Logger

	mu     sync.Mutex
	client Client
}

// NewProvider returns a provider that builds its client lazily with newClient
func NewProvider(newClient func(ctx context.Context) (Client, error), logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Provider{newClient: newClient, logger: logger}
}

// Initialize builds the client. Calling it again after success is a no-op.
func (p *Provider) Initialize(ctx context.Context) error {
	_, err := p.ensure(ctx)
	return err
}

func (p *Provider) ensure(ctx context.Context) (Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if p.newClient == nil {
		return nil, &InitError{Err: errors.New("no identity client configured")}
	}

	c, err := p.newClient(ctx)
	if err != nil {
		return nil, &InitError{Err: err}
	}
	p.client = c
	return c, nil
}

// Token returns a valid bearer token for scopes.
//
// Without a cached account the user signs in first. A silent acquisition
// that fails with NeedsInteraction is followed by exactly one interactive
// acquisition; any other failure is returned as *AuthError.
func (p *Provider) Token(ctx context.Context, scopes []string) (Token, error) {
	c, err := p.ensure(ctx)
	if err != nil {
		return Token{}, err
	}

	account, err := p.account(ctx, c, scopes)
	if err != nil {
		return Token{}, err
	}

	tok, err := c.AcquireSilent(ctx, account, scopes)
	if err == nil {
		p.logger.Debug("token acquired silently", "account", account.Username)
		return tok, nil
	}

	var acqErr *AcquireError
	if !errors.As(err, &acqErr) || acqErr.Kind != NeedsInteraction {
		return Token{}, &AuthError{Err: err}
	}

	p.logger.Info("silent acquisition needs interaction", "account", account.Username, "error", err)
	tok, err = c.AcquireInteractive(ctx, account, scopes)
	if err != nil {
		return Token{}, &AuthError{Err: err}
	}
	return tok, nil
}

func (p *Provider) account(ctx context.Context, c Client, scopes []string) (Account, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return Account{}, &AuthError{Err: fmt.Errorf("reading cached accounts: %w", err)}
	}
	if len(accounts) > 0 {
		return accounts[0], nil
	}

	p.logger.Info("no cached account, starting sign-in")
	account, err := c.SignIn(ctx, scopes)
	if err != nil {
		return Account{}, &AuthError{Err: fmt.Errorf("sign-in: %w", err)}
	}
	return account, nil
}

// SilentToken returns a token for the first cached account without
// prompting. It fails when no account is cached.
func (p *Provider) SilentToken(ctx context.Context, scopes []string) (Token, error) {
	c, err := p.ensure(ctx)
	if err != nil {
		return Token{}, err
	}

	accounts, err := c.Accounts(ctx)
	if err != nil {
		return Token{}, err
	}
	if len(accounts) == 0 {
		return Token{}, &AcquireError{Kind: NeedsInteraction, Err: errors.New("no cached account")}
	}
	return c.AcquireSilent(ctx, accounts[0], scopes)
}

// Accounts lists the cached accounts
func (p *Provider) Accounts(ctx context.Context) ([]Account, error) {
	c, err := p.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.Accounts(ctx)
}

// SignOut removes every cached account and returns how many were removed
func (p *Provider) SignOut(ctx context.Context) (int, error) {
	c, err := p.ensure(ctx)
	if err != nil {
		return 0, err
	}

	accounts, err := c.Accounts(ctx)
	if err != nil {
		return 0, err
	}
	for i, a := range accounts {
		if err := c.SignOut(ctx, a); err != nil {
			return i, fmt.Errorf("signing out %s: %w", a.Username, err)
		}
	}
	return len(accounts), nil
}
