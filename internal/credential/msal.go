package credential

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"

	"github.com/vijay-prabhu/emlsave/internal/tokenstore"
)

// DefaultGraphScopes are requested when none are configured
var DefaultGraphScopes = []string{"Mail.Read"}

// MSALConfig configures the Microsoft identity client
type MSALConfig struct {
	ClientID    string
	Tenant      string
	RedirectURI string

	// Store persists the MSAL token cache; nil keeps it in memory
	Store tokenstore.Store
}

// MSALClient is a Client backed by an MSAL public client application
type MSALClient struct {
	app         public.Client
	redirectURI string
}

// NewMSAL creates the public client application
func NewMSAL(cfg MSALConfig) (*MSALClient, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("graph client_id is not set")
	}
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = "common"
	}

	opts := []public.Option{
		public.WithAuthority("https://login.microsoftonline.com/" + tenant),
	}
	if cfg.Store != nil {
		opts = append(opts, public.WithCache(&storeCache{store: cfg.Store, key: "msal:" + cfg.ClientID}))
	}

	app, err := public.New(cfg.ClientID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating MSAL client: %w", err)
	}
	return &MSALClient{app: app, redirectURI: cfg.RedirectURI}, nil
}

// Accounts lists accounts in the MSAL cache
func (c *MSALClient) Accounts(ctx context.Context) ([]Account, error) {
	accounts, err := c.app.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, Account{ID: a.HomeAccountID, Username: a.PreferredUsername})
	}
	return out, nil
}

// SignIn runs the browser sign-in
func (c *MSALClient) SignIn(ctx context.Context, scopes []string) (Account, error) {
	res, err := c.app.AcquireTokenInteractive(ctx, scopes, c.interactiveOptions("")...)
	if err != nil {
		return Account{}, err
	}
	return Account{ID: res.Account.HomeAccountID, Username: res.Account.PreferredUsername}, nil
}

// AcquireSilent returns a cached or refreshed token
func (c *MSALClient) AcquireSilent(ctx context.Context, account Account, scopes []string) (Token, error) {
	acc, err := c.lookup(ctx, account)
	if err != nil {
		return Token{}, &AcquireError{Kind: classify(err), Err: err}
	}

	res, err := c.app.AcquireTokenSilent(ctx, scopes, public.WithSilentAccount(acc))
	if err != nil {
		return Token{}, &AcquireError{Kind: classify(err), Err: err}
	}
	return tokenFromResult(res), nil
}

// AcquireInteractive prompts in the browser, hinting the cached username
func (c *MSALClient) AcquireInteractive(ctx context.Context, account Account, scopes []string) (Token, error) {
	res, err := c.app.AcquireTokenInteractive(ctx, scopes, c.interactiveOptions(account.Username)...)
	if err != nil {
		return Token{}, &AcquireError{Kind: Other, Err: err}
	}
	return tokenFromResult(res), nil
}

// SignOut removes the account from the MSAL cache
func (c *MSALClient) SignOut(ctx context.Context, account Account) error {
	acc, err := c.lookup(ctx, account)
	if err != nil {
		return err
	}
	return c.app.RemoveAccount(ctx, acc)
}

func (c *MSALClient) interactiveOptions(loginHint string) []public.AcquireInteractiveOption {
	var opts []public.AcquireInteractiveOption
	if c.redirectURI != "" {
		opts = append(opts, public.WithRedirectURI(c.redirectURI))
	}
	if loginHint != "" {
		opts = append(opts, public.WithLoginHint(loginHint))
	}
	return opts
}

func (c *MSALClient) lookup(ctx context.Context, account Account) (public.Account, error) {
	accounts, err := c.app.Accounts(ctx)
	if err != nil {
		return public.Account{}, err
	}
	for _, a := range accounts {
		if a.HomeAccountID == account.ID {
			return a, nil
		}
	}
	return public.Account{}, fmt.Errorf("no account %q in cache", account.Username)
}

func tokenFromResult(res public.AuthResult) Token {
	return Token{
		AccessToken: res.AccessToken,
		ExpiresOn:   res.ExpiresOn,
		Account:     Account{ID: res.Account.HomeAccountID, Username: res.Account.PreferredUsername},
	}
}

// interactionMarkers appear in identity errors that a new prompt resolves
var interactionMarkers = []string{
	"invalid_grant",
	"interaction_required",
	"consent_required",
	"login_required",
	"aadsts5",
	"no token",
	"not found",
	"no account",
}

// classify tags a silent acquisition failure
func classify(err error) FailureKind {
	if err == nil {
		return Other
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Other
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Other
	}

	msg := strings.ToLower(err.Error())
	for _, m := range interactionMarkers {
		if strings.Contains(msg, m) {
			return NeedsInteraction
		}
	}
	return Other
}

// storeCache persists the serialized MSAL cache in a tokenstore
type storeCache struct {
	store tokenstore.Store
	key   string
}

func (s *storeCache) Replace(ctx context.Context, u cache.Unmarshaler, _ cache.ReplaceHints) error {
	data, err := s.store.Load(s.key)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return u.Unmarshal(data)
}

func (s *storeCache) Export(ctx context.Context, m cache.Marshaler, _ cache.ExportHints) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return s.store.Save(s.key, data)
}
