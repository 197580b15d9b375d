package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/vijay-prabhu/emlsave/internal/tokenstore"
)

var errNoStoredToken = errors.New("no token found in cache")

// LoadGoogleConfig loads an OAuth client config from a credentials file
func LoadGoogleConfig(credPath string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w\n\nTo set up Gmail API:\n1. Go to https://console.cloud.google.com/\n2. Create a project and enable Gmail API\n3. Create OAuth 2.0 credentials (Desktop app)\n4. Download and save to: %s", err, credPath)
	}

	config, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return config, nil
}

// OAuthClient is a Client for plain OAuth2 providers (Gmail). The token is
// kept in a tokenstore and refreshed through the config's token source.
type OAuthClient struct {
	config *oauth2.Config
	store  tokenstore.Store
	key    string
	logger *slog.Logger

	// OpenURL shows the consent page to the user
	OpenURL func(url string) error
	// Prompt receives the instructions printed before the browser opens
	Prompt io.Writer
}

// NewOAuth returns a client storing its token under key
func NewOAuth(config *oauth2.Config, store tokenstore.Store, key string, logger *slog.Logger) *OAuthClient {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OAuthClient{
		config:  config,
		store:   store,
		key:     key,
		logger:  logger,
		OpenURL: openBrowser,
		Prompt:  os.Stderr,
	}
}

// Accounts reports the stored account, if any
func (c *OAuthClient) Accounts(ctx context.Context) ([]Account, error) {
	_, err := c.load()
	if errors.Is(err, errNoStoredToken) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []Account{c.account()}, nil
}

// SignIn runs the browser flow and stores the token
func (c *OAuthClient) SignIn(ctx context.Context, scopes []string) (Account, error) {
	if _, err := c.AcquireInteractive(ctx, c.account(), scopes); err != nil {
		return Account{}, err
	}
	return c.account(), nil
}

// AcquireSilent returns the stored token, refreshing it when expired
func (c *OAuthClient) AcquireSilent(ctx context.Context, account Account, scopes []string) (Token, error) {
	tok, err := c.load()
	if err != nil {
		kind := Other
		if errors.Is(err, errNoStoredToken) {
			kind = NeedsInteraction
		}
		return Token{}, &AcquireError{Kind: kind, Err: err}
	}

	// Token source will auto-refresh expired tokens
	fresh, err := c.config.TokenSource(ctx, tok).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorCode == "invalid_grant" {
			return Token{}, &AcquireError{Kind: NeedsInteraction, Err: err}
		}
		return Token{}, &AcquireError{Kind: Other, Err: err}
	}

	if fresh.AccessToken != tok.AccessToken {
		c.logger.Debug("oauth token refreshed", "key", c.key)
		if err := c.save(fresh); err != nil {
			c.logger.Warn("failed to save refreshed token", "error", err)
		}
	}
	return c.token(fresh), nil
}

// AcquireInteractive runs the browser consent flow
func (c *OAuthClient) AcquireInteractive(ctx context.Context, account Account, scopes []string) (Token, error) {
	tok, err := c.tokenFromWeb(ctx)
	if err != nil {
		return Token{}, &AcquireError{Kind: Other, Err: err}
	}
	if err := c.save(tok); err != nil {
		return Token{}, &AcquireError{Kind: Other, Err: fmt.Errorf("failed to save token: %w", err)}
	}
	return c.token(tok), nil
}

// SignOut deletes the stored token
func (c *OAuthClient) SignOut(ctx context.Context, account Account) error {
	return c.store.Delete(c.key)
}

func (c *OAuthClient) account() Account {
	return Account{ID: c.key, Username: c.key}
}

func (c *OAuthClient) token(t *oauth2.Token) Token {
	return Token{AccessToken: t.AccessToken, ExpiresOn: t.Expiry, Account: c.account()}
}

func (c *OAuthClient) load() (*oauth2.Token, error) {
	data, err := c.store.Load(c.key)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil, errNoStoredToken
	}
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("decoding stored token: %w", err)
	}
	return token, nil
}

func (c *OAuthClient) save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return c.store.Save(c.key, data)
}

// tokenFromWeb performs the OAuth flow via browser. It waits until the
// callback arrives or ctx is done.
func (c *OAuthClient) tokenFromWeb(ctx context.Context) (*oauth2.Token, error) {
	state := uuid.NewString()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "invalid state", http.StatusBadRequest)
			sendErr(errChan, errors.New("invalid state parameter"))
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, e, http.StatusBadRequest)
			sendErr(errChan, fmt.Errorf("authorization denied: %s", e))
			return
		}

		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			sendErr(errChan, errors.New("no code in callback"))
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authentication successful!</h1><p>You can close this window.</p></body></html>`)
		select {
		case codeChan <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			sendErr(errChan, err)
		}
	}()
	defer server.Close()

	config := *c.config
	config.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr().String())
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	if c.Prompt != nil {
		fmt.Fprintln(c.Prompt, "Opening browser for authentication...")
		fmt.Fprintln(c.Prompt, "If browser doesn't open, visit this URL:")
		fmt.Fprintln(c.Prompt, authURL)
	}
	if c.OpenURL != nil {
		if err := c.OpenURL(authURL); err != nil {
			c.logger.Warn("could not open browser", "error", err)
		}
	}

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
