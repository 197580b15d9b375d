package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vijay-prabhu/emlsave/internal/config"
	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/host"
	"github.com/vijay-prabhu/emlsave/internal/mcp"
	"github.com/vijay-prabhu/emlsave/internal/session"
)

type signedIn struct{}

func (signedIn) Accounts(ctx context.Context) ([]credential.Account, error) {
	return []credential.Account{{ID: "1", Username: "user@example.com"}}, nil
}

func (signedIn) SignIn(ctx context.Context, scopes []string) (credential.Account, error) {
	return credential.Account{}, errors.New("unexpected sign-in")
}

func (signedIn) AcquireSilent(ctx context.Context, a credential.Account, scopes []string) (credential.Token, error) {
	return credential.Token{AccessToken: "tok"}, nil
}

func (signedIn) AcquireInteractive(ctx context.Context, a credential.Account, scopes []string) (credential.Token, error) {
	return credential.Token{AccessToken: "tok"}, nil
}

func (signedIn) SignOut(ctx context.Context, a credential.Account) error { return nil }

// heldBackend blocks its strategy until released
type heldBackend struct {
	entered chan struct{}
	release chan struct{}
}

func (b *heldBackend) Name() string     { return "held" }
func (b *heldBackend) Scopes() []string { return nil }

func (b *heldBackend) Strategies() []fetch.Strategy {
	return []fetch.Strategy{{
		Name: "held",
		Once: true,
		Run: func(ctx context.Context, req fetch.Request) (fetch.Result, error) {
			b.entered <- struct{}{}
			<-b.release
			return fetch.Result{Payload: []byte("B")}, nil
		},
	}}
}

func (b *heldBackend) Latest(ctx context.Context, token string) (email.Item, error) {
	return email.Item{ID: "newest", Subject: "Newest"}, nil
}

func testApp(t *testing.T, b backend) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Format = "eml"

	a := &app{
		cfg:      cfg,
		provider: credential.NewProvider(func(ctx context.Context) (credential.Client, error) { return signedIn{}, nil }, nil),
		backend:  b,
	}
	a.session = a.newSession()
	return a
}

func TestOverlappingSavesShareOneSession(t *testing.T) {
	b := &heldBackend{entered: make(chan struct{}, 1), release: make(chan struct{})}
	a := testApp(t, b)
	quiet := &Terminal{out: io.Discard}

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = a.download(context.Background(), host.TypeCommandLine, email.Item{ID: "x", Subject: "First"}, false, quiet.State)
	}()

	<-b.entered

	// an assistant save arriving mid-download is refused
	m := mailbox{app: a, terminal: quiet}
	if _, err := m.Save(context.Background(), mcp.SaveRequest{ID: "y", Subject: "Second"}); !errors.Is(err, session.ErrInProgress) {
		t.Errorf("overlapping Save = %v, want ErrInProgress", err)
	}

	close(b.release)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first download error: %v", firstErr)
	}
	if _, err := os.Stat(filepath.Join(a.cfg.Output.Dir, "First.eml")); err != nil {
		t.Errorf("first save not delivered: %v", err)
	}
	if got := a.session.HostType(); got != host.TypeCommandLine {
		t.Errorf("HostType = %q, want %q", got, host.TypeCommandLine)
	}

	// the session accepts the next save once idle
	out, err := m.Save(context.Background(), mcp.SaveRequest{Latest: true})
	if err != nil {
		t.Fatalf("Save after completion: %v", err)
	}
	if out.Filename != "Newest.eml" {
		t.Errorf("Filename = %q, want Newest.eml", out.Filename)
	}
	if got := a.session.HostType(); got != host.TypeMailbox {
		t.Errorf("HostType = %q, want %q", got, host.TypeMailbox)
	}
}
