// Package session runs one user-triggered download from token to file.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/delivery"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/eml"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/host"
	"github.com/vijay-prabhu/emlsave/internal/locator"
)

// ErrInProgress is returned when a download is requested while one is running
var ErrInProgress = errors.New("a download is already in progress")

// Backend is a mail API the session can retrieve from
type Backend interface {
	Name() string
	Scopes() []string
	Strategies() []fetch.Strategy
}

// Credentials issues bearer tokens. *credential.Provider implements it.
type Credentials interface {
	Initialize(ctx context.Context) error
	Token(ctx context.Context, scopes []string) (credential.Token, error)
}

// Config wires a session. Host, Sink and OnState are defaults for
// attempts that do not bring their own.
type Config struct {
	Credentials Credentials
	Backend     Backend
	Host        host.Adapter
	Fetcher     *fetch.Fetcher
	Sink        delivery.Sink
	Logger      *slog.Logger

	// OnState is called on every state transition
	OnState func(State)
}

// Attempt carries what varies between downloads of one session
type Attempt struct {
	Host    host.Adapter
	Sink    delivery.Sink
	OnState func(State)
}

// Outcome describes a finished download
type Outcome struct {
	AttemptID     string           `json:"attempt_id"`
	Backend       string           `json:"backend"`
	MessageID     string           `json:"message_id"`
	Subject       string           `json:"subject"`
	Strategy      string           `json:"strategy"`
	Encoding      locator.Encoding `json:"encoding,omitempty"`
	Reconstructed bool             `json:"reconstructed"`
	Filename      string           `json:"filename"`
	Location      string           `json:"location"`
	Size          int              `json:"size"`
}

// Session is created once and reused for every download
type Session struct {
	cfg    Config
	logger *slog.Logger

	startMu  sync.Mutex
	started  bool
	hostType string

	busy  atomic.Bool
	state atomic.Int32

	// onState belongs to the running attempt; only touched while busy
	onState func(State)
}

// New creates a session
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = &fetch.Fetcher{Logger: logger}
	}
	return &Session{cfg: cfg, logger: logger}
}

// State returns the current state
func (s *Session) State() State {
	return State(s.state.Load())
}

// HostType returns the tag last reported by a host
func (s *Session) HostType() string {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	return s.hostType
}

// Start waits for the configured host, if any, and initializes the
// credential provider. It is safe to call more than once.
func (s *Session) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.started {
		return nil
	}

	if s.cfg.Host != nil {
		hostType, err := s.cfg.Host.Ready(ctx)
		if err != nil {
			return err
		}
		s.hostType = hostType
	}
	if err := s.cfg.Credentials.Initialize(ctx); err != nil {
		return err
	}

	s.started = true
	s.logger.Debug("session ready", "host", s.hostType, "backend", s.cfg.Backend.Name())
	return nil
}

// Download runs an attempt with the configured host and sink
func (s *Session) Download(ctx context.Context) (*Outcome, error) {
	return s.Run(ctx, Attempt{})
}

// Run retrieves the attempt host's current message and delivers it. Unset
// Attempt fields fall back to the session Config. Only one attempt runs at
// a time; a concurrent call gets ErrInProgress.
func (s *Session) Run(ctx context.Context, at Attempt) (*Outcome, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	defer s.busy.Store(false)

	if at.Host == nil {
		at.Host = s.cfg.Host
	}
	if at.Sink == nil {
		at.Sink = s.cfg.Sink
	}
	if at.OnState == nil {
		at.OnState = s.cfg.OnState
	}
	s.onState = at.OnState
	defer func() { s.onState = nil }()

	attemptID := uuid.NewString()
	ctx = email.WithAttemptID(ctx, attemptID)
	logger := s.logger.With("attempt", attemptID, "backend", s.cfg.Backend.Name())

	out, err := s.download(ctx, at, attemptID, logger)
	if err != nil {
		logger.Error("download failed", "state", s.State(), "error", err)
		s.setState(Failed)
		s.setState(Idle)
		return nil, err
	}

	logger.Info("download complete", "strategy", out.Strategy, "encoding", out.Encoding, "location", out.Location)
	s.setState(Done)
	s.setState(Idle)
	return out, nil
}

func (s *Session) download(ctx context.Context, at Attempt, attemptID string, logger *slog.Logger) (*Outcome, error) {
	if at.Host == nil || at.Sink == nil {
		return nil, errors.New("session has no host or sink for this download")
	}

	hostType, err := at.Host.Ready(ctx)
	if err != nil {
		return nil, err
	}
	s.startMu.Lock()
	s.hostType = hostType
	s.startMu.Unlock()

	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	s.setState(Authenticating)
	tok, err := s.cfg.Credentials.Token(ctx, s.cfg.Backend.Scopes())
	if err != nil {
		return nil, err
	}

	item, err := at.Host.CurrentItem(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	candidates, err := locator.Candidates(item.ID)
	if err != nil {
		return nil, err
	}

	s.setState(Fetching)
	logger.Info("fetching message", "id", item.ID, "subject", item.Subject)

	req := fetch.Request{Token: tok.AccessToken, Item: item}
	res, err := s.cfg.Fetcher.FirstSuccess(ctx, req, candidates, s.cfg.Backend.Strategies())
	if err != nil {
		return nil, err
	}

	subject := item.Subject
	payload := res.Payload
	if res.Record != nil {
		s.setState(Reconstructing)
		payload = eml.FromStructured(*res.Record)
		if subject == "" {
			subject = res.Record.Subject
		}
	}

	s.setState(Delivering)
	artifact := delivery.Artifact{Filename: delivery.Filename(subject), Payload: payload}
	location, err := at.Sink.Deliver(ctx, artifact)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		AttemptID:     attemptID,
		Backend:       s.cfg.Backend.Name(),
		MessageID:     item.ID,
		Subject:       subject,
		Strategy:      res.Strategy,
		Encoding:      res.Encoding,
		Reconstructed: res.Record != nil,
		Filename:      artifact.Filename,
		Location:      location,
		Size:          len(payload),
	}, nil
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	if s.onState != nil {
		s.onState(st)
	}
}
