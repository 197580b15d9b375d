// Package fetch runs an ordered list of retrieval strategies against a mail
// API and returns the first one that produces the message.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/locator"
)

// Request is what a strategy gets for one attempt
type Request struct {
	Token     string
	Item      email.Item
	Candidate locator.Candidate // zero for strategies marked Once
}

// Result is a successful retrieval. Exactly one of Payload and Record is set.
type Result struct {
	Payload  []byte
	Record   *email.Record
	Strategy string
	Encoding locator.Encoding
}

// Strategy describes one request shape and how its response is interpreted
type Strategy struct {
	Name string

	// Encodings restricts which identifier encodings are tried. Nil means all.
	Encodings []locator.Encoding

	// Once strategies do not address the message by identifier and run a
	// single time per fetch.
	Once bool

	Run func(ctx context.Context, req Request) (Result, error)
}

func (s Strategy) accepts(enc locator.Encoding) bool {
	return s.Encodings == nil || slices.Contains(s.Encodings, enc)
}

// ErrSkipped is returned by a strategy that has nothing to try
var ErrSkipped = errors.New("skipped")

// Attempt records one failed try
type Attempt struct {
	Strategy string
	Encoding locator.Encoding
	Err      error
}

// ExhaustedError is returned when every strategy failed
type ExhaustedError struct {
	Attempts []Attempt
}

// Strategies returns the names of attempted strategies in order
func (e *ExhaustedError) Strategies() []string {
	var names []string
	for _, a := range e.Attempts {
		if !slices.Contains(names, a.Strategy) {
			names = append(names, a.Strategy)
		}
	}
	return names
}

func (e *ExhaustedError) Error() string {
	entries := make([]string, 0, len(e.Attempts))
	for _, name := range e.Strategies() {
		var reasons []string
		for _, a := range e.Attempts {
			if a.Strategy != name {
				continue
			}
			if a.Encoding == "" {
				reasons = append(reasons, a.Err.Error())
			} else {
				reasons = append(reasons, fmt.Sprintf("%s: %v", a.Encoding, a.Err))
			}
		}
		entries = append(entries, fmt.Sprintf("[%s] %s", name, strings.Join(reasons, "; ")))
	}
	return "all retrieval strategies failed: " + strings.Join(entries, " ")
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Fetcher iterates strategies with a fixed pause between them
type Fetcher struct {
	Pause  time.Duration
	Logger *slog.Logger
}

// FirstSuccess tries each strategy, and within a strategy each accepted
// candidate encoding, returning the first success. A candidate value
// already tried by a strategy is not sent again by that strategy.
func (f *Fetcher) FirstSuccess(ctx context.Context, req Request, candidates iter.Seq[locator.Candidate], strategies []Strategy) (Result, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	exhausted := &ExhaustedError{}

	for i, s := range strategies {
		if i > 0 {
			if err := sleep(ctx, f.Pause); err != nil {
				return Result{}, err
			}
		}

		res, attempts, err := f.runStrategy(ctx, req, candidates, s, logger)
		if err == nil {
			res.Strategy = s.Name
			logger.Info("strategy succeeded", "strategy", s.Name, "encoding", res.Encoding)
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		exhausted.Attempts = append(exhausted.Attempts, attempts...)
	}

	return Result{}, exhausted
}

func (f *Fetcher) runStrategy(ctx context.Context, req Request, candidates iter.Seq[locator.Candidate], s Strategy, logger *slog.Logger) (Result, []Attempt, error) {
	if s.Once {
		res, err := s.Run(ctx, req)
		if err != nil {
			logger.Warn("strategy failed", "strategy", s.Name, "error", err)
			return Result{}, []Attempt{{Strategy: s.Name, Err: err}}, err
		}
		return res, nil, nil
	}

	var attempts []Attempt
	tried := make(map[string]bool)

	if candidates == nil {
		candidates = func(func(locator.Candidate) bool) {}
	}

	for c := range candidates {
		if !s.accepts(c.Encoding) || tried[c.Value] {
			continue
		}
		tried[c.Value] = true

		r := req
		r.Candidate = c
		res, err := s.Run(ctx, r)
		if err == nil {
			res.Encoding = c.Encoding
			return res, nil, nil
		}

		logger.Warn("strategy failed", "strategy", s.Name, "encoding", c.Encoding, "error", err)
		attempts = append(attempts, Attempt{Strategy: s.Name, Encoding: c.Encoding, Err: err})

		if ctx.Err() != nil {
			break
		}
	}

	if len(attempts) == 0 {
		attempts = append(attempts, Attempt{Strategy: s.Name, Err: ErrSkipped})
	}
	return Result{}, attempts, errors.New(s.Name + " failed")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
