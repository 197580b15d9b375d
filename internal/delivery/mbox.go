package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/vijay-prabhu/emlsave/internal/eml"
)

// MboxSink appends each artifact to a single mbox archive
type MboxSink struct {
	Path   string
	Logger *slog.Logger

	now func() time.Time
}

// Deliver appends the payload as one mbox message. The envelope sender and
// date come from the message headers when they can be parsed.
func (s *MboxSink) Deliver(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return "", fmt.Errorf("failed to create mbox directory: %w", err)
	}

	from, date := s.envelope(a.Payload)

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("open mbox: %w", err)
	}
	defer f.Close()

	w := mboxlib.NewWriter(f)
	mw, err := w.CreateMessage(from, date)
	if err != nil {
		return "", fmt.Errorf("start mbox message: %w", err)
	}
	if _, err := mw.Write(a.Payload); err != nil {
		return "", fmt.Errorf("write mbox message: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish mbox message: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close mbox: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("message appended", "mbox", s.Path, "from", from, "bytes", len(a.Payload))
	}
	return s.Path, nil
}

func (s *MboxSink) envelope(payload []byte) (string, time.Time) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}

	from, date := "MAILER-DAEMON", now()

	summary, err := eml.Inspect(payload)
	if err != nil {
		return from, date
	}
	if len(summary.From) > 0 && summary.From[0].Email != "" {
		from = summary.From[0].Email
	}
	if !summary.Date.IsZero() {
		date = summary.Date
	}
	return from, date
}
