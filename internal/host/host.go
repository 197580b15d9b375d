// Package host supplies the message the user is looking at.
package host

import (
	"context"
	"errors"

	"github.com/vijay-prabhu/emlsave/internal/email"
)

// Host type tags reported by Ready
const (
	TypeCommandLine = "cli"
	TypeAssistant   = "mcp"
	TypeMailbox     = "mailbox"
)

// Adapter is the surrounding application that knows the current message
type Adapter interface {
	// Ready reports the host type once the host can answer CurrentItem
	Ready(ctx context.Context) (string, error)
	// CurrentItem returns the message the user selected. token authorizes
	// hosts that have to ask the mail API.
	CurrentItem(ctx context.Context, token string) (email.Item, error)
}

// Static is a host whose current item was given up front
type Static struct {
	Item email.Item
	// Type is reported by Ready, TypeCommandLine when empty
	Type string
}

// Ready always succeeds
func (s Static) Ready(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Type == "" {
		return TypeCommandLine, nil
	}
	return s.Type, nil
}

// CurrentItem returns the configured item
func (s Static) CurrentItem(ctx context.Context, token string) (email.Item, error) {
	return s.Item, nil
}

// Latest is a host whose current item is the newest Inbox message
type Latest struct {
	Finder email.LatestFinder
}

// Ready fails when no finder is configured
func (l Latest) Ready(ctx context.Context) (string, error) {
	if l.Finder == nil {
		return "", errors.New("backend cannot look up the latest message")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return TypeMailbox, nil
}

// CurrentItem asks the mail API for the newest message
func (l Latest) CurrentItem(ctx context.Context, token string) (email.Item, error) {
	return l.Finder.Latest(ctx, token)
}
