package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/locator"
)

// Describe turns a download error into guidance for the user
func Describe(err error) string {
	var (
		initErr   *credential.InitError
		authErr   *credential.AuthError
		exhausted *fetch.ExhaustedError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInProgress):
		return "A download is already running. Wait for it to finish."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.As(err, &initErr):
		return "Sign-in could not be set up. Check the [graph] or [gmail] section of the config file."
	case errors.As(err, &authErr):
		return "Sign-in failed. Run 'emlsave auth login' and try again."
	case errors.Is(err, locator.ErrInvalidIdentifier):
		return "No message is selected. Pass --id, or use --latest to save the newest Inbox message."
	case errors.As(err, &exhausted):
		return "The message could not be retrieved with any strategy. New messages can take a moment to appear in the API; try again shortly."
	}

	switch email.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "The mail API rejected the token. Run 'emlsave auth login' to sign in again."
	case http.StatusNotFound:
		return "The message was not found. Refresh the mailbox and select it again."
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return "The mail API is temporarily unavailable. Try again in a moment."
	}
	return "Something went wrong. Run with --log-level debug for details."
}
