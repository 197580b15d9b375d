// Package graph retrieves messages from Microsoft Graph.
//
// Requests are built by hand rather than through the SDK request builders:
// the message identifier goes into the path exactly as the locator encoded
// it. Responses are decoded with the SDK models.
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vijay-prabhu/emlsave/internal/email"
)

const (
	// DefaultBaseURL addresses the signed-in user's mailbox
	DefaultBaseURL = "https://graph.microsoft.com/v1.0/me"

	selectFields = "subject,from,toRecipients,ccRecipients,bccRecipients,body,receivedDateTime"

	// maxBody caps how much of a response is read
	maxBody = 64 << 20
)

// Client talks to the Graph mail endpoints
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	// SubjectSearch enables the search-by-subject fallback strategy
	SubjectSearch bool

	// Permissions overrides the delegated scopes requested for the token
	Permissions []string
}

// New creates a client for baseURL (DefaultBaseURL when empty)
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Name returns the backend identifier
func (c *Client) Name() string {
	return "graph"
}

// FetchMIME downloads the message in its native wire format
func (c *Client) FetchMIME(ctx context.Context, token, id string) ([]byte, error) {
	return c.get(ctx, token, "/messages/"+id+"/$value", "message/rfc822")
}

// Resolve looks the identifier up and returns the canonical id
func (c *Client) Resolve(ctx context.Context, token, id string) (string, error) {
	body, err := c.get(ctx, token, "/messages/"+id, "application/json")
	if err != nil {
		return "", err
	}

	msg, err := decodeMessage(body)
	if err != nil {
		return "", err
	}
	canonical := deref(msg.GetId())
	if canonical == "" {
		return "", errors.New("metadata response has no id")
	}
	return canonical, nil
}

// FetchStructured retrieves the message fields needed to rebuild it locally
func (c *Client) FetchStructured(ctx context.Context, token, id string) (*email.Record, error) {
	body, err := c.get(ctx, token, "/messages/"+id+"?$select="+selectFields, "application/json")
	if err != nil {
		return nil, err
	}

	msg, err := decodeMessage(body)
	if err != nil {
		return nil, err
	}
	return toRecord(msg), nil
}

// SearchBySubject returns the id of the newest message matching subject
func (c *Client) SearchBySubject(ctx context.Context, token, subject string) (string, error) {
	term := `"subject:` + strings.ReplaceAll(subject, `"`, "") + `"`
	body, err := c.get(ctx, token, "/messages?$search="+url.QueryEscape(term)+"&$top=1&$select=id,subject", "application/json")
	if err != nil {
		return "", err
	}

	msgs, err := decodeMessages(body)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 || deref(msgs[0].GetId()) == "" {
		return "", &email.StatusError{Code: http.StatusNotFound, Message: "no message matches the subject"}
	}
	return deref(msgs[0].GetId()), nil
}

// Latest returns the newest message in the Inbox
func (c *Client) Latest(ctx context.Context, token string) (email.Item, error) {
	body, err := c.get(ctx, token, "/mailFolders/inbox/messages?$top=1&$orderby=receivedDateTime%20desc&$select=id,subject", "application/json")
	if err != nil {
		return email.Item{}, err
	}

	msgs, err := decodeMessages(body)
	if err != nil {
		return email.Item{}, err
	}
	if len(msgs) == 0 {
		return email.Item{}, errors.New("inbox is empty")
	}
	return email.Item{ID: deref(msgs[0].GetId()), Subject: deref(msgs[0].GetSubject())}, nil
}

func (c *Client) get(ctx context.Context, token, path, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	req.Header.Set("Accept", accept)
	if id := email.AttemptID(ctx); id != "" {
		req.Header.Set("client-request-id", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("graph request", "path", path, "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
