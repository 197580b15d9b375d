// Package gmail retrieves messages through the Gmail API.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/vijay-prabhu/emlsave/internal/email"
)

// Scopes defines the OAuth scopes required
var Scopes = []string{
	gmail.GmailReadonlyScope,
}

// Client fetches messages for the signed-in Gmail user
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// New creates a Gmail client. An empty endpoint uses the public API.
func New(endpoint string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{endpoint: endpoint, http: httpClient, logger: logger}
}

// Name returns the backend identifier
func (c *Client) Name() string {
	return "gmail"
}

// Scopes returns the OAuth scopes the strategies need
func (c *Client) Scopes() []string {
	return Scopes
}

// service builds a Gmail service authorized with token
func (c *Client) service(ctx context.Context, token string) (*gmail.Service, error) {
	base := context.WithValue(ctx, oauth2.HTTPClient, c.http)
	hc := oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return service, nil
}

// FetchRaw downloads the message in its native wire format
func (c *Client) FetchRaw(ctx context.Context, token, id string) ([]byte, error) {
	service, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	msg, err := service.Users.Messages.Get("me", id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, apiError(err)
	}
	if msg.Raw == "" {
		return nil, errors.New("message has no raw content")
	}
	return decodeBase64URL(msg.Raw)
}

// FetchFull retrieves the parsed message and maps it to a record
func (c *Client) FetchFull(ctx context.Context, token, id string) (*email.Record, error) {
	service, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	msg, err := service.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, apiError(err)
	}
	return convertMessage(msg), nil
}

// Latest returns the newest message in the Inbox
func (c *Client) Latest(ctx context.Context, token string) (email.Item, error) {
	service, err := c.service(ctx, token)
	if err != nil {
		return email.Item{}, err
	}

	resp, err := service.Users.Messages.List("me").LabelIds("INBOX").MaxResults(1).Context(ctx).Do()
	if err != nil {
		return email.Item{}, apiError(err)
	}
	if len(resp.Messages) == 0 {
		return email.Item{}, errors.New("inbox is empty")
	}

	id := resp.Messages[0].Id
	msg, err := service.Users.Messages.Get("me", id).Format("metadata").MetadataHeaders("Subject").Context(ctx).Do()
	if err != nil {
		return email.Item{}, apiError(err)
	}

	item := email.Item{ID: id}
	if msg.Payload != nil {
		item.Subject = header(msg.Payload.Headers, "subject")
	}
	return item, nil
}

// apiError maps Google API errors to email.StatusError
func apiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &email.StatusError{Code: gerr.Code, Message: gerr.Message}
	}
	return err
}
