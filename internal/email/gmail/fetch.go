package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"google.golang.org/api/gmail/v1"

	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/eml"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/locator"
)

// Strategy names, in trial order
const (
	StrategyRaw  = "raw"
	StrategyFull = "full"
)

// The client library escapes path parameters itself, so only the
// unmodified identifier is sent.
var identityOnly = []locator.Encoding{locator.Identity}

// Strategies returns the retrieval strategies in priority order
func (c *Client) Strategies() []fetch.Strategy {
	return []fetch.Strategy{
		{Name: StrategyRaw, Encodings: identityOnly, Run: c.runRaw},
		{Name: StrategyFull, Encodings: identityOnly, Run: c.runFull},
	}
}

func (c *Client) runRaw(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	payload, err := c.FetchRaw(ctx, req.Token, req.Candidate.Value)
	if err != nil {
		return fetch.Result{}, err
	}
	return fetch.Result{Payload: payload}, nil
}

func (c *Client) runFull(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	rec, err := c.FetchFull(ctx, req.Token, req.Candidate.Value)
	if err != nil {
		return fetch.Result{}, err
	}
	return fetch.Result{Record: rec}, nil
}

// convertMessage converts a Gmail message to a structured record
func convertMessage(msg *gmail.Message) *email.Record {
	rec := &email.Record{ID: msg.Id}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				rec.Subject = h.Value
			case "from":
				if list := parseAddresses(h.Value); len(list) > 0 {
					rec.From = &list[0]
				}
			case "to":
				rec.To = parseAddresses(h.Value)
			case "cc":
				rec.Cc = parseAddresses(h.Value)
			case "bcc":
				rec.Bcc = parseAddresses(h.Value)
			case "date":
				if t, err := eml.ParseDate(h.Value); err == nil {
					rec.Received = t
				}
			}
		}
	}

	// Fallback to internal timestamp if date parsing failed
	if rec.Received.IsZero() && msg.InternalDate > 0 {
		rec.Received = time.UnixMilli(msg.InternalDate).UTC()
	}

	rec.Body = extractBody(msg.Payload)
	return rec
}

// parseAddresses reads an RFC 5322 address list. A value that does not
// parse is kept whole as a single address.
func parseAddresses(v string) []email.Address {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	list, err := mail.ParseAddressList(v)
	if err != nil {
		return []email.Address{{Email: v}}
	}
	out := make([]email.Address, 0, len(list))
	for _, a := range list {
		out = append(out, email.Address{Name: a.Name, Email: a.Address})
	}
	return out
}

// extractBody prefers the plain text part and falls back to HTML
func extractBody(payload *gmail.MessagePart) email.Body {
	if text := extractPartByMime(payload, "text/plain"); text != "" {
		return email.Body{Content: text}
	}
	if html := extractPartByMime(payload, "text/html"); html != "" {
		return email.Body{Content: html, HTML: true}
	}
	return email.Body{}
}

// extractPartByMime recursively finds a part with the given MIME type
func extractPartByMime(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}

	if strings.HasPrefix(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		if decoded, err := decodeBase64URL(part.Body.Data); err == nil {
			return string(decoded)
		}
	}

	for _, subpart := range part.Parts {
		if result := extractPartByMime(subpart, mimeType); result != "" {
			return result
		}
	}
	return ""
}

func header(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// decodeBase64URL accepts both padded and unpadded input
func decodeBase64URL(s string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding message data: %w", err)
	}
	return b, nil
}
