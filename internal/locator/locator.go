// Package locator derives the string encodings of a host-supplied message
// identifier that are tried, in order, when addressing the mail API.
package locator

import (
	"errors"
	"iter"
	"strings"
)

// ErrInvalidIdentifier is returned when no message identifier is available
var ErrInvalidIdentifier = errors.New("no message identifier: select a message and try again")

// Encoding names one identifier transformation
type Encoding string

const (
	Identity      Encoding = "identity"
	URIComponent  Encoding = "uri-component"
	FullURI       Encoding = "full-uri"
	URLSafeBase64 Encoding = "base64url"
)

// Order is the trial order of encodings
var Order = []Encoding{Identity, URIComponent, FullURI, URLSafeBase64}

// Candidate is one encoded form of an identifier
type Candidate struct {
	Encoding Encoding
	Value    string
}

// Candidates returns the encodings of rawID in trial order. The sequence is
// computed lazily and always yields one candidate per entry of Order.
func Candidates(rawID string) (iter.Seq[Candidate], error) {
	if strings.TrimSpace(rawID) == "" {
		return nil, ErrInvalidIdentifier
	}

	return func(yield func(Candidate) bool) {
		for _, enc := range Order {
			if !yield(Candidate{Encoding: enc, Value: Encode(rawID, enc)}) {
				return
			}
		}
	}, nil
}

// Encode applies a single encoding to id
func Encode(id string, enc Encoding) string {
	switch enc {
	case URIComponent:
		return escape(id, componentSafe)
	case FullURI:
		return escape(id, uriSafe)
	case URLSafeBase64:
		return urlSafe.Replace(id)
	default:
		return id
	}
}

// urlSafe maps the standard base64 alphabet onto the URL-safe one. Mail API
// identifiers are already base64 text, so only the two differing symbols move.
var urlSafe = strings.NewReplacer("/", "_", "+", "-")

// Characters left alone by ECMAScript encodeURIComponent besides alphanumerics
const componentSafe = "-_.!~*'()"

// encodeURI additionally keeps the URI reserved set
const uriSafe = componentSafe + ";,/?:@&=+$#"

const upperhex = "0123456789ABCDEF"

func escape(s, safe string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
