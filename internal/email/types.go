package email

import (
	"strings"
	"time"
)

// Item is the message the host currently has open
type Item struct {
	ID      string // Opaque identifier as supplied by the host
	Subject string // Subject as displayed by the host (may be empty)
}

// Record is the structured form of a message returned by a mail API
// when it does not hand out the raw message file.
type Record struct {
	ID       string
	Subject  string
	From     *Address // nil when the API omitted the sender
	To       []Address
	Cc       []Address
	Bcc      []Address
	Body     Body
	Received time.Time // zero when the API omitted the timestamp
}

// Body holds the message text and its flavour
type Body struct {
	Content string
	HTML    bool
}

// Address represents an email address with optional name
type Address struct {
	Name  string
	Email string
}

// String returns the formatted address. Names holding RFC 5322 specials
// are quoted so the result parses back as one mailbox.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	name := a.Name
	if strings.ContainsAny(name, `()<>[]:;@\,."`) {
		name = `"` + quoteEscaper.Replace(name) + `"`
	}
	return name + " <" + a.Email + ">"
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// JoinAddresses renders a recipient list as a header value
func JoinAddresses(addrs []Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
