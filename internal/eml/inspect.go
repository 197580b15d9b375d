package eml

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/vijay-prabhu/emlsave/internal/email"
)

// Summary is the header data of a parsed message file
type Summary struct {
	Subject     string
	From        []email.Address
	To          []email.Address
	Cc          []email.Address
	Bcc         []email.Address
	Date        time.Time
	ContentType string
	Size        int
}

// Inspect parses the header block of a message file
func Inspect(payload []byte) (*Summary, error) {
	mr, err := mail.CreateReader(bytes.NewReader(payload))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	h := mr.Header
	s := &Summary{Size: len(payload)}

	if s.Subject, err = h.Subject(); err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("parse subject: %w", err)
	}

	// Address and date headers are best effort; a malformed value leaves the field empty
	s.From = addressList(h, "From")
	s.To = addressList(h, "To")
	s.Cc = addressList(h, "Cc")
	s.Bcc = addressList(h, "Bcc")

	if d, err := h.Date(); err == nil {
		s.Date = d
	}

	if ct, _, err := h.ContentType(); err == nil {
		s.ContentType = ct
	}

	return s, nil
}

// InspectReader is Inspect for a stream
func InspectReader(r io.Reader) (*Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Inspect(data)
}

func addressList(h mail.Header, key string) []email.Address {
	list, err := h.AddressList(key)
	if err != nil {
		return nil
	}

	addrs := make([]email.Address, 0, len(list))
	for _, a := range list {
		addrs = append(addrs, email.Address{Name: a.Name, Email: a.Address})
	}
	return addrs
}
