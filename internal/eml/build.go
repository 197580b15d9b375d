// Package eml builds and reads message files in the Internet Message Format.
package eml

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/vijay-prabhu/emlsave/internal/email"
)

// DateLayout is the timestamp format written to the Date header
const DateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

const crlf = "\r\n"

// FromStructured renders a structured record as a message file.
// Header lines are written unfolded; the body is copied verbatim.
func FromStructured(rec email.Record) []byte {
	var buf bytes.Buffer

	date := ""
	if !rec.Received.IsZero() {
		date = rec.Received.Format(DateLayout)
	}
	writeHeader(&buf, "Date", date)

	from := ""
	if rec.From != nil {
		from = rec.From.String()
	}
	writeHeader(&buf, "From", from)

	if len(rec.To) > 0 {
		writeHeader(&buf, "To", email.JoinAddresses(rec.To))
	}
	if len(rec.Cc) > 0 {
		writeHeader(&buf, "Cc", email.JoinAddresses(rec.Cc))
	}
	if len(rec.Bcc) > 0 {
		writeHeader(&buf, "Bcc", email.JoinAddresses(rec.Bcc))
	}

	subject := rec.Subject
	if subject == "" {
		subject = email.DefaultSubject
	}
	writeHeader(&buf, "Subject", subject)

	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", ContentType(rec.Body.HTML))
	writeHeader(&buf, "Content-Transfer-Encoding", "8bit")

	buf.WriteString(crlf)
	buf.WriteString(rec.Body.Content)

	return buf.Bytes()
}

// ContentType returns the Content-Type header value for a body flavour
func ContentType(html bool) string {
	if html {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// writeHeader emits one header line. Line breaks in value become spaces so a
// value can never start a header of its own.
func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(lineBreaks.Replace(value))
	buf.WriteString(crlf)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// ParseDate parses a Date header, accepting the common variants seen in
// real mail as well as the layout FromStructured writes
func ParseDate(s string) (time.Time, error) {
	formats := []string{
		DateLayout,
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2 Jan 2006 15:04:05 -0700",
		"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
		"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	}

	s = strings.TrimSpace(s)
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}
