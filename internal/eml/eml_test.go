package eml

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/vijay-prabhu/emlsave/internal/email"
)

func headerLines(t *testing.T, payload []byte) []string {
	t.Helper()

	head, _, ok := strings.Cut(string(payload), "\r\n\r\n")
	if !ok {
		t.Fatalf("payload has no header/body separator: %q", payload)
	}
	return strings.Split(head, "\r\n")
}

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestFromStructuredMinimal(t *testing.T) {
	rec := email.Record{
		Subject: "Hi",
		From:    &email.Address{Email: "a@x.com"},
		Body:    email.Body{Content: "hello"},
	}

	got := string(FromStructured(rec))
	want := "Date: \r\n" +
		"From: a@x.com\r\n" +
		"Subject: Hi\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: 8bit\r\n" +
		"\r\n" +
		"hello"

	if got != want {
		t.Errorf("FromStructured() =\n%q\nwant\n%q", got, want)
	}
}

func TestFromStructuredHeaders(t *testing.T) {
	received := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	bob := email.Address{Name: "Bob", Email: "bob@example.com"}
	carol := email.Address{Email: "carol@example.com"}

	tests := []struct {
		name    string
		rec     email.Record
		present []string
		absent  []string
	}{
		{
			name:    "no recipients",
			rec:     email.Record{Subject: "s"},
			present: []string{"Subject: s", "From: "},
			absent:  []string{"To:", "Cc:", "Bcc:"},
		},
		{
			name:    "to only",
			rec:     email.Record{To: []email.Address{bob, carol}},
			present: []string{"To: Bob <bob@example.com>, carol@example.com"},
			absent:  []string{"Cc:", "Bcc:"},
		},
		{
			name:    "cc and bcc",
			rec:     email.Record{Cc: []email.Address{carol}, Bcc: []email.Address{bob}},
			present: []string{"Cc: carol@example.com", "Bcc: Bob <bob@example.com>"},
			absent:  []string{"To:"},
		},
		{
			name:    "empty recipient slices",
			rec:     email.Record{To: []email.Address{}, Cc: []email.Address{}},
			present: []string{"Subject: (no subject)"},
			absent:  []string{"To:", "Cc:", "Bcc:"},
		},
		{
			name:    "html body and date",
			rec:     email.Record{Received: received, Body: email.Body{HTML: true, Content: "<p>x</p>"}},
			present: []string{"Date: Tue, 05 Mar 2024 14:07:09 +0000", "Content-Type: text/html; charset=utf-8"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := headerLines(t, FromStructured(tt.rec))

			for _, p := range tt.present {
				if countPrefix(lines, p) != 1 {
					t.Errorf("expected exactly one %q line in %q", p, lines)
				}
			}
			for _, a := range tt.absent {
				if countPrefix(lines, a) != 0 {
					t.Errorf("unexpected %q line in %q", a, lines)
				}
			}
			if countPrefix(lines, "Subject: ") != 1 {
				t.Errorf("expected exactly one Subject line in %q", lines)
			}
		})
	}
}

func TestFromStructuredFlattensLineBreaks(t *testing.T) {
	rec := email.Record{
		Subject: "a\r\nBcc: x",
		From:    &email.Address{Name: "Eve\nX-Injected: 1", Email: "eve@x.com"},
		To:      []email.Address{{Email: "b@x.com\r"}},
		Body:    email.Body{Content: "hello"},
	}

	lines := headerLines(t, FromStructured(rec))
	if n := countPrefix(lines, "Subject: "); n != 1 {
		t.Errorf("%d Subject lines, want 1: %q", n, lines)
	}
	for _, prefix := range []string{"Bcc:", "X-Injected:"} {
		if n := countPrefix(lines, prefix); n != 0 {
			t.Errorf("value broke out into a %s header: %q", prefix, lines)
		}
	}
	if !slices.Contains(lines, "Subject: a Bcc: x") {
		t.Errorf("Subject not flattened: %q", lines)
	}
	for _, l := range lines {
		if strings.ContainsAny(l, "\r\n") {
			t.Errorf("header line carries a line break: %q", l)
		}
	}
}

func TestFromStructuredBodyVerbatim(t *testing.T) {
	body := "line one\nline two\r\n\r\nFrom: not a header"
	payload := string(FromStructured(email.Record{Body: email.Body{Content: body}}))

	if !strings.HasSuffix(payload, "\r\n\r\n"+body) {
		t.Errorf("body not copied verbatim: %q", payload)
	}
}

func TestRoundTrip(t *testing.T) {
	rec := email.Record{
		Subject:  "Quarterly numbers",
		From:     &email.Address{Name: "Alice Example", Email: "alice@example.com"},
		To:       []email.Address{{Name: "Bob", Email: "bob@example.com"}, {Email: "team@example.com"}},
		Cc:       []email.Address{{Email: "carol@example.com"}},
		Received: time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC),
		Body:     email.Body{Content: "see attached"},
	}

	payload := FromStructured(rec)

	lines := headerLines(t, payload)
	allowed := []string{"Date:", "From:", "To:", "Cc:", "Subject:", "MIME-Version:", "Content-Type:", "Content-Transfer-Encoding:"}
	for _, l := range lines {
		ok := false
		for _, a := range allowed {
			if strings.HasPrefix(l, a) {
				ok = true
				break
			}
		}
		if !ok {
			t.Errorf("unexpected header line %q", l)
		}
	}

	s, err := Inspect(payload)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}

	if s.Subject != rec.Subject {
		t.Errorf("Subject = %q, want %q", s.Subject, rec.Subject)
	}
	if len(s.From) != 1 || s.From[0] != *rec.From {
		t.Errorf("From = %+v, want %+v", s.From, *rec.From)
	}
	if len(s.To) != 2 || s.To[0] != rec.To[0] || s.To[1] != rec.To[1] {
		t.Errorf("To = %+v, want %+v", s.To, rec.To)
	}
	if len(s.Cc) != 1 || s.Cc[0] != rec.Cc[0] {
		t.Errorf("Cc = %+v, want %+v", s.Cc, rec.Cc)
	}
	if len(s.Bcc) != 0 {
		t.Errorf("Bcc = %+v, want none", s.Bcc)
	}
	if !s.Date.Equal(rec.Received) {
		t.Errorf("Date = %v, want %v", s.Date, rec.Received)
	}
	if s.ContentType != "text/plain" {
		t.Errorf("ContentType = %q", s.ContentType)
	}
}

func TestInspectMissingHeaders(t *testing.T) {
	s, err := Inspect([]byte("Subject: only\r\n\r\nbody"))
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if s.Subject != "only" || len(s.From) != 0 || !s.Date.IsZero() {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

	tests := []string{
		"Tue, 05 Mar 2024 14:07:09 +0000",
		"Tue, 5 Mar 2024 14:07:09 +0000",
		"5 Mar 2024 14:07:09 +0000",
		"Tue, 05 Mar 2024 14:07:09 +0000 (UTC)",
	}
	for _, s := range tests {
		got, err := ParseDate(s)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", s, got, want)
		}
	}

	if _, err := ParseDate("yesterday"); err == nil {
		t.Error("expected error for unparseable date")
	}
}
