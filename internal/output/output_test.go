package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/eml"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/locator"
	"github.com/vijay-prabhu/emlsave/internal/session"
)

func TestTableTo(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		contains []string
	}{
		{
			name: "outcome",
			data: &session.Outcome{
				Backend:       "graph",
				Subject:       "Q3 Report",
				Strategy:      "structured",
				Encoding:      locator.URIComponent,
				Reconstructed: true,
				Location:      "/tmp/Q3 Report.eml",
				Size:          42,
			},
			contains: []string{"/tmp/Q3 Report.eml", "structured (uri-component)", "rebuilt", "42 bytes"},
		},
		{
			name: "attempts",
			data: &fetch.ExhaustedError{Attempts: []fetch.Attempt{
				{Strategy: "mime", Encoding: locator.Identity, Err: &email.StatusError{Code: 404}},
				{Strategy: "subject-search", Err: fetch.ErrSkipped},
			}},
			contains: []string{"mime", "identity", "HTTP 404", "subject-search", "skipped"},
		},
		{
			name:     "candidates",
			data:     []locator.Candidate{{Encoding: locator.Identity, Value: "a/b"}, {Encoding: locator.URIComponent, Value: "a%2Fb"}},
			contains: []string{"identity", "a/b", "uri-component", "a%2Fb"},
		},
		{
			name:     "summary",
			data:     &eml.Summary{From: []email.Address{{Email: "a@x.com"}}, ContentType: "text/plain", Size: 10},
			contains: []string{"(no subject)", "a@x.com", "text/plain"},
		},
		{
			name:     "signed out",
			data:     &credential.Status{Backend: "graph"},
			contains: []string{"Not signed in to graph"},
		},
		{
			name:     "signed in",
			data:     &credential.Status{Backend: "graph", Accounts: []credential.Account{{ID: "1", Username: "user@example.com"}}},
			contains: []string{"user@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := TableTo(&buf, tt.data); err != nil {
				t.Fatalf("TableTo error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestTableToUnsupported(t *testing.T) {
	if err := TableTo(&bytes.Buffer{}, 42); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestOutputTo(t *testing.T) {
	var buf bytes.Buffer
	out := &session.Outcome{Filename: "Hi.eml", Strategy: "mime"}

	if err := OutputTo(&buf, "json", out); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["filename"] != "Hi.eml" {
		t.Errorf("filename = %v", decoded["filename"])
	}

	if err := OutputTo(&buf, "yaml", out); err == nil {
		t.Error("expected error for unknown format")
	}
}
