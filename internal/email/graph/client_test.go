package graph

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/locator"
)

const structuredJSON = `{
	"@odata.context": "https://graph.microsoft.com/v1.0/$metadata#users('me')/messages/$entity",
	"id": "AAMk1",
	"subject": "Hi",
	"from": {"emailAddress": {"name": "A", "address": "a@x.com"}},
	"toRecipients": [{"emailAddress": {"name": "Bob", "address": "b@x.com"}}],
	"ccRecipients": [],
	"bccRecipients": [],
	"body": {"contentType": "text", "content": "hello"},
	"receivedDateTime": "2024-05-01T09:00:00Z"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/v1.0/me", srv.Client(), nil)
}

func TestFetchMIMEHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/v1.0/me/messages/AAMk%2F1/$value" {
			t.Errorf("path = %s", r.URL.EscapedPath())
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "message/rfc822" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("client-request-id"); got != "attempt-1" {
			t.Errorf("client-request-id = %q", got)
		}
		io.WriteString(w, "B")
	})

	ctx := email.WithAttemptID(context.Background(), "attempt-1")
	payload, err := c.FetchMIME(ctx, "tok", "AAMk%2F1")
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "B" {
		t.Errorf("payload = %q", payload)
	}
}

func TestFetchStructured(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.RawQuery, "$select=") {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, structuredJSON)
	})

	rec, err := c.FetchStructured(context.Background(), "tok", "AAMk1")
	if err != nil {
		t.Fatal(err)
	}

	if rec.Subject != "Hi" {
		t.Errorf("Subject = %q", rec.Subject)
	}
	if rec.From == nil || rec.From.Email != "a@x.com" || rec.From.Name != "A" {
		t.Errorf("From = %+v", rec.From)
	}
	if len(rec.To) != 1 || rec.To[0].String() != "Bob <b@x.com>" {
		t.Errorf("To = %+v", rec.To)
	}
	if len(rec.Cc) != 0 || len(rec.Bcc) != 0 {
		t.Errorf("expected no Cc/Bcc, got %v %v", rec.Cc, rec.Bcc)
	}
	if rec.Body.Content != "hello" || rec.Body.HTML {
		t.Errorf("Body = %+v", rec.Body)
	}
	if !rec.Received.Equal(time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Received = %v", rec.Received)
	}
}

func TestStatusErrorCarriesODataMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":"ErrorItemNotFound","message":"The specified object was not found in the store."}}`)
	})

	_, err := c.FetchMIME(context.Background(), "tok", "x")
	var se *email.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusNotFound {
		t.Errorf("Code = %d", se.Code)
	}
	if !strings.Contains(se.Message, "ErrorItemNotFound") {
		t.Errorf("Message = %q", se.Message)
	}
}

func TestStatusErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Resolve(context.Background(), "tok", "x")
	if email.StatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err)
	}
}

func TestResolveMIMEUsesCanonicalID(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		if strings.HasSuffix(r.URL.EscapedPath(), "/$value") {
			io.WriteString(w, "raw")
			return
		}
		io.WriteString(w, `{"id":"canon/id="}`)
	})

	var resolve fetch.Strategy
	for _, s := range c.Strategies() {
		if s.Name == StrategyResolveMIME {
			resolve = s
		}
	}

	res, err := resolve.Run(context.Background(), fetch.Request{Token: "tok", Candidate: locator.Candidate{Value: "short"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Payload) != "raw" {
		t.Errorf("payload = %q", res.Payload)
	}

	want := []string{"/v1.0/me/messages/short", "/v1.0/me/messages/canon%2Fid=/$value"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestScopes(t *testing.T) {
	c := New("", nil, nil)
	got := c.Scopes()
	if strings.Join(got, " ") != strings.Join(credential.DefaultGraphScopes, " ") {
		t.Errorf("Scopes() = %v, want %v", got, credential.DefaultGraphScopes)
	}
	got[0] = "changed"
	if credential.DefaultGraphScopes[0] == "changed" {
		t.Error("Scopes() exposed the shared default slice")
	}

	c.Permissions = []string{"Mail.ReadWrite"}
	if got := c.Scopes(); len(got) != 1 || got[0] != "Mail.ReadWrite" {
		t.Errorf("configured Scopes() = %v", got)
	}
}

func TestStrategiesOrder(t *testing.T) {
	tests := []struct {
		subjectSearch bool
		want          []string
	}{
		{false, []string{StrategyMIME, StrategyResolveMIME, StrategyStructured}},
		{true, []string{StrategyMIME, StrategyResolveMIME, StrategyStructured, StrategySubjectSearch}},
	}

	for _, tt := range tests {
		c := New("", nil, nil)
		c.SubjectSearch = tt.subjectSearch

		var got []string
		for _, s := range c.Strategies() {
			got = append(got, s.Name)
			if s.Name == StrategySubjectSearch && !s.Once {
				t.Errorf("subject search must run once")
			}
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("SubjectSearch=%v: got %v, want %v", tt.subjectSearch, got, tt.want)
		}
	}
}

func TestSubjectSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.EscapedPath() == "/v1.0/me/messages":
			if got := r.URL.Query().Get("$search"); got != `"subject:Q3 Report"` {
				t.Errorf("$search = %q", got)
			}
			io.WriteString(w, `{"value":[{"id":"found1","subject":"Q3 Report"}]}`)
		case r.URL.EscapedPath() == "/v1.0/me/messages/found1/$value":
			io.WriteString(w, "B")
		default:
			t.Errorf("unexpected path %s", r.URL.EscapedPath())
			w.WriteHeader(http.StatusNotFound)
		}
	})

	res, err := c.runSubjectSearch(context.Background(), fetch.Request{Token: "tok", Item: email.Item{ID: "x", Subject: "Q3 Report"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Payload) != "B" {
		t.Errorf("payload = %q", res.Payload)
	}

	if _, err := c.runSubjectSearch(context.Background(), fetch.Request{Token: "tok"}); !errors.Is(err, fetch.ErrSkipped) {
		t.Errorf("empty subject should skip, got %v", err)
	}
}

func TestSubjectSearchNoMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"value":[]}`)
	})

	_, err := c.SearchBySubject(context.Background(), "tok", "nothing")
	if email.StatusCode(err) != http.StatusNotFound {
		t.Errorf("expected 404 StatusError, got %v", err)
	}
}

func TestLatest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/v1.0/me/mailFolders/inbox/messages" {
			t.Errorf("path = %s", r.URL.EscapedPath())
		}
		if got := r.URL.Query().Get("$orderby"); got != "receivedDateTime desc" {
			t.Errorf("$orderby = %q", got)
		}
		io.WriteString(w, `{"value":[{"id":"newest","subject":"Q3 Report"}]}`)
	})

	item, err := c.Latest(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != "newest" || item.Subject != "Q3 Report" {
		t.Errorf("item = %+v", item)
	}
}
