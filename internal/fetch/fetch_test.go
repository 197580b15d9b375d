package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/locator"
)

func candidates(t *testing.T, id string) func(func(locator.Candidate) bool) {
	t.Helper()
	seq, err := locator.Candidates(id)
	if err != nil {
		t.Fatal(err)
	}
	return seq
}

func failing(name string, calls *int) Strategy {
	return Strategy{
		Name: name,
		Run: func(ctx context.Context, req Request) (Result, error) {
			*calls++
			return Result{}, &email.StatusError{Code: 404}
		},
	}
}

func TestFirstSuccessStopsAtFirst(t *testing.T) {
	var second, third int

	strategies := []Strategy{
		{
			Name: "mime",
			Run: func(ctx context.Context, req Request) (Result, error) {
				return Result{Payload: []byte("B")}, nil
			},
		},
		failing("resolve-mime", &second),
		failing("structured", &third),
	}

	f := &Fetcher{}
	res, err := f.FirstSuccess(context.Background(), Request{Token: "t"}, candidates(t, "AAMk=="), strategies)
	if err != nil {
		t.Fatalf("FirstSuccess error: %v", err)
	}
	if string(res.Payload) != "B" || res.Strategy != "mime" || res.Encoding != locator.Identity {
		t.Errorf("unexpected result: %+v", res)
	}
	if second != 0 || third != 0 {
		t.Errorf("later strategies were attempted: %d, %d", second, third)
	}
}

func TestFirstSuccessTriesEncodingsInOrder(t *testing.T) {
	var seen []locator.Encoding

	s := Strategy{
		Name: "mime",
		Run: func(ctx context.Context, req Request) (Result, error) {
			seen = append(seen, req.Candidate.Encoding)
			if req.Candidate.Encoding == locator.URLSafeBase64 {
				return Result{Payload: []byte("ok")}, nil
			}
			return Result{}, &email.StatusError{Code: 400}
		},
	}

	f := &Fetcher{}
	res, err := f.FirstSuccess(context.Background(), Request{}, candidates(t, "a b/c"), []Strategy{s})
	if err != nil {
		t.Fatalf("FirstSuccess error: %v", err)
	}
	if res.Encoding != locator.URLSafeBase64 {
		t.Errorf("Encoding = %s", res.Encoding)
	}

	want := []locator.Encoding{locator.Identity, locator.URIComponent, locator.FullURI, locator.URLSafeBase64}
	if len(seen) != len(want) {
		t.Fatalf("tried %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("attempt %d used %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestFirstSuccessSkipsDuplicateValues(t *testing.T) {
	var calls int
	f := &Fetcher{}

	// "abc" encodes identically under identity, uri-component and full-uri
	_, err := f.FirstSuccess(context.Background(), Request{}, candidates(t, "abc"), []Strategy{failing("mime", &calls)})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("expected 2 distinct attempts, got %d", calls)
	}
}

func TestFirstSuccessRespectsEncodingFilter(t *testing.T) {
	var got []locator.Encoding
	s := Strategy{
		Name:      "raw",
		Encodings: []locator.Encoding{locator.Identity},
		Run: func(ctx context.Context, req Request) (Result, error) {
			got = append(got, req.Candidate.Encoding)
			return Result{}, errors.New("boom")
		},
	}

	f := &Fetcher{}
	_, _ = f.FirstSuccess(context.Background(), Request{}, candidates(t, "a/b"), []Strategy{s})
	if len(got) != 1 || got[0] != locator.Identity {
		t.Errorf("attempted encodings %v, want [identity]", got)
	}
}

func TestFirstSuccessExhausted(t *testing.T) {
	var a, b, c int
	strategies := []Strategy{
		failing("mime", &a),
		failing("resolve-mime", &b),
		{
			Name: "subject-search",
			Once: true,
			Run: func(ctx context.Context, req Request) (Result, error) {
				c++
				return Result{}, ErrSkipped
			},
		},
	}

	f := &Fetcher{Pause: time.Millisecond}
	_, err := f.FirstSuccess(context.Background(), Request{}, candidates(t, "x y"), strategies)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}

	names := exhausted.Strategies()
	if len(names) != 3 {
		t.Fatalf("Strategies() = %v", names)
	}

	msg := err.Error()
	for _, name := range []string{"[mime]", "[resolve-mime]", "[subject-search]"} {
		if strings.Count(msg, name) != 1 {
			t.Errorf("diagnostic %q should contain exactly one %s entry", msg, name)
		}
	}

	if email.StatusCode(err) != 404 {
		t.Errorf("expected wrapped 404 status, got %d", email.StatusCode(err))
	}
	if c != 1 {
		t.Errorf("Once strategy ran %d times", c)
	}
}

func TestFirstSuccessCancelledDuringPause(t *testing.T) {
	var calls int
	ctx, cancel := context.WithCancel(context.Background())

	strategies := []Strategy{
		{
			Name: "mime",
			Run: func(ctx context.Context, req Request) (Result, error) {
				cancel()
				return Result{}, errors.New("fail")
			},
		},
		failing("structured", &calls),
	}

	f := &Fetcher{Pause: time.Hour}
	_, err := f.FirstSuccess(ctx, Request{}, candidates(t, "id"), strategies)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("second strategy should not run after cancellation")
	}
}
