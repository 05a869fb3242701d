package supabase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/apierr"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/httpx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func stub(status int, body string, seen *http.Request) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if seen != nil {
			*seen = *r
		}
		return &http.Response{
			StatusCode: status,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})}
}

func newTestClient(t *testing.T, hc *http.Client) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{URL: "https://proj.supabase.co/", ServiceRoleKey: "svc-key"}, hc)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestRequestSetsHeaders(t *testing.T) {
	var seen http.Request
	c := newTestClient(t, stub(http.StatusOK, `[{"id":"1"}]`, &seen))
	raw, err := c.Request(context.Background(), http.MethodPost, "/rest/v1/chats", map[string]string{"a": "b"},
		WithPrefer("resolution=merge-duplicates,return=representation"))
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(raw) != `[{"id":"1"}]` {
		t.Fatalf("body: got=%s", raw)
	}
	if got := seen.URL.String(); got != "https://proj.supabase.co/rest/v1/chats" {
		t.Fatalf("url: got=%s", got)
	}
	if seen.Header.Get("apikey") != "svc-key" || seen.Header.Get("Authorization") != "Bearer svc-key" {
		t.Fatalf("auth headers: got=%v", seen.Header)
	}
	if seen.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("content type: got=%q", seen.Header.Get("Content-Type"))
	}
	if seen.Header.Get("Prefer") != "resolution=merge-duplicates,return=representation" {
		t.Fatalf("prefer: got=%q", seen.Header.Get("Prefer"))
	}
}

func TestRequestNoValue(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusOK} {
		c := newTestClient(t, stub(status, "", nil))
		raw, err := c.Request(context.Background(), http.MethodDelete, "/rest/v1/chats", nil)
		if err != nil {
			t.Fatalf("status %d: %v", status, err)
		}
		if raw != nil {
			t.Fatalf("status %d: want no value got=%s", status, raw)
		}
	}
}

func TestRequestFailure(t *testing.T) {
	cases := []struct {
		body   string
		status int
		detail string
	}{
		{body: `{"message":"duplicate key value violates unique constraint"}`, status: 409, detail: "duplicate key value violates unique constraint"},
		{body: `{"error":"JWT expired"}`, status: 401, detail: "JWT expired"},
		{body: `oops`, status: 502, detail: "Request failed (502)"},
	}
	for _, tc := range cases {
		c := newTestClient(t, stub(tc.status, tc.body, nil))
		_, err := c.Request(context.Background(), http.MethodGet, "/rest/v1/chats", nil)
		var rf *RequestFailedError
		if !errors.As(err, &rf) {
			t.Fatalf("want RequestFailedError got=%v", err)
		}
		if rf.Detail != tc.detail || httpx.StatusCode(err) != tc.status {
			t.Fatalf("want status=%d detail=%q got status=%d detail=%q", tc.status, tc.detail, rf.Status, rf.Detail)
		}
	}
}

func TestLoadConfigAliases(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("VITE_SUPABASE_URL", "")
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://next.example")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("SUPABASE_SERVICE_KEY", "legacy")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.URL != "https://next.example" || cfg.ServiceRoleKey != "legacy" {
		t.Fatalf("aliases: got=%+v", cfg)
	}

	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "")
	if _, err := LoadConfig(); !errors.Is(err, apierr.ErrConfiguration) {
		t.Fatalf("missing url: want ErrConfiguration got=%v", err)
	}
}

func TestQueryPath(t *testing.T) {
	got := NewQuery().
		Eq("user_id", "user_1").
		Eq("url_id", "abc").
		Select("id", "url_id").
		Limit(1).
		Path("chats")
	want := "/rest/v1/chats?user_id=eq.user_1&url_id=eq.abc&select=id%2Curl_id&limit=1"
	if got != want {
		t.Fatalf("path: want=%s got=%s", want, got)
	}
	if p := NewQuery().Path("chats"); p != "/rest/v1/chats" {
		t.Fatalf("empty query: got=%s", p)
	}
}

func TestGenerateURLID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateURLID()
		if len(id) != 12 || strings.Contains(id, "-") {
			t.Fatalf("bad id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
