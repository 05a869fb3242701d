package chathistory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type apiCall struct {
	Method string
	Query  string
	Auth   string
	Body   map[string]any
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
	reply func(call apiCall) (int, string)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := apiCall{Method: r.Method, Query: r.URL.Path + "?" + r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	status, body := f.reply(call)
	f.mu.Unlock()
	if status >= 300 && status < 400 {
		w.Header().Set("Location", body)
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeAPI) recorded() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func newFakeClient(t *testing.T, reply func(apiCall) (int, string)) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{reply: reply}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := NewClient(logger.Nop(), ClientConfig{BaseURL: srv.URL + "/", SessionToken: "sess_123"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, api
}

func TestClientChatRoutes(t *testing.T) {
	c, api := newFakeClient(t, func(call apiCall) (int, string) {
		switch {
		case call.Method == http.MethodGet && strings.Contains(call.Query, "list=1"):
			return http.StatusOK, `{"chats":[{"id":"c1","urlId":"todo","description":"Todo"}]}`
		case call.Method == http.MethodGet:
			return http.StatusOK, `{"chat":{"id":"c1","urlId":"todo","messages":[{"id":"m1","role":"user","content":"hi"}],"snapshot":null}}`
		case call.Method == http.MethodDelete:
			return http.StatusOK, `{"success":true}`
		}
		switch call.Body["intent"] {
		case "upsert":
			return http.StatusOK, `{"chat":{"id":"c1","urlId":"todo","description":"Todo","messages":[]}}`
		case "duplicate", "fork", "import":
			return http.StatusOK, `{"urlId":"new-` + call.Body["intent"].(string) + `"}`
		}
		return http.StatusOK, `{"success":true}`
	})
	ctx := context.Background()

	chats, err := c.ListChats(ctx, " todo ")
	if err != nil || len(chats) != 1 || chats[0].URLID != "todo" {
		t.Fatalf("ListChats: chats=%+v err=%v", chats, err)
	}
	item, err := c.FetchChat(ctx, "todo")
	if err != nil || item.ID != "c1" || !sameIDs(item.Messages, "m1") {
		t.Fatalf("FetchChat: item=%+v err=%v", item, err)
	}
	d := "Todo"
	if saved, err := c.UpsertChat(ctx, types.UpsertChatPayload{URLID: "todo", Description: &d}); err != nil || saved.URLID != "todo" {
		t.Fatalf("UpsertChat: saved=%+v err=%v", saved, err)
	}
	if id, err := c.DuplicateChat(ctx, "todo"); err != nil || id != "new-duplicate" {
		t.Fatalf("DuplicateChat: id=%s err=%v", id, err)
	}
	if id, err := c.ForkChat(ctx, "todo", "m1"); err != nil || id != "new-fork" {
		t.Fatalf("ForkChat: id=%s err=%v", id, err)
	}
	if id, err := c.ImportChat(ctx, types.UpsertChatPayload{}); err != nil || id != "new-import" {
		t.Fatalf("ImportChat: id=%s err=%v", id, err)
	}
	if err := c.UpdateDescription(ctx, "todo", "Renamed"); err != nil {
		t.Fatalf("UpdateDescription: %v", err)
	}
	if err := c.UpdateMetadata(ctx, "todo", types.ChatMetadata{"gitUrl": "u"}); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if err := c.DeleteChat(ctx, "todo"); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}

	calls := api.recorded()
	if got := calls[0].Query; got != "/api/chat-history?list=1&search=todo" {
		t.Fatalf("list query: got=%s", got)
	}
	if got := calls[1].Query; got != "/api/chat-history?chatId=todo" {
		t.Fatalf("fetch query: got=%s", got)
	}
	for _, call := range calls {
		if call.Auth != "Bearer sess_123" {
			t.Fatalf("authorization: got=%q", call.Auth)
		}
	}
	fork := calls[4].Body
	if fork["chatId"] != "todo" || fork["messageId"] != "m1" {
		t.Fatalf("fork body: got=%v", fork)
	}
	rename := calls[6].Body
	if rename["intent"] != "updateDescription" || rename["urlId"] != "todo" || rename["description"] != "Renamed" {
		t.Fatalf("rename body: got=%v", rename)
	}
	if del := calls[8]; del.Method != http.MethodDelete || del.Body["chatId"] != "todo" {
		t.Fatalf("delete call: got=%+v", del)
	}
}

func TestClientErrors(t *testing.T) {
	c, _ := newFakeClient(t, func(call apiCall) (int, string) {
		switch call.Body["intent"] {
		case "fork":
			return http.StatusNotFound, `{"error":"Message not found"}`
		case "duplicate":
			return http.StatusInternalServerError, `oops`
		case "upsert":
			return http.StatusFound, "https://accounts.example.com/sign-in?redirect_url=x"
		}
		return http.StatusOK, `{"chat":null}`
	})
	ctx := context.Background()

	_, err := c.ForkChat(ctx, "todo", "missing")
	var rf *RequestFailedError
	if !errors.As(err, &rf) || rf.Status != http.StatusNotFound || err.Error() != "Message not found" || !errors.Is(err, ErrNotFound) {
		t.Fatalf("fork error: got=%v", err)
	}
	if _, err := c.DuplicateChat(ctx, "todo"); err == nil || err.Error() != "Request failed" || errors.Is(err, ErrNotFound) {
		t.Fatalf("duplicate error: got=%v", err)
	}

	_, err = c.UpsertChat(ctx, types.UpsertChatPayload{})
	var ua *UnauthenticatedError
	if !errors.As(err, &ua) || !errors.Is(err, types.ErrUnauthenticated) || !strings.HasPrefix(ua.SignInURL, "https://accounts.example.com/sign-in") {
		t.Fatalf("upsert error: got=%v", err)
	}

	if _, err := c.FetchChat(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("null chat should be not found: got=%v", err)
	}

	if _, err := NewClient(nil, ClientConfig{BaseURL: " "}); err == nil {
		t.Fatalf("blank base url should fail")
	}
}

func TestClientDefaultTransportHasNoTimeout(t *testing.T) {
	c, err := NewClient(nil, ClientConfig{BaseURL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.hc.Timeout != 0 {
		t.Fatalf("timeout: want=0 got=%v", c.hc.Timeout)
	}
	if c.hc.CheckRedirect == nil {
		t.Fatalf("redirects should be surfaced, not followed")
	}
}

func TestClientGitHubToken(t *testing.T) {
	stored := ""
	c, api := newFakeClient(t, func(call apiCall) (int, string) {
		switch call.Method {
		case http.MethodGet:
			if stored == "" {
				return http.StatusOK, `{"token":null}`
			}
			return http.StatusOK, `{"token":"` + stored + `","tokenType":"classic"}`
		case http.MethodPost:
			stored = call.Body["token"].(string)
		case http.MethodDelete:
			stored = ""
		}
		return http.StatusNoContent, ""
	})
	ctx := context.Background()

	if _, _, found, err := c.GetGitHubToken(ctx); err != nil || found {
		t.Fatalf("Get empty: found=%v err=%v", found, err)
	}
	if err := c.SetGitHubToken(ctx, "ghp_abc", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := api.recorded()[1].Body["tokenType"]; ok {
		t.Fatalf("blank token type should be omitted: got=%v", api.recorded()[1].Body)
	}
	tok, tt, found, err := c.GetGitHubToken(ctx)
	if err != nil || !found || tok != "ghp_abc" || tt != "classic" {
		t.Fatalf("Get: tok=%s tt=%s found=%v err=%v", tok, tt, found, err)
	}
	if err := c.DeleteGitHubToken(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, found, _ := c.GetGitHubToken(ctx); found {
		t.Fatalf("token still present after delete")
	}
}

func TestClientFanOut(t *testing.T) {
	c, _ := newFakeClient(t, func(call apiCall) (int, string) {
		switch {
		case strings.Contains(call.Query, "list=1"):
			return http.StatusOK, `{"chats":[{"urlId":"a"},{"urlId":"b"},{"urlId":"c"},{"urlId":"d"},{"urlId":"e"}]}`
		case call.Method == http.MethodGet:
			id := strings.TrimPrefix(call.Query, "/api/chat-history?chatId=")
			return http.StatusOK, `{"chat":{"id":"` + id + `","urlId":"` + id + `","messages":[]}}`
		case call.Body["chatId"] == "c":
			return http.StatusInternalServerError, `{"error":"db down"}`
		}
		return http.StatusOK, `{"success":true}`
	})
	ctx := context.Background()

	items, err := c.FetchAllChats(ctx)
	if err != nil || len(items) != 5 {
		t.Fatalf("FetchAllChats: n=%d err=%v", len(items), err)
	}
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		if items[i].URLID != want {
			t.Fatalf("order: want=%s got=%s at %d", want, items[i].URLID, i)
		}
	}

	deleted, err := c.DeleteAllChats(ctx)
	if deleted != 4 || err == nil || !strings.Contains(err.Error(), "delete chat c: db down") {
		t.Fatalf("DeleteAllChats: deleted=%d err=%v", deleted, err)
	}
}

func TestClientFetchAllChatsFailsFast(t *testing.T) {
	var mu sync.Mutex
	var fetched []string
	c, _ := newFakeClient(t, func(call apiCall) (int, string) {
		if strings.Contains(call.Query, "list=1") {
			return http.StatusOK, `{"chats":[{"urlId":"a"},{"urlId":"b"}]}`
		}
		mu.Lock()
		fetched = append(fetched, call.Query)
		mu.Unlock()
		return http.StatusNotFound, `{"error":"Chat not found"}`
	})
	_, err := c.FetchAllChats(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("FetchAllChats: want not found got=%v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(fetched) == 0 || len(fetched) > 2 {
		t.Fatalf("fetches: got=%v", fetched)
	}
}
