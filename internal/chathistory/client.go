package chathistory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/httpx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

const (
	chatHistoryPath = "/api/chat-history"
	githubTokenPath = "/api/github-token"

	defaultFetchConcurrency = 4
)

var (
	// ErrNotFound matches a RequestFailedError carrying a 404.
	ErrNotFound = errors.New("not found")
)

// RequestFailedError is any non-2xx answer from the chat history API. Detail is
// the body's "error" field when present.
type RequestFailedError struct {
	Status int
	Detail string
}

func (e *RequestFailedError) Error() string { return e.Detail }

func (e *RequestFailedError) HTTPStatusCode() int { return e.Status }

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// UnauthenticatedError is returned when the auth gate redirects the request.
type UnauthenticatedError struct {
	SignInURL string
}

func (e *UnauthenticatedError) Error() string {
	if e.SignInURL == "" {
		return "unauthenticated"
	}
	return "unauthenticated: sign in at " + e.SignInURL
}

func (e *UnauthenticatedError) Is(target error) bool { return target == types.ErrUnauthenticated }

type ClientConfig struct {
	BaseURL      string
	SessionToken string
	HTTPClient   *http.Client
}

// Client talks to the chat history and GitHub token routes on behalf of one
// signed-in user.
type Client struct {
	log     *logger.Logger
	baseURL string
	token   string
	hc      *http.Client
}

func NewClient(log *logger.Logger, cfg ClientConfig) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	// Requests are bounded by the caller's context only.
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	// The auth gate answers with a redirect; keep it visible.
	noFollow := *hc
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &Client{
		log:     log.With("client", "ChatHistoryClient"),
		baseURL: base,
		token:   strings.TrimSpace(cfg.SessionToken),
		hc:      &noFollow,
	}, nil
}

// request sends body as JSON and decodes the answer into out. It reports
// false when the server answered 204 or an empty body.
func (c *Client) request(ctx context.Context, method, path string, body any, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return false, err
	}
	raw, err := httpx.ReadBody(resp)
	if err != nil {
		return false, err
	}

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return false, &UnauthenticatedError{SignInURL: resp.Header.Get("Location")}
	case !httpx.IsSuccess(resp.StatusCode):
		detail := httpx.ErrorDetail(raw, "Request failed")
		c.log.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode, "detail", detail)
		return false, &RequestFailedError{Status: resp.StatusCode, Detail: detail}
	}

	if raw == nil {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return true, fmt.Errorf("decode response: %w", err)
		}
	}
	return true, nil
}

type chatHistoryBody struct {
	Intent      string                   `json:"intent"`
	Payload     *types.UpsertChatPayload `json:"payload,omitempty"`
	ChatID      string                   `json:"chatId,omitempty"`
	MessageID   string                   `json:"messageId,omitempty"`
	URLID       string                   `json:"urlId,omitempty"`
	Description *string                  `json:"description,omitempty"`
	Metadata    types.ChatMetadata       `json:"metadata,omitempty"`
}

func (c *Client) ListChats(ctx context.Context, search string) ([]types.ChatSummary, error) {
	q := url.Values{"list": {"1"}}
	if s := strings.TrimSpace(search); s != "" {
		q.Set("search", s)
	}
	var out struct {
		Chats []types.ChatSummary `json:"chats"`
	}
	if _, err := c.request(ctx, http.MethodGet, chatHistoryPath+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Chats == nil {
		return []types.ChatSummary{}, nil
	}
	return out.Chats, nil
}

func (c *Client) FetchChat(ctx context.Context, chatID string) (*types.ChatHistoryItem, error) {
	var out struct {
		Chat *types.ChatHistoryItem `json:"chat"`
	}
	path := chatHistoryPath + "?chatId=" + url.QueryEscape(chatID)
	if _, err := c.request(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Chat == nil {
		return nil, &RequestFailedError{Status: http.StatusNotFound, Detail: types.ErrChatNotFound.Error()}
	}
	return out.Chat, nil
}

func (c *Client) UpsertChat(ctx context.Context, payload types.UpsertChatPayload) (*types.ChatHistoryItem, error) {
	var out struct {
		Chat *types.ChatHistoryItem `json:"chat"`
	}
	if _, err := c.request(ctx, http.MethodPost, chatHistoryPath, chatHistoryBody{Intent: "upsert", Payload: &payload}, &out); err != nil {
		return nil, err
	}
	if out.Chat == nil {
		return nil, errors.New("Failed to persist chat")
	}
	return out.Chat, nil
}

func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	body := struct {
		ChatID string `json:"chatId"`
	}{ChatID: chatID}
	_, err := c.request(ctx, http.MethodDelete, chatHistoryPath, body, nil)
	return err
}

func (c *Client) postURLID(ctx context.Context, body chatHistoryBody, failure string) (string, error) {
	var out struct {
		URLID string `json:"urlId"`
	}
	if _, err := c.request(ctx, http.MethodPost, chatHistoryPath, body, &out); err != nil {
		return "", err
	}
	if out.URLID == "" {
		return "", errors.New(failure)
	}
	return out.URLID, nil
}

func (c *Client) DuplicateChat(ctx context.Context, chatID string) (string, error) {
	return c.postURLID(ctx, chatHistoryBody{Intent: "duplicate", ChatID: chatID}, "Failed to duplicate chat")
}

func (c *Client) ForkChat(ctx context.Context, chatID, messageID string) (string, error) {
	return c.postURLID(ctx, chatHistoryBody{Intent: "fork", ChatID: chatID, MessageID: messageID}, "Failed to fork chat")
}

func (c *Client) ImportChat(ctx context.Context, payload types.UpsertChatPayload) (string, error) {
	return c.postURLID(ctx, chatHistoryBody{Intent: "import", Payload: &payload}, "Failed to import chat")
}

func (c *Client) UpdateDescription(ctx context.Context, urlID, description string) error {
	_, err := c.request(ctx, http.MethodPost, chatHistoryPath,
		chatHistoryBody{Intent: "updateDescription", URLID: urlID, Description: &description}, nil)
	return err
}

func (c *Client) UpdateMetadata(ctx context.Context, urlID string, metadata types.ChatMetadata) error {
	_, err := c.request(ctx, http.MethodPost, chatHistoryPath,
		chatHistoryBody{Intent: "updateMetadata", URLID: urlID, Metadata: metadata}, nil)
	return err
}

// GetGitHubToken reports found=false when the user has no stored token.
func (c *Client) GetGitHubToken(ctx context.Context) (token, tokenType string, found bool, err error) {
	var out struct {
		Token     *string `json:"token"`
		TokenType string  `json:"tokenType"`
	}
	if _, err := c.request(ctx, http.MethodGet, githubTokenPath, nil, &out); err != nil {
		return "", "", false, err
	}
	if out.Token == nil {
		return "", "", false, nil
	}
	return *out.Token, out.TokenType, true, nil
}

func (c *Client) SetGitHubToken(ctx context.Context, token, tokenType string) error {
	body := struct {
		Token     string `json:"token"`
		TokenType string `json:"tokenType,omitempty"`
	}{Token: token, TokenType: tokenType}
	_, err := c.request(ctx, http.MethodPost, githubTokenPath, body, nil)
	return err
}

func (c *Client) DeleteGitHubToken(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodDelete, githubTokenPath, nil, nil)
	return err
}

// FetchAllChats loads every chat in full. The first failure cancels the
// remaining fetches.
func (c *Client) FetchAllChats(ctx context.Context) ([]types.ChatHistoryItem, error) {
	summaries, err := c.ListChats(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]types.ChatHistoryItem, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultFetchConcurrency)
	for i, s := range summaries {
		g.Go(func() error {
			item, err := c.FetchChat(gctx, s.URLID)
			if err != nil {
				return fmt.Errorf("fetch chat %s: %w", s.URLID, err)
			}
			out[i] = *item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAllChats attempts every delete regardless of earlier failures and
// returns how many succeeded plus the failures joined.
func (c *Client) DeleteAllChats(ctx context.Context) (int, error) {
	summaries, err := c.ListChats(ctx, "")
	if err != nil {
		return 0, err
	}
	errs := make([]error, len(summaries))
	var g errgroup.Group
	g.SetLimit(defaultFetchConcurrency)
	for i, s := range summaries {
		g.Go(func() error {
			if err := c.DeleteChat(ctx, s.URLID); err != nil {
				errs[i] = fmt.Errorf("delete chat %s: %w", s.URLID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	deleted := 0
	for _, e := range errs {
		if e == nil {
			deleted++
		}
	}
	return deleted, errors.Join(errs...)
}
