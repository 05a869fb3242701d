package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/apierr"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/envutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/httpx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type Config struct {
	URL            string
	ServiceRoleKey string
}

// LoadConfig reads the project URL and service credential, accepting the
// Vite/Next public aliases for the URL.
func LoadConfig() (Config, error) {
	cfg := Config{
		URL:            envutil.First("SUPABASE_URL", "VITE_SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"),
		ServiceRoleKey: envutil.First("SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_KEY"),
	}
	if cfg.URL == "" {
		return cfg, apierr.Configuration("Supabase URL is not configured. Please set SUPABASE_URL.")
	}
	if cfg.ServiceRoleKey == "" {
		return cfg, apierr.Configuration("Supabase service role key is not configured. Please set SUPABASE_SERVICE_ROLE_KEY.")
	}
	return cfg, nil
}

// RequestFailedError is any non-2xx answer from the datastore.
type RequestFailedError struct {
	Status int
	Detail string
}

func (e *RequestFailedError) Error() string {
	if e == nil {
		return ""
	}
	return e.Detail
}

func (e *RequestFailedError) HTTPStatusCode() int { return e.Status }

type requestOptions struct {
	prefer string
	accept string
}

type RequestOption func(*requestOptions)

// WithPrefer sets the PostgREST Prefer header (resolution, return, count).
func WithPrefer(v string) RequestOption {
	return func(o *requestOptions) { o.prefer = v }
}

func WithAccept(v string) RequestOption {
	return func(o *requestOptions) { o.accept = v }
}

// Client issues authenticated REST calls against the project. Request returns
// (nil, nil) for 204 and empty bodies.
type Client interface {
	Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config, httpClient *http.Client) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.ServiceRoleKey) == "" {
		return nil, apierr.Configuration("supabase url and service role key are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &client{
		log:        log.With("client", "SupabaseClient"),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		serviceKey: cfg.ServiceRoleKey,
		httpClient: httpClient,
	}, nil
}

func (c *client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	o := requestOptions{accept: "application/json"}
	for _, opt := range opts {
		opt(&o)
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode supabase body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if o.accept != "" {
		req.Header.Set("Accept", o.accept)
	}
	if o.prefer != "" {
		req.Header.Set("Prefer", o.prefer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("supabase request failed", "method", method, "path", trimQuery(path), "error", err)
		return nil, err
	}
	raw, err := httpx.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read supabase body: %w", err)
	}
	c.log.Debug("supabase request",
		"method", method,
		"path", trimQuery(path),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if !httpx.IsSuccess(resp.StatusCode) {
		return nil, &RequestFailedError{
			Status: resp.StatusCode,
			Detail: httpx.ErrorDetail(raw, fmt.Sprintf("Request failed (%d)", resp.StatusCode)),
		}
	}
	if raw == nil {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// trimQuery keeps filter values (user ids) out of the logs.
func trimQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// GenerateURLID returns a 12 character url-facing chat id.
func GenerateURLID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
