package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

func IsSuccess(code int) bool {
	return code >= 200 && code <= 299
}

// ReadBody drains and closes resp.Body. A 204 or an all-whitespace body yields
// nil, which callers treat as "no value" (distinct from a JSON null or []).
func ReadBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return raw, nil
}

// ErrorDetail pulls a human readable message out of a JSON error body.
// It understands {"error": "..."}, {"error": {"message": "..."}} and the
// PostgREST shape {"message": "..."}; anything else yields fallback.
func ErrorDetail(raw []byte, fallback string) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fallback
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	if v, ok := body["error"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(v, &nested) == nil && strings.TrimSpace(nested.Message) != "" {
			return nested.Message
		}
	}
	if v, ok := body["message"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}
