package ctxutil

import (
	"context"
	"strings"
)

type requestDataKey struct{}

// RequestData is the caller identity resolved by the auth gate.
type RequestData struct {
	UserID    string
	SessionID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// UserID returns the resolved caller id, or "" when the request is anonymous.
func UserID(ctx context.Context) string {
	rd := GetRequestData(ctx)
	if rd == nil {
		return ""
	}
	return strings.TrimSpace(rd.UserID)
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
