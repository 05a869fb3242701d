package response

import (
	"errors"
	"net/http"
	"strings"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/apierr"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/tokencipher"
)

// StatusOf maps a service error onto an HTTP status and error code.
func StatusOf(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, types.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, types.ErrChatNotFound):
		return http.StatusNotFound, "chat_not_found"
	case errors.Is(err, types.ErrMessageNotFound):
		return http.StatusNotFound, "message_not_found"
	case errors.Is(err, types.ErrTokenNotFound):
		return http.StatusNotFound, "token_not_found"
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, types.ErrNotConfigured), errors.Is(err, apierr.ErrConfiguration):
		return http.StatusInternalServerError, "not_configured"
	case errors.Is(err, tokencipher.ErrIntegrity), errors.Is(err, tokencipher.ErrFormat):
		return http.StatusInternalServerError, "token_unreadable"
	case errors.Is(err, types.ErrMessagesFormat):
		return http.StatusInternalServerError, "chat_unreadable"
	}
	return apierr.Status(err, http.StatusInternalServerError), "internal"
}

// PublicMessage strips the sentinel prefix from invalid-argument errors so
// clients see "chatId is required" rather than "invalid argument: chatId is required".
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if errors.Is(err, types.ErrInvalidArgument) {
		msg = strings.TrimPrefix(msg, types.ErrInvalidArgument.Error()+": ")
	}
	return msg
}
