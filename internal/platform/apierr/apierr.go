package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConfiguration marks a required server setting that is absent or unusable.
var ErrConfiguration = errors.New("configuration error")

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Configuration wraps ErrConfiguration with a human readable message.
func Configuration(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, msg)
}

// Status returns the HTTP status carried by err, or fallback.
func Status(err error, fallback int) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	if errors.Is(err, ErrConfiguration) {
		return http.StatusInternalServerError
	}
	return fallback
}
