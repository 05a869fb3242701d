package repoerr

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/supabase"
)

func TestMapConflicts(t *testing.T) {
	cases := map[string]error{
		"pg unique":        &pgconn.PgError{Code: "23505", ConstraintName: "idx_chat_sessions_user_url"},
		"postgrest 409":    &supabase.RequestFailedError{Status: 409, Detail: "duplicate key value violates unique constraint"},
		"sqlite message":   errors.New("UNIQUE constraint failed: chat_sessions.user_id, chat_sessions.url_id"),
		"already conflict": types.ErrConflict,
	}
	for name, err := range cases {
		if got := Map("op", err); !errors.Is(got, types.ErrConflict) {
			t.Fatalf("%s: want ErrConflict got=%v", name, got)
		}
	}
}

func TestMapPassesThrough(t *testing.T) {
	if Map("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	rf := &supabase.RequestFailedError{Status: 500, Detail: "boom"}
	got := Map("list chats", rf)
	var back *supabase.RequestFailedError
	if !errors.As(got, &back) || back.Detail != "boom" {
		t.Fatalf("request failure should stay inspectable: got=%v", got)
	}
	if errors.Is(got, types.ErrConflict) {
		t.Fatalf("500 is not a conflict")
	}
}
