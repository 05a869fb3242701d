package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/repoerr"
	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/dbctx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/supabase"
)

const chatTable = "chat_sessions"

var summaryColumns = []string{"id", "url_id", "description", "metadata", "created_at", "updated_at"}

type supabaseChatSessionRepo struct {
	client supabase.Client
	log    *logger.Logger
}

func NewSupabaseChatSessionRepo(client supabase.Client, baseLog *logger.Logger) ChatSessionRepo {
	return &supabaseChatSessionRepo{client: client, log: baseLog.With("repo", "SupabaseChatSessionRepo")}
}

// upsertRow is the write shape; id and created_at are left to the database.
type upsertRow struct {
	UserID      string         `json:"user_id"`
	URLID       string         `json:"url_id"`
	Description *string        `json:"description"`
	Messages    datatypes.JSON `json:"messages"`
	Metadata    datatypes.JSON `json:"metadata"`
	Snapshot    datatypes.JSON `json:"snapshot"`
	UpdatedAt   string         `json:"updated_at"`
}

func decodeRows(raw json.RawMessage) ([]*types.ChatSession, error) {
	var rows []*types.ChatSession
	if raw == nil {
		return rows, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode chat rows: %w", err)
	}
	return rows, nil
}

func orNull(j datatypes.JSON) datatypes.JSON {
	if len(j) == 0 {
		return datatypes.JSON("null")
	}
	return j
}

func (r *supabaseChatSessionRepo) List(dbc dbctx.Context, userID string, opts ListOptions) ([]*types.ChatSession, error) {
	q := supabase.NewQuery().Eq("user_id", userID)
	if opts.Search != "" {
		q = q.ILike("description", opts.Search)
	}
	q = q.Select(summaryColumns...).Order("updated_at", true)

	raw, err := r.client.Request(dbc.Context(), http.MethodGet, q.Path(chatTable), nil)
	if err != nil {
		return nil, repoerr.Map("list chats", err)
	}
	return decodeRows(raw)
}

func (r *supabaseChatSessionRepo) single(dbc dbctx.Context, q *supabase.Query) (*types.ChatSession, error) {
	raw, err := r.client.Request(dbc.Context(), http.MethodGet, q.Limit(1).Path(chatTable), nil,
		supabase.WithPrefer("count=exact"))
	if err != nil {
		return nil, repoerr.Map("get chat", err)
	}
	rows, err := decodeRows(raw)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *supabaseChatSessionRepo) GetByURLID(dbc dbctx.Context, userID, urlID string) (*types.ChatSession, error) {
	return r.single(dbc, supabase.NewQuery().Eq("user_id", userID).Eq("url_id", urlID))
}

func (r *supabaseChatSessionRepo) GetByID(dbc dbctx.Context, userID, id string) (*types.ChatSession, error) {
	return r.single(dbc, supabase.NewQuery().Eq("user_id", userID).Eq("id", id))
}

func (r *supabaseChatSessionRepo) Resolve(dbc dbctx.Context, userID, identifier string) (*types.ChatSession, error) {
	row, err := r.GetByURLID(dbc, userID, identifier)
	if err != nil || row != nil {
		return row, err
	}
	// id is a uuid column; anything else would be rejected by PostgREST with a 400.
	if _, err := uuid.Parse(identifier); err != nil {
		return nil, nil
	}
	return r.GetByID(dbc, userID, identifier)
}

func (r *supabaseChatSessionRepo) Upsert(dbc dbctx.Context, row *types.ChatSession) (*types.ChatSession, error) {
	updatedAt := row.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	body := []upsertRow{{
		UserID:      row.UserID,
		URLID:       row.URLID,
		Description: row.Description,
		Messages:    orNull(row.Messages),
		Metadata:    orNull(row.Metadata),
		Snapshot:    orNull(row.Snapshot),
		UpdatedAt:   updatedAt.Format(time.RFC3339Nano),
	}}
	path := supabase.NewQuery().OnConflict("user_id", "url_id").Path(chatTable)
	raw, err := r.client.Request(dbc.Context(), http.MethodPost, path, body,
		supabase.WithPrefer("resolution=merge-duplicates,return=representation"))
	if err != nil {
		return nil, repoerr.Map("upsert chat", err)
	}
	rows, err := decodeRows(raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repoerr.Map("upsert chat", errors.New("Supabase did not return a chat record"))
	}
	return rows[0], nil
}

func (r *supabaseChatSessionRepo) UpdateFields(dbc dbctx.Context, userID, urlID string, f Fields) error {
	patch := map[string]any{"updated_at": time.Now().UTC().Format(time.RFC3339Nano)}
	if f.Description != nil {
		patch["description"] = *f.Description
	}
	if f.Messages != nil {
		patch["messages"] = orNull(*f.Messages)
	}
	if f.Metadata != nil {
		patch["metadata"] = orNull(*f.Metadata)
	}
	if f.Snapshot != nil {
		patch["snapshot"] = orNull(*f.Snapshot)
	}
	path := supabase.NewQuery().Eq("user_id", userID).Eq("url_id", urlID).Select("id").Path(chatTable)
	raw, err := r.client.Request(dbc.Context(), http.MethodPatch, path, patch,
		supabase.WithPrefer("return=representation"))
	if err != nil {
		return repoerr.Map("update chat", err)
	}
	rows, err := decodeRows(raw)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return types.ErrChatNotFound
	}
	return nil
}

func (r *supabaseChatSessionRepo) DeleteByID(dbc dbctx.Context, userID, id string) error {
	path := supabase.NewQuery().Eq("user_id", userID).Eq("id", id).Path(chatTable)
	if _, err := r.client.Request(dbc.Context(), http.MethodDelete, path, nil,
		supabase.WithPrefer("count=exact")); err != nil {
		return repoerr.Map("delete chat", err)
	}
	return nil
}
