package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/repoerr"
	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/dbctx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/supabase"
)

const tokenTable = "user_tokens"

type supabaseProviderTokenRepo struct {
	client supabase.Client
	log    *logger.Logger
}

func NewSupabaseProviderTokenRepo(client supabase.Client, baseLog *logger.Logger) ProviderTokenRepo {
	return &supabaseProviderTokenRepo{client: client, log: baseLog.With("repo", "SupabaseProviderTokenRepo")}
}

type tokenRow struct {
	UserID      string  `json:"user_id"`
	Provider    string  `json:"provider"`
	TokenCipher string  `json:"token_cipher"`
	TokenIV     string  `json:"token_iv"`
	TokenTag    string  `json:"token_tag"`
	TokenType   *string `json:"token_type"`
	UpdatedAt   string  `json:"updated_at"`
}

func ownerQuery(userID, provider string) *supabase.Query {
	return supabase.NewQuery().Eq("user_id", userID).Eq("provider", provider)
}

func (r *supabaseProviderTokenRepo) Get(dbc dbctx.Context, userID, provider string) (*types.ProviderToken, error) {
	path := ownerQuery(userID, provider).
		Select("token_cipher", "token_iv", "token_tag", "token_type").
		Path(tokenTable)
	raw, err := r.client.Request(dbc.Context(), http.MethodGet, path, nil, supabase.WithPrefer("count=exact"))
	if err != nil {
		return nil, repoerr.Map("get token", err)
	}
	if raw == nil {
		return nil, nil
	}
	var rows []*types.ProviderToken
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode token rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	tok := rows[0]
	tok.UserID, tok.Provider = userID, provider
	return tok, nil
}

func (r *supabaseProviderTokenRepo) Upsert(dbc dbctx.Context, tok *types.ProviderToken) error {
	updatedAt := tok.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	body := []tokenRow{{
		UserID:      tok.UserID,
		Provider:    tok.Provider,
		TokenCipher: tok.TokenCipher,
		TokenIV:     tok.TokenIV,
		TokenTag:    tok.TokenTag,
		TokenType:   tok.TokenType,
		UpdatedAt:   updatedAt.Format(time.RFC3339Nano),
	}}
	path := supabase.NewQuery().OnConflict("user_id", "provider").Path(tokenTable)
	_, err := r.client.Request(dbc.Context(), http.MethodPost, path, body,
		supabase.WithPrefer("resolution=merge-duplicates"))
	return repoerr.Map("upsert token", err)
}

func (r *supabaseProviderTokenRepo) Delete(dbc dbctx.Context, userID, provider string) error {
	_, err := r.client.Request(dbc.Context(), http.MethodDelete, ownerQuery(userID, provider).Path(tokenTable), nil,
		supabase.WithPrefer("count=exact"))
	return repoerr.Map("delete token", err)
}
