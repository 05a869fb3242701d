package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/repoerr"
	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/dbctx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

// ProviderTokenRepo stores at most one sealed token per (user, provider).
type ProviderTokenRepo interface {
	// Get returns (nil, nil) when the user has no token for provider.
	Get(dbc dbctx.Context, userID, provider string) (*types.ProviderToken, error)
	Upsert(dbc dbctx.Context, tok *types.ProviderToken) error
	Delete(dbc dbctx.Context, userID, provider string) error
}

type providerTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProviderTokenRepo(db *gorm.DB, baseLog *logger.Logger) ProviderTokenRepo {
	return &providerTokenRepo{db: db, log: baseLog.With("repo", "ProviderTokenRepo")}
}

func (r *providerTokenRepo) Get(dbc dbctx.Context, userID, provider string) (*types.ProviderToken, error) {
	var tok types.ProviderToken
	err := dbc.DB(r.db).
		Where("user_id = ? AND provider = ?", userID, provider).
		Limit(1).
		Take(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, repoerr.Map("get token", err)
	}
	return &tok, nil
}

func (r *providerTokenRepo) Upsert(dbc dbctx.Context, tok *types.ProviderToken) error {
	if tok.UpdatedAt.IsZero() {
		tok.UpdatedAt = time.Now().UTC()
	}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_cipher", "token_iv", "token_tag", "token_type", "updated_at"}),
		}).
		Create(tok).Error
	return repoerr.Map("upsert token", err)
}

func (r *providerTokenRepo) Delete(dbc dbctx.Context, userID, provider string) error {
	err := dbc.DB(r.db).
		Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&types.ProviderToken{}).Error
	return repoerr.Map("delete token", err)
}
