package chat

import (
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/repoerr"
	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/dbctx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type ListOptions struct {
	// Search keeps rows whose description contains it, case-insensitively.
	Search string
}

// Fields is a partial update. A nil pointer leaves the column alone; a
// non-nil Metadata/Snapshot pointing at JSON null clears it.
type Fields struct {
	Description *string
	Messages    *datatypes.JSON
	Metadata    *datatypes.JSON
	Snapshot    *datatypes.JSON
}

// ChatSessionRepo is owner scoped: every method filters by userID, so a row
// belonging to someone else is indistinguishable from a missing one.
type ChatSessionRepo interface {
	List(dbc dbctx.Context, userID string, opts ListOptions) ([]*types.ChatSession, error)
	GetByURLID(dbc dbctx.Context, userID, urlID string) (*types.ChatSession, error)
	GetByID(dbc dbctx.Context, userID, id string) (*types.ChatSession, error)
	// Resolve tries the url id first, then the internal id. Missing ⇒ (nil, nil).
	Resolve(dbc dbctx.Context, userID, identifier string) (*types.ChatSession, error)
	// Upsert inserts or merges on (user_id, url_id) and returns the stored row.
	Upsert(dbc dbctx.Context, row *types.ChatSession) (*types.ChatSession, error)
	// UpdateFields patches the row with (userID, urlID); ErrChatNotFound when none matched.
	UpdateFields(dbc dbctx.Context, userID, urlID string, f Fields) error
	DeleteByID(dbc dbctx.Context, userID, id string) error
}

type chatSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatSessionRepo {
	return &chatSessionRepo{db: db, log: baseLog.With("repo", "ChatSessionRepo")}
}

func (r *chatSessionRepo) List(dbc dbctx.Context, userID string, opts ListOptions) ([]*types.ChatSession, error) {
	q := dbc.DB(r.db).
		Select("id", "user_id", "url_id", "description", "metadata", "created_at", "updated_at").
		Where("user_id = ?", userID)
	if s := strings.TrimSpace(opts.Search); s != "" {
		q = q.Where("LOWER(COALESCE(description, '')) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var out []*types.ChatSession
	if err := q.Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, repoerr.Map("list chats", err)
	}
	return out, nil
}

func (r *chatSessionRepo) first(dbc dbctx.Context, where string, args ...any) (*types.ChatSession, error) {
	var row types.ChatSession
	err := dbc.DB(r.db).Where(where, args...).Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, repoerr.Map("get chat", err)
	}
	return &row, nil
}

func (r *chatSessionRepo) GetByURLID(dbc dbctx.Context, userID, urlID string) (*types.ChatSession, error) {
	return r.first(dbc, "user_id = ? AND url_id = ?", userID, urlID)
}

func (r *chatSessionRepo) GetByID(dbc dbctx.Context, userID, id string) (*types.ChatSession, error) {
	return r.first(dbc, "user_id = ? AND id = ?", userID, id)
}

func (r *chatSessionRepo) Resolve(dbc dbctx.Context, userID, identifier string) (*types.ChatSession, error) {
	row, err := r.GetByURLID(dbc, userID, identifier)
	if err != nil || row != nil {
		return row, err
	}
	return r.GetByID(dbc, userID, identifier)
}

func (r *chatSessionRepo) Upsert(dbc dbctx.Context, row *types.ChatSession) (*types.ChatSession, error) {
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "url_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "messages", "metadata", "snapshot", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return nil, repoerr.Map("upsert chat", err)
	}
	stored, err := r.GetByURLID(dbc, row.UserID, row.URLID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, repoerr.Map("upsert chat", errors.New("store did not return a chat record"))
	}
	return stored, nil
}

func (r *chatSessionRepo) UpdateFields(dbc dbctx.Context, userID, urlID string, f Fields) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if f.Description != nil {
		updates["description"] = *f.Description
	}
	if f.Messages != nil {
		updates["messages"] = *f.Messages
	}
	if f.Metadata != nil {
		updates["metadata"] = *f.Metadata
	}
	if f.Snapshot != nil {
		updates["snapshot"] = *f.Snapshot
	}
	res := dbc.DB(r.db).
		Model(&types.ChatSession{}).
		Where("user_id = ? AND url_id = ?", userID, urlID).
		Updates(updates)
	if res.Error != nil {
		return repoerr.Map("update chat", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrChatNotFound
	}
	return nil
}

func (r *chatSessionRepo) DeleteByID(dbc dbctx.Context, userID, id string) error {
	res := dbc.DB(r.db).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&types.ChatSession{})
	if res.Error != nil {
		return repoerr.Map("delete chat", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrChatNotFound
	}
	return nil
}
