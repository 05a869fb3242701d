package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ProviderGitHub = "github"

const (
	TokenTypeClassic     = "classic"
	TokenTypeFineGrained = "fine-grained"
)

// ProviderToken is one sealed third-party credential per (user, provider).
// Only the token type is stored in the clear.
type ProviderToken struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	UserID      string    `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_user_tokens_user_provider,priority:1" json:"user_id"`
	Provider    string    `gorm:"column:provider;type:text;not null;uniqueIndex:idx_user_tokens_user_provider,priority:2" json:"provider"`
	TokenCipher string    `gorm:"column:token_cipher;type:text;not null" json:"token_cipher"`
	TokenIV     string    `gorm:"column:token_iv;type:text;not null" json:"token_iv"`
	TokenTag    string    `gorm:"column:token_tag;type:text;not null" json:"token_tag"`
	TokenType   *string   `gorm:"column:token_type;type:text" json:"token_type"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at,omitempty"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (ProviderToken) TableName() string { return "user_tokens" }

func (t *ProviderToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Type returns the stored token type, defaulting to classic.
func (t *ProviderToken) Type() string {
	if t == nil || t.TokenType == nil || *t.TokenType == "" {
		return TokenTypeClassic
	}
	return *t.TokenType
}
