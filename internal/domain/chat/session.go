package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrMessagesFormat means a stored messages column is not a JSON array.
var ErrMessagesFormat = errors.New("stored messages are not an array")

// ChatSession is the stored row. JSON tags follow the datastore column names.
type ChatSession struct {
	ID          string         `gorm:"type:text;primaryKey" json:"id,omitempty"`
	UserID      string         `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_chat_sessions_user_url,priority:1" json:"user_id"`
	URLID       string         `gorm:"column:url_id;type:text;not null;uniqueIndex:idx_chat_sessions_user_url,priority:2" json:"url_id"`
	Description *string        `gorm:"column:description;type:text" json:"description"`
	Messages    datatypes.JSON `gorm:"column:messages;not null" json:"messages"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	Snapshot    datatypes.JSON `gorm:"column:snapshot" json:"snapshot"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;not null;index" json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Summary is the list view of a chat.
type Summary struct {
	ID          string    `json:"id"`
	URLID       string    `json:"urlId"`
	Description string    `json:"description,omitempty"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Timestamp   time.Time `json:"timestamp"`
}

// HistoryItem is a full chat as served to clients.
type HistoryItem struct {
	Summary
	Messages []Message `json:"messages"`
	Snapshot *Snapshot `json:"snapshot"`
}

// UpsertPayload is the client's write of a whole conversation. An empty URLID
// asks the store to mint one.
type UpsertPayload struct {
	URLID       string    `json:"urlId,omitempty"`
	Description *string   `json:"description"`
	Messages    []Message `json:"messages"`
	Metadata    Metadata  `json:"metadata"`
	Snapshot    *Snapshot `json:"snapshot"`
}

func (s *ChatSession) DescriptionValue() string {
	if s == nil || s.Description == nil {
		return ""
	}
	return *s.Description
}

func (s *ChatSession) ToSummary() Summary {
	return Summary{
		ID:          s.ID,
		URLID:       s.URLID,
		Description: s.DescriptionValue(),
		Metadata:    DecodeMetadata(s.Metadata),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Timestamp:   s.UpdatedAt,
	}
}

func (s *ChatSession) ToHistoryItem() (HistoryItem, error) {
	messages, err := DecodeMessages(s.Messages)
	if err != nil {
		return HistoryItem{}, fmt.Errorf("chat %s: %w", s.ID, err)
	}
	return HistoryItem{
		Summary:  s.ToSummary(),
		Messages: messages,
		Snapshot: DecodeSnapshot(s.Snapshot),
	}, nil
}

// DecodeMessages decodes each element on its own so one odd message never
// costs the rest of the history. A null column is an empty history; a column
// that is not an array is an error.
func DecodeMessages(raw datatypes.JSON) ([]Message, error) {
	if isNullJSON(raw) {
		return []Message{}, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMessagesFormat, err)
	}
	out := make([]Message, len(elems))
	for i, e := range elems {
		if err := out[i].UnmarshalJSON(e); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMessagesFormat, i, err)
		}
	}
	return out, nil
}

func DecodeSnapshot(raw datatypes.JSON) *Snapshot {
	if isNullJSON(raw) {
		return nil
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func DecodeMetadata(raw datatypes.JSON) Metadata {
	if isNullJSON(raw) {
		return nil
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// EncodeJSON marshals v into a column value; nil pointers and maps become SQL/JSON null.
func EncodeJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func isNullJSON(raw datatypes.JSON) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
