package chathistory

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
)

// isoMillis matches the browser's Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z"

// ExportDocument is the downloadable form of one chat.
type ExportDocument struct {
	Messages    []types.ChatMessage `json:"messages"`
	Description string              `json:"description,omitempty"`
	ExportDate  string              `json:"exportDate"`
}

func NewExportDocument(item *types.ChatHistoryItem, at time.Time) ExportDocument {
	msgs := item.Messages
	if msgs == nil {
		msgs = []types.ChatMessage{}
	}
	return ExportDocument{
		Messages:    msgs,
		Description: item.Description,
		ExportDate:  at.UTC().Format(isoMillis),
	}
}

func ExportFileName(at time.Time) string {
	return "chat-" + at.UTC().Format(isoMillis) + ".json"
}

// Encode renders the document with two-space indentation.
func (d ExportDocument) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ParseImportDocument reads an exported chat back. messages must be present.
func ParseImportDocument(r io.Reader) (ExportDocument, error) {
	var raw struct {
		Messages    *[]types.ChatMessage `json:"messages"`
		Description string               `json:"description"`
		ExportDate  string               `json:"exportDate"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return ExportDocument{}, fmt.Errorf("invalid chat file: %w", err)
	}
	if raw.Messages == nil {
		return ExportDocument{}, fmt.Errorf("invalid chat file: messages is required")
	}
	return ExportDocument{Messages: *raw.Messages, Description: raw.Description, ExportDate: raw.ExportDate}, nil
}
