package chathistory

import (
	"bytes"
	"strings"
	"testing"
	"time"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
)

func TestExportDocumentRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("X", 3600))
	item := &types.ChatHistoryItem{Messages: conversation()[:2]}
	item.Description = "Todo app"

	doc := NewExportDocument(item, at)
	if doc.ExportDate != "2026-03-04T04:06:07.890Z" {
		t.Fatalf("exportDate: got=%s", doc.ExportDate)
	}
	if got := ExportFileName(at); got != "chat-2026-03-04T04:06:07.890Z.json" {
		t.Fatalf("file name: got=%s", got)
	}

	raw, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Contains(raw, []byte("\n  \"messages\": [")) {
		t.Fatalf("encode should indent with two spaces:\n%s", raw)
	}

	back, err := ParseImportDocument(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseImportDocument: %v", err)
	}
	if back.Description != "Todo app" || !sameIDs(back.Messages, "m1", "m2") || back.Messages[1].Role != chat.RoleAssistant {
		t.Fatalf("round trip: got=%+v", back)
	}
}

func TestExportDocumentWithoutMessages(t *testing.T) {
	raw, err := NewExportDocument(&types.ChatHistoryItem{}, time.Unix(0, 0)).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(raw), `"messages": []`) || strings.Contains(string(raw), "description") {
		t.Fatalf("empty export: got=%s", raw)
	}
}

func TestParseImportDocumentRequiresMessages(t *testing.T) {
	for _, in := range []string{`{"description":"x"}`, `not json`} {
		if _, err := ParseImportDocument(strings.NewReader(in)); err == nil {
			t.Fatalf("ParseImportDocument(%s): want error", in)
		}
	}
}
