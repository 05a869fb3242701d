package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestMessagePreservesUnknownFields(t *testing.T) {
	in := `{"id":"m1","role":"assistant","content":"hi","createdAt":"2024-05-01T10:00:00.000Z","parts":[{"type":"text","text":"hi"}],"annotations":["no-store",{"type":"chatSummary","chatId":"m1","summary":"did things"},{"type":"usage","value":{"totalTokens":3}}]}`
	var m Message
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.ID != "m1" || m.Role != RoleAssistant || m.Content != "hi" {
		t.Fatalf("known fields: got=%+v", m)
	}
	if !m.HasFlag(FlagNoStore) || m.HasFlag(FlagHidden) {
		t.Fatalf("flags: got=%+v", m.Annotations)
	}
	if s, ok := m.ChatSummary(); !ok || s != "did things" {
		t.Fatalf("summary: want=%q got=%q ok=%v", "did things", s, ok)
	}
	if m.Annotations[2].Kind != AnnotationOther {
		t.Fatalf("usage annotation kind: got=%v", m.Annotations[2].Kind)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal back: %v", err)
	}
	if back["createdAt"] != "2024-05-01T10:00:00.000Z" {
		t.Fatalf("createdAt lost: %s", out)
	}
	if _, ok := back["parts"]; !ok {
		t.Fatalf("parts lost: %s", out)
	}
	anns, _ := back["annotations"].([]any)
	if len(anns) != 3 || anns[0] != "no-store" {
		t.Fatalf("annotations: got=%v", anns)
	}
	if !strings.Contains(string(out), `"totalTokens":3`) {
		t.Fatalf("raw annotation not kept verbatim: %s", out)
	}
}

func TestMessageWithoutAnnotations(t *testing.T) {
	out, err := json.Marshal(Message{Role: RoleUser, Content: "x"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(out), "annotations") || strings.Contains(string(out), `"id"`) {
		t.Fatalf("empty fields emitted: %s", out)
	}
	if _, ok := (Message{}).ChatSummary(); ok {
		t.Fatalf("no summary expected")
	}
}

func TestDecodeHelpers(t *testing.T) {
	if got, err := DecodeMessages([]byte(`{"not":"an array"}`)); !errors.Is(err, ErrMessagesFormat) {
		t.Fatalf("non-array messages: want ErrMessagesFormat got=%v err=%v", got, err)
	}
	if got, err := DecodeMessages(nil); err != nil || got == nil || len(got) != 0 {
		t.Fatalf("null messages: want empty slice got=%v err=%v", got, err)
	}
	if DecodeSnapshot([]byte("null")) != nil || DecodeMetadata(nil) != nil {
		t.Fatalf("null columns should decode to nil")
	}
	snap := DecodeSnapshot([]byte(`{"chatIndex":"m2","files":{"/home/project/a.txt":{"type":"file","content":"A","isBinary":false},"/home/project/src":{"type":"folder"},"/home/project/gone":null}}`))
	if snap == nil || snap.ChatIndex != "m2" || len(snap.Files) != 3 {
		t.Fatalf("snapshot: got=%+v", snap)
	}
	if snap.Files["/home/project/gone"] != nil || snap.Files["/home/project/src"].Type != FileKindFolder {
		t.Fatalf("file map entries: got=%+v", snap.Files)
	}
	out, err := json.Marshal(snap.Files["/home/project/src"])
	if err != nil || string(out) != `{"type":"folder"}` {
		t.Fatalf("folder encoding: got=%s err=%v", out, err)
	}
}

func TestMetadataMerge(t *testing.T) {
	base := Metadata{"gitUrl": "https://github.com/a/b", "netlifySiteId": "s1"}
	merged := base.Merge(Metadata{"gitBranch": "main", "netlifySiteId": "s2"})
	if merged.GitURL() != "https://github.com/a/b" || merged.GitBranch() != "main" || merged.String("netlifySiteId") != "s2" {
		t.Fatalf("merge: got=%v", merged)
	}
	if base.String("netlifySiteId") != "s1" {
		t.Fatalf("merge mutated receiver: %v", base)
	}
}

func TestDecodeMessagesKeepsOddElements(t *testing.T) {
	raw := `[{"id":"m1","role":"user","content":"hi"},{"id":"m2","role":"assistant","content":[{"type":"text","text":"yo"}]},{"id":7,"role":"user","content":"n"},"stray"]`
	got, err := DecodeMessages([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeMessages: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("messages: want=4 got=%d", len(got))
	}
	if got[0].ID != "m1" || got[0].Content != "hi" || got[0].Verbatim() {
		t.Fatalf("m1: got=%+v", got[0])
	}
	if got[1].ID != "m2" || got[1].Role != RoleAssistant || !got[1].Verbatim() {
		t.Fatalf("m2 should keep its id and role: got=%+v", got[1])
	}
	if IndexOf(got, "m2") != 1 {
		t.Fatalf("IndexOf m2: got=%d", IndexOf(got, "m2"))
	}
	if !got[2].Verbatim() || !got[3].Verbatim() {
		t.Fatalf("odd elements should be verbatim: got=%+v", got[2:])
	}

	out, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var want, back any
	if err := json.Unmarshal([]byte(raw), &want); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal out: %v", err)
	}
	wantJSON, _ := json.Marshal(want)
	backJSON, _ := json.Marshal(back)
	if string(wantJSON) != string(backJSON) {
		t.Fatalf("round trip: want=%s got=%s", wantJSON, backJSON)
	}
}
