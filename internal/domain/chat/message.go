package chat

import "encoding/json"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of a conversation. Fields the persistence layer does not
// interpret (createdAt, parts, attachments) ride along in Extra untouched.
//
// A stored element whose known fields do not have the expected shape (array
// content, numeric id) keeps its original bytes in Raw and is written back
// verbatim; the fields that did decode are still populated.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Annotations []Annotation
	Extra       map[string]json.RawMessage
	Raw         json.RawMessage
}

var messageKnownKeys = map[string]bool{"id": true, "role": true, "content": true, "annotations": true}

func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	out := make(map[string]any, len(m.Extra)+4)
	for k, v := range m.Extra {
		if !messageKnownKeys[k] {
			out[k] = v
		}
	}
	if m.ID != "" {
		out["id"] = m.ID
	}
	out["role"] = m.Role
	out["content"] = m.Content
	if len(m.Annotations) > 0 {
		out["annotations"] = m.Annotations
	}
	return json.Marshal(out)
}

func (m *Message) UnmarshalJSON(b []byte) error {
	*m = Message{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		m.Raw = append(json.RawMessage(nil), b...)
		return nil
	}
	malformed := false
	field := func(key string, dst any) {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			return
		}
		if err := json.Unmarshal(v, dst); err != nil {
			malformed = true
		}
	}
	field("id", &m.ID)
	field("role", &m.Role)
	field("content", &m.Content)
	field("annotations", &m.Annotations)
	for k, v := range raw {
		if messageKnownKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = map[string]json.RawMessage{}
		}
		m.Extra[k] = v
	}
	if malformed {
		m.Raw = append(json.RawMessage(nil), b...)
	}
	return nil
}

// Verbatim reports whether m is carried as its original bytes.
func (m Message) Verbatim() bool { return len(m.Raw) > 0 }

// HasFlag reports whether m carries the string annotation flag.
func (m Message) HasFlag(flag string) bool {
	for _, a := range m.Annotations {
		if a.Kind == AnnotationFlag && a.Flag == flag {
			return true
		}
	}
	return false
}

// ChatSummary returns the embedded chat summary annotation, if any.
func (m Message) ChatSummary() (string, bool) {
	for _, a := range m.Annotations {
		switch a.Kind {
		case AnnotationChatSummary:
			if a.Summary != nil {
				return a.Summary.Summary, true
			}
		case AnnotationFlag, AnnotationOther:
		}
	}
	return "", false
}

// IndexOf returns the position of the first message with id, or -1.
func IndexOf(messages []Message, id string) int {
	for i := range messages {
		if messages[i].ID == id {
			return i
		}
	}
	return -1
}
