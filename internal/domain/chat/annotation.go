package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type AnnotationKind int

const (
	// AnnotationFlag is a bare string marker such as "no-store" or "hidden".
	AnnotationFlag AnnotationKind = iota
	// AnnotationChatSummary is {"type":"chatSummary","chatId":...,"summary":...}.
	AnnotationChatSummary
	// AnnotationOther is any other shape, kept verbatim.
	AnnotationOther
)

const (
	FlagNoStore = "no-store"
	FlagHidden  = "hidden"

	annotationTypeChatSummary = "chatSummary"
)

type ChatSummaryAnnotation struct {
	ChatID  string `json:"chatId"`
	Summary string `json:"summary"`
}

type Annotation struct {
	Kind    AnnotationKind
	Flag    string
	Summary *ChatSummaryAnnotation
	Raw     json.RawMessage
}

func FlagAnnotation(flag string) Annotation {
	return Annotation{Kind: AnnotationFlag, Flag: flag}
}

func SummaryAnnotation(chatID, summary string) Annotation {
	return Annotation{Kind: AnnotationChatSummary, Summary: &ChatSummaryAnnotation{ChatID: chatID, Summary: summary}}
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnnotationFlag:
		return json.Marshal(a.Flag)
	case AnnotationChatSummary:
		s := ChatSummaryAnnotation{}
		if a.Summary != nil {
			s = *a.Summary
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			ChatSummaryAnnotation
		}{Type: annotationTypeChatSummary, ChatSummaryAnnotation: s})
	case AnnotationOther:
		if len(a.Raw) == 0 {
			return []byte("null"), nil
		}
		return a.Raw, nil
	default:
		return nil, fmt.Errorf("unknown annotation kind %d", a.Kind)
	}
}

func (a *Annotation) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var flag string
		if err := json.Unmarshal(trimmed, &flag); err != nil {
			return err
		}
		*a = FlagAnnotation(flag)
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(trimmed, &head); err == nil && head.Type == annotationTypeChatSummary {
			var s ChatSummaryAnnotation
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return err
			}
			*a = Annotation{Kind: AnnotationChatSummary, Summary: &s}
			return nil
		}
	}
	*a = Annotation{Kind: AnnotationOther, Raw: append(json.RawMessage(nil), trimmed...)}
	return nil
}
