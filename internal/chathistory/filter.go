package chathistory

import (
	"strings"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
)

// FilterChats keeps chats whose description contains query, ignoring case.
// A blank query keeps everything.
func FilterChats(items []types.ChatSummary, query string) []types.ChatSummary {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]types.ChatSummary, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Description), q) {
			out = append(out, it)
		}
	}
	return out
}
