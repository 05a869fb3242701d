package realtime

import (
	"strings"
	"time"
)

type SSEEvent string

const (
	SSEEventChatSaved   SSEEvent = "ChatSaved"
	SSEEventChatCreated SSEEvent = "ChatCreated"
	SSEEventChatUpdated SSEEvent = "ChatUpdated"
	SSEEventChatDeleted SSEEvent = "ChatDeleted"
)

// ChatEvent describes one write to a user's chat history.
type ChatEvent struct {
	ChatID      string    `json:"chatId,omitempty"`
	URLID       string    `json:"urlId,omitempty"`
	Description string    `json:"description,omitempty"`
	At          time.Time `json:"at"`
}

type SSEMessage struct {
	Channel string     `json:"channel"`
	Event   SSEEvent   `json:"event"`
	Data    *ChatEvent `json:"data,omitempty"`
}

const userChannelPrefix = "user:"

// UserChannel is the channel every change to userID's chats is broadcast on.
func UserChannel(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ""
	}
	return userChannelPrefix + userID
}

func NewChatMessage(userID string, event SSEEvent, data ChatEvent) SSEMessage {
	if data.At.IsZero() {
		data.At = time.Now().UTC()
	}
	return SSEMessage{Channel: UserChannel(userID), Event: event, Data: &data}
}
