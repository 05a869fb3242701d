package app

import types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"

func importPayload(description *string) types.UpsertChatPayload {
	return types.UpsertChatPayload{
		Description: description,
		Messages:    []types.ChatMessage{{ID: "m1", Role: "user", Content: "hi"}},
	}
}
