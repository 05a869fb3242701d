package domain

import (
	"errors"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/auth"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
)

var (
	ErrChatNotFound    = errors.New("Chat not found")
	ErrMessageNotFound = errors.New("Message not found in chat")
	ErrTokenNotFound   = errors.New("token not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotConfigured   = errors.New("token encryption secret is not configured")
	ErrMessagesFormat  = chat.ErrMessagesFormat
)

type ChatSession = chat.ChatSession
type ChatSummary = chat.Summary
type ChatHistoryItem = chat.HistoryItem
type UpsertChatPayload = chat.UpsertPayload
type ChatMessage = chat.Message
type ChatMetadata = chat.Metadata
type Snapshot = chat.Snapshot
type FileMap = chat.FileMap
type FileEntry = chat.FileEntry

type ProviderToken = auth.ProviderToken
