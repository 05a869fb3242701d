package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	chatrepo "github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/chat"
	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/dbctx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/supabase"
)

const (
	duplicateFallbackDescription = "Duplicated chat"
	forkFallbackDescription      = "Forked chat"
	importFallbackDescription    = "Imported chat"
)

// ChatHistoryService backs the chat-history routes. Every method is scoped to
// userID; a chat owned by someone else is reported as ErrChatNotFound.
type ChatHistoryService interface {
	List(ctx context.Context, userID string, opts chatrepo.ListOptions) ([]types.ChatSummary, error)
	Get(ctx context.Context, userID, chatID string) (*types.ChatHistoryItem, error)
	Upsert(ctx context.Context, userID string, payload types.UpsertChatPayload) (*types.ChatHistoryItem, error)
	// Duplicate, Fork and Import return the url id of the new chat.
	Duplicate(ctx context.Context, userID, chatID string) (string, error)
	Fork(ctx context.Context, userID, chatID, messageID string) (string, error)
	Import(ctx context.Context, userID string, payload types.UpsertChatPayload) (string, error)
	UpdateDescription(ctx context.Context, userID, urlID, description string) error
	// UpdateMetadata lays patch's top-level keys over the stored metadata. A nil
	// patch clears it.
	UpdateMetadata(ctx context.Context, userID, urlID string, patch types.ChatMetadata) error
	Delete(ctx context.Context, userID, chatID string) error
}

type chatHistoryService struct {
	log      *logger.Logger
	repo     chatrepo.ChatSessionRepo
	notifier ChatHistoryNotifier
	now      func() time.Time
	newURLID func() string
}

func NewChatHistoryService(log *logger.Logger, repo chatrepo.ChatSessionRepo, notifier ChatHistoryNotifier) ChatHistoryService {
	return &chatHistoryService{
		log:      log.With("service", "ChatHistoryService"),
		repo:     repo,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		newURLID: supabase.GenerateURLID,
	}
}

func requireOwner(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return types.ErrUnauthenticated
	}
	return nil
}

func (s *chatHistoryService) List(ctx context.Context, userID string, opts chatrepo.ListOptions) ([]types.ChatSummary, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(dbctx.From(ctx), userID, opts)
	if err != nil {
		return nil, err
	}
	out := make([]types.ChatSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToSummary())
	}
	return out, nil
}

func (s *chatHistoryService) resolve(ctx context.Context, userID, chatID string) (*types.ChatSession, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(chatID) == "" {
		return nil, fmt.Errorf("%w: chatId is required", types.ErrInvalidArgument)
	}
	row, err := s.repo.Resolve(dbctx.From(ctx), userID, chatID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, types.ErrChatNotFound
	}
	return row, nil
}

func (s *chatHistoryService) Get(ctx context.Context, userID, chatID string) (*types.ChatHistoryItem, error) {
	row, err := s.resolve(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	item, err := row.ToHistoryItem()
	if err != nil {
		s.log.Error("stored chat failed to decode", "user_id", userID, "chat_id", row.ID, "error", err)
		return nil, err
	}
	return &item, nil
}

// write persists one whole conversation, minting a url id when none is given.
func (s *chatHistoryService) write(ctx context.Context, userID string, p types.UpsertChatPayload) (*types.ChatSession, error) {
	urlID := strings.TrimSpace(p.URLID)
	if urlID == "" {
		urlID = s.newURLID()
	}
	messages := p.Messages
	if messages == nil {
		messages = []types.ChatMessage{}
	}
	msgJSON, err := chat.EncodeJSON(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	metaJSON, err := chat.EncodeJSON(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	snapJSON, err := chat.EncodeJSON(p.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return s.repo.Upsert(dbctx.From(ctx), &types.ChatSession{
		UserID:      userID,
		URLID:       urlID,
		Description: p.Description,
		Messages:    msgJSON,
		Metadata:    metaJSON,
		Snapshot:    snapJSON,
		UpdatedAt:   s.now(),
	})
}

func (s *chatHistoryService) Upsert(ctx context.Context, userID string, payload types.UpsertChatPayload) (*types.ChatHistoryItem, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	row, err := s.write(ctx, userID, payload)
	if err != nil {
		return nil, err
	}
	s.notifier.ChatSaved(ctx, userID, row)
	item, err := row.ToHistoryItem()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func derivedDescription(source *types.ChatSession, suffix, fallback string) *string {
	d := fallback
	if v := source.DescriptionValue(); v != "" {
		d = v + " " + suffix
	}
	return &d
}

func (s *chatHistoryService) Duplicate(ctx context.Context, userID, chatID string) (string, error) {
	source, err := s.resolve(ctx, userID, chatID)
	if err != nil {
		return "", err
	}
	messages, err := chat.DecodeMessages(source.Messages)
	if err != nil {
		return "", err
	}
	row, err := s.write(ctx, userID, types.UpsertChatPayload{
		Description: derivedDescription(source, "(copy)", duplicateFallbackDescription),
		Messages:    messages,
		Metadata:    chat.DecodeMetadata(source.Metadata),
		Snapshot:    chat.DecodeSnapshot(source.Snapshot),
	})
	if err != nil {
		return "", err
	}
	s.log.Debug("chat duplicated", "user_id", userID, "source", source.ID, "url_id", row.URLID)
	s.notifier.ChatCreated(ctx, userID, row)
	return row.URLID, nil
}

func (s *chatHistoryService) Fork(ctx context.Context, userID, chatID, messageID string) (string, error) {
	if strings.TrimSpace(messageID) == "" {
		return "", fmt.Errorf("%w: chatId and messageId are required", types.ErrInvalidArgument)
	}
	source, err := s.resolve(ctx, userID, chatID)
	if err != nil {
		return "", err
	}
	messages, err := chat.DecodeMessages(source.Messages)
	if err != nil {
		return "", err
	}
	pivot := chat.IndexOf(messages, messageID)
	if pivot < 0 {
		return "", types.ErrMessageNotFound
	}
	row, err := s.write(ctx, userID, types.UpsertChatPayload{
		Description: derivedDescription(source, "(fork)", forkFallbackDescription),
		Messages:    messages[:pivot+1],
		Metadata:    chat.DecodeMetadata(source.Metadata),
	})
	if err != nil {
		return "", err
	}
	s.notifier.ChatCreated(ctx, userID, row)
	return row.URLID, nil
}

func (s *chatHistoryService) Import(ctx context.Context, userID string, payload types.UpsertChatPayload) (string, error) {
	if err := requireOwner(userID); err != nil {
		return "", err
	}
	if payload.Description == nil {
		d := importFallbackDescription
		payload.Description = &d
	}
	// Imports always land in a new row.
	payload.URLID = ""
	row, err := s.write(ctx, userID, payload)
	if err != nil {
		return "", err
	}
	s.notifier.ChatCreated(ctx, userID, row)
	return row.URLID, nil
}

func (s *chatHistoryService) UpdateDescription(ctx context.Context, userID, urlID, description string) error {
	if err := requireOwner(userID); err != nil {
		return err
	}
	if strings.TrimSpace(urlID) == "" {
		return fmt.Errorf("%w: urlId and description are required", types.ErrInvalidArgument)
	}
	if err := s.repo.UpdateFields(dbctx.From(ctx), userID, urlID, chatrepo.Fields{Description: &description}); err != nil {
		return err
	}
	s.notifier.ChatUpdated(ctx, userID, urlID, &description)
	return nil
}

func (s *chatHistoryService) UpdateMetadata(ctx context.Context, userID, urlID string, patch types.ChatMetadata) error {
	if err := requireOwner(userID); err != nil {
		return err
	}
	if strings.TrimSpace(urlID) == "" {
		return fmt.Errorf("%w: urlId is required", types.ErrInvalidArgument)
	}
	dbc := dbctx.From(ctx)
	var merged types.ChatMetadata
	if patch != nil {
		current, err := s.repo.GetByURLID(dbc, userID, urlID)
		if err != nil {
			return err
		}
		if current == nil {
			return types.ErrChatNotFound
		}
		merged = chat.DecodeMetadata(current.Metadata).Merge(patch)
	}
	meta, err := chat.EncodeJSON(merged)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := s.repo.UpdateFields(dbc, userID, urlID, chatrepo.Fields{Metadata: &meta}); err != nil {
		return err
	}
	s.notifier.ChatUpdated(ctx, userID, urlID, nil)
	return nil
}

func (s *chatHistoryService) Delete(ctx context.Context, userID, chatID string) error {
	row, err := s.resolve(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByID(dbctx.From(ctx), userID, row.ID); err != nil {
		return err
	}
	s.log.Info("chat deleted", "user_id", userID, "chat_id", row.ID)
	s.notifier.ChatDeleted(ctx, userID, row)
	return nil
}
