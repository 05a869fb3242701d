package chathistory

import (
	"context"
	"errors"
	"sync"
	"time"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

var (
	// ErrSuperseded is returned by a Load whose result was discarded because a
	// newer Load or Close happened first.
	ErrSuperseded = errors.New("load superseded")
	ErrNotReady   = errors.New("chat session is not ready")
	ErrNoChat     = errors.New("no chat is open")
)

// Store is the remote side of a Session. *Client satisfies it.
type Store interface {
	FetchChat(ctx context.Context, chatID string) (*types.ChatHistoryItem, error)
	UpsertChat(ctx context.Context, payload types.UpsertChatPayload) (*types.ChatHistoryItem, error)
	DuplicateChat(ctx context.Context, chatID string) (string, error)
	ImportChat(ctx context.Context, payload types.UpsertChatPayload) (string, error)
	UpdateMetadata(ctx context.Context, urlID string, metadata types.ChatMetadata) error
}

// Workbench exposes the project files the user is editing.
type Workbench interface {
	Files() types.FileMap
	// FirstArtifactTitle is the title of the first generated artifact, or "".
	FirstArtifactTitle() string
}

type Navigator interface {
	// ReplaceChatURL points the current location at urlID without reloading.
	ReplaceChatURL(urlID string)
	OpenChat(urlID string)
	GoHome()
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

type SessionConfig struct {
	Store     Store
	Workbench Workbench
	Sandbox   Sandbox
	Navigator Navigator
	Notifier  Notifier
	Log       *logger.Logger
	// Now stamps exports; time.Now when nil.
	Now func() time.Time
	// Disabled turns every operation into a no-op that leaves the session Ready.
	Disabled bool
}

// Session is the open conversation view's persistence state.
type Session struct {
	store     Store
	workbench Workbench
	sandbox   Sandbox
	nav       Navigator
	notify    Notifier
	log       *logger.Logger
	now       func() time.Time
	disabled  bool

	mu          sync.Mutex
	gen         uint64
	state       State
	loadedID    string
	urlID       string
	description string
	metadata    types.ChatMetadata
	archived    []types.ChatMessage
	initial     []types.ChatMessage
	current     *types.Snapshot
	pending     *types.Snapshot
	restore     *RestoreTask
}

func NewSession(cfg SessionConfig) *Session {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	clock := cfg.Now
	if clock == nil {
		clock = now
	}
	return &Session{
		store:     cfg.Store,
		workbench: cfg.Workbench,
		sandbox:   cfg.Sandbox,
		nav:       cfg.Navigator,
		notify:    cfg.Notifier,
		log:       log.With("component", "ChatSession"),
		now:       clock,
		disabled:  cfg.Disabled,
	}
}

func (s *Session) toastError(msg string) {
	if s.notify != nil {
		s.notify.Error(msg)
	}
}

func (s *Session) toastSuccess(msg string) {
	if s.notify != nil {
		s.notify.Success(msg)
	}
}

// Load opens chatID. An empty chatID starts a new conversation. rewindTo
// trims the replayed view at that message.
func (s *Session) Load(ctx context.Context, chatID, rewindTo string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.stopRestoreLocked()
	if s.disabled || chatID == "" {
		s.resetLocked()
		s.state = StateReady
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	s.mu.Unlock()

	item, err := s.store.FetchChat(ctx, chatID)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.state = StateErrored
		s.mu.Unlock()
		s.log.Error("Failed to load chat history", "chat_id", chatID, "error", err)
		s.toastError("Failed to load chat")
		if s.nav != nil {
			s.nav.GoHome()
		}
		return err
	}

	w := ComputeWindow(item.Messages, item.Snapshot, rewindTo)
	s.loadedID = chatID
	s.archived = w.Archived
	s.initial = w.Active
	s.urlID = item.URLID
	s.description = item.Description
	s.metadata = item.Metadata.Clone()
	s.current = item.Snapshot
	s.pending = nil
	s.state = StateReady
	if w.Restored && s.sandbox != nil {
		task := StartRestore(context.WithoutCancel(ctx), s.log, s.sandbox, item.Snapshot)
		s.restore = task
		go func() {
			if err := task.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				s.toastError("Failed to restore project snapshot")
			}
		}()
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) resetLocked() {
	s.loadedID, s.urlID, s.description = "", "", ""
	s.metadata = nil
	s.archived, s.initial = nil, nil
	s.current, s.pending = nil, nil
}

func (s *Session) stopRestoreLocked() {
	if s.restore != nil {
		s.restore.Cancel()
		s.restore = nil
	}
}

// Save persists the view's messages behind the archived prefix. Failures are
// reported and returned but leave the session Ready with its confirmed state.
func (s *Session) Save(ctx context.Context, messages []types.ChatMessage) error {
	if s.disabled || len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	combined := make([]types.ChatMessage, 0, len(s.archived)+len(messages))
	combined = append(combined, s.archived...)
	for _, m := range messages {
		if !m.HasFlag(chat.FlagNoStore) {
			combined = append(combined, m)
		}
	}

	if len(combined) > 0 {
		last := combined[len(combined)-1]
		var summary string
		if last.Role == chat.RoleAssistant {
			summary, _ = last.ChatSummary()
		}
		var files types.FileMap
		if s.workbench != nil {
			files = s.workbench.Files()
		}
		s.pending = &types.Snapshot{ChatIndex: last.ID, Files: files, Summary: summary}
	}

	if s.description == "" && s.workbench != nil {
		if title := s.workbench.FirstArtifactTitle(); title != "" {
			s.description = title
		}
	}
	priorURLID := s.urlID
	toPersist := s.pending
	if toPersist == nil {
		toPersist = s.current
	}
	payload := types.UpsertChatPayload{
		URLID:    priorURLID,
		Messages: combined,
		Metadata: s.metadata.Clone(),
		Snapshot: toPersist,
	}
	if s.description != "" {
		d := s.description
		payload.Description = &d
	}
	s.mu.Unlock()

	item, err := s.store.UpsertChat(ctx, payload)
	if err != nil {
		s.log.Error("Failed to save chat history", "url_id", priorURLID, "error", err)
		msg := err.Error()
		if msg == "" {
			msg = "Failed to save chat history"
		}
		s.toastError(msg)
		return err
	}

	s.mu.Lock()
	s.urlID = item.URLID
	s.description = item.Description
	s.metadata = item.Metadata.Clone()
	if item.Snapshot != nil {
		s.current = item.Snapshot
	} else {
		s.current = toPersist
	}
	s.pending = nil
	s.mu.Unlock()

	if priorURLID == "" && item.URLID != "" && s.nav != nil {
		s.nav.ReplaceChatURL(item.URLID)
	}
	return nil
}

// UpdateMetadata replaces the open chat's metadata. It is a no-op before the
// chat has a url id.
func (s *Session) UpdateMetadata(ctx context.Context, metadata types.ChatMetadata) error {
	if s.disabled {
		return nil
	}
	urlID := s.URLID()
	if urlID == "" {
		return nil
	}
	if err := s.store.UpdateMetadata(ctx, urlID, metadata); err != nil {
		s.log.Error("Failed to update chat metadata", "url_id", urlID, "error", err)
		s.toastError("Failed to update chat metadata")
		return err
	}
	s.mu.Lock()
	s.metadata = metadata.Clone()
	s.mu.Unlock()
	return nil
}

// Duplicate copies chatID, or the open chat when empty, and opens the copy.
func (s *Session) Duplicate(ctx context.Context, chatID string) (string, error) {
	if s.disabled {
		return "", nil
	}
	if chatID == "" {
		s.mu.Lock()
		chatID = s.loadedID
		s.mu.Unlock()
	}
	urlID, err := s.store.DuplicateChat(ctx, chatID)
	if err != nil {
		s.log.Error("Failed to duplicate chat", "chat_id", chatID, "error", err)
		s.toastError("Failed to duplicate chat")
		return "", err
	}
	if s.nav != nil {
		s.nav.OpenChat(urlID)
	}
	s.toastSuccess("Chat duplicated successfully")
	return urlID, nil
}

// Import creates a new chat from messages and opens it.
func (s *Session) Import(ctx context.Context, description string, messages []types.ChatMessage, metadata types.ChatMetadata) (string, error) {
	if s.disabled {
		return "", nil
	}
	payload := types.UpsertChatPayload{Messages: messages, Metadata: metadata}
	if description != "" {
		payload.Description = &description
	}
	urlID, err := s.store.ImportChat(ctx, payload)
	if err != nil {
		s.log.Error("Failed to import chat", "error", err)
		s.toastError("Failed to import chat")
		return "", err
	}
	if s.nav != nil {
		s.nav.OpenChat(urlID)
	}
	s.toastSuccess("Chat imported successfully")
	return urlID, nil
}

// Export fetches chatID, or the open chat when empty, as an export document.
func (s *Session) Export(ctx context.Context, chatID string) (ExportDocument, error) {
	if chatID == "" {
		chatID = s.URLID()
	}
	if s.disabled || chatID == "" {
		return ExportDocument{}, ErrNoChat
	}
	item, err := s.store.FetchChat(ctx, chatID)
	if err != nil {
		s.log.Error("Failed to export chat", "chat_id", chatID, "error", err)
		s.toastError("Failed to export chat")
		return ExportDocument{}, err
	}
	return NewExportDocument(item, s.now()), nil
}

// Close discards any in-flight Load and stops a running restore.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.stopRestoreLocked()
	s.resetLocked()
	s.state = StateUnloaded
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) URLID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urlID
}

func (s *Session) Description() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.description
}

func (s *Session) Metadata() types.ChatMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata.Clone()
}

// InitialMessages is the window the view replays after Load.
func (s *Session) InitialMessages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatMessage(nil), s.initial...)
}

func (s *Session) ArchivedMessages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatMessage(nil), s.archived...)
}

// Snapshot is the last server-confirmed snapshot.
func (s *Session) Snapshot() *types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) PendingSnapshot() *types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Restore is the snapshot materialization started by the last Load, or nil.
func (s *Session) Restore() *RestoreTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restore
}
