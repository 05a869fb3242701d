package chathistory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

const (
	restoreRequestContent = "Restore project from snapshot"
	restoreIntro          = "Mojo restored your chat from a snapshot. You can revert this message to load the full chat history."
)

// Sandbox is where project files live while a chat is open.
type Sandbox interface {
	// Workdir is the absolute prefix snapshot paths are recorded under.
	Workdir() string
	MkdirAll(ctx context.Context, path string) error
	WriteFile(ctx context.Context, path, content string, binary bool) error
}

func sortedPaths(files types.FileMap) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func snapshotFiles(files types.FileMap) []ProjectFile {
	var out []ProjectFile
	for _, p := range sortedPaths(files) {
		if f := files[p]; f != nil && f.Type == chat.FileKindFile {
			out = append(out, ProjectFile{Path: p, Content: f.Content})
		}
	}
	return out
}

// RestoreMessages builds the hidden restore request and the assistant reply
// that carries the snapshot files as a workbench artifact. The reply reuses
// the pivot's id so reverting it loads the full history.
func RestoreMessages(pivot types.ChatMessage, snapshot *types.Snapshot) []types.ChatMessage {
	files := snapshotFiles(snapshot.Files)

	var b strings.Builder
	b.WriteString(restoreIntro)
	b.WriteString("\n<boltArtifact id=\"restored-project-setup\" title=\"Restored Project & Setup\" type=\"bundled\">\n")
	for _, f := range files {
		fmt.Fprintf(&b, "<boltAction type=\"file\" filePath=\"%s\">\n%s\n</boltAction>\n", f.Path, f.Content)
	}
	b.WriteString(CommandActions(DetectProjectCommands(files)))
	b.WriteString("\n</boltArtifact>\n")

	annotations := []chat.Annotation{chat.FlagAnnotation(chat.FlagNoStore)}
	if snapshot.Summary != "" {
		annotations = append(annotations, chat.SummaryAnnotation(pivot.ID, snapshot.Summary))
	}

	return []types.ChatMessage{
		{
			ID:          newMessageID(),
			Role:        chat.RoleUser,
			Content:     restoreRequestContent,
			Annotations: []chat.Annotation{chat.FlagAnnotation(chat.FlagNoStore), chat.FlagAnnotation(chat.FlagHidden)},
		},
		{
			ID:          pivot.ID,
			Role:        chat.RoleAssistant,
			Content:     b.String(),
			Annotations: annotations,
		},
	}
}

// RestoreTask materializes a snapshot into a Sandbox in the background.
type RestoreTask struct {
	done   chan struct{}
	err    error
	cancel context.CancelFunc
	once   sync.Once
}

// StartRestore creates folders before files. Paths under the sandbox workdir
// are made relative to it.
func StartRestore(ctx context.Context, log *logger.Logger, sb Sandbox, snapshot *types.Snapshot) *RestoreTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &RestoreTask{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.done)
		defer cancel()
		t.err = materialize(ctx, sb, snapshot)
		if t.err != nil && log != nil {
			log.Error("Failed to restore snapshot", "error", t.err)
		}
	}()
	return t
}

func materialize(ctx context.Context, sb Sandbox, snapshot *types.Snapshot) error {
	if snapshot == nil || len(snapshot.Files) == 0 {
		return nil
	}
	workdir := sb.Workdir()
	rel := func(p string) string {
		if workdir != "" && strings.HasPrefix(p, workdir) {
			return strings.Replace(p, workdir, "", 1)
		}
		return p
	}
	paths := sortedPaths(snapshot.Files)
	for _, p := range paths {
		if f := snapshot.Files[p]; f != nil && f.Type == chat.FileKindFolder {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sb.MkdirAll(ctx, rel(p)); err != nil {
				return fmt.Errorf("mkdir %s: %w", p, err)
			}
		}
	}
	for _, p := range paths {
		if f := snapshot.Files[p]; f != nil && f.Type == chat.FileKindFile {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sb.WriteFile(ctx, rel(p), f.Content, f.IsBinary); err != nil {
				return fmt.Errorf("write %s: %w", p, err)
			}
		}
	}
	return nil
}

// Wait blocks until the restore finishes and returns its error.
func (t *RestoreTask) Wait() error {
	if t == nil {
		return nil
	}
	<-t.done
	return t.err
}

func (t *RestoreTask) Done() <-chan struct{} { return t.done }

func (t *RestoreTask) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
}
