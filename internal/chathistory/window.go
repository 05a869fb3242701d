package chathistory

import (
	"time"

	"github.com/google/uuid"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/chat"
)

var (
	newMessageID = uuid.NewString
	now          = time.Now
)

// Window is the split of a stored conversation into the part replayed in the
// view (Active) and the part kept only for the next save (Archived).
type Window struct {
	Archived []types.ChatMessage
	Active   []types.ChatMessage
	// StartIndex is the snapshot pivot the view starts after, or -1.
	StartIndex int
	EndIndex   int
	// Restored is set when Active opens with the synthesized restore pair and
	// the snapshot files should be materialized.
	Restored bool
}

// ComputeWindow applies rewindTo and the stored snapshot to all. A rewindTo
// that names no message yields an empty window.
func ComputeWindow(all []types.ChatMessage, snapshot *types.Snapshot, rewindTo string) Window {
	end := len(all)
	if rewindTo != "" {
		end = chat.IndexOf(all, rewindTo) + 1
	}

	snapshotIndex := -1
	if snapshot != nil {
		snapshotIndex = chat.IndexOf(all, snapshot.ChatIndex)
	}

	start := -1
	if snapshotIndex >= 0 && snapshotIndex < end {
		start = snapshotIndex
	}
	// Rewinding exactly to the pivot replays from the true start.
	if snapshotIndex > 0 && all[snapshotIndex].ID == rewindTo {
		start = -1
	}

	w := Window{StartIndex: start, EndIndex: end, Archived: []types.ChatMessage{}}
	if start >= 0 {
		w.Archived = append(w.Archived, all[:start+1]...)
	}
	active := append([]types.ChatMessage{}, all[start+1:end]...)

	if start > 0 && snapshot != nil {
		active = append(RestoreMessages(all[start], snapshot), active...)
		w.Restored = true
	}
	w.Active = active
	return w
}
