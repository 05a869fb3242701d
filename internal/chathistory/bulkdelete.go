package chathistory

import (
	"context"
	"fmt"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

type Deleter interface {
	DeleteChat(ctx context.Context, chatID string) error
}

type BulkDeleteReport struct {
	Deleted []string
	Failed  []string
	Total   int
}

func (r BulkDeleteReport) OK() bool { return len(r.Failed) == 0 }

func (r BulkDeleteReport) Message() string {
	if r.OK() {
		plural := "s"
		if len(r.Deleted) == 1 {
			plural = ""
		}
		return fmt.Sprintf("%d chat%s deleted successfully", len(r.Deleted), plural)
	}
	return fmt.Sprintf("Deleted %d of %d chats. %d failed.", len(r.Deleted), r.Total, len(r.Failed))
}

// Contains reports whether id was deleted.
func (r BulkDeleteReport) Contains(id string) bool {
	for _, d := range r.Deleted {
		if d == id {
			return true
		}
	}
	return false
}

// BulkDelete removes ids one at a time so the report keeps their order.
func BulkDelete(ctx context.Context, log *logger.Logger, d Deleter, ids []string) BulkDeleteReport {
	if log == nil {
		log = logger.Nop()
	}
	report := BulkDeleteReport{Total: len(ids)}
	for _, id := range ids {
		if err := d.DeleteChat(ctx, id); err != nil {
			log.Error("bulk delete failed for chat", "chat_id", id, "error", err)
			report.Failed = append(report.Failed, id)
			continue
		}
		report.Deleted = append(report.Deleted, id)
	}
	return report
}
