// Package activity records the append-only audit trail behind the
// dashboard activity feed. Logging is strictly best-effort: a failed
// insert must never break the operation being audited.
package activity

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/models"
)

type Logger struct {
	db core.DbClient
}

func NewLogger(db core.DbClient) *Logger {
	return &Logger{db: db}
}

// Log writes one audit entry. Errors are logged and swallowed.
func (l *Logger) Log(ctx context.Context, clientID string, typ models.ActivityType, description string, metadata map[string]any) {
	entry := &models.ActivityLogEntry{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Type:        typ,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	}
	if err := l.db.InsertActivity(ctx, entry); err != nil {
		log.Printf("activity: failed to record %s for client %s: %v", typ, clientID, err)
	}
}
