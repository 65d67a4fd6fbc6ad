package verify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rmontanez/chequeo/internal/model"
	"github.com/rmontanez/chequeo/internal/store"
)

// auditTimeout bounds the detached write so a hung store cannot leak
// goroutines indefinitely.
const auditTimeout = 5 * time.Second

// Recorder performs the best-effort audit write. The write is
// dispatched on its own goroutine and its outcome is only ever logged;
// nothing in the response path waits for it.
type Recorder struct {
	audit store.AuditStore
	log   *zap.Logger
	now   store.Clock
}

// NewRecorder creates a recorder over the given audit store.
func NewRecorder(audit store.AuditStore, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{audit: audit, log: log, now: time.Now}
}

// Record dispatches an audit write for an authenticated caller. It
// returns immediately; failures are logged and swallowed. Callers
// without an identity are not recorded at all.
func (r *Recorder) Record(userID *int64, itemID int64) {
	if userID == nil || r.audit == nil {
		return
	}

	rec := model.QueryAuditRecord{
		UserID:        userID,
		ContentItemID: itemID,
		QueriedAt:     r.now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()

		if err := r.audit.RecordQuery(ctx, rec); err != nil {
			r.log.Warn("audit write failed",
				zap.Int64("user_id", *rec.UserID),
				zap.Int64("content_item_id", rec.ContentItemID),
				zap.Error(err))
		}
	}()
}
