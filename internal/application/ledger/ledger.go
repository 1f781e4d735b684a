// Package ledger exposes read access to the append-only audit history
// written by the transition executor.
package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/entity"
)

// DefaultBatchSize is how many entries a board cursor fetches per query.
const DefaultBatchSize = 200

// Ledger answers history queries. Writing is not exposed here: entries are
// appended exclusively by the executor inside its transaction.
type Ledger struct {
	auditRepo port.AuditRepository
	logger    *zap.Logger
	batchSize int
}

// Option configures the ledger
type Option func(*Ledger)

// WithBatchSize overrides the board cursor's fetch size.
func WithBatchSize(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// New creates a ledger
func New(auditRepo port.AuditRepository, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		auditRepo: auditRepo,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// HistoryForTask returns a task's complete transition history in ascending
// occurrence order. Replaying the ToStatusKey sequence from the task's
// initial status reproduces its current status.
func (l *Ledger) HistoryForTask(ctx context.Context, taskID int64) ([]*entity.AuditEntry, error) {
	return l.auditRepo.GetByTask(ctx, taskID)
}

// HistoryForBoard returns a lazy, restartable cursor over a board's history
// with OccurredAt >= since, ordered by ledger sequence. Pass the zero time
// for the full history.
func (l *Ledger) HistoryForBoard(boardID string, since time.Time) *BoardCursor {
	return l.ResumeHistoryForBoard(boardID, since, 0)
}

// ResumeHistoryForBoard restarts a board history cursor after the given
// sequence token (see BoardCursor.Token).
func (l *Ledger) ResumeHistoryForBoard(boardID string, since time.Time, afterSeq int64) *BoardCursor {
	return &BoardCursor{
		repo:      l.auditRepo,
		boardID:   boardID,
		since:     since,
		afterSeq:  afterSeq,
		batchSize: l.batchSize,
	}
}

// Replay folds a history onto an initial status key and returns the final
// status key. With a complete history this equals the task's current
// status.
func Replay(initialStatusKey string, history []*entity.AuditEntry) string {
	current := initialStatusKey
	for _, entry := range history {
		current = entry.ToStatusKey
	}
	return current
}
