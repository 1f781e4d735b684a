package port

import (
	"context"
	"time"

	"github.com/boardkit/boardflow/internal/domain/entity"
	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// StatusRepository defines persistence operations for workflow statuses.
// Implementations return workflow.ErrDuplicateKey and workflow.ErrNotFound
// for the corresponding failure modes.
type StatusRepository interface {
	Create(ctx context.Context, status *workflow.Status) error
	GetByBoard(ctx context.Context, boardID string) ([]workflow.Status, error)
	GetByKey(ctx context.Context, boardID, key string) (*workflow.Status, error)
	Deactivate(ctx context.Context, boardID, key string) error
	CountByBoard(ctx context.Context, boardID string) (int, error)
}

// TransitionRepository defines persistence operations for workflow
// transitions. Implementations return workflow.ErrDuplicateName and
// workflow.ErrNotFound for the corresponding failure modes.
type TransitionRepository interface {
	Create(ctx context.Context, transition *workflow.Transition) error
	GetByBoard(ctx context.Context, boardID string) ([]workflow.Transition, error)
	GetByName(ctx context.Context, boardID, name string) (*workflow.Transition, error)
	Deactivate(ctx context.Context, boardID, name string) error
}

// AuditRepository defines persistence operations for the append-only audit
// ledger. Append is called only inside the executor's transaction; entries
// are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	GetByTask(ctx context.Context, taskID int64) ([]*entity.AuditEntry, error)

	// GetByBoardSince returns up to limit entries for a board with
	// OccurredAt >= since and Seq > afterSeq, ordered by Seq. The Seq
	// ordering makes board history iteration restartable.
	GetByBoardSince(ctx context.Context, boardID string, since time.Time, afterSeq int64, limit int) ([]*entity.AuditEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
