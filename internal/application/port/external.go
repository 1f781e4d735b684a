package port

import (
	"context"
	"errors"

	"github.com/boardkit/boardflow/internal/domain/entity"
)

// ErrTaskNotFound is returned by TaskStore operations for unknown task IDs.
var ErrTaskNotFound = errors.New("task not found")

// ErrStatusConflict is returned by WriteTaskStatus when the task's current
// status no longer matches the expected key. The executor surfaces this as
// workflow.ErrConcurrentModification.
var ErrStatusConflict = errors.New("task status conflict")

// TaskStore is the external owner of task records. The engine reads a
// snapshot and writes back only the status (compare-and-swap) and, for the
// assign-creator automation, the assignee set. Implementations must honor
// a transaction carried in the context.
type TaskStore interface {
	// ReadTaskStatus returns the engine-relevant view of a task.
	ReadTaskStatus(ctx context.Context, taskID int64) (*entity.TaskSnapshot, error)

	// WriteTaskStatus sets the task's current status to newKey if and only
	// if it still equals expectedKey. Returns ErrStatusConflict otherwise.
	WriteTaskStatus(ctx context.Context, taskID int64, expectedKey, newKey string) error

	// AddAssignee adds a user to the task's assignees. Adding an existing
	// assignee is a no-op.
	AddAssignee(ctx context.Context, taskID int64, userID string) error
}

// Notifier delivers transition notifications to assignees. Calls are
// fire-and-forget from the engine's point of view: errors are logged by
// the caller and never fail a committed transition.
type Notifier interface {
	NotifyTransition(ctx context.Context, taskID int64, assigneeIDs []string, entry *entity.AuditEntry) error
}

// PermissionChecker answers whether an actor may request transitions on a
// task. Policy lives with the external identity provider.
type PermissionChecker interface {
	CanTransition(ctx context.Context, actorID string, taskID int64) (bool, error)
}
