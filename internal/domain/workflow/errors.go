package workflow

import "errors"

// Executor errors. All are recoverable: the caller retries with corrected
// input or refreshed state.
var (
	// ErrUnknownTransitionName is returned when no transition with the
	// requested name exists anywhere on the board.
	ErrUnknownTransitionName = errors.New("unknown transition name")

	// ErrInvalidTransition is returned when the named transition exists on
	// the board but is not a legal move from the task's current status.
	ErrInvalidTransition = errors.New("transition not allowed from current status")

	// ErrMissingAssignee is returned when a transition requires an assignee
	// and the task has none.
	ErrMissingAssignee = errors.New("transition requires an assignee")

	// ErrMissingComment is returned when a transition requires a comment
	// and none was provided.
	ErrMissingComment = errors.New("transition requires a comment")

	// ErrPermissionDenied is returned when the actor is not allowed to
	// transition the task.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConcurrentModification is returned when the task's status changed
	// between validation and commit. The caller must re-fetch and retry;
	// the engine never retries internally.
	ErrConcurrentModification = errors.New("task status changed concurrently")

	// ErrStoreUnavailable wraps task store I/O failures. Callers should
	// retry with backoff.
	ErrStoreUnavailable = errors.New("task store unavailable")
)

// Registry errors, returned synchronously from administrative operations.
var (
	// ErrNotFound is returned when a status or transition does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a status key already exists on the board.
	ErrDuplicateKey = errors.New("status key already exists")

	// ErrDuplicateName is returned when a transition name already exists on the board.
	ErrDuplicateName = errors.New("transition name already exists")

	// ErrUnknownStatus is returned when a transition endpoint does not
	// reference an existing status on the board.
	ErrUnknownStatus = errors.New("unknown status key")
)
