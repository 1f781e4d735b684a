// Package executor implements the single authorized path for changing a
// task's status: validation against the board's compiled workflow, rule
// preconditions, automations, and the atomic status-write-plus-audit-append.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/dispatcher"
	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/entity"
	"github.com/boardkit/boardflow/internal/domain/event"
	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// Event payload keys for transition.committed events.
const (
	PayloadEntry       = "entry"
	PayloadAssigneeIDs = "assignee_ids"
)

// MachineProvider supplies the compiled workflow machine for a board.
// Satisfied by *registry.Service.
type MachineProvider interface {
	Machine(ctx context.Context, boardID string) (*workflow.Machine, error)
}

// Executor validates and commits task transitions.
type Executor struct {
	machines    MachineProvider
	tasks       port.TaskStore
	auditRepo   port.AuditRepository
	txManager   port.TransactionManager
	permissions port.PermissionChecker
	dispatcher  dispatcher.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures the executor
type Option func(*Executor)

// WithDispatcher sets the event dispatcher for post-commit fan-out.
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(e *Executor) {
		e.dispatcher = d
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// New creates a transition executor
func New(
	machines MachineProvider,
	tasks port.TaskStore,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	permissions port.PermissionChecker,
	logger *zap.Logger,
	opts ...Option,
) *Executor {
	e := &Executor{
		machines:    machines,
		tasks:       tasks,
		auditRepo:   auditRepo,
		txManager:   txManager,
		permissions: permissions,
		logger:      logger,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RequestTransition moves a task along the named transition on behalf of
// the actor. On success the committed audit entry is returned. Failures
// are typed: workflow.ErrUnknownTransitionName, workflow.ErrInvalidTransition,
// workflow.ErrMissingAssignee, workflow.ErrMissingComment,
// workflow.ErrPermissionDenied, workflow.ErrConcurrentModification, or
// workflow.ErrStoreUnavailable. None leaves partial effects behind.
func (e *Executor) RequestTransition(ctx context.Context, taskID int64, transitionName string, actor entity.Actor, comment string) (*entity.AuditEntry, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("%w: actor is required", workflow.ErrPermissionDenied)
	}

	snapshot, err := e.tasks.ReadTaskStatus(ctx, taskID)
	if err != nil {
		if errors.Is(err, port.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", workflow.ErrStoreUnavailable, err)
	}

	allowed, err := e.permissions.CanTransition(ctx, actor.ID, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: permission check failed: %v", workflow.ErrStoreUnavailable, err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: actor %s on task %d", workflow.ErrPermissionDenied, actor.ID, taskID)
	}

	machine, err := e.machines.Machine(ctx, snapshot.BoardID)
	if err != nil {
		return nil, err
	}

	transition, err := machine.Resolve(snapshot.CurrentStatusKey, transitionName)
	if err != nil {
		return nil, err
	}

	if err := checkPreconditions(transition, snapshot, comment); err != nil {
		return nil, err
	}

	entry := &entity.AuditEntry{
		ID:             uuid.NewString(),
		TaskID:         taskID,
		BoardID:        snapshot.BoardID,
		FromStatusKey:  snapshot.CurrentStatusKey,
		ToStatusKey:    transition.ToKey,
		TransitionName: transition.Name,
		ActorID:        actor.ID,
		Comment:        strings.TrimSpace(comment),
		OccurredAt:     e.now().UTC(),
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if transition.Automates(workflow.AutomationAssignCreator) && snapshot.CreatorID != "" {
			if err := e.tasks.AddAssignee(txCtx, taskID, snapshot.CreatorID); err != nil {
				return fmt.Errorf("%w: failed to auto-assign creator: %v", workflow.ErrStoreUnavailable, err)
			}
		}

		if err := e.tasks.WriteTaskStatus(txCtx, taskID, snapshot.CurrentStatusKey, transition.ToKey); err != nil {
			if errors.Is(err, port.ErrStatusConflict) {
				return fmt.Errorf("%w: task %d moved off %s", workflow.ErrConcurrentModification, taskID, snapshot.CurrentStatusKey)
			}
			return fmt.Errorf("%w: failed to write task status: %v", workflow.ErrStoreUnavailable, err)
		}

		if err := e.auditRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("%w: failed to append audit entry: %v", workflow.ErrStoreUnavailable, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Transition committed",
		zap.Int64("task_id", taskID),
		zap.String("board_id", snapshot.BoardID),
		zap.String("transition", transition.Name),
		zap.String("from", entry.FromStatusKey),
		zap.String("to", entry.ToStatusKey),
		zap.String("actor_id", actor.ID))

	// Notification dispatch happens after commit, best effort: a notifier
	// failure must never make a committed transition look failed.
	if transition.Automates(workflow.AutomationNotifyAssignees) && e.dispatcher != nil {
		e.dispatcher.DispatchAsync(context.WithoutCancel(ctx), event.New(
			event.TypeTransitionCommitted,
			taskID,
			snapshot.BoardID,
			map[string]interface{}{
				PayloadEntry:       entry,
				PayloadAssigneeIDs: notifiedAssignees(snapshot, transition),
			},
		))
	}

	return entry, nil
}

// checkPreconditions runs the transition's rule set against the task
// snapshot. The switch is exhaustive over PreconditionKind; an unknown kind
// is a programming error surfaced as such rather than silently passed.
func checkPreconditions(t *workflow.Transition, snapshot *entity.TaskSnapshot, comment string) error {
	for _, kind := range t.Preconditions {
		switch kind {
		case workflow.PreconditionAssigneePresent:
			if !snapshot.HasAssignees() {
				return fmt.Errorf("%w: transition %q", workflow.ErrMissingAssignee, t.Name)
			}
		case workflow.PreconditionCommentPresent:
			if strings.TrimSpace(comment) == "" {
				return fmt.Errorf("%w: transition %q", workflow.ErrMissingComment, t.Name)
			}
		default:
			return fmt.Errorf("unhandled precondition kind %d on transition %q", kind, t.Name)
		}
	}
	return nil
}

// notifiedAssignees returns the assignee set as of commit, folding in the
// creator when the assign-creator automation just added them.
func notifiedAssignees(snapshot *entity.TaskSnapshot, t *workflow.Transition) []string {
	assignees := make([]string, 0, len(snapshot.AssigneeIDs)+1)
	seen := make(map[string]bool, len(snapshot.AssigneeIDs)+1)
	for _, id := range snapshot.AssigneeIDs {
		if !seen[id] {
			seen[id] = true
			assignees = append(assignees, id)
		}
	}
	if t.Automates(workflow.AutomationAssignCreator) && snapshot.CreatorID != "" && !seen[snapshot.CreatorID] {
		assignees = append(assignees, snapshot.CreatorID)
	}
	return assignees
}
