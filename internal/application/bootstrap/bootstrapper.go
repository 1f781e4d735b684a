// Package bootstrap seeds boards with a usable default workflow before any
// task on them can be transitioned.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// Default workflow seeded for a fresh board: a forward pipeline with a
// review loop and a reopen edge out of the terminal status.
var defaultStatuses = []workflow.Status{
	{Key: "todo", DisplayName: "To Do", Color: "#6b7280", Position: 0, IsInitial: true},
	{Key: "in_progress", DisplayName: "In Progress", Color: "#3b82f6", Position: 1},
	{Key: "review", DisplayName: "In Review", Color: "#f59e0b", Position: 2},
	{Key: "done", DisplayName: "Done", Color: "#22c55e", Position: 3, IsFinal: true},
}

var defaultTransitions = []workflow.Transition{
	{Name: "start", FromKey: "todo", ToKey: "in_progress"},
	{Name: "submit_review", FromKey: "in_progress", ToKey: "review"},
	{Name: "approve", FromKey: "review", ToKey: "done",
		Preconditions: []workflow.PreconditionKind{workflow.PreconditionAssigneePresent},
		Automations:   []workflow.AutomationKind{workflow.AutomationNotifyAssignees}},
	{Name: "reject", FromKey: "review", ToKey: "in_progress",
		Preconditions: []workflow.PreconditionKind{workflow.PreconditionCommentPresent},
		Automations:   []workflow.AutomationKind{workflow.AutomationNotifyAssignees}},
	{Name: "reopen", FromKey: "done", ToKey: "todo"},
}

// Invalidator drops cached workflow configuration for a board.
type Invalidator interface {
	Invalidate(boardID string)
}

// Bootstrapper guarantees every board has an internally consistent
// workflow. Seeding runs in a single transaction, so a board is either
// fully configured or untouched; redundant calls are no-ops.
type Bootstrapper struct {
	statusRepo     port.StatusRepository
	transitionRepo port.TransitionRepository
	txManager      port.TransactionManager
	cache          Invalidator
	logger         *zap.Logger
}

// New creates a bootstrapper. cache may be nil when no registry cache is
// in play (tests).
func New(
	statusRepo port.StatusRepository,
	transitionRepo port.TransitionRepository,
	txManager port.TransactionManager,
	cache Invalidator,
	logger *zap.Logger,
) *Bootstrapper {
	return &Bootstrapper{
		statusRepo:     statusRepo,
		transitionRepo: transitionRepo,
		txManager:      txManager,
		cache:          cache,
		logger:         logger,
	}
}

// EnsureBootstrapped seeds the default workflow for a board that has no
// statuses yet. Safe to call any number of times.
func (b *Bootstrapper) EnsureBootstrapped(ctx context.Context, boardID string) error {
	if boardID == "" {
		return fmt.Errorf("board id is required")
	}

	seeded := false
	err := b.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		count, err := b.statusRepo.CountByBoard(txCtx, boardID)
		if err != nil {
			return fmt.Errorf("failed to count statuses for board %s: %w", boardID, err)
		}
		if count > 0 {
			return nil
		}

		for _, s := range defaultStatuses {
			status := s
			status.BoardID = boardID
			status.IsActive = true
			if err := b.statusRepo.Create(txCtx, &status); err != nil {
				return fmt.Errorf("failed to seed status %s: %w", status.Key, err)
			}
		}

		for _, t := range defaultTransitions {
			transition := t
			transition.BoardID = boardID
			transition.IsActive = true
			if err := b.transitionRepo.Create(txCtx, &transition); err != nil {
				return fmt.Errorf("failed to seed transition %s: %w", transition.Name, err)
			}
		}

		seeded = true
		return nil
	})
	if err != nil {
		return err
	}

	if seeded {
		if b.cache != nil {
			b.cache.Invalidate(boardID)
		}
		b.logger.Info("Board workflow bootstrapped",
			zap.String("board_id", boardID),
			zap.Int("statuses", len(defaultStatuses)),
			zap.Int("transitions", len(defaultTransitions)))
	}

	return nil
}
