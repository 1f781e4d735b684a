package registry

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// CreateTransitionInput carries the administrative parameters for a new
// transition.
type CreateTransitionInput struct {
	BoardID       string                      `json:"board_id"`
	FromKey       string                      `json:"from_status_key"`
	ToKey         string                      `json:"to_status_key"`
	Name          string                      `json:"name"`
	Preconditions []workflow.PreconditionKind `json:"preconditions,omitempty"`
	Automations   []workflow.AutomationKind   `json:"automations,omitempty"`
}

// TransitionsFrom returns the transitions selectable from a status: active
// edges whose endpoint statuses are both active. Served from the compiled
// machine cache.
func (s *Service) TransitionsFrom(ctx context.Context, boardID, fromKey string) ([]workflow.Transition, error) {
	machine, err := s.Machine(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return machine.TransitionsFrom(fromKey), nil
}

// CreateTransition adds a named edge to a board. Both endpoints must exist
// on the board (workflow.ErrUnknownStatus otherwise); the name must be
// unique on the board (workflow.ErrDuplicateName). Self-loops are allowed.
func (s *Service) CreateTransition(ctx context.Context, input CreateTransitionInput) (*workflow.Transition, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("transition name is required")
	}

	for _, key := range []string{input.FromKey, input.ToKey} {
		if _, err := s.statusRepo.GetByKey(ctx, input.BoardID, key); err != nil {
			if errors.Is(err, workflow.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s on board %s", workflow.ErrUnknownStatus, key, input.BoardID)
			}
			return nil, err
		}
	}

	transition := &workflow.Transition{
		BoardID:       input.BoardID,
		FromKey:       input.FromKey,
		ToKey:         input.ToKey,
		Name:          input.Name,
		Preconditions: input.Preconditions,
		Automations:   input.Automations,
		IsActive:      true,
	}

	if err := s.transitionRepo.Create(ctx, transition); err != nil {
		return nil, err
	}

	s.Invalidate(input.BoardID)

	s.logger.Info("Transition created",
		zap.String("board_id", input.BoardID),
		zap.String("name", input.Name),
		zap.String("from", input.FromKey),
		zap.String("to", input.ToKey))

	return transition, nil
}

// FindTransition resolves an exact (from, to, name) edge. Returns
// workflow.ErrNotFound when no such transition exists.
func (s *Service) FindTransition(ctx context.Context, boardID, fromKey, toKey, name string) (*workflow.Transition, error) {
	transition, err := s.transitionRepo.GetByName(ctx, boardID, name)
	if err != nil {
		return nil, err
	}
	if transition.FromKey != fromKey || transition.ToKey != toKey {
		return nil, fmt.Errorf("%w: transition %q is %s -> %s", workflow.ErrNotFound, name, transition.FromKey, transition.ToKey)
	}
	return transition, nil
}

// DeactivateTransition clears a transition's active flag. The edge remains
// for audit traceability but stops being selectable.
func (s *Service) DeactivateTransition(ctx context.Context, boardID, name string) error {
	if err := s.transitionRepo.Deactivate(ctx, boardID, name); err != nil {
		return err
	}

	s.Invalidate(boardID)

	s.logger.Info("Transition deactivated",
		zap.String("board_id", boardID),
		zap.String("name", name))

	return nil
}
