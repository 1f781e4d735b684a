package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// CreateStatusInput carries the administrative parameters for a new status.
type CreateStatusInput struct {
	BoardID     string `json:"board_id"`
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
	Position    int    `json:"position"`
	IsInitial   bool   `json:"is_initial"`
	IsFinal     bool   `json:"is_final"`
}

// Statuses returns all statuses for a board ordered by position, inactive
// included; callers filter as needed. Unknown boards yield an empty slice,
// never an error.
func (s *Service) Statuses(ctx context.Context, boardID string) ([]workflow.Status, error) {
	return s.statusRepo.GetByBoard(ctx, boardID)
}

// Status returns a single status by key. Returns workflow.ErrNotFound when
// the board has no status with that key.
func (s *Service) Status(ctx context.Context, boardID, key string) (*workflow.Status, error) {
	return s.statusRepo.GetByKey(ctx, boardID, key)
}

// CreateStatus adds a status to a board. Returns workflow.ErrDuplicateKey
// when the key is already taken on the board.
func (s *Service) CreateStatus(ctx context.Context, input CreateStatusInput) (*workflow.Status, error) {
	if !workflow.ValidKey(input.Key) {
		return nil, fmt.Errorf("invalid status key %q", input.Key)
	}
	if input.BoardID == "" {
		return nil, fmt.Errorf("board id is required")
	}

	status := &workflow.Status{
		BoardID:     input.BoardID,
		Key:         input.Key,
		DisplayName: input.DisplayName,
		Color:       input.Color,
		Position:    input.Position,
		IsInitial:   input.IsInitial,
		IsFinal:     input.IsFinal,
		IsActive:    true,
	}
	if status.DisplayName == "" {
		status.DisplayName = status.Key
	}

	if err := s.statusRepo.Create(ctx, status); err != nil {
		return nil, err
	}

	s.Invalidate(input.BoardID)

	s.logger.Info("Status created",
		zap.String("board_id", input.BoardID),
		zap.String("key", input.Key))

	return status, nil
}

// DeactivateStatus clears a status's active flag. The status remains
// resolvable for historical tasks. Transitions touching it are not
// cascaded; they are deactivated independently but stop being selectable
// because the machine filters edges with inactive endpoints.
func (s *Service) DeactivateStatus(ctx context.Context, boardID, key string) error {
	if err := s.statusRepo.Deactivate(ctx, boardID, key); err != nil {
		return err
	}

	s.Invalidate(boardID)

	s.logger.Info("Status deactivated",
		zap.String("board_id", boardID),
		zap.String("key", key))

	return nil
}
