package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// TransitionRepository implements port.TransitionRepository. The closed
// rule enums map to the schema's boolean rule columns.
type TransitionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTransitionRepository creates a new transition repository
func NewTransitionRepository(db *sql.DB, logger *zap.Logger) port.TransitionRepository {
	return &TransitionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a transition. Returns workflow.ErrDuplicateName when the
// board already has a transition with the same name.
func (r *TransitionRepository) Create(ctx context.Context, transition *workflow.Transition) error {
	query := `
		INSERT INTO transitions (
			board_id, from_status_key, to_status_key, name,
			require_assignee, require_comment,
			auto_assign_creator, auto_notify_assignees,
			is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		transition.BoardID,
		transition.FromKey,
		transition.ToKey,
		transition.Name,
		transition.Requires(workflow.PreconditionAssigneePresent),
		transition.Requires(workflow.PreconditionCommentPresent),
		transition.Automates(workflow.AutomationAssignCreator),
		transition.Automates(workflow.AutomationNotifyAssignees),
		transition.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s on board %s", workflow.ErrDuplicateName, transition.Name, transition.BoardID)
		}
		r.logger.Error("Failed to create transition", zap.Error(err))
		return fmt.Errorf("failed to create transition: %w", err)
	}

	return nil
}

// GetByBoard returns all transitions for a board, inactive included.
func (r *TransitionRepository) GetByBoard(ctx context.Context, boardID string) ([]workflow.Transition, error) {
	query := selectTransitions + ` WHERE board_id = ? ORDER BY name ASC`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, boardID)
	if err != nil {
		r.logger.Error("Failed to get transitions", zap.String("board_id", boardID), zap.Error(err))
		return nil, fmt.Errorf("failed to get transitions: %w", err)
	}
	defer rows.Close()

	transitions := []workflow.Transition{}
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, *t)
	}

	return transitions, rows.Err()
}

// GetByName returns a transition by its board-unique name or
// workflow.ErrNotFound.
func (r *TransitionRepository) GetByName(ctx context.Context, boardID, name string) (*workflow.Transition, error) {
	query := selectTransitions + ` WHERE board_id = ? AND name = ?`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, boardID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get transition: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get transition: %w", err)
		}
		return nil, fmt.Errorf("%w: transition %s on board %s", workflow.ErrNotFound, name, boardID)
	}

	return scanTransition(rows)
}

// Deactivate clears a transition's active flag or returns
// workflow.ErrNotFound.
func (r *TransitionRepository) Deactivate(ctx context.Context, boardID, name string) error {
	query := `
		UPDATE transitions
		SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE board_id = ? AND name = ?
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, boardID, name)
	if err != nil {
		return fmt.Errorf("failed to deactivate transition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transition %s on board %s", workflow.ErrNotFound, name, boardID)
	}

	return nil
}

const selectTransitions = `
	SELECT board_id, from_status_key, to_status_key, name,
		require_assignee, require_comment,
		auto_assign_creator, auto_notify_assignees,
		is_active, created_at, updated_at
	FROM transitions`

func scanTransition(rows *sql.Rows) (*workflow.Transition, error) {
	var t workflow.Transition
	var requireAssignee, requireComment, assignCreator, notifyAssignees bool

	err := rows.Scan(
		&t.BoardID,
		&t.FromKey,
		&t.ToKey,
		&t.Name,
		&requireAssignee,
		&requireComment,
		&assignCreator,
		&notifyAssignees,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, workflow.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transition: %w", err)
	}

	if requireAssignee {
		t.Preconditions = append(t.Preconditions, workflow.PreconditionAssigneePresent)
	}
	if requireComment {
		t.Preconditions = append(t.Preconditions, workflow.PreconditionCommentPresent)
	}
	if assignCreator {
		t.Automations = append(t.Automations, workflow.AutomationAssignCreator)
	}
	if notifyAssignees {
		t.Automations = append(t.Automations, workflow.AutomationNotifyAssignees)
	}

	return &t, nil
}

// Verify interface compliance
var _ port.TransitionRepository = (*TransitionRepository)(nil)
