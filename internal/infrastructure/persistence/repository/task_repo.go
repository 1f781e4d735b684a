package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/entity"
)

// TaskRepository is the sqlite-backed task store. It owns the tasks and
// task_assignees tables; the engine touches only the status column (via
// compare-and-swap) and the assignee set.
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// CreateTask places a new task directly into the given status. Initial
// placement is the creation flow's job; status validity is checked by the
// caller against the board's workflow.
func (r *TaskRepository) CreateTask(ctx context.Context, boardID, statusKey, creatorID string) (*entity.TaskSnapshot, error) {
	result, err := executor(ctx, r.db).ExecContext(ctx,
		"INSERT INTO tasks (board_id, current_status_key, creator_id) VALUES (?, ?, ?)",
		boardID, statusKey, creatorID,
	)
	if err != nil {
		r.logger.Error("Failed to create task", zap.Error(err))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.ReadTaskStatus(ctx, id)
}

// ReadTaskStatus returns the engine's view of a task.
func (r *TaskRepository) ReadTaskStatus(ctx context.Context, taskID int64) (*entity.TaskSnapshot, error) {
	var snapshot entity.TaskSnapshot
	err := executor(ctx, r.db).QueryRowContext(ctx,
		"SELECT id, board_id, current_status_key, creator_id, created_at FROM tasks WHERE id = ?",
		taskID,
	).Scan(
		&snapshot.ID,
		&snapshot.BoardID,
		&snapshot.CurrentStatusKey,
		&snapshot.CreatorID,
		&snapshot.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: task %d", port.ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to read task: %w", err)
	}

	rows, err := executor(ctx, r.db).QueryContext(ctx,
		"SELECT user_id FROM task_assignees WHERE task_id = ? ORDER BY user_id ASC",
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read task assignees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		snapshot.AssigneeIDs = append(snapshot.AssigneeIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// WriteTaskStatus sets the task's status if and only if it still equals
// expectedKey. The conditional UPDATE is the optimistic-concurrency check:
// exactly one of two racing writers sees a row affected.
func (r *TaskRepository) WriteTaskStatus(ctx context.Context, taskID int64, expectedKey, newKey string) error {
	result, err := executor(ctx, r.db).ExecContext(ctx,
		"UPDATE tasks SET current_status_key = ? WHERE id = ? AND current_status_key = ?",
		newKey, taskID, expectedKey,
	)
	if err != nil {
		return fmt.Errorf("failed to write task status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = executor(ctx, r.db).QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM tasks WHERE id = ?)", taskID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check task existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: task %d", port.ErrTaskNotFound, taskID)
	}

	return fmt.Errorf("%w: task %d is no longer in %s", port.ErrStatusConflict, taskID, expectedKey)
}

// AddAssignee adds a user to the task's assignees; adding an existing
// assignee is a no-op.
func (r *TaskRepository) AddAssignee(ctx context.Context, taskID int64, userID string) error {
	_, err := executor(ctx, r.db).ExecContext(ctx,
		"INSERT OR IGNORE INTO task_assignees (task_id, user_id) VALUES (?, ?)",
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add assignee: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.TaskStore = (*TaskRepository)(nil)
