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

// StatusRepository implements port.StatusRepository
type StatusRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatusRepository creates a new status repository
func NewStatusRepository(db *sql.DB, logger *zap.Logger) port.StatusRepository {
	return &StatusRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a status. Returns workflow.ErrDuplicateKey when the board
// already has a status with the same key.
func (r *StatusRepository) Create(ctx context.Context, status *workflow.Status) error {
	query := `
		INSERT INTO statuses (
			board_id, key, display_name, color, position,
			is_initial, is_final, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		status.BoardID,
		status.Key,
		status.DisplayName,
		status.Color,
		status.Position,
		status.IsInitial,
		status.IsFinal,
		status.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s on board %s", workflow.ErrDuplicateKey, status.Key, status.BoardID)
		}
		r.logger.Error("Failed to create status", zap.Error(err))
		return fmt.Errorf("failed to create status: %w", err)
	}

	return nil
}

// GetByBoard returns all statuses for a board ordered by position, inactive
// included. Unknown boards yield an empty slice.
func (r *StatusRepository) GetByBoard(ctx context.Context, boardID string) ([]workflow.Status, error) {
	query := `
		SELECT board_id, key, display_name, color, position,
			is_initial, is_final, is_active, created_at, updated_at
		FROM statuses
		WHERE board_id = ?
		ORDER BY position ASC, key ASC
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, boardID)
	if err != nil {
		r.logger.Error("Failed to get statuses", zap.String("board_id", boardID), zap.Error(err))
		return nil, fmt.Errorf("failed to get statuses: %w", err)
	}
	defer rows.Close()

	statuses := []workflow.Status{}
	for rows.Next() {
		var s workflow.Status
		err := rows.Scan(
			&s.BoardID,
			&s.Key,
			&s.DisplayName,
			&s.Color,
			&s.Position,
			&s.IsInitial,
			&s.IsFinal,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, s)
	}

	return statuses, rows.Err()
}

// GetByKey returns a single status or workflow.ErrNotFound.
func (r *StatusRepository) GetByKey(ctx context.Context, boardID, key string) (*workflow.Status, error) {
	query := `
		SELECT board_id, key, display_name, color, position,
			is_initial, is_final, is_active, created_at, updated_at
		FROM statuses
		WHERE board_id = ? AND key = ?
	`

	var s workflow.Status
	err := executor(ctx, r.db).QueryRowContext(ctx, query, boardID, key).Scan(
		&s.BoardID,
		&s.Key,
		&s.DisplayName,
		&s.Color,
		&s.Position,
		&s.IsInitial,
		&s.IsFinal,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: status %s on board %s", workflow.ErrNotFound, key, boardID)
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return &s, nil
}

// Deactivate clears a status's active flag or returns workflow.ErrNotFound.
func (r *StatusRepository) Deactivate(ctx context.Context, boardID, key string) error {
	query := `
		UPDATE statuses
		SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE board_id = ? AND key = ?
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, boardID, key)
	if err != nil {
		return fmt.Errorf("failed to deactivate status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: status %s on board %s", workflow.ErrNotFound, key, boardID)
	}

	return nil
}

// CountByBoard returns how many statuses exist for a board.
func (r *StatusRepository) CountByBoard(ctx context.Context, boardID string) (int, error) {
	var count int
	err := executor(ctx, r.db).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM statuses WHERE board_id = ?", boardID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count statuses: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ port.StatusRepository = (*StatusRepository)(nil)
