package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/entity"
)

// AuditRepository implements port.AuditRepository. The table is append-only;
// no update or delete statements exist here.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts an entry and assigns its ledger sequence. Called only
// inside the executor's transaction.
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (
			id, task_id, board_id, from_status_key, to_status_key,
			transition_name, actor_id, comment, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		entry.ID,
		entry.TaskID,
		entry.BoardID,
		entry.FromStatusKey,
		entry.ToStatusKey,
		entry.TransitionName,
		entry.ActorID,
		entry.Comment,
		entry.OccurredAt,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry", zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get ledger sequence: %w", err)
	}

	entry.Seq = seq
	return nil
}

// GetByTask returns a task's history in ledger order.
func (r *AuditRepository) GetByTask(ctx context.Context, taskID int64) ([]*entity.AuditEntry, error) {
	query := selectAuditEntries + ` WHERE task_id = ? ORDER BY seq ASC`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to get audit history", zap.Int64("task_id", taskID), zap.Error(err))
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows)
}

// GetByBoardSince returns up to limit board entries after afterSeq with
// OccurredAt >= since, in ledger order.
func (r *AuditRepository) GetByBoardSince(ctx context.Context, boardID string, since time.Time, afterSeq int64, limit int) ([]*entity.AuditEntry, error) {
	query := selectAuditEntries + `
		WHERE board_id = ? AND seq > ? AND occurred_at >= ?
		ORDER BY seq ASC
		LIMIT ?`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, boardID, afterSeq, since.UTC(), limit)
	if err != nil {
		r.logger.Error("Failed to get board audit history", zap.String("board_id", boardID), zap.Error(err))
		return nil, fmt.Errorf("failed to get board audit history: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows)
}

const selectAuditEntries = `
	SELECT seq, id, task_id, board_id, from_status_key, to_status_key,
		transition_name, actor_id, comment, occurred_at
	FROM audit_entries`

func scanAuditEntries(rows *sql.Rows) ([]*entity.AuditEntry, error) {
	var entries []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		err := rows.Scan(
			&e.Seq,
			&e.ID,
			&e.TaskID,
			&e.BoardID,
			&e.FromStatusKey,
			&e.ToStatusKey,
			&e.TransitionName,
			&e.ActorID,
			&e.Comment,
			&e.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
