// Package notify provides Notifier implementations and the dispatcher
// handler that bridges committed-transition events to them.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/entity"
)

// LogNotifier records transition notifications in the service log. Default
// when no external delivery channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a logging notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyTransition logs the notification.
func (n *LogNotifier) NotifyTransition(ctx context.Context, taskID int64, assigneeIDs []string, entry *entity.AuditEntry) error {
	n.logger.Info("Transition notification",
		zap.Int64("task_id", taskID),
		zap.Strings("assignee_ids", assigneeIDs),
		zap.String("transition", entry.TransitionName),
		zap.String("from", entry.FromStatusKey),
		zap.String("to", entry.ToStatusKey),
		zap.String("actor_id", entry.ActorID))
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*LogNotifier)(nil)
