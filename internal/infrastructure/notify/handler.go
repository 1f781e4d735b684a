package notify

import (
	"context"
	"fmt"

	"github.com/boardkit/boardflow/internal/application/dispatcher"
	"github.com/boardkit/boardflow/internal/application/executor"
	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/entity"
	"github.com/boardkit/boardflow/internal/domain/event"
)

// TransitionHandler bridges transition.committed events to a Notifier. A
// returned error is logged by the dispatcher; it never reaches the caller
// that committed the transition.
func TransitionHandler(notifier port.Notifier) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		raw, ok := evt.Payload[executor.PayloadEntry]
		if !ok {
			return fmt.Errorf("event %s has no audit entry payload", evt.ID)
		}
		entry, ok := raw.(*entity.AuditEntry)
		if !ok {
			return fmt.Errorf("event %s carries unexpected entry payload type %T", evt.ID, raw)
		}

		assignees := evt.GetPayloadStrings(executor.PayloadAssigneeIDs)
		return notifier.NotifyTransition(ctx, evt.TaskID, assignees, entry)
	}
}
