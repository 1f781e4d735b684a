package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/entity"
)

// WebhookNotifier POSTs transition notifications to a configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// webhookPayload is the wire shape of a notification.
type webhookPayload struct {
	TaskID      int64              `json:"task_id"`
	AssigneeIDs []string           `json:"assignee_ids"`
	Entry       *entity.AuditEntry `json:"entry"`
}

// NotifyTransition delivers the notification. Delivery is at-least-once
// from the caller's perspective; the engine never depends on the result.
func (n *WebhookNotifier) NotifyTransition(ctx context.Context, taskID int64, assigneeIDs []string, entry *entity.AuditEntry) error {
	body, err := json.Marshal(webhookPayload{
		TaskID:      taskID,
		AssigneeIDs: assigneeIDs,
		Entry:       entry,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}

	return nil
}

// Verify interface compliance
var _ port.Notifier = (*WebhookNotifier)(nil)
