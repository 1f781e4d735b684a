package entity

import "time"

// AuditEntry is one immutable record of a committed transition. Entries are
// appended inside the same transaction as the task's status write and are
// never mutated or deleted; per task, OccurredAt is non-decreasing and the
// ToStatusKey sequence always ends at the task's current status.
type AuditEntry struct {
	// Seq is the ledger's monotonic insertion sequence, assigned on append.
	// Board history cursors use it as their restart token.
	Seq            int64     `json:"seq"`
	ID             string    `json:"id"`
	TaskID         int64     `json:"task_id"`
	BoardID        string    `json:"board_id"`
	FromStatusKey  string    `json:"from_status_key"`
	ToStatusKey    string    `json:"to_status_key"`
	TransitionName string    `json:"transition_name"`
	ActorID        string    `json:"actor_id"`
	Comment        string    `json:"comment,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
