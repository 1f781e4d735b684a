package entity

import "time"

// TaskSnapshot is the engine's read view of a task, owned by the external
// task store. The engine writes back only the current status key and, when
// an automation fires, the assignee set.
type TaskSnapshot struct {
	ID               int64     `json:"id"`
	BoardID          string    `json:"board_id"`
	CurrentStatusKey string    `json:"current_status_key"`
	AssigneeIDs      []string  `json:"assignee_ids"`
	CreatorID        string    `json:"creator_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasAssignees reports whether the task has at least one assignee.
func (s *TaskSnapshot) HasAssignees() bool {
	return len(s.AssigneeIDs) > 0
}

// Actor is the user requesting a transition. Identity is provided
// externally; the engine treats it as an opaque identifier plus a display
// name for audit attribution.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}
