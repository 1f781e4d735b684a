package workflow

import "time"

// PreconditionKind identifies a rule that must hold before a transition
// is accepted. The set is closed so the executor validates with an
// exhaustive switch instead of an open-ended chain of flag checks.
type PreconditionKind int

const (
	// PreconditionAssigneePresent requires the task to have at least one assignee.
	PreconditionAssigneePresent PreconditionKind = iota + 1

	// PreconditionCommentPresent requires a non-empty comment on the request.
	PreconditionCommentPresent
)

// String returns the string representation of the precondition kind.
func (k PreconditionKind) String() string {
	switch k {
	case PreconditionAssigneePresent:
		return "assignee_present"
	case PreconditionCommentPresent:
		return "comment_present"
	default:
		return "unknown"
	}
}

// AutomationKind identifies a side effect applied when a transition commits.
type AutomationKind int

const (
	// AutomationAssignCreator adds the task's creator to its assignees. Runs
	// inside the transition's atomic unit; adding twice is a no-op.
	AutomationAssignCreator AutomationKind = iota + 1

	// AutomationNotifyAssignees notifies the task's assignees after commit,
	// best effort.
	AutomationNotifyAssignees
)

// String returns the string representation of the automation kind.
func (k AutomationKind) String() string {
	switch k {
	case AutomationAssignCreator:
		return "assign_creator"
	case AutomationNotifyAssignees:
		return "notify_assignees"
	default:
		return "unknown"
	}
}

// Transition is a named, rule-guarded directed edge between two statuses
// on the same board. Self-loops are permitted. Multiple transitions may
// connect the same (from, to) pair under distinct names; (BoardID, Name)
// is unique and identifies the edge in audit history.
type Transition struct {
	BoardID       string             `json:"board_id"`
	FromKey       string             `json:"from_status_key"`
	ToKey         string             `json:"to_status_key"`
	Name          string             `json:"name"`
	Preconditions []PreconditionKind `json:"preconditions,omitempty"`
	Automations   []AutomationKind   `json:"automations,omitempty"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Requires reports whether the transition carries the given precondition.
func (t *Transition) Requires(kind PreconditionKind) bool {
	for _, k := range t.Preconditions {
		if k == kind {
			return true
		}
	}
	return false
}

// Automates reports whether the transition carries the given automation.
func (t *Transition) Automates(kind AutomationKind) bool {
	for _, k := range t.Automations {
		if k == kind {
			return true
		}
	}
	return false
}
