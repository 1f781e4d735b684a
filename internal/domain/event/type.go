package event

// Type identifies the type of domain event
type Type string

const (
	// TypeTransitionCommitted fires after a transition's atomic unit has
	// committed. Post-commit automations (assignee notification) subscribe
	// to it.
	TypeTransitionCommitted Type = "transition.committed"

	// TypeBoardBootstrapped fires after a board receives its default
	// workflow configuration.
	TypeBoardBootstrapped Type = "board.bootstrapped"

	// TypeRegistryChanged fires after an administrative write to a board's
	// status or transition configuration.
	TypeRegistryChanged Type = "registry.changed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeTransitionCommitted, TypeBoardBootstrapped, TypeRegistryChanged:
		return true
	default:
		return false
	}
}
