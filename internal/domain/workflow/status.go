package workflow

import "time"

// Status represents one named state a task can occupy on a board.
// Statuses are never hard-deleted; deactivation keeps them resolvable
// for historical tasks while removing them as transition endpoints.
type Status struct {
	BoardID     string    `json:"board_id"`
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name"`
	Color       string    `json:"color"`
	Position    int       `json:"position"`
	IsInitial   bool      `json:"is_initial"`
	IsFinal     bool      `json:"is_final"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidKey reports whether a status key is usable as a stable identifier.
// Keys are short lowercase tokens; the board scopes uniqueness.
func ValidKey(key string) bool {
	if key == "" || len(key) > 64 {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
