package workflow

import (
	"fmt"
	"sort"
)

// Machine is an immutable, compiled view of one board's statuses and
// transitions. The registry builds a Machine from persisted configuration
// and caches it; the executor and read queries answer legality questions
// against it without touching storage.
type Machine struct {
	boardID  string
	statuses map[string]Status
	ordered  []Status
	byFrom   map[string][]Transition
	byName   map[string][]Transition
}

// NewMachine compiles statuses and transitions into a Machine. Transitions
// referencing a status key absent from statuses are rejected; the registry
// guarantees this never happens for persisted configuration.
func NewMachine(boardID string, statuses []Status, transitions []Transition) (*Machine, error) {
	m := &Machine{
		boardID:  boardID,
		statuses: make(map[string]Status, len(statuses)),
		ordered:  make([]Status, len(statuses)),
		byFrom:   make(map[string][]Transition),
		byName:   make(map[string][]Transition),
	}

	copy(m.ordered, statuses)
	sort.SliceStable(m.ordered, func(i, j int) bool {
		return m.ordered[i].Position < m.ordered[j].Position
	})

	for _, s := range m.ordered {
		if _, dup := m.statuses[s.Key]; dup {
			return nil, fmt.Errorf("duplicate status key %q on board %s", s.Key, boardID)
		}
		m.statuses[s.Key] = s
	}

	for _, t := range transitions {
		if _, ok := m.statuses[t.FromKey]; !ok {
			return nil, fmt.Errorf("transition %q: %w: %s", t.Name, ErrUnknownStatus, t.FromKey)
		}
		if _, ok := m.statuses[t.ToKey]; !ok {
			return nil, fmt.Errorf("transition %q: %w: %s", t.Name, ErrUnknownStatus, t.ToKey)
		}
		m.byFrom[t.FromKey] = append(m.byFrom[t.FromKey], t)
		m.byName[t.Name] = append(m.byName[t.Name], t)
	}

	return m, nil
}

// BoardID returns the board this machine was compiled for.
func (m *Machine) BoardID() string {
	return m.boardID
}

// Statuses returns all statuses ordered by position, inactive included.
func (m *Machine) Statuses() []Status {
	out := make([]Status, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// Status returns the status with the given key.
func (m *Machine) Status(key string) (Status, bool) {
	s, ok := m.statuses[key]
	return s, ok
}

// InitialStatuses returns the active statuses marked initial, in position
// order. Zero or multiple initial statuses are structurally possible; the
// machine does not enforce cardinality.
func (m *Machine) InitialStatuses() []Status {
	var out []Status
	for _, s := range m.ordered {
		if s.IsInitial && s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

// TransitionsFrom returns the selectable transitions out of the given
// status: active edges whose endpoints are both active statuses. This is
// the authoritative "what can this task do next" answer.
func (m *Machine) TransitionsFrom(fromKey string) []Transition {
	var out []Transition
	for _, t := range m.byFrom[fromKey] {
		if !t.IsActive {
			continue
		}
		if !m.endpointActive(t.FromKey) || !m.endpointActive(t.ToKey) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Resolve maps a requested transition name into the concrete edge out of
// fromKey. ErrUnknownTransitionName means no transition with that name
// exists on the board at all (a client bug); ErrInvalidTransition means
// the name exists but is not a legal move from fromKey (typically a
// stale-UI race).
func (m *Machine) Resolve(fromKey, name string) (*Transition, error) {
	named := m.byName[name]
	if len(named) == 0 {
		return nil, fmt.Errorf("%w: %q on board %s", ErrUnknownTransitionName, name, m.boardID)
	}

	for i := range named {
		t := named[i]
		if t.FromKey != fromKey || !t.IsActive {
			continue
		}
		if !m.endpointActive(t.FromKey) || !m.endpointActive(t.ToKey) {
			continue
		}
		return &t, nil
	}

	return nil, fmt.Errorf("%w: %q from status %s", ErrInvalidTransition, name, fromKey)
}

// CanFire reports whether the named transition is legal from fromKey.
func (m *Machine) CanFire(fromKey, name string) bool {
	_, err := m.Resolve(fromKey, name)
	return err == nil
}

func (m *Machine) endpointActive(key string) bool {
	s, ok := m.statuses[key]
	return ok && s.IsActive
}
