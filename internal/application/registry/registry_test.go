package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// memStatusRepo is an in-memory StatusRepository that counts loads so tests
// can observe cache behavior.
type memStatusRepo struct {
	statuses   []workflow.Status
	boardLoads int
}

func (m *memStatusRepo) Create(ctx context.Context, status *workflow.Status) error {
	for _, s := range m.statuses {
		if s.BoardID == status.BoardID && s.Key == status.Key {
			return fmt.Errorf("%w: %s", workflow.ErrDuplicateKey, status.Key)
		}
	}
	m.statuses = append(m.statuses, *status)
	return nil
}

func (m *memStatusRepo) GetByBoard(ctx context.Context, boardID string) ([]workflow.Status, error) {
	m.boardLoads++
	out := []workflow.Status{}
	for _, s := range m.statuses {
		if s.BoardID == boardID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStatusRepo) GetByKey(ctx context.Context, boardID, key string) (*workflow.Status, error) {
	for i := range m.statuses {
		if m.statuses[i].BoardID == boardID && m.statuses[i].Key == key {
			s := m.statuses[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: status %s", workflow.ErrNotFound, key)
}

func (m *memStatusRepo) Deactivate(ctx context.Context, boardID, key string) error {
	for i := range m.statuses {
		if m.statuses[i].BoardID == boardID && m.statuses[i].Key == key {
			m.statuses[i].IsActive = false
			return nil
		}
	}
	return fmt.Errorf("%w: status %s", workflow.ErrNotFound, key)
}

func (m *memStatusRepo) CountByBoard(ctx context.Context, boardID string) (int, error) {
	n := 0
	for _, s := range m.statuses {
		if s.BoardID == boardID {
			n++
		}
	}
	return n, nil
}

type memTransitionRepo struct {
	transitions []workflow.Transition
	boardLoads  int
}

func (m *memTransitionRepo) Create(ctx context.Context, transition *workflow.Transition) error {
	for _, t := range m.transitions {
		if t.BoardID == transition.BoardID && t.Name == transition.Name {
			return fmt.Errorf("%w: %s", workflow.ErrDuplicateName, transition.Name)
		}
	}
	m.transitions = append(m.transitions, *transition)
	return nil
}

func (m *memTransitionRepo) GetByBoard(ctx context.Context, boardID string) ([]workflow.Transition, error) {
	m.boardLoads++
	out := []workflow.Transition{}
	for _, t := range m.transitions {
		if t.BoardID == boardID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTransitionRepo) GetByName(ctx context.Context, boardID, name string) (*workflow.Transition, error) {
	for i := range m.transitions {
		if m.transitions[i].BoardID == boardID && m.transitions[i].Name == name {
			t := m.transitions[i]
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: transition %s", workflow.ErrNotFound, name)
}

func (m *memTransitionRepo) Deactivate(ctx context.Context, boardID, name string) error {
	for i := range m.transitions {
		if m.transitions[i].BoardID == boardID && m.transitions[i].Name == name {
			m.transitions[i].IsActive = false
			return nil
		}
	}
	return fmt.Errorf("%w: transition %s", workflow.ErrNotFound, name)
}

func newTestService(opts ...ServiceOption) (*Service, *memStatusRepo, *memTransitionRepo) {
	statusRepo := &memStatusRepo{}
	transitionRepo := &memTransitionRepo{}
	return NewService(statusRepo, transitionRepo, zap.NewNop(), opts...), statusRepo, transitionRepo
}

func seedBoard(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	keys := []struct {
		key     string
		initial bool
	}{
		{"todo", true},
		{"in_progress", false},
		{"done", false},
	}
	for i, k := range keys {
		_, err := svc.CreateStatus(ctx, CreateStatusInput{
			BoardID: "b1", Key: k.key, Position: i, IsInitial: k.initial,
		})
		if err != nil {
			t.Fatalf("CreateStatus(%s) error = %v", k.key, err)
		}
	}
	if _, err := svc.CreateTransition(ctx, CreateTransitionInput{
		BoardID: "b1", FromKey: "todo", ToKey: "in_progress", Name: "start",
	}); err != nil {
		t.Fatalf("CreateTransition(start) error = %v", err)
	}
	if _, err := svc.CreateTransition(ctx, CreateTransitionInput{
		BoardID: "b1", FromKey: "in_progress", ToKey: "done", Name: "finish",
		Preconditions: []workflow.PreconditionKind{workflow.PreconditionAssigneePresent},
	}); err != nil {
		t.Fatalf("CreateTransition(finish) error = %v", err)
	}
}

func TestMachine_CachedUntilInvalidated(t *testing.T) {
	svc, statusRepo, transitionRepo := newTestService()
	seedBoard(t, svc)
	ctx := context.Background()

	if _, err := svc.Machine(ctx, "b1"); err != nil {
		t.Fatalf("Machine() error = %v", err)
	}
	statusLoads, transitionLoads := statusRepo.boardLoads, transitionRepo.boardLoads

	for i := 0; i < 3; i++ {
		if _, err := svc.Machine(ctx, "b1"); err != nil {
			t.Fatalf("Machine() error = %v", err)
		}
	}
	if statusRepo.boardLoads != statusLoads || transitionRepo.boardLoads != transitionLoads {
		t.Errorf("cached reads hit storage: status loads %d -> %d, transition loads %d -> %d",
			statusLoads, statusRepo.boardLoads, transitionLoads, transitionRepo.boardLoads)
	}

	svc.Invalidate("b1")
	if _, err := svc.Machine(ctx, "b1"); err != nil {
		t.Fatalf("Machine() error = %v", err)
	}
	if statusRepo.boardLoads != statusLoads+1 {
		t.Errorf("invalidated read did not reload: status loads = %d, want %d", statusRepo.boardLoads, statusLoads+1)
	}
}

func TestMachine_TTLBackstopReloads(t *testing.T) {
	svc, statusRepo, _ := newTestService(WithCacheTTL(time.Nanosecond))
	seedBoard(t, svc)
	ctx := context.Background()

	if _, err := svc.Machine(ctx, "b1"); err != nil {
		t.Fatalf("Machine() error = %v", err)
	}
	loads := statusRepo.boardLoads

	time.Sleep(time.Millisecond)
	if _, err := svc.Machine(ctx, "b1"); err != nil {
		t.Fatalf("Machine() error = %v", err)
	}
	if statusRepo.boardLoads != loads+1 {
		t.Errorf("expired cache did not reload: status loads = %d, want %d", statusRepo.boardLoads, loads+1)
	}
}

func TestCreateStatus_InvalidatesCache(t *testing.T) {
	svc, _, _ := newTestService()
	seedBoard(t, svc)
	ctx := context.Background()

	machine, err := svc.Machine(ctx, "b1")
	if err != nil {
		t.Fatalf("Machine() error = %v", err)
	}
	if _, ok := machine.Status("review"); ok {
		t.Fatal("review already present")
	}

	if _, err := svc.CreateStatus(ctx, CreateStatusInput{BoardID: "b1", Key: "review", Position: 5}); err != nil {
		t.Fatalf("CreateStatus() error = %v", err)
	}

	machine, err = svc.Machine(ctx, "b1")
	if err != nil {
		t.Fatalf("Machine() error = %v", err)
	}
	if _, ok := machine.Status("review"); !ok {
		t.Error("machine rebuilt after CreateStatus is missing review")
	}
}

func TestCreateStatus_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateStatusInput
	}{
		{"empty key", CreateStatusInput{BoardID: "b1"}},
		{"uppercase key", CreateStatusInput{BoardID: "b1", Key: "Todo"}},
		{"missing board", CreateStatusInput{Key: "todo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateStatus(ctx, tt.input); err == nil {
				t.Error("CreateStatus() expected error")
			}
		})
	}
}

func TestCreateStatus_DefaultsAndDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	status, err := svc.CreateStatus(ctx, CreateStatusInput{BoardID: "b1", Key: "todo"})
	if err != nil {
		t.Fatalf("CreateStatus() error = %v", err)
	}
	if status.DisplayName != "todo" {
		t.Errorf("DisplayName = %q, want key fallback", status.DisplayName)
	}
	if !status.IsActive {
		t.Error("new status is not active")
	}

	_, err = svc.CreateStatus(ctx, CreateStatusInput{BoardID: "b1", Key: "todo"})
	if !errors.Is(err, workflow.ErrDuplicateKey) {
		t.Errorf("duplicate create error = %v, want ErrDuplicateKey", err)
	}
}

func TestCreateTransition_UnknownEndpoint(t *testing.T) {
	svc, _, _ := newTestService()
	seedBoard(t, svc)

	_, err := svc.CreateTransition(context.Background(), CreateTransitionInput{
		BoardID: "b1", FromKey: "todo", ToKey: "nowhere", Name: "vanish",
	})
	if !errors.Is(err, workflow.ErrUnknownStatus) {
		t.Errorf("error = %v, want ErrUnknownStatus", err)
	}
}

func TestCreateTransition_DuplicateName(t *testing.T) {
	svc, _, _ := newTestService()
	seedBoard(t, svc)

	_, err := svc.CreateTransition(context.Background(), CreateTransitionInput{
		BoardID: "b1", FromKey: "in_progress", ToKey: "todo", Name: "start",
	})
	if !errors.Is(err, workflow.ErrDuplicateName) {
		t.Errorf("error = %v, want ErrDuplicateName", err)
	}
}

func TestCreateTransition_SelfLoopAllowed(t *testing.T) {
	svc, _, _ := newTestService()
	seedBoard(t, svc)
	ctx := context.Background()

	if _, err := svc.CreateTransition(ctx, CreateTransitionInput{
		BoardID: "b1", FromKey: "todo", ToKey: "todo", Name: "refresh",
	}); err != nil {
		t.Fatalf("CreateTransition() error = %v", err)
	}

	machine, err := svc.Machine(ctx, "b1")
	if err != nil {
		t.Fatalf("Machine() error = %v", err)
	}
	if !machine.CanFire("todo", "refresh") {
		t.Error("self-loop not selectable")
	}
}

func TestTransitionsFrom_FiltersDeactivated(t *testing.T) {
	svc, _, _ := newTestService()
	seedBoard(t, svc)
	ctx := context.Background()

	before, err := svc.TransitionsFrom(ctx, "b1", "todo")
	if err != nil {
		t.Fatalf("TransitionsFrom() error = %v", err)
	}
	if len(before) != 1 || before[0].Name != "start" {
		t.Fatalf("TransitionsFrom(todo) = %v, want [start]", before)
	}

	if err := svc.DeactivateTransition(ctx, "b1", "start"); err != nil {
		t.Fatalf("DeactivateTransition() error = %v", err)
	}

	after, err := svc.TransitionsFrom(ctx, "b1", "todo")
	if err != nil {
		t.Fatalf("TransitionsFrom() error = %v", err)
	}
	if len(after) != 0 {
		t.Errorf("TransitionsFrom(todo) after deactivation = %v, want empty", after)
	}
}

func TestDeactivateStatus_RemovesEdges(t *testing.T) {
	svc, _, _ := newTestService()
	seedBoard(t, svc)
	ctx := context.Background()

	if err := svc.DeactivateStatus(ctx, "b1", "in_progress"); err != nil {
		t.Fatalf("DeactivateStatus() error = %v", err)
	}

	// Both edges touch in_progress; neither survives.
	for _, from := range []string{"todo", "in_progress"} {
		transitions, err := svc.TransitionsFrom(ctx, "b1", from)
		if err != nil {
			t.Fatalf("TransitionsFrom(%s) error = %v", from, err)
		}
		if len(transitions) != 0 {
			t.Errorf("TransitionsFrom(%s) = %v, want empty", from, transitions)
		}
	}
}

func TestFindTransition(t *testing.T) {
	svc, _, _ := newTestService()
	seedBoard(t, svc)
	ctx := context.Background()

	transition, err := svc.FindTransition(ctx, "b1", "todo", "in_progress", "start")
	if err != nil {
		t.Fatalf("FindTransition() error = %v", err)
	}
	if transition.Name != "start" {
		t.Errorf("FindTransition().Name = %s", transition.Name)
	}

	if _, err := svc.FindTransition(ctx, "b1", "in_progress", "todo", "start"); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("mismatched endpoints error = %v, want ErrNotFound", err)
	}
	if _, err := svc.FindTransition(ctx, "b1", "todo", "in_progress", "launch"); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("unknown name error = %v, want ErrNotFound", err)
	}
}

func TestMachine_EmptyBoard(t *testing.T) {
	svc, _, _ := newTestService()

	machine, err := svc.Machine(context.Background(), "unconfigured")
	if err != nil {
		t.Fatalf("Machine() error = %v", err)
	}
	if len(machine.Statuses()) != 0 {
		t.Errorf("empty board has %d statuses", len(machine.Statuses()))
	}
}
