// Package registry is the source of truth for board workflow configuration:
// which statuses exist, which transitions connect them, and the compiled
// per-board machine the executor validates against. Reads are served from
// an in-process cache that is invalidated synchronously on every write, so
// the executor can never validate against stale rules.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/boardkit/boardflow/internal/application/port"
	"github.com/boardkit/boardflow/internal/domain/workflow"
)

// DefaultCacheTTL bounds how long a compiled machine is reused without a
// reload. Write invalidation is the primary freshness mechanism; the TTL is
// a backstop for configuration changed outside this process.
const DefaultCacheTTL = 5 * time.Minute

// Service owns status and transition configuration for all boards.
type Service struct {
	statusRepo     port.StatusRepository
	transitionRepo port.TransitionRepository
	logger         *zap.Logger

	mu       sync.RWMutex
	machines map[string]cachedMachine
	cacheTTL time.Duration
}

type cachedMachine struct {
	machine *workflow.Machine
	builtAt time.Time
}

// ServiceOption configures the registry service
type ServiceOption func(*Service)

// WithCacheTTL overrides the machine cache TTL backstop.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// NewService creates a registry service
func NewService(
	statusRepo port.StatusRepository,
	transitionRepo port.TransitionRepository,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		statusRepo:     statusRepo,
		transitionRepo: transitionRepo,
		logger:         logger,
		machines:       make(map[string]cachedMachine),
		cacheTTL:       DefaultCacheTTL,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Machine returns the compiled workflow machine for a board, building and
// caching it on demand. Boards with no configuration compile to an empty
// machine.
func (s *Service) Machine(ctx context.Context, boardID string) (*workflow.Machine, error) {
	s.mu.RLock()
	cached, ok := s.machines[boardID]
	s.mu.RUnlock()

	if ok && time.Since(cached.builtAt) < s.cacheTTL {
		return cached.machine, nil
	}

	statuses, err := s.statusRepo.GetByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load statuses for board %s: %w", boardID, err)
	}

	transitions, err := s.transitionRepo.GetByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transitions for board %s: %w", boardID, err)
	}

	machine, err := workflow.NewMachine(boardID, statuses, transitions)
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow for board %s: %w", boardID, err)
	}

	s.mu.Lock()
	s.machines[boardID] = cachedMachine{machine: machine, builtAt: time.Now()}
	s.mu.Unlock()

	return machine, nil
}

// Invalidate drops the cached machine for a board. Called synchronously
// after every registry write and by the bootstrapper.
func (s *Service) Invalidate(boardID string) {
	s.mu.Lock()
	delete(s.machines, boardID)
	s.mu.Unlock()

	s.logger.Debug("Workflow cache invalidated", zap.String("board_id", boardID))
}
