// Package permission provides PermissionChecker implementations. Real
// policy lives with the identity provider; these cover in-process use.
package permission

import (
	"context"

	"github.com/boardkit/boardflow/internal/application/port"
)

// AllowAll permits every actor to transition every task. The default when
// no identity provider is wired in.
type AllowAll struct{}

// NewAllowAll creates a permissive checker
func NewAllowAll() *AllowAll {
	return &AllowAll{}
}

// CanTransition always reports true.
func (AllowAll) CanTransition(ctx context.Context, actorID string, taskID int64) (bool, error) {
	return true, nil
}

// Func adapts a function to the PermissionChecker interface.
type Func func(ctx context.Context, actorID string, taskID int64) (bool, error)

// CanTransition calls the wrapped function.
func (f Func) CanTransition(ctx context.Context, actorID string, taskID int64) (bool, error) {
	return f(ctx, actorID, taskID)
}

// Verify interface compliance
var (
	_ port.PermissionChecker = (*AllowAll)(nil)
	_ port.PermissionChecker = (Func)(nil)
)
