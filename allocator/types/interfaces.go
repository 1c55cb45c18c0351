package types

import "go.uber.org/zap"

// Package types defines the scope contract consumed by the tree packages.
//
// Core design principle: the trees depend only on these interfaces, never on a
// concrete scope, so tests can substitute a recording mock and applications can
// supply their own arena.
//
// Interface hierarchy:
//   - Allocator: byte allocation from a bulk-freed region
//   - Lifecycle: subscription to reset/destroy events
//   - Scope: the complete contract (Allocator + Lifecycle + identity/logging)

// Allocator hands out memory that lives until the owning scope resets or is destroyed.
// There is no per-allocation free.
type Allocator interface {
	// Alloc returns size bytes of zeroed memory.
	// Returns ErrInvalidSize for size <= 0 and ErrScopeDestroyed after Destroy.
	Alloc(size int) ([]byte, error)

	// Dup copies b into scope-owned memory. A nil or empty b yields an empty slice.
	Dup(b []byte) ([]byte, error)
}

// Lifecycle is the observer registration half of a scope.
type Lifecycle interface {
	// Subscribe registers cb for both reset and destroy events.
	// Callbacks run in registration order on the goroutine that triggered the event.
	Subscribe(cb Callback) CallbackId

	// Unsubscribe removes a subscription.
	// Returns ErrCallbackNotFound if id is unknown or already removed.
	Unsubscribe(id CallbackId) error
}

// Scope is a memory region with a bulk lifecycle.
type Scope interface {
	Allocator
	Lifecycle

	// Name identifies the scope in logs and metrics.
	Name() string

	// Logger returns the scope's structured logger. Never nil.
	Logger() *zap.Logger
}

// Resettable is an optional interface for scopes whose owner can trigger the
// lifecycle directly. The tree packages never call it; owners of a scope do.
type Resettable interface {
	// Reset fires EventReset and then bulk-frees all memory.
	Reset()
	// Destroy fires EventDestroy and then releases the scope. Idempotent.
	Destroy()
}
