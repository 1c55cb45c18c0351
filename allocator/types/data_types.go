package types

// Package types defines the lifecycle events, handles and sentinel errors used
// throughout the allocator system. These types are intentionally simple and
// decoupled from any particular scope implementation.
import (
	"errors"

	"github.com/cbehopkins/scopetree"
)

// ObjectId is a slot handle issued by a slab allocator.
type ObjectId = scopetree.ObjectId

// Event is a scope lifecycle event delivered to subscribers.
type Event uint8

const (
	// EventReset fires immediately before a scope bulk-frees its memory.
	// The scope itself stays usable afterwards.
	EventReset Event = iota + 1
	// EventDestroy fires immediately before a scope is torn down for good.
	EventDestroy
)

func (e Event) String() string {
	switch e {
	case EventReset:
		return "reset"
	case EventDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// CallbackId identifies a subscription on a single scope.
type CallbackId uint64

// Callback is invoked synchronously by a scope when a lifecycle event fires.
// Returning false unregisters the callback once it has run.
type Callback func(s Scope, ev Event) bool

// Common error constants (not exhaustive; implementations may return other errors)
var (
	// ErrScopeDestroyed indicates the scope has been destroyed and can no longer allocate.
	ErrScopeDestroyed = errors.New("scope destroyed")

	// ErrInvalidSize indicates a non-positive allocation size.
	ErrInvalidSize = errors.New("allocation size must be positive")

	// ErrCallbackNotFound indicates an unknown or already removed subscription.
	ErrCallbackNotFound = errors.New("callback not found")

	// ErrAllocationFailed indicates allocation could not be completed.
	ErrAllocationFailed = errors.New("allocation failed")
)
