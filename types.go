package scopetree

import (
	"errors"
	"fmt"
)

// ObjectId identifies a slot handed out by a slab within a single scope
// generation. Handles are only meaningful to the slab that issued them and
// become stale when the owning scope resets.
type ObjectId uint32

var (
	// ObjNotAllocated is the nil handle. Slabs never issue it.
	ObjNotAllocated = ObjectId(0)
)

// IsValid reports whether the handle refers to a slot.
func (id ObjectId) IsValid() bool {
	return id != ObjNotAllocated
}

// ErrContractViolation is wrapped by every panic raised for misuse of the
// library (for example an interval whose low bound exceeds its high bound).
var ErrContractViolation = errors.New("contract violation")

// Violation panics with an error wrapping ErrContractViolation.
// Operations are only defined while their preconditions hold, so these
// panics are not meant to be recovered in normal operation.
func Violation(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...)))
}

// IsViolation reports whether a value recovered from a panic was raised by
// Violation.
func IsViolation(r any) bool {
	err, ok := r.(error)
	return ok && errors.Is(err, ErrContractViolation)
}
