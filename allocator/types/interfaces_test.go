package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cbehopkins/scopetree/allocator/testutil"
	"github.com/cbehopkins/scopetree/allocator/types"
)

// TestInterfaceHierarchy verifies the interface hierarchy composes. If this
// compiles, the interfaces are properly defined.
func TestInterfaceHierarchy(t *testing.T) {
	var s types.Scope = testutil.NewMockScope("hierarchy")
	var _ types.Allocator = s
	var _ types.Lifecycle = s
	var _ types.Resettable = testutil.NewMockScope("r")
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "reset", types.EventReset.String())
	assert.Equal(t, "destroy", types.EventDestroy.String())
	assert.Equal(t, "unknown", types.Event(0).String())
}
