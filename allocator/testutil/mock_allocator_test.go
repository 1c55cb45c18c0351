package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbehopkins/scopetree/allocator/types"
)

func TestMockScopeAllocation(t *testing.T) {
	m := NewMockScope("mock")

	buf, err := m.Alloc(10)
	require.NoError(t, err)
	assert.Len(t, buf, 10)

	dup, err := m.Dup([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(dup))
	assert.Equal(t, 2, m.Allocations)
	assert.Equal(t, 13, m.BytesInUse)

	_, err = m.Alloc(0)
	require.ErrorIs(t, err, types.ErrInvalidSize)
}

func TestMockScopeLifecycle(t *testing.T) {
	m := NewMockScope("mock")

	var events []types.Event
	id := m.Subscribe(func(_ types.Scope, ev types.Event) bool {
		events = append(events, ev)
		return true
	})
	m.Subscribe(func(types.Scope, types.Event) bool { return false })
	assert.Equal(t, 2, m.Live())

	m.Reset()
	assert.Equal(t, 1, m.Live())
	assert.Equal(t, 1, m.Resets)

	require.NoError(t, m.Unsubscribe(id))
	require.ErrorIs(t, m.Unsubscribe(id), types.ErrCallbackNotFound)
	assert.Equal(t, 1, m.Unsubscribed)

	m.Subscribe(func(_ types.Scope, ev types.Event) bool {
		events = append(events, ev)
		return true
	})
	m.Destroy()
	m.Destroy()
	assert.True(t, m.Destroyed())
	assert.Equal(t, []types.Event{types.EventReset, types.EventDestroy}, events)

	_, err := m.Alloc(1)
	require.ErrorIs(t, err, types.ErrScopeDestroyed)
}
