package allocator

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cbehopkins/scopetree/allocator/types"
)

func newTestScope(t *testing.T, name string) *Scope {
	t.Helper()
	s, err := New(Config{Name: name, ChunkSize: 128})
	require.NoError(t, err)
	return s
}

func TestScopeNewDefaults(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.Name(), "scope-"))
	assert.NotNil(t, s.Logger())
	assert.Equal(t, uint64(0), s.Generation())
	assert.False(t, s.Destroyed())

	_, err = New(Config{ChunkSize: -1})
	require.Error(t, err)
	assert.Panics(t, func() { MustNew(Config{ChunkSize: -1}) })
}

func TestScopeAlloc(t *testing.T) {
	s := newTestScope(t, "alloc")

	buf, err := s.Alloc(16)
	require.NoError(t, err)
	assert.Len(t, buf, 16)

	_, err = s.Alloc(0)
	require.ErrorIs(t, err, types.ErrInvalidSize)

	dup, err := s.DupString("key")
	require.NoError(t, err)
	assert.Equal(t, "key", string(dup))

	assert.Equal(t, 19, s.Stats().BytesInUse)
}

func TestScopeResetFiresCallbacksInOrder(t *testing.T) {
	s := newTestScope(t, "reset")

	var events []string
	s.Subscribe(func(_ types.Scope, ev types.Event) bool {
		events = append(events, "first:"+ev.String())
		return true
	})
	s.Subscribe(func(_ types.Scope, ev types.Event) bool {
		events = append(events, "second:"+ev.String())
		return true
	})

	_, err := s.Alloc(32)
	require.NoError(t, err)

	s.Reset()
	assert.Equal(t, []string{"first:reset", "second:reset"}, events)
	assert.Equal(t, uint64(1), s.Generation())
	assert.Equal(t, 0, s.Stats().BytesInUse)
	assert.Equal(t, uint64(1), s.Stats().Resets)

	// Usable after reset.
	_, err = s.Alloc(8)
	require.NoError(t, err)
}

func TestScopeCallbackReturningFalseUnregisters(t *testing.T) {
	s := newTestScope(t, "oneshot")

	calls := 0
	s.Subscribe(func(types.Scope, types.Event) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, s.Stats().Subscriptions)

	s.Reset()
	s.Reset()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Stats().Subscriptions)
}

func TestScopeUnsubscribe(t *testing.T) {
	s := newTestScope(t, "unsub")

	calls := 0
	id := s.Subscribe(func(types.Scope, types.Event) bool {
		calls++
		return true
	})
	require.NoError(t, s.Unsubscribe(id))
	require.ErrorIs(t, s.Unsubscribe(id), types.ErrCallbackNotFound)

	s.Reset()
	assert.Equal(t, 0, calls)
}

// TestScopeCallbackUnsubscribesLaterCallback verifies a subscriber removed
// during a round is not invoked in that round.
func TestScopeCallbackUnsubscribesLaterCallback(t *testing.T) {
	s := newTestScope(t, "chain")

	secondCalls := 0
	var second types.CallbackId
	s.Subscribe(func(sc types.Scope, _ types.Event) bool {
		require.NoError(t, sc.Unsubscribe(second))
		return true
	})
	second = s.Subscribe(func(types.Scope, types.Event) bool {
		secondCalls++
		return true
	})

	s.Reset()
	assert.Equal(t, 0, secondCalls)
}

func TestScopeResetFromCallbackPanics(t *testing.T) {
	s := newTestScope(t, "reentrant")
	s.Subscribe(func(sc types.Scope, _ types.Event) bool {
		sc.(*Scope).Reset()
		return true
	})
	assert.Panics(t, func() { s.Reset() })
}

func TestScopeDestroy(t *testing.T) {
	s := newTestScope(t, "destroy")

	var got []types.Event
	s.Subscribe(func(_ types.Scope, ev types.Event) bool {
		got = append(got, ev)
		return true
	})

	s.Destroy()
	s.Destroy()
	s.Reset()
	assert.Equal(t, []types.Event{types.EventDestroy}, got)
	assert.True(t, s.Destroyed())
	assert.Equal(t, 0, s.Stats().Subscriptions)

	_, err := s.Alloc(1)
	require.ErrorIs(t, err, types.ErrScopeDestroyed)
	_, err = s.Dup([]byte("x"))
	require.ErrorIs(t, err, types.ErrScopeDestroyed)

	// Subscribing after destroy never fires.
	s.Subscribe(func(types.Scope, types.Event) bool {
		t.Fatal("callback on destroyed scope")
		return true
	})
	s.Destroy()
}

func TestScopeLogsLifecycle(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s, err := New(Config{Name: "logged", Logger: zap.New(core)})
	require.NoError(t, err)

	s.Reset()
	s.Destroy()

	assert.Equal(t, 1, logs.FilterMessage("scope created").Len())
	assert.Equal(t, 1, logs.FilterMessage("scope reset").Len())
	assert.Equal(t, 1, logs.FilterMessage("scope destroyed").Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "logged", entry.ContextMap()["scope"])
	}
}

func TestCollector(t *testing.T) {
	a := newTestScope(t, "a")
	b := newTestScope(t, "b")
	c := NewCollector(a)
	c.Add(b)

	_, err := a.Alloc(10)
	require.NoError(t, err)
	a.Subscribe(func(types.Scope, types.Event) bool { return true })
	b.Reset()
	b.Reset()

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP scopetree_scope_resets_total Number of times the scope has been reset.
# TYPE scopetree_scope_resets_total counter
scopetree_scope_resets_total{scope="a"} 0
scopetree_scope_resets_total{scope="b"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "scopetree_scope_resets_total"))

	count, err := testutil.GatherAndCount(reg, "scopetree_scope_bytes_in_use")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	a.Destroy()
	count, err = testutil.GatherAndCount(reg, "scopetree_scope_subscriptions")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "destroyed scopes are dropped")
}
