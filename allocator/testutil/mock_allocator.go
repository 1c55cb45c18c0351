package testutil

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cbehopkins/scopetree/allocator/types"
)

// MockScope is a functional implementation of the scope contracts for tests.
// Every allocation is a fresh slice; allocations and subscription changes are
// recorded so tests can assert on how a client used the scope.
type MockScope struct {
	name      string
	logger    *zap.Logger
	nextID    types.CallbackId
	callbacks map[types.CallbackId]types.Callback
	order     []types.CallbackId
	destroyed bool

	Allocations  int
	BytesInUse   int
	Subscribed   int
	Unsubscribed int
	Resets       int
}

// NewMockScope creates a new mock scope for testing.
func NewMockScope(name string) *MockScope {
	return &MockScope{
		name:      name,
		logger:    zap.NewNop(),
		callbacks: make(map[types.CallbackId]types.Callback),
	}
}

// WithLogger replaces the no-op logger.
func (m *MockScope) WithLogger(l *zap.Logger) *MockScope {
	m.logger = l
	return m
}

func (m *MockScope) Name() string {
	return m.name
}

func (m *MockScope) Logger() *zap.Logger {
	return m.logger
}

func (m *MockScope) Alloc(size int) ([]byte, error) {
	if m.destroyed {
		return nil, types.ErrScopeDestroyed
	}
	if size <= 0 {
		return nil, types.ErrInvalidSize
	}
	m.Allocations++
	m.BytesInUse += size
	return make([]byte, size), nil
}

func (m *MockScope) Dup(b []byte) ([]byte, error) {
	if len(b) == 0 {
		if m.destroyed {
			return nil, types.ErrScopeDestroyed
		}
		return []byte{}, nil
	}
	buf, err := m.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(buf, b)
	return buf, nil
}

func (m *MockScope) Subscribe(cb types.Callback) types.CallbackId {
	m.nextID++
	if !m.destroyed {
		m.callbacks[m.nextID] = cb
		m.order = append(m.order, m.nextID)
		m.Subscribed++
	}
	return m.nextID
}

func (m *MockScope) Unsubscribe(id types.CallbackId) error {
	if _, ok := m.callbacks[id]; !ok {
		return fmt.Errorf("%w: %d", types.ErrCallbackNotFound, id)
	}
	delete(m.callbacks, id)
	m.Unsubscribed++
	return nil
}

// Live returns the number of registered callbacks.
func (m *MockScope) Live() int {
	return len(m.callbacks)
}

func (m *MockScope) fire(ev types.Event) {
	ids := append([]types.CallbackId(nil), m.order...)
	for _, id := range ids {
		cb, ok := m.callbacks[id]
		if !ok {
			continue
		}
		if !cb(m, ev) {
			delete(m.callbacks, id)
		}
	}
	live := m.order[:0]
	for _, id := range m.order {
		if _, ok := m.callbacks[id]; ok {
			live = append(live, id)
		}
	}
	m.order = live
}

// Reset fires EventReset and forgets all allocations.
func (m *MockScope) Reset() {
	if m.destroyed {
		return
	}
	m.fire(types.EventReset)
	m.Resets++
	m.BytesInUse = 0
}

// Destroy fires EventDestroy once.
func (m *MockScope) Destroy() {
	if m.destroyed {
		return
	}
	m.fire(types.EventDestroy)
	m.destroyed = true
	m.callbacks = make(map[types.CallbackId]types.Callback)
	m.order = nil
}

// Destroyed reports whether Destroy has run.
func (m *MockScope) Destroyed() bool {
	return m.destroyed
}

var (
	_ types.Scope      = (*MockScope)(nil)
	_ types.Resettable = (*MockScope)(nil)
)
