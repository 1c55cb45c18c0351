package allocator

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cbehopkins/scopetree/allocator/basic"
	"github.com/cbehopkins/scopetree/allocator/types"
)

var scopeSeq atomic.Uint64

// Config contains the tunables of a Scope.
type Config struct {
	// Name identifies the scope in logs and metrics. Generated when empty.
	Name string
	// ChunkSize is the size of each arena chunk. 0 selects basic.DefaultChunkSize.
	ChunkSize int
	// Strict gives every allocation its own backing array.
	Strict bool
	// Logger receives lifecycle events at debug level. Defaults to a no-op logger.
	Logger *zap.Logger
}

func normalizeConfig(cfg Config) (Config, error) {
	if cfg.ChunkSize < 0 {
		return Config{}, fmt.Errorf("ChunkSize must be >= 0, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = basic.DefaultChunkSize
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("scope-%d", scopeSeq.Add(1))
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg, nil
}

// Stats is a point-in-time snapshot of a Scope.
type Stats struct {
	BytesInUse    int
	Chunks        int
	Generation    uint64
	Resets        uint64
	Subscriptions int
	Destroyed     bool
}

type subscription struct {
	id types.CallbackId
	cb types.Callback
}

// Scope is the concrete types.Scope. It owns a basic.Arena for byte
// allocations and a table of lifecycle subscribers.
//
// Lifecycle:
//   - Reset: EventReset subscribers run, then the arena is bulk-freed and the
//     generation advances. The scope stays usable.
//   - Destroy: EventDestroy subscribers run, then the arena is released. Further
//     allocations fail with types.ErrScopeDestroyed.
//
// Subscribers run synchronously on the caller's goroutine, without the scope
// lock held, so they may subscribe or unsubscribe (on this or any other scope).
type Scope struct {
	mu     sync.Mutex // protects everything below for Stats/metrics readers
	name   string
	logger *zap.Logger
	arena  *basic.Arena

	subs   []subscription
	nextID types.CallbackId

	generation uint64
	resets     uint64
	destroyed  bool
	firing     bool
}

// New creates a Scope from cfg.
func New(cfg Config) (*Scope, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	arena, err := basic.New(cfg.ChunkSize, cfg.Strict)
	if err != nil {
		return nil, fmt.Errorf("failed to create arena: %w", err)
	}
	s := &Scope{
		name:   cfg.Name,
		logger: cfg.Logger.Named("scope").With(zap.String("scope", cfg.Name)),
		arena:  arena,
	}
	s.logger.Debug("scope created", zap.Int("chunk_size", cfg.ChunkSize), zap.Bool("strict", cfg.Strict))
	return s, nil
}

// MustNew is New for static configurations; it panics on a bad Config.
func MustNew(cfg Config) *Scope {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the scope name.
func (s *Scope) Name() string {
	return s.name
}

// Logger returns the scope logger.
func (s *Scope) Logger() *zap.Logger {
	return s.logger
}

// Alloc returns size zeroed bytes owned by the scope.
func (s *Scope) Alloc(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, types.ErrScopeDestroyed
	}
	if size <= 0 {
		return nil, types.ErrInvalidSize
	}
	buf, err := s.arena.Alloc(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrAllocationFailed, err)
	}
	return buf, nil
}

// Dup copies b into scope-owned memory.
func (s *Scope) Dup(b []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, types.ErrScopeDestroyed
	}
	buf, err := s.arena.Dup(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrAllocationFailed, err)
	}
	return buf, nil
}

// DupString copies str into scope-owned memory.
func (s *Scope) DupString(str string) ([]byte, error) {
	return s.Dup([]byte(str))
}

// Subscribe registers cb for reset and destroy events.
// Subscribing to a destroyed scope returns an id that never fires.
func (s *Scope) Subscribe(cb types.Callback) types.CallbackId {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if !s.destroyed {
		s.subs = append(s.subs, subscription{id: id, cb: cb})
	}
	return id
}

// Unsubscribe removes a subscription.
func (s *Scope) Unsubscribe(id types.CallbackId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: id %d on scope %s", types.ErrCallbackNotFound, id, s.name)
}

func (s *Scope) registered(id types.CallbackId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.id == id {
			return true
		}
	}
	return false
}

// fire delivers ev to a snapshot of the subscribers. A subscriber removed by an
// earlier callback in the same round is skipped.
func (s *Scope) fire(ev types.Event) {
	s.mu.Lock()
	if s.firing {
		s.mu.Unlock()
		panic(fmt.Sprintf("scope %s: %s triggered from inside a lifecycle callback", s.name, ev))
	}
	s.firing = true
	snapshot := make([]subscription, len(s.subs))
	copy(snapshot, s.subs)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.firing = false
		s.mu.Unlock()
	}()

	for _, sub := range snapshot {
		if !s.registered(sub.id) {
			continue
		}
		if keep := sub.cb(s, ev); !keep {
			// Already gone if the callback unsubscribed itself.
			_ = s.Unsubscribe(sub.id)
		}
	}
}

// Reset notifies subscribers and bulk-frees every allocation.
func (s *Scope) Reset() {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return
	}

	s.fire(types.EventReset)

	s.mu.Lock()
	freed := s.arena.BytesInUse()
	s.arena.Reset()
	s.generation++
	s.resets++
	gen := s.generation
	s.mu.Unlock()
	s.logger.Debug("scope reset", zap.Uint64("generation", gen), zap.Int("bytes_freed", freed))
}

// Destroy notifies subscribers and releases the scope. It is idempotent.
func (s *Scope) Destroy() {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return
	}

	s.fire(types.EventDestroy)

	s.mu.Lock()
	s.arena.Release()
	s.destroyed = true
	s.subs = nil
	s.mu.Unlock()
	s.logger.Debug("scope destroyed")
}

// Generation counts completed resets; allocations from an older generation
// are invalid.
func (s *Scope) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Destroyed reports whether Destroy has run.
func (s *Scope) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Stats returns a snapshot of the scope's accounting.
func (s *Scope) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		BytesInUse:    s.arena.BytesInUse(),
		Chunks:        s.arena.Chunks(),
		Generation:    s.generation,
		Resets:        s.resets,
		Subscriptions: len(s.subs),
		Destroyed:     s.destroyed,
	}
}

// Ensure Scope implements the scope contracts.
var (
	_ types.Scope      = (*Scope)(nil)
	_ types.Resettable = (*Scope)(nil)
)
