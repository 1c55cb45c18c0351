// Package tracker follows conversations between network endpoints across a
// capture. Its tables are dual-scope trees: the control blocks live in an
// application scope and the entries in a per-capture scope, so starting a new
// capture empties every table without rebuilding it.
package tracker

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cbehopkins/scopetree/allocator"
	"github.com/cbehopkins/scopetree/yggdrasil/rbtree"
	"github.com/cbehopkins/scopetree/yggdrasil/types"
)

// Config contains the tunables of a Tracker.
type Config struct {
	// Name prefixes the names of the tracker's scopes.
	Name string
	// ChunkSize is passed to both scopes. 0 selects the allocator default.
	ChunkSize int
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

func normalizeConfig(cfg Config) (Config, error) {
	if cfg.ChunkSize < 0 {
		return Config{}, fmt.Errorf("ChunkSize must be >= 0, got %d", cfg.ChunkSize)
	}
	if cfg.Name == "" {
		cfg.Name = "tracker"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg, nil
}

// Endpoint is one side of a conversation.
type Endpoint struct {
	Family uint32
	Addr   []uint32
	Port   uint32
}

func (e Endpoint) key() types.CompositeKey {
	return types.CompositeKey{{e.Family, uint32(len(e.Addr))}, e.Addr, {e.Port}}
}

func (e Endpoint) String() string {
	parts := make([]string, len(e.Addr))
	for i, w := range e.Addr {
		parts[i] = fmt.Sprintf("%08x", w)
	}
	return fmt.Sprintf("%d/%s:%d", e.Family, strings.Join(parts, "."), e.Port)
}

// conversationKey is the same for both directions of a conversation.
func conversationKey(a, b Endpoint) types.CompositeKey {
	ka, kb := a.key(), b.key()
	if slices.Compare(ka.Flatten(), kb.Flatten()) > 0 {
		ka, kb = kb, ka
	}
	return append(ka, kb...)
}

// Tracker owns the conversation tables of one capture at a time.
type Tracker struct {
	app  *allocator.Scope
	file *allocator.Scope

	conversations *rbtree.Uint32Tree[*Conversation]
	hosts         *rbtree.StringTree[Endpoint]

	nextID uint32
	logger *zap.Logger
}

// New creates a tracker and its two scopes.
func New(cfg Config) (*Tracker, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	app, err := allocator.New(allocator.Config{Name: cfg.Name + "-app", ChunkSize: cfg.ChunkSize, Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create app scope: %w", err)
	}
	file, err := allocator.New(allocator.Config{Name: cfg.Name + "-file", ChunkSize: cfg.ChunkSize, Logger: cfg.Logger})
	if err != nil {
		app.Destroy()
		return nil, fmt.Errorf("failed to create file scope: %w", err)
	}
	return &Tracker{
		app:           app,
		file:          file,
		conversations: rbtree.NewUint32DualScope[*Conversation](app, file),
		hosts:         rbtree.NewStringDualScope[Endpoint](app, file, types.CaseInsensitive),
		logger:        cfg.Logger.Named("tracker").With(zap.String("tracker", cfg.Name)),
	}, nil
}

// Conversation returns the conversation between a and b in either direction,
// starting one at frame if none exists.
func (t *Tracker) Conversation(a, b Endpoint, frame uint32) *Conversation {
	key := conversationKey(a, b)
	if c, ok := t.conversations.LookupArray(key); ok {
		return c
	}
	t.nextID++
	c := newConversation(t.nextID, a, b, frame, t.file)
	t.conversations.InsertArray(key, c)
	t.logger.Debug("conversation started",
		zap.Uint32("id", c.ID), zap.Stringer("a", a), zap.Stringer("b", b), zap.Uint32("frame", frame))
	return c
}

// Lookup returns an existing conversation between a and b.
func (t *Tracker) Lookup(a, b Endpoint) (*Conversation, bool) {
	return t.conversations.LookupArray(conversationKey(a, b))
}

// Conversations returns the number of conversations in the current capture.
func (t *Tracker) Conversations() int {
	return t.conversations.Count()
}

// EachConversation visits conversations in key order until fn returns true.
func (t *Tracker) EachConversation(fn func(*Conversation) bool) {
	t.conversations.Walk(func(_ uint32, c *Conversation) bool {
		return fn(c)
	})
}

// AddHost records a name for ep. Names are matched without regard to ASCII case.
func (t *Tracker) AddHost(name string, ep Endpoint) {
	t.hosts.InsertString(name, ep, types.CaseInsensitive)
}

// ResolveHost returns the endpoint recorded for name.
func (t *Tracker) ResolveHost(name string) (Endpoint, bool) {
	return t.hosts.LookupString(name, types.CaseInsensitive)
}

// ForgetHost removes name.
func (t *Tracker) ForgetHost(name string) bool {
	return t.hosts.RemoveString(name, types.CaseInsensitive)
}

// NextCapture drops every table entry and conversation. The tracker stays
// usable; conversations obtained earlier must not be used again.
func (t *Tracker) NextCapture() {
	count := t.conversations.Count()
	t.file.Reset()
	t.nextID = 0
	t.logger.Debug("capture closed", zap.Int("conversations", count), zap.Uint64("generation", t.file.Generation()))
}

// Close releases both scopes. The tracker must not be used afterwards.
func (t *Tracker) Close() {
	t.file.Destroy()
	t.app.Destroy()
	t.logger.Debug("tracker closed")
}

// Scopes returns the application and capture scopes, for metrics.
func (t *Tracker) Scopes() (app, file *allocator.Scope) {
	return t.app, t.file
}
