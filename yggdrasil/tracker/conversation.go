package tracker

import (
	atypes "github.com/cbehopkins/scopetree/allocator/types"
	"github.com/cbehopkins/scopetree/yggdrasil/itree"
	"github.com/cbehopkins/scopetree/yggdrasil/rbtree"
)

// Transaction pairs a request with its response.
type Transaction struct {
	Seq           uint32
	RequestFrame  uint32
	ResponseFrame uint32
	Answered      bool
}

// Conversation holds the per-capture state of one endpoint pair. Its tables
// belong to the capture scope and expire with it.
type Conversation struct {
	ID         uint32
	A, B       Endpoint
	FirstFrame uint32

	transactions *rbtree.Uint32Tree[*Transaction]
	configs      *rbtree.Uint32Tree[string]
	spans        *itree.Tree[string]
}

func newConversation(id uint32, a, b Endpoint, frame uint32, scope atypes.Scope) *Conversation {
	return &Conversation{
		ID:           id,
		A:            a,
		B:            b,
		FirstFrame:   frame,
		transactions: rbtree.NewUint32[*Transaction](scope),
		configs:      rbtree.NewUint32[string](scope),
		spans:        itree.New[string](scope),
	}
}

// Request records a request with sequence number seq seen at frame. A
// retransmitted request returns the original transaction.
func (c *Conversation) Request(seq, frame uint32) *Transaction {
	return c.transactions.LookupOrInsert32(seq, func() *Transaction {
		return &Transaction{Seq: seq, RequestFrame: frame}
	})
}

// Response matches a response to its request by sequence number. The first
// response wins; later ones return the already answered transaction.
func (c *Conversation) Response(seq, frame uint32) (*Transaction, bool) {
	tx, ok := c.transactions.Lookup32(seq)
	if !ok {
		return nil, false
	}
	if !tx.Answered {
		tx.ResponseFrame = frame
		tx.Answered = true
	}
	return tx, true
}

// Transaction returns the transaction for seq.
func (c *Conversation) Transaction(seq uint32) (*Transaction, bool) {
	return c.transactions.Lookup32(seq)
}

// Pending returns the unanswered transactions in sequence order.
func (c *Conversation) Pending() []*Transaction {
	var out []*Transaction
	c.transactions.Walk(func(_ uint32, tx *Transaction) bool {
		if !tx.Answered {
			out = append(out, tx)
		}
		return false
	})
	return out
}

// SetConfig records cfg as in force from frame onwards.
func (c *Conversation) SetConfig(frame uint32, cfg string) {
	c.configs.Insert32(frame, cfg)
}

// ConfigAt returns the configuration in force at frame.
func (c *Conversation) ConfigAt(frame uint32) (string, bool) {
	return c.configs.Lookup32LE(frame)
}

// MarkSpan labels the frames first..last inclusive.
func (c *Conversation) MarkSpan(first, last uint32, label string) {
	c.spans.Insert(uint64(first), uint64(last), label)
}

// SpansAt returns the labels of every span covering frame, ordered by start.
func (c *Conversation) SpansAt(frame uint32) []string {
	var labels []string
	c.spans.VisitIntervals(uint64(frame), uint64(frame), func(iv itree.Interval[string]) bool {
		labels = append(labels, iv.Value)
		return false
	})
	return labels
}
