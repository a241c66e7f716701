package mirror

import "github.com/leanlp/mirrorscan/internal/trade"

// Chain is the live, singly linked list of Batches for one (symbol,
// category) pair. The head is the newest parent; invariant order is
// non-increasing parent.OpenTS from head to tail under time-sorted input.
// A Chain is created empty and grown/shrunk only by Submit.
type Chain struct {
	Category Category
	head     *Batch
}

// NewChain returns an empty chain for the given category.
func NewChain(category Category) *Chain {
	return &Chain{Category: category}
}

// Head exposes the current head batch, or nil if the chain is empty.
// Exists for inspection/tests; the driver never needs it externally.
func (c *Chain) Head() *Batch {
	return c.head
}

// Submit drives t through the chain from head to tail exactly as spec'd:
// expired batches are unlinked (and emitted if non-empty) without stopping
// traversal; a same-account hit closes and replaces the current batch and
// stops; close-mismatch/rejected hits advance to the next batch; an accept
// stops. If t falls through every batch, it becomes a new head.
//
// onEmit is called for every batch that leaves the chain with at least one
// similar trade, in the order batches leave it (eviction order).
func (c *Chain) Submit(t trade.Trade, onEmit func(*Batch)) {
	var prev *Batch
	cur := c.head

	for cur != nil {
		switch cur.Submit(t) {
		case Expired:
			if len(cur.Similar) > 0 {
				onEmit(cur)
			}
			next := cur.Next
			c.unlink(prev, next)
			cur = next

		case SameAccount:
			if len(cur.Similar) > 0 {
				onEmit(cur)
			}
			replacement := newBatch(t, c.Category, cur.Next)
			c.splice(prev, replacement)
			return

		case CloseMismatch, Rejected:
			prev = cur
			cur = cur.Next

		case Accepted:
			return
		}
	}

	// Fell off the end: no existing batch absorbed t. It becomes a new head.
	c.head = newBatch(t, c.Category, c.head)
}

func (c *Chain) unlink(prev, next *Batch) {
	if prev == nil {
		c.head = next
	} else {
		prev.Next = next
	}
}

func (c *Chain) splice(prev, replacement *Batch) {
	if prev == nil {
		c.head = replacement
	} else {
		prev.Next = replacement
	}
}

// EmitRemaining walks the chain head to tail at end-of-stream and calls
// onEmit for every batch with a non-empty Similar, in chain order. It does
// not mutate the chain.
func (c *Chain) EmitRemaining(onEmit func(*Batch)) {
	for cur := c.head; cur != nil; cur = cur.Next {
		if len(cur.Similar) > 0 {
			onEmit(cur)
		}
	}
}
