package mirror

import (
	"testing"

	"github.com/leanlp/mirrorscan/internal/trade"
)

func TestChainSubmit_FreshHeadWhenEmpty(t *testing.T) {
	c := NewChain(Copy)
	t1 := mkTrade(1000, 2000, trade.Long, 5e8, 10)
	c.Submit(t1, func(*Batch) { t.Fatal("unexpected emit") })
	if c.Head() == nil || c.Head().Parent != t1 {
		t.Fatalf("expected head parent %+v, got %+v", t1, c.Head())
	}
}

func TestChainSubmit_AcceptIntoExistingHead(t *testing.T) {
	c := NewChain(Copy)
	t1 := mkTrade(1000, 2000, trade.Long, 5e8, 10)
	t2 := mkTrade(1100, 2100, trade.Long, 5e8, 11)
	c.Submit(t1, nil)
	c.Submit(t2, func(*Batch) { t.Fatal("unexpected emit on accept") })

	if c.Head() == nil || len(c.Head().Similar) != 1 || c.Head().Similar[0] != t2 {
		t.Fatalf("expected t2 absorbed into head batch, got %+v", c.Head())
	}
}

func TestChainSubmit_EmitsAndEvictsOnExpiry(t *testing.T) {
	c := NewChain(Copy)
	t1 := mkTrade(1000, 2000, trade.Long, 5e8, 10)
	t2 := mkTrade(1100, 2100, trade.Long, 5e8, 11) // absorbed by t1's batch
	c.Submit(t1, nil)
	c.Submit(t2, nil)

	var emitted []*Batch
	t3 := mkTrade(1000+Window+1, 2000, trade.Long, 5e8, 12)
	c.Submit(t3, func(b *Batch) { emitted = append(emitted, b) })

	if len(emitted) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(emitted))
	}
	if emitted[0].Parent != t1 {
		t.Errorf("expected emitted batch parented by t1, got %+v", emitted[0].Parent)
	}
	// t3 became the new head since it fell through the expired batch.
	if c.Head() == nil || c.Head().Parent != t3 {
		t.Fatalf("expected new head parent t3, got %+v", c.Head())
	}
}

func TestChainSubmit_ExpiredButEmptyBatchIsNotEmitted(t *testing.T) {
	c := NewChain(Copy)
	t1 := mkTrade(1000, 2000, trade.Long, 5e8, 10)
	c.Submit(t1, nil) // batch has no similar trades yet

	var emitted []*Batch
	t2 := mkTrade(1000+Window+1, 2000, trade.Long, 5e8, 11)
	c.Submit(t2, func(b *Batch) { emitted = append(emitted, b) })

	if len(emitted) != 0 {
		t.Errorf("expected no emission for an empty expired batch, got %d", len(emitted))
	}
}

func TestChainSubmit_SameAccountReplacesAndStops(t *testing.T) {
	c := NewChain(Reversal)
	t1 := mkTrade(1000, 2000, trade.Long, 5e8, 10)
	c.Submit(t1, nil)

	t2 := mkTrade(1100, 2100, trade.Long, 5e8, 10) // same account as t1
	c.Submit(t2, func(*Batch) {})

	if c.Head() == nil || c.Head().Parent != t2 {
		t.Fatalf("expected head replaced by t2, got %+v", c.Head())
	}
	if len(c.Head().Similar) != 0 {
		t.Errorf("replacement batch should start empty, got %v", c.Head().Similar)
	}
}

func TestChainSubmit_WalksPastRejectedToOlderBatch(t *testing.T) {
	c2 := NewChain(Copy)
	first := mkTrade(1000, 2000, trade.Long, 5e8, 10)
	second := mkTrade(1050, 2050, trade.Short, 5e8, 20) // rejected by `first` (opposite side for Copy), becomes new head
	c2.Submit(first, nil)
	c2.Submit(second, nil)

	third := mkTrade(1100, 2100, trade.Long, 5e8, 30) // should be rejected by `second` head (opposite side), then accepted by `first`
	c2.Submit(third, func(*Batch) {})

	if len(c2.Head().Similar) != 0 {
		t.Errorf("head batch (parent=second) should remain empty, got %v", c2.Head().Similar)
	}
	tail := c2.Head().Next
	if tail == nil || tail.Parent != first {
		t.Fatalf("expected tail batch parented by `first`, got %+v", tail)
	}
	if len(tail.Similar) != 1 || tail.Similar[0] != third {
		t.Errorf("expected `third` absorbed into tail batch, got %v", tail.Similar)
	}
}

func TestEmitRemaining_WalksHeadToTailAndSkipsEmpty(t *testing.T) {
	c := NewChain(Copy)
	first := mkTrade(1000, 2000, trade.Long, 5e8, 10)
	second := mkTrade(1050, 2050, trade.Short, 5e8, 20) // becomes new empty head
	third := mkTrade(1100, 2100, trade.Long, 5e8, 30)   // absorbed into `first`'s batch
	c.Submit(first, nil)
	c.Submit(second, nil)
	c.Submit(third, nil)

	var emitted []*Batch
	c.EmitRemaining(func(b *Batch) { emitted = append(emitted, b) })

	if len(emitted) != 1 {
		t.Fatalf("expected exactly 1 non-empty batch flushed, got %d", len(emitted))
	}
	if emitted[0].Parent != first {
		t.Errorf("expected flushed batch parented by `first`, got %+v", emitted[0].Parent)
	}
}
