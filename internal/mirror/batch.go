package mirror

import "github.com/leanlp/mirrorscan/internal/trade"

// Batch holds one parent trade plus the later trades of the same
// instrument it has absorbed under its Category. similar is append-only in
// arrival order; a batch that is replaced or evicted is never resurrected.
type Batch struct {
	Parent   trade.Trade
	Similar  []trade.Trade
	Next     *Batch
	Category Category
}

func newBatch(parent trade.Trade, category Category, next *Batch) *Batch {
	return &Batch{Parent: parent, Category: category, Next: next}
}

// Submit evaluates a new trade against this batch's parent and, for
// PartialCopy/Copy/Reversal's common preconditions, this batch's category
// rule. It mutates Similar only on Accepted.
//
// Every category agrees on expiry and close-window admission; they differ
// only in the category-specific check applied once the common checks pass,
// and Copy additionally overrides the same-account outcome (see the
// same-side carve-out below — preserved exactly as specified, not
// normalized away).
func (b *Batch) Submit(t trade.Trade) Outcome {
	if openDelta(t, b.Parent) > Window {
		return Expired
	}

	sameAccount := t.AccountID == b.Parent.AccountID
	if sameAccount {
		// Copy treats "same account, same side" as uninformative: the batch
		// must stay open rather than be replaced. Every other category (and
		// Copy itself, when sides differ) reports SameAccount so the chain
		// driver replaces the batch.
		if b.Category == Copy && t.Side == b.Parent.Side {
			return Rejected
		}
		return SameAccount
	}

	if closeDelta(t, b.Parent) > Window {
		return CloseMismatch
	}

	if !b.categoryAdmits(t) {
		return Rejected
	}
	b.Similar = append(b.Similar, t)
	return Accepted
}

// categoryAdmits applies the rule specific to this batch's category. Called
// only once the common preconditions (expiry, same-account, close-window)
// have already passed.
func (b *Batch) categoryAdmits(t trade.Trade) bool {
	switch b.Category {
	case Copy:
		return t.Side == b.Parent.Side
	case Reversal:
		return t.Side != b.Parent.Side
	case PartialCopy:
		return partialCopyAdmits(b.Parent.LotSize, t.LotSize)
	default:
		return false
	}
}

// partialCopyTolerance is the 30% relative lot-size tolerance. Side equality
// is deliberately not required here — preserved as specified even though it
// means PartialCopy and Reversal can both accept the same opposite-side
// trade independently.
const partialCopyTolerance = 0.30

func partialCopyAdmits(parentLot, newLot uint64) bool {
	if parentLot == 0 {
		return false
	}
	ratio := (float64(newLot) - float64(parentLot)) / float64(parentLot)
	if ratio < 0 {
		ratio = -ratio
	}
	return ratio <= partialCopyTolerance
}

func openDelta(t, parent trade.Trade) int64 {
	return int64(t.OpenTS) - int64(parent.OpenTS)
}

func closeDelta(t, parent trade.Trade) int64 {
	return int64(t.CloseTS) - int64(parent.CloseTS)
}
