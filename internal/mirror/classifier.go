package mirror

import "github.com/leanlp/mirrorscan/internal/trade"

// EmitFunc receives a batch that just left its chain (eviction, replacement,
// or end-of-stream flush) together with the instrument it belongs to.
type EmitFunc func(symbol uint32, category Category, batch *Batch)

// chainsForSymbol bundles the three parallel chains driven for one
// instrument.
type chainsForSymbol struct {
	copy        *Chain
	reversal    *Chain
	partialCopy *Chain
}

func newChainsForSymbol() *chainsForSymbol {
	return &chainsForSymbol{
		copy:        NewChain(Copy),
		reversal:    NewChain(Reversal),
		partialCopy: NewChain(PartialCopy),
	}
}

// Classifier holds one chain triple per instrument and drives every
// pre-filtered trade through all three, independently, in a fixed order
// (Copy, then Reversal, then PartialCopy) for reproducibility.
type Classifier struct {
	bySymbol map[uint32]*chainsForSymbol
	emit     EmitFunc
}

// New returns a Classifier that calls emit for every batch evicted,
// replaced, or (at Finish) flushed with a non-empty Similar.
func New(emit EmitFunc) *Classifier {
	return &Classifier{
		bySymbol: make(map[uint32]*chainsForSymbol),
		emit:     emit,
	}
}

// Submit drives one already-pre-filtered trade through its instrument's
// three chains.
func (c *Classifier) Submit(t trade.Trade) {
	symbol := t.Symbol
	chains, ok := c.bySymbol[symbol]
	if !ok {
		chains = newChainsForSymbol()
		c.bySymbol[symbol] = chains
	}

	chains.copy.Submit(t, func(b *Batch) { c.emit(symbol, Copy, b) })
	chains.reversal.Submit(t, func(b *Batch) { c.emit(symbol, Reversal, b) })
	chains.partialCopy.Submit(t, func(b *Batch) { c.emit(symbol, PartialCopy, b) })
}

// Finish walks every remaining chain, head to tail, flushing every batch
// that still holds similar trades. Call once after the input is exhausted.
func (c *Classifier) Finish() {
	for symbol, chains := range c.bySymbol {
		chains.copy.EmitRemaining(func(b *Batch) { c.emit(symbol, Copy, b) })
		chains.reversal.EmitRemaining(func(b *Batch) { c.emit(symbol, Reversal, b) })
		chains.partialCopy.EmitRemaining(func(b *Batch) { c.emit(symbol, PartialCopy, b) })
	}
}
