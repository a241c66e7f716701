// Package report turns classifier output (C6, the emitter) into the
// external reporting shape (C7): a symbol-keyed result set per category,
// and Sinks that render it (CSV, optionally Postgres).
package report

import "github.com/leanlp/mirrorscan/internal/mirror"

// ResultSet maps a symbol to the ordered batches emitted for it: batches
// evicted during the scan appear first, in eviction order, followed by
// batches still alive at end-of-stream, in head-to-tail chain order. A
// batch enters a ResultSet at most once, and only with a non-empty
// Similar — mirror.Chain/Classifier already enforce both.
type ResultSet map[uint32][]*mirror.Batch

// Results holds one ResultSet per category.
type Results struct {
	Copy        ResultSet
	Reversal    ResultSet
	PartialCopy ResultSet
}

// NewResults returns an empty Results ready to receive emissions.
func NewResults() *Results {
	return &Results{
		Copy:        make(ResultSet),
		Reversal:    make(ResultSet),
		PartialCopy: make(ResultSet),
	}
}

// Add is a mirror.EmitFunc: it files an emitted batch into the right
// category's ResultSet under its symbol.
func (r *Results) Add(symbol uint32, category mirror.Category, batch *mirror.Batch) {
	switch category {
	case mirror.Copy:
		r.Copy[symbol] = append(r.Copy[symbol], batch)
	case mirror.Reversal:
		r.Reversal[symbol] = append(r.Reversal[symbol], batch)
	case mirror.PartialCopy:
		r.PartialCopy[symbol] = append(r.PartialCopy[symbol], batch)
	}
}

// Set returns the ResultSet for the given category.
func (r *Results) Set(category mirror.Category) ResultSet {
	switch category {
	case mirror.Copy:
		return r.Copy
	case mirror.Reversal:
		return r.Reversal
	case mirror.PartialCopy:
		return r.PartialCopy
	default:
		return nil
	}
}

// MatchCount returns the total number of (parent, similar) pairs across
// every symbol in this ResultSet.
func (rs ResultSet) MatchCount() int {
	total := 0
	for _, batches := range rs {
		for _, b := range batches {
			total += len(b.Similar)
		}
	}
	return total
}
