// Package tradefilter implements the first-level admission gate applied to
// every trade before it reaches the classifier.
package tradefilter

import "github.com/leanlp/mirrorscan/internal/trade"

// MinimumDuration and MinimumLotSize define the "tiny and brief" rejection:
// a trade is dropped only when it is both at most this short AND below this
// size. A long tiny trade, or a short large one, both still pass.
const (
	MinimumDuration = 1000      // ms
	MinimumLotSize  = 1_000_000 // lots * 10^8
)

// Filter admits trades belonging to one of two target users, dropping
// trades that are both brief and tiny.
type Filter struct {
	UserA uint64
	UserB uint64
}

// New returns a Filter comparing against the two given users.
func New(userA, userB uint64) Filter {
	return Filter{UserA: userA, UserB: userB}
}

// Admit reports whether t passes the pre-filter.
func (f Filter) Admit(t trade.Trade) bool {
	if t.UserID != f.UserA && t.UserID != f.UserB {
		return false
	}
	if t.Duration <= MinimumDuration && t.LotSize < MinimumLotSize {
		return false
	}
	return true
}
