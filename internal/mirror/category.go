// Package mirror implements the streaming trade-mirroring classifier: the
// per-instrument batch chains (C3/C4), the classifier that drives them
// (C5), and the outcome contract they agree on.
package mirror

// Category tags which admission rule a Batch enforces. A batch never
// changes category once created.
type Category int

const (
	Copy Category = iota
	Reversal
	PartialCopy
)

// String renders the category name used in logs and /ws progress events.
func (c Category) String() string {
	switch c {
	case Copy:
		return "Copy"
	case Reversal:
		return "Reversal"
	case PartialCopy:
		return "PartialCopy"
	default:
		return "Unknown"
	}
}

// Categories lists all three in the classifier's fixed drive order.
var Categories = [...]Category{Copy, Reversal, PartialCopy}

// Outcome is the five-way result of submitting a trade to a batch.
type Outcome int

const (
	Accepted Outcome = iota
	Expired
	SameAccount
	CloseMismatch
	Rejected
)

// Window is the matching window: the maximum admissible gap, on both open
// and close timestamps, between a batch's parent and a candidate trade.
const Window = 5 * 60 * 1000 // ms
