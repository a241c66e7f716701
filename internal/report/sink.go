package report

import (
	"sort"

	"github.com/leanlp/mirrorscan/internal/mirror"
)

// Row is one rendered (parent, similar) pair, already flattened to the 15
// base columns plus the optional violation flag. Sinks render Rows; they
// never walk ResultSet/Batch themselves, so a new Sink only needs to know
// how to serialize a Row.
type Row struct {
	ParentTradeID  uint64
	SimilarTradeID uint64
	ParentUserID   uint64
	SimilarUserID  uint64
	ParentAccount  uint64
	SimilarAccount uint64
	SymbolName     string
	ParentSide     string
	SimilarSide    string
	ParentLotSize  uint64
	SimilarLotSize uint64
	ParentOpenTS   uint64
	SimilarOpenTS  uint64
	ParentCloseTS  uint64
	SimilarCloseTS uint64
	Violation      bool
}

// Sink is the reporter interface (C7): given a category's finished
// ResultSet, render every (parent, similar) pair it contains.
type Sink interface {
	WriteCategory(category mirror.Category, rs ResultSet, symbolName func(uint32) (string, error), reportViolation bool) (matches int, violations int, err error)
}

// Rows flattens a ResultSet into Rows in result-set order (ascending
// symbol, then the order batches were appended — eviction order followed
// by end-of-stream chain order, per mirror.Chain/Classifier).
func Rows(rs ResultSet, symbolName func(uint32) (string, error), reportViolation bool) ([]Row, error) {
	symbols := make([]uint32, 0, len(rs))
	for s := range rs {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	var rows []Row
	for _, symbol := range symbols {
		name, err := symbolName(symbol)
		if err != nil {
			return nil, err
		}
		for _, batch := range rs[symbol] {
			p := batch.Parent
			for _, s := range batch.Similar {
				row := Row{
					ParentTradeID:  p.TradeID,
					SimilarTradeID: s.TradeID,
					ParentUserID:   p.UserID,
					SimilarUserID:  s.UserID,
					ParentAccount:  p.AccountID,
					SimilarAccount: s.AccountID,
					SymbolName:     name,
					ParentSide:     p.Side.String(),
					SimilarSide:    s.Side.String(),
					ParentLotSize:  p.LotSize,
					SimilarLotSize: s.LotSize,
					ParentOpenTS:   p.OpenTS,
					SimilarOpenTS:  s.OpenTS,
					ParentCloseTS:  p.CloseTS,
					SimilarCloseTS: s.CloseTS,
				}
				if reportViolation {
					row.Violation = p.UserID == s.UserID
				}
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}
