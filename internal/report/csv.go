package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leanlp/mirrorscan/internal/mirror"
)

var baseColumns = []string{
	"Trade ID A", "Trade ID B",
	"User ID A", "User ID B",
	"Account ID A", "Account ID B",
	"Symbol",
	"Side A", "Side B",
	"Lot size A", "Lot size B",
	"Trade open date A", "Trade open date B",
	"Trade close date A", "Trade close date B",
}

var categoryFilenames = map[mirror.Category]string{
	mirror.Copy:        "copy_trades.csv",
	mirror.Reversal:    "reversal_trades.csv",
	mirror.PartialCopy: "partial_copy_trades.csv",
}

// CSVWriter is the required Sink: it renders a category's ResultSet as one
// of the three results/*.csv files, matching the column order and the
// "No"/"Yes" violation rendering from the original implementation's
// save_report.
type CSVWriter struct {
	Dir string // defaults to "results" if empty
}

func (w CSVWriter) dir() string {
	if w.Dir == "" {
		return "results"
	}
	return w.Dir
}

// WriteCategory implements Sink.
func (w CSVWriter) WriteCategory(category mirror.Category, rs ResultSet, symbolName func(uint32) (string, error), reportViolation bool) (int, int, error) {
	rows, err := Rows(rs, symbolName, reportViolation)
	if err != nil {
		return 0, 0, err
	}

	if err := os.MkdirAll(w.dir(), 0o755); err != nil {
		return 0, 0, fmt.Errorf("creating output directory: %w", err)
	}

	filename, ok := categoryFilenames[category]
	if !ok {
		return 0, 0, fmt.Errorf("unknown category %v", category)
	}
	path := filepath.Join(w.dir(), filename)

	f, err := os.Create(path)
	if err != nil {
		return 0, 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := baseColumns
	if reportViolation {
		header = append(append([]string{}, baseColumns...), "Violation")
	}
	if err := cw.Write(header); err != nil {
		return 0, 0, err
	}

	violations := 0
	for _, row := range rows {
		record := []string{
			strconv.FormatUint(row.ParentTradeID, 10),
			strconv.FormatUint(row.SimilarTradeID, 10),
			strconv.FormatUint(row.ParentUserID, 10),
			strconv.FormatUint(row.SimilarUserID, 10),
			strconv.FormatUint(row.ParentAccount, 10),
			strconv.FormatUint(row.SimilarAccount, 10),
			row.SymbolName,
			row.ParentSide,
			row.SimilarSide,
			strconv.FormatUint(row.ParentLotSize, 10),
			strconv.FormatUint(row.SimilarLotSize, 10),
			strconv.FormatUint(row.ParentOpenTS, 10),
			strconv.FormatUint(row.SimilarOpenTS, 10),
			strconv.FormatUint(row.ParentCloseTS, 10),
			strconv.FormatUint(row.SimilarCloseTS, 10),
		}
		if reportViolation {
			violation := "No"
			if row.Violation {
				violation = "Yes"
				violations++
			}
			record = append(record, violation)
		}
		if err := cw.Write(record); err != nil {
			return 0, 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, 0, err
	}

	return len(rows), violations, nil
}
