// Command transform-dataset converts CSV trade exports plus an accounts
// CSV into a time-sorted 61-byte-record dataset and a symbols.json table,
// grounded on the original implementation's transform_dataset.py.
package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/leanlp/mirrorscan/internal/trade"
)

// layout matches the original implementation's
// "%Y-%m-%d %H:%M:%S.%f" strptime format.
const timeLayout = "2006-01-02 15:04:05.000000"

func main() {
	if len(os.Args) < 4 {
		log.Fatalf("usage: transform-dataset <output-path> <accounts-csv> <trade-csv>...")
	}
	outputPath := os.Args[1]
	accountsPath := os.Args[2]
	tradeCSVPaths := os.Args[3:]

	userIDPerAccount, err := loadAccounts(accountsPath)
	if err != nil {
		log.Fatalf("loading accounts: %v", err)
	}

	var symbols []string
	symbolIndex := make(map[string]uint32)

	var trades []trade.Trade
	for _, path := range tradeCSVPaths {
		rows, err := loadTradeCSV(path, userIDPerAccount, &symbols, symbolIndex)
		if err != nil {
			log.Fatalf("loading %s: %v", path, err)
		}
		trades = append(trades, rows...)
	}

	sort.Slice(trades, func(i, j int) bool {
		return tradeLess(trades[i], trades[j])
	})

	if err := writeDataset(outputPath, trades); err != nil {
		log.Fatalf("writing %s: %v", outputPath, err)
	}
	if err := writeSymbols("symbols.json", symbols); err != nil {
		log.Fatalf("writing symbols.json: %v", err)
	}

	log.Printf("wrote %d trades across %d symbols to %s", len(trades), len(symbols), outputPath)
}

// tradeLess reproduces Python's tuple-sort order over
// (open_ts, close_ts, duration, lot_size, side, trade_id, symbol, account_id, user_id).
func tradeLess(a, b trade.Trade) bool {
	af := []uint64{a.OpenTS, a.CloseTS, a.Duration, a.LotSize, uint64(a.Side), a.TradeID, uint64(a.Symbol), a.AccountID, a.UserID}
	bf := []uint64{b.OpenTS, b.CloseTS, b.Duration, b.LotSize, uint64(b.Side), b.TradeID, uint64(b.Symbol), b.AccountID, b.UserID}
	for i := range af {
		if af[i] != bf[i] {
			return af[i] < bf[i]
		}
	}
	return false
}

func loadAccounts(path string) (map[uint64]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	userIDPerAccount := make(map[uint64]uint64)
	first := true
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if first {
			first = false
			continue
		}
		if len(record) < 2 {
			continue
		}
		accountID, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, err
		}
		userID, err := strconv.ParseUint(record[len(record)-2], 10, 64)
		if err != nil {
			return nil, err
		}
		userIDPerAccount[accountID] = userID
	}
	return userIDPerAccount, nil
}

// loadTradeCSV parses one MT-style trade export. Column layout:
// ,identifier,action,reason,open_price,close_price,commission,lot_size,
// opened_at,closed_at,pips,price_sl,price_tp,profit,swap,symbol,
// contract_size,profit_rate,platform,trading_account_login
func loadTradeCSV(path string, userIDPerAccount map[uint64]uint64, symbols *[]string, symbolIndex map[string]uint32) ([]trade.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	var trades []trade.Trade
	first := true
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if first {
			first = false
			continue
		}

		tradeID, err := strconv.ParseUint(record[1], 10, 64)
		if err != nil {
			return nil, err
		}
		action, err := strconv.ParseUint(record[2], 10, 64)
		if err != nil {
			return nil, err
		}
		lotSizeF, err := strconv.ParseFloat(record[7], 64)
		if err != nil {
			return nil, err
		}
		lotSize := uint64(lotSizeF*1e8 + 0.5)

		openTS, err := parseTimestampMillis(record[8])
		if err != nil {
			return nil, err
		}
		closeTS, err := parseTimestampMillis(record[9])
		if err != nil {
			return nil, err
		}

		symbol := record[15]
		idx, ok := symbolIndex[symbol]
		if !ok {
			idx = uint32(len(*symbols))
			*symbols = append(*symbols, symbol)
			symbolIndex[symbol] = idx
		}

		accountID, err := strconv.ParseUint(record[len(record)-1], 10, 64)
		if err != nil {
			return nil, err
		}
		userID, ok := userIDPerAccount[accountID]
		if !ok {
			log.Fatalf("no user_id on file for account_id %d", accountID)
		}

		trades = append(trades, trade.Trade{
			OpenTS:    openTS,
			CloseTS:   closeTS,
			Duration:  closeTS - openTS,
			LotSize:   lotSize,
			Side:      trade.Side(action),
			TradeID:   tradeID,
			Symbol:    idx,
			AccountID: accountID,
			UserID:    userID,
		})
	}
	return trades, nil
}

// parseTimestampMillis parses a naive (no-zone) CSV timestamp in the local
// system timezone, matching the original Python transform's
// datetime.strptime(...).timestamp() on a naive datetime (see DESIGN.md).
func parseTimestampMillis(s string) (uint64, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return 0, err
	}
	return uint64(t.UnixMilli()), nil
}

func writeDataset(path string, trades []trade.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<20)
	buf := make([]byte, trade.RecordSize)
	for _, t := range trades {
		trade.Encode(t, buf)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeSymbols(path string, symbols []string) error {
	data, err := json.Marshal(symbols)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
