// Command gen-dataset synthesizes a random 61-byte-record trade dataset
// for local testing, grounded on the original implementation's
// generate_dataset.py.
package main

import (
	"bufio"
	"log"
	"math/rand"
	"os"
	"strconv"

	"github.com/leanlp/mirrorscan/internal/trade"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("usage: gen-dataset <seed> <hours>")
	}
	seed, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		log.Fatalf("invalid seed: %v", err)
	}
	hours, err := strconv.Atoi(os.Args[2])
	if err != nil {
		log.Fatalf("invalid hours: %v", err)
	}

	rng := rand.New(rand.NewSource(seed))

	numAccounts := 10 + rng.Intn(991)
	accountIDs := make([]uint64, numAccounts)
	for i := range accountIDs {
		accountIDs[i] = uint64(rng.Intn(101))
	}

	maxUsers := 100
	if numAccounts < maxUsers {
		maxUsers = numAccounts
	}
	numUsers := 1 + rng.Intn(maxUsers)
	userIDs := make([]uint64, numUsers)
	for i := range userIDs {
		userIDs[i] = uint64(rng.Intn(101))
	}
	log.Printf("user_ids: %v", userIDs)

	f, err := os.Create("dataset.bin")
	if err != nil {
		log.Fatalf("creating dataset.bin: %v", err)
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<20)

	durationBudget := uint64(hours) * 60 * 60 * 1000
	var currentTS uint64
	var tradeID uint64
	buf := make([]byte, trade.RecordSize)

	for currentTS < durationBudget {
		endTS := currentTS + uint64(100+rng.Intn(60*60*1000-100+1))
		duration := endTS - currentTS

		lotSize := uint64(100_000 + rng.Int63n(100*1e8-100_000+1))
		side := trade.Side(rng.Intn(2))
		symbol := uint32(rng.Intn(5))

		accountID := accountIDs[rng.Intn(len(accountIDs))]
		userID := userIDs[rng.Intn(len(userIDs))]

		currentTS += uint64(10 + rng.Intn(20_000-10+1))

		t := trade.Trade{
			OpenTS:    currentTS,
			CloseTS:   endTS,
			Duration:  duration,
			LotSize:   lotSize,
			Side:      side,
			TradeID:   tradeID,
			Symbol:    symbol,
			AccountID: accountID,
			UserID:    userID,
		}
		trade.Encode(t, buf)
		if _, err := w.Write(buf); err != nil {
			log.Fatalf("writing record %d: %v", tradeID, err)
		}

		if tradeID%1_000_000 == 0 {
			log.Printf("%d records written", tradeID)
		}
		tradeID++
	}

	if err := w.Flush(); err != nil {
		log.Fatalf("flushing dataset.bin: %v", err)
	}
	log.Printf("%d total records written to dataset.bin", tradeID)
}
