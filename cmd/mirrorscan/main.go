// Command mirrorscan scans a trade dataset for two users and reports
// copy, reversal, and partial-copy trading activity between them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/leanlp/mirrorscan/internal/api"
	"github.com/leanlp/mirrorscan/internal/config"
	"github.com/leanlp/mirrorscan/internal/mirror"
	"github.com/leanlp/mirrorscan/internal/report"
	"github.com/leanlp/mirrorscan/internal/runid"
	"github.com/leanlp/mirrorscan/internal/store"
	"github.com/leanlp/mirrorscan/internal/symboltable"
	"github.com/leanlp/mirrorscan/internal/trade"
	"github.com/leanlp/mirrorscan/internal/tradefilter"
)

func main() {
	persist := flag.Bool("persist", false, "also persist results to the config's database_url")
	serve := flag.Bool("serve", false, "start the run's HTTP server after classification finishes")
	port := flag.String("port", "5339", "port for --serve")
	flag.Parse()

	args := flag.Args()
	if len(args) != 3 {
		log.Fatalf("usage: mirrorscan [flags] <config-path> <user_a> <user_b>")
	}
	cfg, err := config.Load(args[0])
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	userA, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		log.Fatalf("invalid user_a: %v", err)
	}
	userB, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		log.Fatalf("invalid user_b: %v", err)
	}

	runID := runid.New()
	log.Printf("[%s] starting run: users=%d,%d mode=%s dataset=%s", runID, userA, userB, cfg.Mode, cfg.DatasetPath)

	symbols, err := symboltable.Load(cfg.SymbolsPath)
	if err != nil {
		log.Fatalf("loading symbol table: %v", err)
	}

	var pgStore *store.PostgresStore
	if *persist {
		dbURL := cfg.DatabaseURL
		if dbURL == "" {
			log.Fatalf("--persist requires database_url in the config file")
		}
		pgStore, err = store.Connect(dbURL)
		if err != nil {
			log.Printf("Warning: failed to connect to PostgreSQL, continuing without persisting results. Error: %v", err)
			pgStore = nil
		} else {
			defer pgStore.Close()
			if err := pgStore.InitSchema(); err != nil {
				log.Printf("Warning: schema init failed: %v", err)
			}
			if err := pgStore.BeginRun(context.Background(), runID, userA, userB); err != nil {
				log.Printf("Warning: failed to record run: %v", err)
			}
		}
	}

	wsHub := api.NewHub()
	go wsHub.Run()

	results := report.NewResults()
	broadcast := api.BroadcastEmission(wsHub)
	emit := func(symbol uint32, category mirror.Category, batch *mirror.Batch) {
		results.Add(symbol, category, batch)
		broadcast(symbol, category, batch)
	}

	f, err := os.Open(cfg.DatasetPath)
	if err != nil {
		log.Fatalf("opening dataset: %v", err)
	}
	defer f.Close()

	filter := tradefilter.New(userA, userB)
	classifier := mirror.New(emit)

	start := time.Now()
	streamErr := trade.Stream(f, func(t trade.Trade) bool {
		if filter.Admit(t) {
			classifier.Submit(t)
		}
		return true
	})
	if streamErr != nil {
		log.Fatalf("reading dataset: %v", streamErr)
	}
	classifier.Finish()
	finished := time.Now()

	reportViolation := cfg.ReportViolation()
	csvSink := report.CSVWriter{}
	var pgSink *store.PostgresSink
	if pgStore != nil {
		pgSink = &store.PostgresSink{Store: pgStore, RunID: runID}
	}

	summary := report.RunSummary{
		RunID:            runID,
		UserA:            userA,
		UserB:            userB,
		StartedAt:        start,
		FinishedAt:       finished,
		ViolationsScored: reportViolation,
	}

	for _, category := range mirror.Categories {
		rs := results.Set(category)

		// The CSVs are the required, load-bearing output: any failure here
		// — including a *trade.MalformedInputError surfaced from a trade
		// whose symbol has no entry in the symbol table — must stop the
		// run with a non-zero exit rather than silently skip a report.
		matches, violations, err := csvSink.WriteCategory(category, rs, symbols.Name, reportViolation)
		if err != nil {
			var malformed *trade.MalformedInputError
			if errors.As(err, &malformed) {
				log.Fatalf("[%s] malformed input writing %s report: %v", runID, category, err)
			}
			log.Fatalf("[%s] writing %s report: %v", runID, category, err)
		}
		switch category {
		case mirror.Copy:
			summary.CopyMatches = matches
		case mirror.Reversal:
			summary.ReversalMatches = matches
		case mirror.PartialCopy:
			summary.PartialMatches = matches
		}
		summary.ViolationCount += violations

		// The result store is an optional adapter (A6): persistence
		// failures are warnings, matching the teacher's "continuing
		// without persisting" pattern for its own optional DB/RPC
		// connections — but a malformed trade is never just a
		// persistence problem, so it still escalates to fatal.
		if pgSink != nil {
			if _, _, err := pgSink.WriteCategory(category, rs, symbols.Name, reportViolation); err != nil {
				var malformed *trade.MalformedInputError
				if errors.As(err, &malformed) {
					log.Fatalf("[%s] malformed input writing %s report: %v", runID, category, err)
				}
				log.Printf("Warning: [%s] persisting %s report: %v", runID, category, err)
			}
		}
	}

	if pgStore != nil {
		if err := pgStore.FinishRun(context.Background(), runID); err != nil {
			log.Printf("Warning: failed to mark run finished: %v", err)
		}
	}

	log.Printf("[%s] run complete in %s: copy=%d reversal=%d partial_copy=%d",
		runID, finished.Sub(start), summary.CopyMatches, summary.ReversalMatches, summary.PartialMatches)

	api.BroadcastSummary(wsHub, summary.CopyMatches, summary.ReversalMatches, summary.PartialMatches)

	if *serve {
		r := api.SetupRouter(cfg, summary, "results", wsHub)
		addr := fmt.Sprintf(":%s", *port)
		log.Printf("serving run %s results on %s", runID, addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}
}
