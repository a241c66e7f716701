// Package store persists a run's classification results to PostgreSQL.
// PostgresStore is an optional sink alongside report.CSVWriter: a run
// always writes CSVs, and additionally writes to Postgres when --persist
// is set and the run config has a database_url.
package store

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leanlp/mirrorscan/internal/mirror"
	"github.com/leanlp/mirrorscan/internal/report"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for mirrorscan")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes schema.sql.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/store/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("mirrorscan schema initialized")
	return nil
}

// BeginRun records a new run under runID, the ID later Sink calls tag
// their rows with.
func (s *PostgresStore) BeginRun(ctx context.Context, runID uuid.UUID, userA, userB uint64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (run_id, user_a, user_b) VALUES ($1, $2, $3)`,
		runID, int64(userA), int64(userB))
	return err
}

// FinishRun marks a run's finished_at timestamp.
func (s *PostgresStore) FinishRun(ctx context.Context, runID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE runs SET finished_at = NOW() WHERE run_id = $1`, runID)
	return err
}

var categoryTables = map[mirror.Category]string{
	mirror.Copy:        "copy_trades",
	mirror.Reversal:    "reversal_trades",
	mirror.PartialCopy: "partial_copy_trades",
}

// PostgresSink adapts a PostgresStore + run ID into a report.Sink, so the
// pipeline can fan the same emitted ResultSets out to CSV and Postgres
// without either sink knowing about the other.
type PostgresSink struct {
	Store *PostgresStore
	RunID uuid.UUID
}

// WriteCategory implements report.Sink.
func (s PostgresSink) WriteCategory(category mirror.Category, rs report.ResultSet, symbolName func(uint32) (string, error), reportViolation bool) (int, int, error) {
	rows, err := report.Rows(rs, symbolName, reportViolation)
	if err != nil {
		return 0, 0, err
	}

	table, ok := categoryTables[category]
	if !ok {
		return 0, 0, fmt.Errorf("unknown category %v", category)
	}

	ctx := context.Background()
	tx, err := s.Store.pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertSQL := fmt.Sprintf(`
		INSERT INTO %s
		(run_id, parent_trade_id, similar_trade_id, parent_user_id, similar_user_id,
		 parent_account, similar_account, symbol, side_a, side_b,
		 lot_size_a, lot_size_b, open_ts_a, open_ts_b, close_ts_a, close_ts_b, violation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (run_id, parent_trade_id, similar_trade_id) DO NOTHING;
	`, table)

	violations := 0
	for _, row := range rows {
		if row.Violation {
			violations++
		}
		_, err = tx.Exec(ctx, insertSQL,
			s.RunID, row.ParentTradeID, row.SimilarTradeID,
			row.ParentUserID, row.SimilarUserID,
			row.ParentAccount, row.SimilarAccount,
			row.SymbolName, row.ParentSide, row.SimilarSide,
			row.ParentLotSize, row.SimilarLotSize,
			row.ParentOpenTS, row.SimilarOpenTS,
			row.ParentCloseTS, row.SimilarCloseTS,
			row.Violation,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("inserting into %s: %v", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return len(rows), violations, nil
}

// LatestRun returns the most recently started run ID. The HTTP server's
// GET /runs/latest does not use it; it serves the in-memory RunSummary.
func (s *PostgresStore) LatestRun(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	return id, err
}

// CategoryMatches returns the stored rows for a run and category. The HTTP
// server's GET /reports/:category does not use it; it streams the CSV file.
func (s *PostgresStore) CategoryMatches(ctx context.Context, runID uuid.UUID, category mirror.Category, limit, offset int) ([]report.Row, error) {
	table, ok := categoryTables[category]
	if !ok {
		return nil, fmt.Errorf("unknown category %v", category)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	querySQL := fmt.Sprintf(`
		SELECT parent_trade_id, similar_trade_id, parent_user_id, similar_user_id,
		       parent_account, similar_account, symbol, side_a, side_b,
		       lot_size_a, lot_size_b, open_ts_a, open_ts_b, close_ts_a, close_ts_b, violation
		FROM %s WHERE run_id = $1
		ORDER BY parent_trade_id, similar_trade_id
		LIMIT $2 OFFSET $3
	`, table)

	rows, err := s.pool.Query(ctx, querySQL, runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var r report.Row
		if err := rows.Scan(
			&r.ParentTradeID, &r.SimilarTradeID, &r.ParentUserID, &r.SimilarUserID,
			&r.ParentAccount, &r.SimilarAccount, &r.SymbolName, &r.ParentSide, &r.SimilarSide,
			&r.ParentLotSize, &r.SimilarLotSize, &r.ParentOpenTS, &r.SimilarOpenTS,
			&r.ParentCloseTS, &r.SimilarCloseTS, &r.Violation,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
