// Package pgstore loads sweep results from Postgres, the storage side of
// the backtest engine. Queries run behind a circuit breaker so a flapping
// database degrades the explorer to its last snapshot instead of hanging
// every reload.
package pgstore

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/plateau/internal/sweep"
)

// Config holds connection and pool settings.
type Config struct {
	DSN             string
	Table           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// DefaultConfig returns pool defaults sized for a read-mostly analysis
// service.
func DefaultConfig() Config {
	return Config{
		Table:           "sweep_results",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    30 * time.Second,
	}
}

// Store reads sweep result rows.
type Store struct {
	db      *sqlx.DB
	config  Config
	breaker *gobreaker.CircuitBreaker
}

// resultRow is the sweep_results table shape: JSONB parameter groups and a
// JSONB metrics document, exactly what the backtest exporter writes.
type resultRow struct {
	ID          string `db:"id"`
	EntryParams []byte `db:"entry_params"`
	ExitParams  []byte `db:"exit_params"`
	Metrics     []byte `db:"metrics"`
}

// NewStore opens the connection pool and verifies connectivity.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pgstore",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &Store{db: db, config: cfg, breaker: breaker}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadDataset reads every sweep row in insertion order and assembles a
// dataset. The dataset ID hashes the row ids so downstream caches
// invalidate when the sweep changes.
func (s *Store) LoadDataset(ctx context.Context) (*sweep.Dataset, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.queryRows(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load sweep rows: %w", err)
	}
	rows := result.([]resultRow)

	records := make([]sweep.Record, 0, len(rows))
	hash := sha256.New()
	for _, row := range rows {
		rec, err := rowToRecord(row)
		if err != nil {
			return nil, fmt.Errorf("decode sweep row %s: %w", row.ID, err)
		}
		records = append(records, rec)
		hash.Write([]byte(row.ID))
	}

	ds := &sweep.Dataset{
		ID:      fmt.Sprintf("pg:%x", hash.Sum(nil)[:8]),
		Source:  s.config.Table,
		Records: records,
	}
	log.Info().Int("records", len(records)).Str("dataset", ds.ID).Msg("sweep loaded from postgres")
	return ds, nil
}

func (s *Store) queryRows(ctx context.Context) ([]resultRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(
		`SELECT id, entry_params, exit_params, metrics FROM %s ORDER BY position, id`,
		s.config.Table)

	var rows []resultRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func rowToRecord(row resultRow) (sweep.Record, error) {
	// Reuse the export decoder: assemble the row back into the flat JSON
	// document shape and let Record.UnmarshalJSON apply its scalar rules.
	doc := map[string]json.RawMessage{
		"id":           mustJSON(row.ID),
		"Entry_params": row.EntryParams,
		"Exit_params":  row.ExitParams,
	}

	var metrics map[string]json.RawMessage
	if len(row.Metrics) > 0 {
		if err := json.Unmarshal(row.Metrics, &metrics); err != nil {
			return sweep.Record{}, fmt.Errorf("metrics column: %w", err)
		}
	}
	for name, raw := range metrics {
		doc[name] = raw
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return sweep.Record{}, err
	}
	var rec sweep.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return sweep.Record{}, err
	}
	return rec, nil
}

func mustJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
