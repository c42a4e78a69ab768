package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ikeya/chaincouncil/internal/models"
	"github.com/ikeya/chaincouncil/pkg/sqlite"
)

// RunRecord is one persisted evaluation outcome.
type RunRecord struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	TradeDate  string    `json:"trade_date"`
	Verdict    string    `json:"verdict"`
	Overridden bool      `json:"overridden"`
	Stage      string    `json:"stage"`
	Rationale  string    `json:"rationale"`
	TraceJSON  string    `json:"trace_json"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists evaluation runs and reflection lessons.
type Store struct {
	db *sql.DB
}

// NewStore opens the database and ensures the schema exists.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			verdict TEXT NOT NULL,
			overridden INTEGER NOT NULL DEFAULT 0,
			stage TEXT NOT NULL,
			rationale TEXT,
			trace_json TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_date ON runs(symbol, trade_date);`,
		`CREATE TABLE IF NOT EXISTS reflections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			memory_name TEXT NOT NULL,
			situation TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init storage schema: %w", err)
		}
	}
	return nil
}

// SaveRun persists a finished (or aborted) evaluation.
func (s *Store) SaveRun(state *models.TradingState) (int64, error) {
	verdict := string(models.VerdictHold)
	overridden := false
	rationale := ""
	if state.Decision != nil {
		verdict = string(state.Decision.Verdict)
		overridden = state.Decision.Overridden
		rationale = state.Decision.Rationale
	}

	res, err := s.db.Exec(
		`INSERT INTO runs (symbol, trade_date, verdict, overridden, stage, rationale, trace_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		state.CompanyOfInterest, state.TradeDate, verdict, overridden,
		string(state.Stage), rationale, state.TraceJSON(),
	)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs for a symbol, newest first.
// An empty symbol lists across all tokens.
func (s *Store) ListRuns(symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, symbol, trade_date, verdict, overridden, stage, rationale, created_at
	          FROM runs`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.TradeDate, &r.Verdict, &r.Overridden,
			&r.Stage, &r.Rationale, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one run with its full state trace.
func (s *Store) GetRun(id int64) (*RunRecord, error) {
	var r RunRecord
	err := s.db.QueryRow(
		`SELECT id, symbol, trade_date, verdict, overridden, stage, rationale, trace_json, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Symbol, &r.TradeDate, &r.Verdict, &r.Overridden,
		&r.Stage, &r.Rationale, &r.TraceJSON, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	return &r, nil
}

// SaveReflection persists one lesson so memory can be rebuilt across
// restarts.
func (s *Store) SaveReflection(memoryName, situation, recommendation string) error {
	_, err := s.db.Exec(
		`INSERT INTO reflections (memory_name, situation, recommendation) VALUES (?, ?, ?)`,
		memoryName, situation, recommendation,
	)
	if err != nil {
		return fmt.Errorf("save reflection: %w", err)
	}
	return nil
}

// ListReflections returns stored lessons for one memory, oldest first
// so replay preserves learning order.
func (s *Store) ListReflections(memoryName string) ([]struct{ Situation, Recommendation string }, error) {
	rows, err := s.db.Query(
		`SELECT situation, recommendation FROM reflections WHERE memory_name = ? ORDER BY id ASC`,
		memoryName,
	)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer rows.Close()

	var out []struct{ Situation, Recommendation string }
	for rows.Next() {
		var rec struct{ Situation, Recommendation string }
		if err := rows.Scan(&rec.Situation, &rec.Recommendation); err != nil {
			return nil, fmt.Errorf("scan reflection: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
