// Package audit persists the replanning decision trail: an append-only text
// log for quick inspection and a SQLite store that cmd/inspect and
// cmd/fixture-export read back.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/withinday-rl/go-replanner/internal/plan"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id          TEXT PRIMARY KEY,
	iteration   INTEGER NOT NULL,
	sim_time    REAL NOT NULL,
	agent_id    TEXT NOT NULL,
	mode        TEXT NOT NULL,
	fallback    INTEGER NOT NULL DEFAULT 0,
	reason      TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_agent ON decision_log(agent_id);
CREATE INDEX IF NOT EXISTS idx_decision_iteration ON decision_log(iteration);
`

// #endregion schema

// #region store-struct

// Store manages the decision log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing database handle. Used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for read-only tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region record

// Record appends one decision row. An empty ID gets a fresh uuid, a zero
// CreatedAt the current time.
func (s *Store) Record(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO decision_log (id, iteration, sim_time, agent_id, mode, fallback, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Iteration,
		rec.SimTime,
		string(rec.Agent),
		rec.Mode,
		boolToInt(rec.Fallback),
		nullIfEmpty(rec.Reason),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// #endregion record

// #region list

// List returns up to limit decisions ordered by insertion, oldest first.
// A limit <= 0 returns everything.
func (s *Store) List(limit int) ([]Record, error) {
	query := `SELECT id, iteration, sim_time, agent_id, mode, fallback, reason, created_at
		 FROM decision_log ORDER BY rowid`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var agent string
		var fallback int
		var reason sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.ID, &rec.Iteration, &rec.SimTime, &agent, &rec.Mode, &fallback, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.Agent = plan.PersonID(agent)
		rec.Fallback = fallback != 0
		if reason.Valid {
			rec.Reason = reason.String
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ModeCounts aggregates decisions per chosen mode for one iteration. An
// iteration < 0 aggregates across all iterations.
func (s *Store) ModeCounts(iteration int) (map[string]int, error) {
	query := `SELECT mode, COUNT(*) FROM decision_log`
	var rows *sql.Rows
	var err error
	if iteration >= 0 {
		rows, err = s.db.Query(query+` WHERE iteration = ? GROUP BY mode`, iteration)
	} else {
		rows, err = s.db.Query(query + ` GROUP BY mode`)
	}
	if err != nil {
		return nil, fmt.Errorf("mode counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var mode string
		var n int
		if err := rows.Scan(&mode, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[mode] = n
	}
	return counts, rows.Err()
}

// #endregion list

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
