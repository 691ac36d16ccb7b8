package gcstats

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/gcmark/gc"

	_ "modernc.org/sqlite"
)

// ErrNoCycles indicates the history holds no cycles for the requested heap.
var ErrNoCycles = errors.New("gcstats: no cycles recorded")

// Store keeps the history of collection cycles in SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log commonlog.Logger
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		heap TEXT NOT NULL,
		started INTEGER NOT NULL,
		marked_bytes INTEGER NOT NULL,
		swept_bytes INTEGER NOT NULL,
		report BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{
		db:  db,
		log: commonlog.GetLogger("gcmark.stats"),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a report.
func (s *Store) Record(r *Report) error {
	data, err := MarshalReport(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO cycles (id, heap, started, marked_bytes, swept_bytes, report)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Heap, r.StartedNs, r.MarkedBytes, r.SweptBytes, data)
	if err != nil {
		return fmt.Errorf("inserting cycle %s: %w", r.ID, err)
	}
	return nil
}

// CycleFinished records the stats of a finished cycle. Failures are logged.
func (s *Store) CycleFinished(stats *gc.CycleStats) {
	if err := s.Record(NewReport(stats)); err != nil {
		s.log.Errorf("recording cycle %s: %s", stats.ID, err)
	}
}

// Recent returns up to limit reports for heap, newest first.
func (s *Store) Recent(heap string, limit int) ([]*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT report FROM cycles WHERE heap = ? ORDER BY started DESC LIMIT ?`,
		heap, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		r, err := UnmarshalReport(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Totals summarizes the recorded history of a heap.
type Totals struct {
	Cycles      int64
	MarkedBytes int64
	SweptBytes  int64
}

// Totals returns aggregate numbers over every recorded cycle of heap.
func (s *Store) Totals(heap string) (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t Totals
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(marked_bytes), 0), COALESCE(SUM(swept_bytes), 0)
		 FROM cycles WHERE heap = ?`, heap).Scan(&t.Cycles, &t.MarkedBytes, &t.SweptBytes)
	if err != nil {
		return Totals{}, fmt.Errorf("summing cycles: %w", err)
	}
	if t.Cycles == 0 {
		return Totals{}, ErrNoCycles
	}
	return t, nil
}
