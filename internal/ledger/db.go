package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"parlay-lab/internal/roi"
)

// ErrNotFound is returned when an update or delete matches no parlay.
var ErrNotFound = errors.New("settlement not found")

// DB stores settled parlays for the ROI and streak views.
type DB struct {
	db *sql.DB
}

// NewDB opens (or creates) the ledger database
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS settled_parlays (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		total_odds INTEGER NOT NULL,
		stake REAL NOT NULL,
		outcome TEXT NOT NULL,
		settled_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_settled_parlays_settled_at ON settled_parlays(settled_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// AddSettlement records a parlay. Missing ID and timestamp are filled in.
func (d *DB) AddSettlement(p roi.SettledParlay) (roi.SettledParlay, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SettledAt.IsZero() {
		p.SettledAt = time.Now().UTC()
	}
	p.Outcome = p.Outcome.Normalize()

	_, err := d.db.Exec(`
		INSERT INTO settled_parlays (id, description, total_odds, stake, outcome, settled_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Description, p.TotalOdds, p.Stake, string(p.Outcome), p.SettledAt)
	if err != nil {
		return roi.SettledParlay{}, fmt.Errorf("inserting settlement: %w", err)
	}
	return p, nil
}

// GetSettlement retrieves a parlay by ID, nil if absent
func (d *DB) GetSettlement(id string) (*roi.SettledParlay, error) {
	row := d.db.QueryRow(`
		SELECT id, description, total_odds, stake, outcome, settled_at
		FROM settled_parlays WHERE id = ?
	`, id)

	var p roi.SettledParlay
	var outcome string
	err := row.Scan(&p.ID, &p.Description, &p.TotalOdds, &p.Stake, &outcome, &p.SettledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning settlement: %w", err)
	}
	p.Outcome = roi.Outcome(outcome)

	return &p, nil
}

// ListNewestFirst returns up to limit parlays, most recently settled first.
// A limit of 0 or less returns everything.
func (d *DB) ListNewestFirst(limit int) ([]roi.SettledParlay, error) {
	query := `
		SELECT id, description, total_odds, stake, outcome, settled_at
		FROM settled_parlays
		ORDER BY settled_at DESC, rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying settlements: %w", err)
	}
	defer rows.Close()

	var history []roi.SettledParlay
	for rows.Next() {
		var p roi.SettledParlay
		var outcome string
		if err := rows.Scan(&p.ID, &p.Description, &p.TotalOdds, &p.Stake, &outcome, &p.SettledAt); err != nil {
			return nil, fmt.Errorf("scanning settlement row: %w", err)
		}
		p.Outcome = roi.Outcome(outcome)
		history = append(history, p)
	}

	return history, rows.Err()
}

// UpdateOutcome changes the outcome of a recorded parlay
func (d *DB) UpdateOutcome(id string, outcome roi.Outcome) error {
	res, err := d.db.Exec("UPDATE settled_parlays SET outcome = ? WHERE id = ?", string(outcome.Normalize()), id)
	if err != nil {
		return fmt.Errorf("updating outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating outcome of %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteSettlement removes a parlay
func (d *DB) DeleteSettlement(id string) error {
	res, err := d.db.Exec("DELETE FROM settled_parlays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting settlement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting %s: %w", id, ErrNotFound)
	}
	return nil
}
