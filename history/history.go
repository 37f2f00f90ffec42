// Package history records inspection runs in a SQLite database.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DefaultDatabasePath is the default path where the history database is stored.
var DefaultDatabasePath = ".mcpdemo/history.db"

// timeFormat is fixed width so that stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run is the outcome of one inspection of a server.
type Run struct {
	ID      string
	BaseURL string
	Tools   []string // names of the tools listed, in server order

	// Error is the failure of the first connection attempt, if any.
	Error string
	// ReportedEndpoint is the message endpoint as the server announced it.
	ReportedEndpoint string
	// SuggestedEndpoint is the normalized form of ReportedEndpoint.
	SuggestedEndpoint string
	// Recovered is set when the tools were listed through the normalized
	// endpoint after the first attempt failed.
	Recovered bool

	Duration  time.Duration
	CreatedAt time.Time
}

// New creates a new Run against baseURL with a unique ID.
func New(baseURL string) (*Run, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:        id.String(),
		BaseURL:   baseURL,
		Tools:     make([]string, 0),
		CreatedAt: time.Now(),
	}, nil
}

// Status summarizes the run as ok, recovered or failed.
func (r *Run) Status() string {
	return status(r.Error, r.Recovered)
}

func status(errText string, recovered bool) string {
	switch {
	case recovered:
		return "recovered"
	case errText != "":
		return "failed"
	default:
		return "ok"
	}
}

// initDB ensures the database and tables exist, returning a connection.
func initDB(dataSourceName string) (*sql.DB, error) {
	dbDir := filepath.Dir(dataSourceName)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

// SaveTo persists the run to the database at dbPath. Saving a run again
// replaces the stored copy, including its tool list.
func SaveTo(run *Run, dbPath string) error {
	db, err := initDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open/initialize database at %s: %w", dbPath, err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(id, base_url, error, reported_endpoint, suggested_endpoint, recovered, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		run.ID, run.BaseURL, run.Error, run.ReportedEndpoint, run.SuggestedEndpoint,
		run.Recovered, int64(run.Duration), formatTime(run.CreatedAt))
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.Exec(`DELETE FROM run_tools WHERE run_id = ?;`, run.ID)
	if err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO run_tools (run_id, sequence_number, name) VALUES (?, ?, ?);`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, name := range run.Tools {
		if _, err := stmt.Exec(run.ID, i, name); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Save persists the run to the database using the DefaultDatabasePath.
func Save(run *Run) error {
	return SaveTo(run, DefaultDatabasePath)
}
