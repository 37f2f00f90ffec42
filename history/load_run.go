package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoadFrom retrieves a run and its tool list from the database at dbPath.
func LoadFrom(runID string, dbPath string) (*Run, error) {
	db, err := initDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open/initialize database at %s: %w", dbPath, err)
	}
	defer db.Close()

	run := &Run{ID: runID, Tools: make([]string, 0)}
	var (
		durationNs int64
		createdAt  string
	)
	err = db.QueryRow(`SELECT base_url, error, reported_endpoint, suggested_endpoint, recovered, duration_ns, created_at
		FROM runs WHERE id = ?`, runID).
		Scan(&run.BaseURL, &run.Error, &run.ReportedEndpoint, &run.SuggestedEndpoint, &run.Recovered, &durationNs, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	run.Duration = time.Duration(durationNs)
	run.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run created_at '%s': %w", createdAt, err)
	}

	rows, err := db.Query("SELECT name FROM run_tools WHERE run_id = ? ORDER BY sequence_number ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tools for run %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tool for run %s: %w", runID, err)
		}
		run.Tools = append(run.Tools, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tool rows iteration for run %s: %w", runID, err)
	}

	return run, nil
}

// Load retrieves a run from the DefaultDatabasePath.
func Load(runID string) (*Run, error) {
	return LoadFrom(runID, DefaultDatabasePath)
}
