package history

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetLatestRunID retrieves the ID of the most recent run from the database
// at dbPath. It returns ErrRunNotFound when no run has been recorded.
func GetLatestRunID(dbPath string) (string, error) {
	db, err := initDB(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open/initialize database at %s: %w", dbPath, err)
	}
	defer db.Close()

	var id string
	err = db.QueryRow("SELECT id FROM runs ORDER BY created_at DESC LIMIT 1").Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrRunNotFound
		}
		return "", fmt.Errorf("failed to query for latest run ID: %w", err)
	}
	return id, nil
}

// LoadLatestFrom loads the most recent run from the database at dbPath.
func LoadLatestFrom(dbPath string) (*Run, error) {
	id, err := GetLatestRunID(dbPath)
	if err != nil {
		return nil, err
	}
	return LoadFrom(id, dbPath)
}
