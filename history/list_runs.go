package history

import (
	"fmt"
)

// ListRuns retrieves metadata for all stored runs, newest first.
func ListRuns(dbPath string) ([]RunMetadata, error) {
	db, err := initDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open/initialize database at %s: %w", dbPath, err)
	}
	defer db.Close()

	query := `
		SELECT
			r.id,
			r.base_url,
			r.error,
			r.recovered,
			r.created_at,
			COUNT(t.id) AS tool_count
		FROM
			runs r
		LEFT JOIN
			run_tools t ON r.id = t.run_id
		GROUP BY
			r.id
		ORDER BY
			r.created_at DESC;
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	metadataList := []RunMetadata{}
	for rows.Next() {
		var meta RunMetadata
		var createdAt string
		if err := rows.Scan(&meta.ID, &meta.BaseURL, &meta.Error, &meta.Recovered, &createdAt, &meta.ToolCount); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}
		meta.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run created_at '%s': %w", createdAt, err)
		}
		metadataList = append(metadataList, meta)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return metadataList, nil
}
