package history

import (
	"errors"
	"testing"
	"time"
)

func TestGetLatestRunID(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name        string
		runs        []Run
		expectedID  string
		expectedErr error
	}{
		{
			name:        "empty database",
			expectedErr: ErrRunNotFound,
		},
		{
			name:       "single run",
			runs:       []Run{{ID: "run1", CreatedAt: now.Add(-time.Hour)}},
			expectedID: "run1",
		},
		{
			name: "multiple runs, latest is newest",
			runs: []Run{
				{ID: "run1", CreatedAt: now.Add(-2 * time.Hour)},
				{ID: "run2", CreatedAt: now.Add(-1 * time.Hour)},
				{ID: "run3", CreatedAt: now.Add(-3 * time.Hour)},
			},
			expectedID: "run2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := testDBPath(t)
			for i := range tt.runs {
				if err := SaveTo(&tt.runs[i], dbPath); err != nil {
					t.Fatalf("SaveTo(%s) failed: %v", tt.runs[i].ID, err)
				}
			}

			id, err := GetLatestRunID(dbPath)
			if !errors.Is(err, tt.expectedErr) {
				t.Fatalf("GetLatestRunID() error = %v, want %v", err, tt.expectedErr)
			}
			if id != tt.expectedID {
				t.Errorf("GetLatestRunID() = %q, want %q", id, tt.expectedID)
			}
		})
	}
}

func TestLoadLatestFrom(t *testing.T) {
	dbPath := testDBPath(t)
	if _, err := LoadLatestFrom(dbPath); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("LoadLatestFrom() on empty database error = %v, want ErrRunNotFound", err)
	}

	run, _ := New("http://127.0.0.1:8000/sse")
	run.Tools = []string{"add"}
	if err := SaveTo(run, dbPath); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	latest, err := LoadLatestFrom(dbPath)
	if err != nil {
		t.Fatalf("LoadLatestFrom() failed: %v", err)
	}
	if latest.ID != run.ID || len(latest.Tools) != 1 {
		t.Errorf("LoadLatestFrom() = %+v, want run %s with one tool", latest, run.ID)
	}
}
