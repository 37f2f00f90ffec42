package history

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a requested run cannot be found.
var ErrRunNotFound = errors.New("history: run not found")

// RunMetadata holds summary information about a run.
type RunMetadata struct {
	ID        string
	BaseURL   string
	ToolCount int
	Error     string
	Recovered bool
	CreatedAt time.Time
}

func (m RunMetadata) Status() string {
	return status(m.Error, m.Recovered)
}
