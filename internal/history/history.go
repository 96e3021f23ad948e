// Package history keeps a SQLite log of build runs so past builds can be
// listed and compared.
package history

import (
	"context"
	"time"
)

// Run is one recorded build.
type Run struct {
	BuildID    string
	StartedAt  time.Time
	Duration   time.Duration
	Status     string
	Entries    int
	Assets     int
	Items      int
	OutputDir  string
	Error      string
	ConfigHash string
}

// Store persists build runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, buildID string) (Run, error)
	Close() error
}
