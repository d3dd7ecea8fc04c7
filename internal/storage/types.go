package storage

import (
	"errors"
	"time"

	"localnotify/internal/notification"
)

var ErrClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl journal + snapshot)
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver       string
	Path         string
	BusyTimeout  time.Duration // sqlite only; 0 means default
	CompactEvery int           // file only; journal records between compactions (default 200)
}

// PendingEntry is one not-yet-exhausted notification held by the simulator.
type PendingEntry struct {
	Request notification.Request `json:"request"`
	// Fired counts deliveries so far (repeating schedules).
	Fired int `json:"fired"`
	// NextAt is the next delivery instant.
	NextAt time.Time `json:"next_at"`
}
