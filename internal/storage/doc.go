// Package storage persists the notification simulator's state so that pending
// notifications and registered action types survive a restart of the simulated
// platform.
//
// Backends:
//   - "file": JSON Lines journal compacted into a JSON snapshot
//   - "sqlite": SQLite database via modernc.org/sqlite (pure Go, no cgo)
//
// The scheduling core never touches storage; only the platform simulator does.
package storage
