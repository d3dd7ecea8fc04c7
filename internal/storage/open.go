package storage

import (
	"context"
	"errors"
	"strings"

	"localnotify/internal/notification"
	logx "localnotify/pkg/logx"
)

// Store is the persistence API used by the platform simulator.
type Store interface {
	PutPending(ctx context.Context, e PendingEntry) error
	DeletePending(ctx context.Context, ids ...int) error
	ClearPending(ctx context.Context) error
	LoadPending(ctx context.Context) ([]PendingEntry, error)
	PutActionTypes(ctx context.Context, types []notification.ActionType) error
	LoadActionTypes(ctx context.Context) ([]notification.ActionType, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
