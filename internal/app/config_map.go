package app

import (
	"fmt"
	"strings"
	"time"

	"localnotify/internal/config"
	"localnotify/internal/notification"
	"localnotify/internal/notifier"
	"localnotify/internal/observability/inspect"
	"localnotify/internal/platform/memory"
	"localnotify/internal/storage"
	logx "localnotify/pkg/logx"
)

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)
	if path == "" {
		return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=%s", driver)
	}

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path, CompactEvery: sc.CompactEvery}, true, nil
	case "sqlite", "sqlite3":
		busy, err := config.DurationOr("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapPlatformConfig(cfg *config.Config) (memory.Config, error) {
	tick, err := config.DurationOr("platform.tick", cfg.Platform.Tick, time.Second)
	if err != nil {
		return memory.Config{}, err
	}
	return memory.Config{
		PermissionAnswer: notification.PermissionState(strings.TrimSpace(cfg.Platform.PermissionAnswer)),
		Tick:             tick,
		ListenerBuffer:   cfg.Platform.ListenerBuffer,
		HistorySize:      cfg.Platform.HistorySize,
	}, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	loc, err := config.Location(cfg.Notifier.Timezone)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		IDPolicy:     notifier.IDPolicy(strings.TrimSpace(cfg.Notifier.IDPolicy)),
		MaxRandomID:  cfg.Notifier.MaxRandomID,
		IDAttempts:   cfg.Notifier.IDAttempts,
		RatePerSec:   cfg.Notifier.RatePerSec,
		Burst:        cfg.Notifier.Burst,
		Location:     loc,
		ActionTypeID: cfg.Notifier.ActionTypeID,
	}, nil
}

func mapInspectConfig(cfg *config.Config) inspect.Config {
	return inspect.Config{
		Enabled:       cfg.Inspect.Enabled,
		Addr:          strings.TrimSpace(cfg.Inspect.Addr),
		Token:         cfg.Inspect.Token,
		AllowInsecure: cfg.Inspect.AllowInsecure,
		Pprof:         cfg.Inspect.Pprof,
	}
}
