package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localnotify/internal/config"
	"localnotify/internal/notification"
	"localnotify/internal/notifier"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Console = false
	cfg.Platform.Tick = "1h"
	return cfg
}

func TestStartRestoresPendingFromStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage = &config.StorageConfig{Driver: "file", Path: filepath.Join(t.TempDir(), "state")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := New("", WithConfig(cfg))
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	require.True(t, a.Subscriptions().Permission.Granted())

	id := 42
	_, err = a.Notifier().ScheduleNotification(ctx, "Tea", "Steeped", &id, 600)
	require.NoError(t, err)
	require.NoError(t, a.Stop(ctx, StopCommandDone))

	b, err := New("", WithConfig(cfg))
	require.NoError(t, err)
	require.NoError(t, b.Start(ctx))
	defer func() { _ = b.Stop(ctx, StopCommandDone) }()

	pending, err := b.Notifier().ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 42, pending[0].ID)
	require.Equal(t, "Tea", pending[0].Title)
}

func TestStartDeniedPermission(t *testing.T) {
	cfg := testConfig(t)
	cfg.Platform.PermissionAnswer = "denied"

	a, err := New("", WithConfig(cfg))
	require.NoError(t, err)

	ctx := context.Background()
	err = a.Start(ctx)
	require.ErrorIs(t, err, notification.ErrPermissionDenied)
	require.Nil(t, a.Subscriptions())
	require.NoError(t, a.Stop(ctx, StopFatalError))
}

func TestHooksReceiveDeliveries(t *testing.T) {
	cfg := testConfig(t)
	delivered := make(chan notification.Request, 1)
	a, err := New("", WithConfig(cfg), WithHooks(notifier.Hooks{
		OnDelivered: func(_ context.Context, req notification.Request) { delivered <- req },
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))
	defer func() { _ = a.Stop(ctx, StopCommandDone) }()

	id := 7
	_, err = a.Notifier().ScheduleNotificationAt(ctx, "Now", "due", a.Notifier().Now().Add(-time.Second), &id)
	require.NoError(t, err)
	// The firing loop may beat this call to the due entry; either path delivers once.
	a.Platform().FireDue(ctx)

	select {
	case got := <-delivered:
		require.Equal(t, 7, got.ID)
	case <-ctx.Done():
		t.Fatal("delivery hook not called")
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "localnotify.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n  console: false\nnotifier:\n  timezone: Europe/Berlin\n"), 0o600))

	a, err := New(path)
	require.NoError(t, err)
	require.Equal(t, "warn", a.Config().Logging.Level)
	require.NotNil(t, a.cfgm)
	require.Same(t, a.Config(), a.cfgm.Get())

	_, err = New(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		sc      *config.StorageConfig
		enabled bool
		driver  string
		busy    time.Duration
		wantErr bool
	}{
		{name: "nil", sc: nil},
		{name: "none", sc: &config.StorageConfig{Driver: "none"}},
		{name: "file", sc: &config.StorageConfig{Driver: "file", Path: "x"}, enabled: true, driver: "file"},
		{name: "sqlite default busy", sc: &config.StorageConfig{Driver: "SQLite", Path: "x.db"}, enabled: true, driver: "sqlite", busy: time.Second},
		{name: "sqlite busy", sc: &config.StorageConfig{Driver: "sqlite", Path: "x.db", BusyTimeout: "3s"}, enabled: true, driver: "sqlite", busy: 3 * time.Second},
		{name: "missing path", sc: &config.StorageConfig{Driver: "file"}, wantErr: true},
		{name: "unknown", sc: &config.StorageConfig{Driver: "bolt", Path: "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enabled, err := mapStorageConfig(&config.Config{Storage: tt.sc})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.enabled, enabled)
			if enabled {
				require.Equal(t, tt.driver, got.Driver)
				require.Equal(t, tt.busy, got.BusyTimeout)
			}
		})
	}
}

func TestMapNotifierConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Notifier.IDPolicy = "checked"
	cfg.Notifier.Timezone = "Asia/Tokyo"
	cfg.Notifier.RatePerSec = 4

	got, err := mapNotifierConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, notifier.IDPolicyChecked, got.IDPolicy)
	require.Equal(t, "Asia/Tokyo", got.Location.String())
	require.Equal(t, 4.0, got.RatePerSec)

	cfg.Notifier.Timezone = "Nowhere/Land"
	_, err = mapNotifierConfig(cfg)
	require.Error(t, err)
}
