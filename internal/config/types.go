package config

// Config is the on-disk configuration. JSON or YAML; unknown keys are rejected.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Platform PlatformConfig `json:"platform"`
	Notifier NotifierConfig `json:"notifier"`
	// Storage persists the simulator's pending set. Nil means in-memory only.
	Storage *StorageConfig `json:"storage,omitempty"`
	Inspect InspectConfig  `json:"inspect"`
}

type LoggingConfig struct {
	Level   string      `json:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path" validate:"required_if=Enabled true"`
}

// PlatformConfig controls the in-process platform simulator.
//
// Defaults:
//   - permission_answer: "granted"
//   - tick: "1s"
//   - listener_buffer: 64
//   - history_size: 100
type PlatformConfig struct {
	PermissionAnswer string `json:"permission_answer,omitempty" validate:"omitempty,oneof=granted denied prompt"`
	Tick             string `json:"tick,omitempty"`
	ListenerBuffer   int    `json:"listener_buffer,omitempty" validate:"gte=0"`
	HistorySize      int    `json:"history_size,omitempty" validate:"gte=0"`
}

// NotifierConfig controls id allocation and submission pacing.
//
// Defaults:
//   - id_policy: "random"
//   - max_random_id: 10000
//   - id_attempts: 20
//   - rate_per_sec: 0 (unlimited)
//   - timezone: local
//   - snooze_lead: "5s"
type NotifierConfig struct {
	IDPolicy     string  `json:"id_policy,omitempty" validate:"omitempty,oneof=random checked"`
	MaxRandomID  int     `json:"max_random_id,omitempty" validate:"gte=0"`
	IDAttempts   int     `json:"id_attempts,omitempty" validate:"gte=0"`
	RatePerSec   float64 `json:"rate_per_sec,omitempty" validate:"gte=0"`
	Burst        int     `json:"burst,omitempty" validate:"gte=0"`
	Timezone     string  `json:"timezone,omitempty"`
	SnoozeLead   string  `json:"snooze_lead,omitempty"`
	ActionTypeID string  `json:"action_type_id,omitempty"`
}

// StorageConfig selects the simulator persistence backend.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./localnotify.db" }
type StorageConfig struct {
	Driver       string `json:"driver" validate:"omitempty,oneof=none file sqlite sqlite3"`
	Path         string `json:"path"`
	BusyTimeout  string `json:"busy_timeout,omitempty"` // sqlite only
	CompactEvery int    `json:"compact_every,omitempty" validate:"gte=0"`
}

// InspectConfig controls the read-only HTTP inspector.
//
// Defaults:
//   - addr: "127.0.0.1:6061"
//
// A non-loopback addr requires token unless allow_insecure is set.
type InspectConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty" validate:"omitempty,hostname_port"`
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	Pprof         bool   `json:"pprof,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging:  LoggingConfig{Level: "info", Console: true},
		Platform: PlatformConfig{PermissionAnswer: "granted", Tick: "1s"},
		Notifier: NotifierConfig{IDPolicy: "random"},
	}
}
