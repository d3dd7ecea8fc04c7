package config

import (
	"sort"
	"strings"

	logx "localnotify/pkg/logx"
)

// SummarizeChange returns the changed sections and structured attrs for logging.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Platform != newCfg.Platform {
		changed = append(changed, "platform")
		attrs = append(attrs,
			logx.String("platform.permission_answer", newCfg.Platform.PermissionAnswer),
			logx.String("platform.tick", strings.TrimSpace(newCfg.Platform.Tick)),
		)
	}

	if oldCfg.Notifier != newCfg.Notifier {
		changed = append(changed, "notifier")
		attrs = append(attrs,
			logx.String("notifier.id_policy", newCfg.Notifier.IDPolicy),
			logx.Int("notifier.max_random_id", newCfg.Notifier.MaxRandomID),
			logx.Any("notifier.rate_per_sec", newCfg.Notifier.RatePerSec),
			logx.String("notifier.timezone", newCfg.Notifier.Timezone),
		)
	}

	if oldCfg.Inspect != newCfg.Inspect {
		changed = append(changed, "inspect")
		attrs = append(attrs,
			logx.Bool("inspect.enabled", newCfg.Inspect.Enabled),
			logx.String("inspect.addr", newCfg.Inspect.Addr),
			logx.Bool("inspect.pprof", newCfg.Inspect.Pprof),
			logx.Bool("inspect.token_set", newCfg.Inspect.Token != ""),
		)
	}

	var oS, nS StorageConfig
	if oldCfg.Storage != nil {
		oS = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		nS = *newCfg.Storage
	}
	if oS != nS {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(nS.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(nS.Path) != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

// RestartRequired reports whether a change touches sections that cannot be
// applied to a running process.
func RestartRequired(changed []string) bool {
	for _, s := range changed {
		if s == "platform" || s == "storage" {
			return true
		}
	}
	return false
}
