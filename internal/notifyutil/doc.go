// Package notifyutil composes the notifier into higher-level scheduling
// helpers (time of day, day of week, countdown series, snooze chains) and
// formats or groups pending requests for display.
package notifyutil
