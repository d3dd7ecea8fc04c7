// Package schedule describes when a notification fires and resolves symbolic
// descriptions (delay, time of day, day of week, countdown step) into instants.
//
// Resolvers are pure: they take "now" as an argument and interpret wall-clock
// fields in now.Location(). Repeating schedules are expanded with robfig/cron so
// that month and year steps follow the calendar instead of fixed durations.
package schedule
