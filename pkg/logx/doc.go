// Package logx configures localnotify's structured logging.
//
// Components take a logx.Logger value (a thin wrapper over zerolog) so that:
//   - Console output stays readable (short timestamp + short caller)
//   - File output stays JSON-structured
//   - Sinks and level can be swapped at runtime via Service.Apply
package logx
