// Package monitoring - types.go defines shared config types for logging.
package monitoring

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}
