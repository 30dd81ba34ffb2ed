// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task reference).
	UserError = 1

	// ConfigError indicates an unreadable config file, env value, or log setting.
	ConfigError = 2

	// StorageError indicates the data dir could not be opened or a write failed.
	StorageError = 3
)
