// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"github.com/charmbracelet/log"

	"todo/internal/config"
	"todo/internal/task"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsStore returns true if the command reads or changes the task list.
	// Commands like help and version return false.
	NeedsStore() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided.
	// sess is nil if NeedsStore() returns false; otherwise its store is hydrated.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int
}

// Interactive is implemented by commands that take over the terminal.
// The dispatcher sends their logs to a file instead of stderr.
type Interactive interface {
	Interactive() bool
}

// Session is the hydrated task list a command works on.
type Session struct {
	Store  *task.Store
	Logger *log.Logger

	// Notices delivers a copy of each persistence failure as it happens, for
	// views that show them live. The dispatcher prints every failure itself
	// after the command returns, whether or not it was read here.
	Notices <-chan error

	// HydrateErr is set when the stored list could not be loaded.
	// The dispatcher has already printed it; the store started empty.
	HydrateErr error
}
