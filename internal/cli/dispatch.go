// Package cli parses the command line and runs commands against a hydrated task list.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/logging"
	"todo/internal/storage"
	"todo/internal/task"
)

const (
	// reportBuffer bounds undelivered persistence failures; extras are logged and dropped.
	reportBuffer = 64

	// shutdownTimeout bounds the final drain of queued writes.
	shutdownTimeout = 30 * time.Second
)

// StoreFactory creates the storage adapter from config.
// Used to inject the backend during dispatch.
type StoreFactory func(ctx context.Context, cfg *config.Config) (storage.Adapter, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  StoreFactory
}

// NewDispatcher creates a new dispatcher with the given registry and store factory.
func NewDispatcher(registry *commands.Registry, factory StoreFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		reportFlagError(errOut, err)
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.ConfigError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	if !cmd.NeedsStore() {
		return cmd.Run(ctx, cfg, nil, positionalArgs, out, errOut)
	}

	logger, closeLog, err := newLogger(cfg, cmd, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.ConfigError
	}
	defer closeLog()

	if d.factory == nil {
		fmt.Fprintln(errOut, "error: storage error: no storage configured")
		return exitcode.StorageError
	}
	adapter, err := d.factory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: storage error: %s\n", err)
		return exitcode.StorageError
	}

	sess, reports := newSession(ctx, cfg, adapter, logger, errOut)
	code := cmd.Run(ctx, cfg, sess, positionalArgs, out, errOut)
	return finish(ctx, sess, reports, code, errOut)
}

// newSession builds and hydrates the store. A failed hydration is printed and
// the session continues on an empty list.
func newSession(ctx context.Context, cfg *config.Config, adapter storage.Adapter, logger *log.Logger, errOut io.Writer) (*commands.Session, chan error) {
	reports := make(chan error, reportBuffer)
	notices := make(chan error, reportBuffer)
	store := task.NewStore(adapter,
		task.WithLogger(logger),
		task.WithWriteTimeout(cfg.WriteTimeout),
		task.WithReporter(func(err error) {
			// Hydration failures come back from Hydrate itself.
			var perr *task.PersistenceError
			if !errors.As(err, &perr) {
				return
			}
			select {
			case reports <- err:
			default:
				logger.Warn("report dropped", "err", err)
			}
			// Views may stop reading at any time; a full or abandoned
			// notice channel only costs the live copy.
			select {
			case notices <- err:
			default:
			}
		}),
	)

	sess := &commands.Session{Store: store, Logger: logger, Notices: notices}
	if err := store.Hydrate(ctx); err != nil {
		fmt.Fprintf(errOut, "warning: %v\n", err)
		sess.HydrateErr = err
	}
	return sess, reports
}

// finish drains the write queue and prints every persistence failure, including
// ones a view already showed. Any failure turns success into StorageError.
func finish(ctx context.Context, sess *commands.Session, reports chan error, code int, errOut io.Writer) int {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if n := sess.Store.Pending(); n > 0 {
		sess.Logger.Debug("waiting for queued writes", "pending", n)
	}

	failed := false
	if err := sess.Store.Close(closeCtx); err != nil {
		fmt.Fprintf(errOut, "error: pending writes not saved: %v\n", err)
		failed = true
	}

drain:
	for {
		select {
		case err := <-reports:
			fmt.Fprintf(errOut, "warning: %v\n", err)
			failed = true
		default:
			break drain
		}
	}

	if failed && code == exitcode.Success {
		return exitcode.StorageError
	}
	return code
}

// newLogger logs to errOut, or to a file in the data dir for interactive commands.
func newLogger(cfg *config.Config, cmd commands.Command, errOut io.Writer) (*log.Logger, func(), error) {
	opts := logging.Options{Level: cfg.EffectiveLogLevel(), Format: cfg.LogFormat}

	if ic, ok := cmd.(commands.Interactive); ok && ic.Interactive() {
		logger, f, err := logging.NewFile(cfg.DataDir, opts)
		if err != nil {
			return nil, nil, err
		}
		return logger, func() { f.Close() }, nil
	}

	logger, err := logging.New(errOut, opts)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() {}, nil
}

func reportFlagError(errOut io.Writer, err error) {
	errStr := err.Error()

	// Check for missing flag value
	if strings.HasPrefix(errStr, "flag needs an argument:") {
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagName)
		return
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
}
