package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
)

func init() {
	Register(&ToggleCmd{})
	Register(&DoneCmd{})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return nil }
func (c *ToggleCmd) Synopsis() string  { return "Flip a task between pending and completed" }
func (c *ToggleCmd) Usage() string     { return "todo toggle <ref>" }
func (c *ToggleCmd) NeedsStore() bool  { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	t, _, code, ok := resolveArgs(sess.Store, args, errOut)
	if !ok {
		return code
	}
	return runToggle(cfg, sess, t.ID, out, errOut)
}

// DoneCmd marks a task completed. Unlike toggle it never reopens a task.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "todo done <ref>" }
func (c *DoneCmd) NeedsStore() bool  { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	t, num, code, ok := resolveArgs(sess.Store, args, errOut)
	if !ok {
		return code
	}
	if t.IsCompleted {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already done: %d\n", num)
		}
		return exitcode.Success
	}
	return runToggle(cfg, sess, t.ID, out, errOut)
}

// runToggle is the shared implementation for toggle and done.
func runToggle(cfg *config.Config, sess *Session, id string, out, errOut io.Writer) int {
	if !sess.Store.Toggle(id) {
		fmt.Fprintf(errOut, "error: %v: %s\n", ErrTaskNotFound, id)
		return exitcode.UserError
	}
	sess.Logger.Debug("toggled", "id", id)

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
