package commands

import (
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/task"
)

// resolveArgs parses and resolves a task reference, printing the error if any.
// ok is false when the command should exit with code.
func resolveArgs(st *task.Store, args []string, errOut io.Writer) (t task.Task, num int, code int, ok bool) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return task.Task{}, 0, exitcode.UserError, false
	}

	t, num, err = ResolveTaskRef(st.Tasks(), ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return task.Task{}, 0, exitcode.UserError, false
	}
	return t, num, exitcode.Success, true
}
