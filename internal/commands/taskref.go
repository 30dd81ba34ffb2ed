package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todo/internal/task"
)

// MinIDPrefix is the shortest id prefix accepted as a task reference.
const MinIDPrefix = 4

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num   int    // 1-based position in the list, if IsNum
	ID    string // full id or id prefix, if !IsNum
	IsNum bool
}

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrTaskNotFound indicates no task matches a reference.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAmbiguousRef indicates an id prefix matches more than one task.
	ErrAmbiguousRef = errors.New("ambiguous task id")

	// ErrOutOfRange indicates a task number outside the list.
	ErrOutOfRange = errors.New("task number out of range")
)

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. No args → ErrTaskRefRequired
// 2. More than one arg → error: unexpected argument
// 3. All digits → position in the list as printed by `todo list`
// 4. Anything else → task id or id prefix
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{Num: num, IsNum: true}, nil
	}
	return TaskRef{ID: arg}, nil
}

// String returns the reference as the user typed it.
func (r TaskRef) String() string {
	if r.IsNum {
		return strconv.Itoa(r.Num)
	}
	return r.ID
}

// ResolveTaskRef finds the task a reference points at.
// It returns the task and its 1-based position.
func ResolveTaskRef(tasks []task.Task, ref TaskRef) (task.Task, int, error) {
	if ref.IsNum {
		if ref.Num < 1 || ref.Num > len(tasks) {
			return task.Task{}, 0, fmt.Errorf("%w: %d", ErrOutOfRange, ref.Num)
		}
		return tasks[ref.Num-1], ref.Num, nil
	}

	for i, t := range tasks {
		if t.ID == ref.ID {
			return t, i + 1, nil
		}
	}

	if len(ref.ID) < MinIDPrefix {
		return task.Task{}, 0, fmt.Errorf("%w: %s", ErrTaskNotFound, ref.ID)
	}
	match := -1
	for i, t := range tasks {
		if strings.HasPrefix(t.ID, ref.ID) {
			if match >= 0 {
				return task.Task{}, 0, fmt.Errorf("%w: %s", ErrAmbiguousRef, ref.ID)
			}
			match = i
		}
	}
	if match < 0 {
		return task.Task{}, 0, fmt.Errorf("%w: %s", ErrTaskNotFound, ref.ID)
	}
	return tasks[match], match + 1, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
