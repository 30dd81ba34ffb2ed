// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todo/internal/task"
)

const (
	checkboxDone = "[x]"
	checkboxOpen = "[ ]"
)

// FormatTask formats a task line.
// Format: "{N:>4}  {[x]|[ ]} {TEXT}\n" (4-wide right-aligned number, two spaces, checkbox, text)
func FormatTask(w io.Writer, num int, t task.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, Checkbox(t), normalizeText(t.Text))
}

// FormatTaskDetail prints every field of a task, one per line.
func FormatTaskDetail(w io.Writer, num int, t task.Task) {
	fmt.Fprintf(w, "number: %d\n", num)
	fmt.Fprintf(w, "id:     %s\n", t.ID)
	fmt.Fprintf(w, "text:   %s\n", normalizeText(t.Text))
	fmt.Fprintf(w, "state:  %s\n", t.State())
}

// FormatSummary prints "N tasks, M completed".
func FormatSummary(w io.Writer, tasks []task.Task) {
	done := 0
	for _, t := range tasks {
		if t.IsCompleted {
			done++
		}
	}
	noun := "tasks"
	if len(tasks) == 1 {
		noun = "task"
	}
	fmt.Fprintf(w, "%d %s, %d completed\n", len(tasks), noun, done)
}

// Checkbox returns the checkbox for a task's state.
func Checkbox(t task.Task) string {
	if t.IsCompleted {
		return checkboxDone
	}
	return checkboxOpen
}

// normalizeText replaces newlines with spaces so one task stays on one line.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.ReplaceAll(text, "\n", " ")
}
