// Package task owns the ordered task list and keeps it mirrored to a storage.Adapter.
package task

// State is the completion state of a task.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
)

// Task is a single to-do entry.
type Task struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`
}

// State returns the task's completion state.
func (t Task) State() State {
	if t.IsCompleted {
		return StateCompleted
	}
	return StatePending
}

// Toggled returns a copy of t in the other state.
func (t Task) Toggled() Task {
	t.IsCompleted = !t.IsCompleted
	return t
}
