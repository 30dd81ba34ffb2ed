package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"todo/internal/task"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// exportTask carries the same field names in both formats.
type exportTask struct {
	ID          string `json:"id" yaml:"id"`
	Text        string `json:"text" yaml:"text"`
	IsCompleted bool   `json:"isCompleted" yaml:"isCompleted"`
}

// Export writes tasks in the given format, newest first.
func Export(w io.Writer, tasks []task.Task, format string) error {
	records := make([]exportTask, len(tasks))
	for i, t := range tasks {
		records[i] = exportTask{ID: t.ID, Text: t.Text, IsCompleted: t.IsCompleted}
	}

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
