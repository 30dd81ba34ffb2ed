package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// listSchema is the only accepted shape of a stored task list.
const listSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "additionalProperties": false,
    "required": ["id", "text", "isCompleted"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "text": {"type": "string", "minLength": 1},
      "isCompleted": {"type": "boolean"}
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("https://todo.local/tasks.schema.json", listSchema)

// Encode serializes tasks as a JSON array. A nil list encodes as [].
func Encode(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

// Decode parses a blob produced by Encode.
// Anything that Encode could not have produced from a valid list is a *CorruptError.
func Decode(data []byte) ([]Task, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &CorruptError{Err: err}
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return nil, schemaError(err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, &CorruptError{Err: err}
	}

	seen := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if prev, ok := seen[t.ID]; ok {
			return nil, &CorruptError{
				Path: fmt.Sprintf("[%d].id", i),
				Err:  fmt.Errorf("duplicate id %q (first at [%d])", t.ID, prev),
			}
		}
		seen[t.ID] = i
		if strings.TrimSpace(t.Text) != t.Text {
			return nil, &CorruptError{
				Path: fmt.Sprintf("[%d].text", i),
				Err:  errors.New("text is not trimmed"),
			}
		}
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// schemaError reduces a schema failure to its first leaf cause.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &CorruptError{Err: err}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &CorruptError{
		Path: pointerToPath(ve.InstanceLocation),
		Err:  errors.New(ve.Message),
	}
}

// pointerToPath turns "/1/text" into "[1].text".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
