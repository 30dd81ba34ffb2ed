package task

import (
	"errors"
	"fmt"
)

// ErrAlreadyHydrated is returned by a second Hydrate call.
var ErrAlreadyHydrated = errors.New("task list already hydrated")

// HydrationError reports that the persisted list could not be read or parsed.
type HydrationError struct {
	Err error
}

func (e *HydrationError) Error() string {
	return fmt.Sprintf("load tasks: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *HydrationError) Unwrap() error {
	return e.Err
}

// PersistenceError reports that a list snapshot could not be written.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save tasks: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CorruptError describes why a stored blob was rejected.
type CorruptError struct {
	Path string // location inside the blob, e.g. "[2].text"
	Err  error
}

func (e *CorruptError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("corrupt task list: %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("corrupt task list: %s", e.Err)
}

// Unwrap returns the underlying error.
func (e *CorruptError) Unwrap() error {
	return e.Err
}
