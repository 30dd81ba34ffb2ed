package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// UpdateGoldenEnv names the variable that rewrites golden files instead of comparing.
const UpdateGoldenEnv = "UPDATE_GOLDEN"

// Golden compares output against testdata/<name>.golden.
// Line endings are normalised so files checked out on Windows still match.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()
	goldenIn(t, "testdata", name, got)
}

func goldenIn(t *testing.T, dir, name string, got []byte) {
	t.Helper()

	path := filepath.Join(dir, name+".golden")

	if os.Getenv(UpdateGoldenEnv) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("update golden file: %v", err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden file %s: %v\n(set %s=1 to create it)\nGot:\n%s", path, err, UpdateGoldenEnv, got)
	}

	want = bytes.ReplaceAll(want, []byte("\r\n"), []byte("\n"))
	if !bytes.Equal(got, want) {
		t.Errorf("output mismatch for %s\nWant:\n%s\nGot:\n%s", name, want, got)
	}
}

// GoldenString is like Golden but takes a string.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()
	Golden(t, name, []byte(got))
}
