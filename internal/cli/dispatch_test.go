package cli_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"todo/internal/backend/filestore"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/storage"
	"todo/internal/task"
	"todo/internal/testutil"
)

// testFactory creates a store factory that returns the given FakeStore.
func testFactory(fake *testutil.FakeStore) cli.StoreFactory {
	return func(ctx context.Context, cfg *config.Config) (storage.Adapter, error) {
		return fake, nil
	}
}

// isolate keeps the developer's environment and config out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		config.EnvDataDir, config.EnvLogLevel, config.EnvLogFormat,
		config.EnvWriteTimeout, config.EnvDotEnv,
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg-data"))
	return dir
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	_, stderr, code := run(t, dispatcher, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	_, stderr, code := run(t, dispatcher, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dir := isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	stdout, stderr, code := run(t, dispatcher, "help", "--config", dir)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	dir := isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	stdout, stderr, code := run(t, dispatcher, "version", "--config", dir)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todo 0.1.0\n" {
		t.Errorf("expected 'todo 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	_, stderr, code := run(t, dispatcher, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	_, stderr, code := run(t, dispatcher, "list", "--config")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -config\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsLists(t *testing.T) {
	isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	stdout, stderr, code := run(t, dispatcher)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected %q, got %q", "no tasks found\n", stdout)
	}
}

func TestDispatcher_AddThenList(t *testing.T) {
	dir := isolate(t)
	fake := testutil.NewFakeStore()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(fake))

	if _, stderr, code := run(t, dispatcher, "add", "--config", dir, "Buy", "milk"); code != exitcode.Success {
		t.Fatalf("add failed with %d: %s", code, stderr)
	}
	if _, stderr, code := run(t, dispatcher, "create", "--config", dir, "--quiet", "Walk dog"); code != exitcode.Success {
		t.Fatalf("create failed with %d: %s", code, stderr)
	}

	stdout, _, code := run(t, dispatcher, "list", "--config", dir)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   1  [ ] Walk dog\n   2  [ ] Buy milk\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestDispatcher_PersistenceFailure(t *testing.T) {
	dir := isolate(t)
	fake := testutil.NewFakeStore()
	fake.SetErr = errors.New("disk full")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(fake))

	stdout, stderr, code := run(t, dispatcher, "add", "--config", dir, "Buy milk")

	if code != exitcode.StorageError {
		t.Errorf("expected exit code %d, got %d", exitcode.StorageError, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected %q, got %q", "ok\n", stdout)
	}
	if !strings.Contains(stderr, "warning: save tasks: ") || !strings.Contains(stderr, "disk full") {
		t.Errorf("expected persistence warning, got %q", stderr)
	}
}

func TestDispatcher_HydrationFailureContinuesEmpty(t *testing.T) {
	dir := isolate(t)
	fake := testutil.NewFakeStore()
	fake.Put(task.StorageKey, []byte("{not json"))
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(fake))

	stdout, stderr, code := run(t, dispatcher, "list", "--config", dir)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stderr, "warning: load tasks: ") {
		t.Errorf("expected hydration warning, got %q", stderr)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected %q, got %q", "no tasks found\n", stdout)
	}
	if n := fake.SetCalls(); n != 0 {
		t.Errorf("expected the corrupt blob to be left alone, got %d writes", n)
	}
}

func TestDispatcher_FactoryError(t *testing.T) {
	dir := isolate(t)
	factory := func(ctx context.Context, cfg *config.Config) (storage.Adapter, error) {
		return nil, errors.New("read-only file system")
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	_, stderr, code := run(t, dispatcher, "list", "--config", dir)

	if code != exitcode.StorageError {
		t.Errorf("expected exit code %d, got %d", exitcode.StorageError, code)
	}
	expected := "error: storage error: read-only file system\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NilFactory(t *testing.T) {
	dir := isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, _, code := run(t, dispatcher, "list", "--config", dir)

	if code != exitcode.StorageError {
		t.Errorf("expected exit code %d, got %d", exitcode.StorageError, code)
	}
}

func TestDispatcher_MalformedConfig(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("data_dir = ["), 0o600); err != nil {
		t.Fatal(err)
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	_, stderr, code := run(t, dispatcher, "list", "--config", dir)

	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d, got %d", exitcode.ConfigError, code)
	}
	if !strings.HasPrefix(stderr, "error: loading config file ") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestDispatcher_InvalidLogLevel(t *testing.T) {
	dir := isolate(t)
	t.Setenv(config.EnvLogLevel, "loud")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	_, stderr, code := run(t, dispatcher, "list", "--config", dir)

	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d, got %d", exitcode.ConfigError, code)
	}
	if stderr != "error: invalid log level: loud\n" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestDispatcher_DebugLogsToStderr(t *testing.T) {
	dir := isolate(t)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeStore()))

	_, stderr, code := run(t, dispatcher, "add", "--config", dir, "--debug", "Buy milk")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stderr, "task added") {
		t.Errorf("expected debug logs on stderr, got %q", stderr)
	}
}

// The file store survives across dispatcher runs the way separate processes would.
func TestDispatcher_FileStoreRoundTrip(t *testing.T) {
	dir := isolate(t)
	dataDir := filepath.Join(dir, "data")
	t.Setenv(config.EnvDataDir, dataDir)
	factory := func(ctx context.Context, cfg *config.Config) (storage.Adapter, error) {
		store, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	for _, args := range [][]string{
		{"add", "--config", dir, "--quiet", "Buy milk"},
		{"add", "--config", dir, "--quiet", "Walk dog"},
		{"done", "--config", dir, "--quiet", "2"},
		{"rm", "--config", dir, "--quiet", "1"},
	} {
		if _, stderr, code := run(t, dispatcher, args...); code != exitcode.Success {
			t.Fatalf("%v failed with %d: %s", args, code, stderr)
		}
	}

	stdout, _, _ := run(t, dispatcher, "list", "--config", dir)
	expected := "   1  [x] Buy milk\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}

	store, err := filestore.New(dataDir)
	if err != nil {
		t.Fatalf("filestore.New failed: %v", err)
	}
	path, err := store.Path(task.StorageKey)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected list file on disk: %v", err)
	}
}

// watchCmd stands in for an interactive view: it reads notices until it
// returns and leaves a reader blocked on the channel afterwards.
type watchCmd struct{}

func (c *watchCmd) Name() string                   { return "watch" }
func (c *watchCmd) Aliases() []string              { return nil }
func (c *watchCmd) Synopsis() string               { return "" }
func (c *watchCmd) Usage() string                  { return "todo watch" }
func (c *watchCmd) NeedsStore() bool               { return true }
func (c *watchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *watchCmd) Run(ctx context.Context, cfg *config.Config, sess *commands.Session, args []string, out, errOut io.Writer) int {
	go func() {
		for range sess.Notices {
		}
	}()
	sess.Store.Add("Buy milk")
	return exitcode.Success
}

func TestDispatcher_FailedWriteAfterViewQuitsIsReported(t *testing.T) {
	dir := isolate(t)
	fake := testutil.NewFakeStore()
	fake.SetHook = func(string, []byte) { time.Sleep(100 * time.Millisecond) }
	fake.SetErr = errors.New("disk full")

	registry := commands.NewRegistry()
	if err := registry.Register(&watchCmd{}); err != nil {
		t.Fatal(err)
	}
	dispatcher := cli.NewDispatcher(registry, testFactory(fake))

	_, stderr, code := run(t, dispatcher, "watch", "--config", dir)

	if code != exitcode.StorageError {
		t.Errorf("expected exit code %d, got %d", exitcode.StorageError, code)
	}
	if !strings.Contains(stderr, "warning: save tasks: ") || !strings.Contains(stderr, "disk full") {
		t.Errorf("expected persistence warning, got %q", stderr)
	}
}
