package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"todo/internal/task"
	"todo/internal/testutil"
)

func newTestModel(t *testing.T, texts ...string) (*Model, *task.Store, *testutil.FakeStore) {
	t.Helper()
	fake := testutil.NewFakeStore()
	n := 0
	st := task.NewStore(fake, task.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}))
	t.Cleanup(func() { st.Close(context.Background()) })
	if err := st.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	for _, text := range texts {
		st.Add(text)
	}
	return New(st, nil), st, fake
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m *Model, msgs ...tea.Msg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var model tea.Model
		model, cmd = m.Update(msg)
		if model != m {
			t.Fatalf("Update returned a different model")
		}
	}
	return cmd
}

func TestSubmit_AddsTrimmedTaskAndClearsInput(t *testing.T) {
	m, st, _ := newTestModel(t)

	m.input.SetValue("  Buy milk  ")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if st.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", st.Len())
	}
	if got := st.Tasks()[0].Text; got != "Buy milk" {
		t.Errorf("expected %q, got %q", "Buy milk", got)
	}
	if m.Input() != "" {
		t.Errorf("expected input cleared, got %q", m.Input())
	}
	if !strings.Contains(m.View(), "Buy milk") {
		t.Errorf("expected view to show the new task:\n%s", m.View())
	}
}

func TestSubmit_BlankKeepsInputAndDoesNotWrite(t *testing.T) {
	m, st, fake := newTestModel(t)

	m.input.SetValue("   ")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if err := st.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if st.Len() != 0 {
		t.Errorf("expected no tasks, got %d", st.Len())
	}
	if m.Input() != "   " {
		t.Errorf("expected input kept, got %q", m.Input())
	}
	if n := fake.SetCalls(); n != 0 {
		t.Errorf("expected no writes, got %d", n)
	}
}

func TestTyping_GoesToInput(t *testing.T) {
	m, _, _ := newTestModel(t)

	press(t, m, keyRunes("h"), keyRunes("i"))

	if m.Input() != "hi" {
		t.Errorf("expected input %q, got %q", "hi", m.Input())
	}
}

func TestListKeys_MoveAndToggle(t *testing.T) {
	// Newest first: Walk dog, Buy milk.
	m, st, _ := newTestModel(t, "Buy milk", "Walk dog")

	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	press(t, m, keyRunes("j"))
	if m.Cursor() != 1 {
		t.Fatalf("expected cursor 1, got %d", m.Cursor())
	}
	press(t, m, keyRunes("j"))
	if m.Cursor() != 1 {
		t.Errorf("expected cursor to stop at 1, got %d", m.Cursor())
	}

	press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	tasks := st.Tasks()
	if !tasks[1].IsCompleted || tasks[0].IsCompleted {
		t.Errorf("expected only Buy milk completed, got %+v", tasks)
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor() != 0 {
		t.Errorf("expected cursor 0, got %d", m.Cursor())
	}
}

func TestListKeys_DoNotTypeIntoInput(t *testing.T) {
	m, _, _ := newTestModel(t, "Buy milk")

	press(t, m, tea.KeyMsg{Type: tea.KeyTab}, keyRunes("j"), keyRunes("k"))

	if m.Input() != "" {
		t.Errorf("expected empty input, got %q", m.Input())
	}
}

func TestDelete_LeavesGhostUntilTicksRunOut(t *testing.T) {
	m, st, _ := newTestModel(t, "Buy milk", "Walk dog")
	m.ghostTicks = 2

	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	cmd := press(t, m, keyRunes("d"))

	if cmd == nil {
		t.Fatal("expected a tick command")
	}
	if _, ok := st.Find("t2"); ok {
		t.Fatal("expected Walk dog deleted from the store immediately")
	}
	if m.Ghosts() != 1 {
		t.Fatalf("expected 1 ghost, got %d", m.Ghosts())
	}
	if !strings.Contains(m.View(), "Walk dog") {
		t.Errorf("expected ghost row in view:\n%s", m.View())
	}

	if cmd := press(t, m, ghostTickMsg(time.Now())); cmd == nil {
		t.Error("expected another tick while the ghost remains")
	}
	if cmd := press(t, m, ghostTickMsg(time.Now())); cmd != nil {
		t.Error("expected ticking to stop")
	}
	if m.Ghosts() != 0 {
		t.Errorf("expected no ghosts, got %d", m.Ghosts())
	}
	if strings.Contains(m.View(), "Walk dog") {
		t.Errorf("expected ghost gone from view:\n%s", m.View())
	}
}

func TestDelete_SecondDeleteSharesTicker(t *testing.T) {
	m, st, _ := newTestModel(t, "a", "b", "c")

	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if cmd := press(t, m, keyRunes("x")); cmd == nil {
		t.Fatal("expected first delete to start ticking")
	}
	if cmd := press(t, m, keyRunes("x")); cmd != nil {
		t.Error("expected second delete to reuse the running ticker")
	}
	if st.Len() != 1 {
		t.Errorf("expected 1 task left, got %d", st.Len())
	}
	if m.Ghosts() != 2 {
		t.Errorf("expected 2 ghosts, got %d", m.Ghosts())
	}
}

func TestDelete_NoAnimation(t *testing.T) {
	m, _, _ := newTestModel(t, "a")
	m.ghostTicks = 0

	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if cmd := press(t, m, keyRunes("d")); cmd != nil {
		t.Error("expected no tick command")
	}
	if m.Ghosts() != 0 {
		t.Errorf("expected no ghosts, got %d", m.Ghosts())
	}
}

func TestDelete_EmptyListIsNoop(t *testing.T) {
	m, st, fake := newTestModel(t)

	press(t, m, tea.KeyMsg{Type: tea.KeyTab}, keyRunes("d"), tea.KeyMsg{Type: tea.KeySpace})
	if err := st.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if n := fake.SetCalls(); n != 0 {
		t.Errorf("expected no writes, got %d", n)
	}
}

func TestRows_GhostKeepsPosition(t *testing.T) {
	m, _, _ := newTestModel(t, "c", "b", "a") // a, b, c

	press(t, m, tea.KeyMsg{Type: tea.KeyTab}, keyRunes("j"), keyRunes("d"))

	rows := m.rows()
	var got []string
	for _, r := range rows {
		got = append(got, fmt.Sprintf("%s:%v", r.task.Text, r.ghost))
	}
	want := "a:false b:true c:false"
	if strings.Join(got, " ") != want {
		t.Errorf("expected %q, got %q", want, strings.Join(got, " "))
	}
}

func TestReports_ShowInStatusLine(t *testing.T) {
	m, _, _ := newTestModel(t)
	reports := make(chan error, 1)
	m.reports = reports

	cmd := press(t, m, reportMsg{err: &task.PersistenceError{Err: errors.New("disk full")}})

	if m.Status() != "warning: save tasks: disk full" {
		t.Errorf("unexpected status %q", m.Status())
	}
	if cmd == nil {
		t.Fatal("expected the model to keep listening")
	}
	close(reports)
	if _, ok := cmd().(reportsClosedMsg); !ok {
		t.Error("expected reportsClosedMsg after close")
	}
}

func TestWithNotice(t *testing.T) {
	_, st, _ := newTestModel(t)
	m := New(st, nil, WithNotice(&task.HydrationError{Err: errors.New("bad json")}))

	if m.Status() != "warning: load tasks: bad json" {
		t.Errorf("unexpected status %q", m.Status())
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)

	// q types into the input while it has focus.
	press(t, m, keyRunes("q"))
	if m.Input() != "q" {
		t.Fatalf("expected q in the input, got %q", m.Input())
	}

	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyTab}, keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestCtrlCQuitsFromInput(t *testing.T) {
	m, _, _ := newTestModel(t)

	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestClampCursor(t *testing.T) {
	tests := []struct{ cursor, n, want int }{
		{0, 0, 0},
		{3, 0, 0},
		{-1, 2, 0},
		{1, 2, 1},
		{2, 2, 1},
	}
	for _, tt := range tests {
		if got := clampCursor(tt.cursor, tt.n); got != tt.want {
			t.Errorf("clampCursor(%d, %d) = %d, want %d", tt.cursor, tt.n, got, tt.want)
		}
	}
}
