// Package ui provides the interactive terminal view over a task.Store.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"todo/internal/task"
)

const (
	// DefaultGhostTicks is how many ticks a deleted row stays on screen.
	DefaultGhostTicks = 3

	// DefaultTickInterval paces the delete animation.
	DefaultTickInterval = 120 * time.Millisecond

	maxTextLen = 256
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	doneStyle   = lipgloss.NewStyle().Faint(true)
	ghostStyle  = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the model's logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithNotice shows err in the status line on start, typically a hydration failure.
func WithNotice(err error) Option {
	return func(m *Model) {
		if err != nil {
			m.status = "warning: " + err.Error()
		}
	}
}

// WithGhostTicks sets how long deleted rows linger.
func WithGhostTicks(n int) Option {
	return func(m *Model) {
		if n >= 0 {
			m.ghostTicks = n
		}
	}
}

// WithTickInterval sets the delete animation pace.
func WithTickInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.tickInterval = d
		}
	}
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, store *task.Store, reports <-chan error, out io.Writer, opts ...Option) error {
	if !IsTTY(out) {
		return errors.New("tui requires a terminal")
	}
	model := New(store, reports, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(out))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

type focus int

const (
	focusInput focus = iota
	focusList
)

// ghost is a deleted task kept on screen until its ticks run out.
type ghost struct {
	task  task.Task
	index int
	ticks int
}

type ghostTickMsg time.Time

type reportMsg struct {
	err error
}

type reportsClosedMsg struct{}

// Model is the bubbletea model. The store owns the list; the model owns the
// pending input, the cursor, and the delete animation.
type Model struct {
	store   *task.Store
	reports <-chan error
	logger  *log.Logger

	input  textinput.Model
	tasks  []task.Task
	ghosts []ghost
	cursor int
	focus  focus
	status string

	ghostTicks   int
	tickInterval time.Duration
	ticking      bool
}

// New creates a model showing store's current list.
func New(store *task.Store, reports <-chan error, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = maxTextLen
	ti.Width = 50
	ti.Focus()

	m := &Model{
		store:        store,
		reports:      reports,
		logger:       log.New(io.Discard),
		input:        ti,
		tasks:        store.Tasks(),
		focus:        focusInput,
		ghostTicks:   DefaultGhostTicks,
		tickInterval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.reports != nil {
		cmds = append(cmds, waitForReport(m.reports))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.String() == "tab" {
			m.switchFocus()
			return m, nil
		}
		if m.focus == focusInput {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	case tea.WindowSizeMsg:
		m.input.Width = max(20, msg.Width-10)
	case ghostTickMsg:
		return m, m.ageGhosts()
	case reportMsg:
		m.status = "warning: " + msg.err.Error()
		return m, waitForReport(m.reports)
	case reportsClosedMsg:
		m.reports = nil
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.submit()
		return m, nil
	case "esc":
		m.switchFocus()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case " ", "space", "enter":
		m.toggle()
	case "d", "x":
		return m, m.delete()
	case "a", "i":
		m.switchFocus()
	}
	return m, nil
}

// submit hands the pending input to the store. Blank input is ignored.
func (m *Model) submit() {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return
	}
	t, ok := m.store.Add(text)
	if !ok {
		m.status = "task list not loaded"
		return
	}
	m.logger.Debug("submitted", "id", t.ID)
	m.input.SetValue("")
	m.refresh()
	m.cursor = 0
}

func (m *Model) toggle() {
	t, ok := m.selected()
	if !ok {
		return
	}
	m.store.Toggle(t.ID)
	m.refresh()
}

// delete removes the selected task from the store at once and keeps a ghost
// row for the animation.
func (m *Model) delete() tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	index := m.cursor
	m.store.Delete(t.ID)
	m.refresh()

	if m.ghostTicks == 0 {
		return nil
	}
	m.ghosts = append(m.ghosts, ghost{task: t, index: index, ticks: m.ghostTicks})
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.tick()
}

func (m *Model) ageGhosts() tea.Cmd {
	kept := m.ghosts[:0]
	for _, g := range m.ghosts {
		g.ticks--
		if g.ticks > 0 {
			kept = append(kept, g)
		}
	}
	m.ghosts = kept
	if len(m.ghosts) == 0 {
		m.ticking = false
		return nil
	}
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.tickInterval, func(t time.Time) tea.Msg {
		return ghostTickMsg(t)
	})
}

func (m *Model) refresh() {
	m.tasks = m.store.Tasks()
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

func (m *Model) selected() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return task.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *Model) switchFocus() {
	if m.focus == focusInput {
		m.focus = focusList
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

// Input returns the pending input text.
func (m *Model) Input() string {
	return m.input.Value()
}

// Status returns the status line text.
func (m *Model) Status() string {
	return m.status
}

// Cursor returns the selected row among live tasks.
func (m *Model) Cursor() int {
	return m.cursor
}

// Ghosts returns the number of deleted rows still on screen.
func (m *Model) Ghosts() int {
	return len(m.ghosts)
}

type row struct {
	task  task.Task
	ghost bool
	live  int // index among live tasks, -1 for ghosts
}

// rows merges live tasks and ghosts, each ghost at its old position.
func (m *Model) rows() []row {
	rows := make([]row, 0, len(m.tasks)+len(m.ghosts))
	for i, t := range m.tasks {
		rows = append(rows, row{task: t, live: i})
	}
	for _, g := range m.ghosts {
		at := min(g.index, len(rows))
		rows = append(rows, row{})
		copy(rows[at+1:], rows[at:])
		rows[at] = row{task: g.task, ghost: true, live: -1}
	}
	return rows
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Todo") + "\n\n")
	b.WriteString(m.input.View() + "\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString(hintStyle.Render("  No tasks yet.") + "\n")
	}
	for _, r := range rows {
		b.WriteString(m.renderRow(r) + "\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	b.WriteString(hintStyle.Render(m.hint()) + "\n")
	return b.String()
}

func (m *Model) renderRow(r row) string {
	box := "[ ]"
	if r.task.IsCompleted {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %s", box, r.task.Text)

	switch {
	case r.ghost:
		return "  " + ghostStyle.Render(line)
	case m.focus == focusList && r.live == m.cursor:
		return cursorStyle.Render("> " + line)
	case r.task.IsCompleted:
		return "  " + doneStyle.Render(line)
	default:
		return "  " + line
	}
}

func (m *Model) hint() string {
	if m.focus == focusInput {
		return "enter add | tab list | ctrl+c quit"
	}
	return "space toggle | d delete | a add | tab input | q quit"
}

func waitForReport(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return reportsClosedMsg{}
		}
		return reportMsg{err: err}
	}
}

func clampCursor(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
