package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ========================================
// Bubbletea progress model
// ========================================

// progressModel renders "label [bar] n/total - current repository".
type progressModel struct {
	current int
	total   int
	label   string
	message string
	started time.Time
	done    bool
	failed  bool
	err     error
	width   int
}

type (
	progressIncrementMsg struct{ message string }
	progressSetTotalMsg  struct{ total int }
	progressCompleteMsg  struct{}
	progressFailMsg      struct{ err error }
)

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case progressIncrementMsg:
		m.current++
		m.message = msg.message
	case progressSetTotalMsg:
		m.total = msg.total
	case progressCompleteMsg:
		m.done = true
		return m, tea.Quit
	case progressFailMsg:
		m.failed = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	switch {
	case m.done:
		line := fmt.Sprintf("✔ %s (%d/%d)", m.label, m.current, m.total)
		if !m.started.IsZero() {
			line += fmt.Sprintf(" in %s", time.Since(m.started).Round(time.Second))
		}
		return styleSuccess.Render(line)
	case m.failed:
		return styleErr.Render(fmt.Sprintf("✖ %s (failed: %v)", m.label, m.err))
	}

	barWidth := 40
	if m.width > 0 && m.width < 80 {
		barWidth = 20
	}
	filled := 0
	if m.total > 0 {
		filled = min(m.current*barWidth/m.total, barWidth)
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	status := fmt.Sprintf("[%s] %d/%d", bar, m.current, m.total)
	if m.message != "" {
		status += styleDim.Render(" " + m.message)
	}
	return styleTitle.Render(m.label) + "\n" + status
}

// ========================================
// BubbleteaProgressTracker
// ========================================

// BubbleteaProgressTracker draws a live progress bar while repositories are
// processed. Lines printed through Println appear above the bar.
type BubbleteaProgressTracker struct {
	program *tea.Program
	done    chan struct{}
}

// NewBubbleteaProgressTracker starts the progress program. It does not read
// keyboard input, so Ctrl+C still reaches the command's signal handler.
func NewBubbleteaProgressTracker(total int, label string) *BubbleteaProgressTracker {
	m := progressModel{total: total, label: label, started: time.Now()}
	p := tea.NewProgram(m, tea.WithInput(nil), tea.WithOutput(os.Stdout))

	t := &BubbleteaProgressTracker{program: p, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		_, _ = p.Run()
	}()
	return t
}

// Increment advances the bar and shows message as the current item.
func (t *BubbleteaProgressTracker) Increment(message string) {
	t.program.Send(progressIncrementMsg{message: message})
}

// SetTotal changes the number of expected items.
func (t *BubbleteaProgressTracker) SetTotal(total int) {
	t.program.Send(progressSetTotalMsg{total: total})
}

// Println prints a line above the progress bar.
func (t *BubbleteaProgressTracker) Println(line string) {
	t.program.Println(line)
}

// Complete renders the final line and waits for the program to exit.
func (t *BubbleteaProgressTracker) Complete() {
	t.program.Send(progressCompleteMsg{})
	t.wait()
}

// Fail renders err and waits for the program to exit.
func (t *BubbleteaProgressTracker) Fail(err error) {
	t.program.Send(progressFailMsg{err: err})
	t.wait()
}

// Finished reports whether the program has exited.
func (t *BubbleteaProgressTracker) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *BubbleteaProgressTracker) wait() {
	select {
	case <-t.done:
	case <-time.After(time.Second):
	}
}

// ========================================
// Text progress (non-TTY)
// ========================================

// TextProgressTracker prints one line per processed item.
type TextProgressTracker struct {
	current int
	total   int
	label   string
}

// NewTextProgressTracker prints the start line and returns the tracker.
func NewTextProgressTracker(total int, label string) *TextProgressTracker {
	fmt.Printf("%s: 0/%d\n", label, total)
	return &TextProgressTracker{total: total, label: label}
}

// Increment prints "  [n/total] message".
func (t *TextProgressTracker) Increment(message string) {
	t.current++
	line := fmt.Sprintf("  [%d/%d]", t.current, t.total)
	if message != "" {
		line += " " + message
	}
	fmt.Println(line)
}

// SetTotal changes the number of expected items.
func (t *TextProgressTracker) SetTotal(total int) {
	t.total = total
}

// Complete prints the summary line.
func (t *TextProgressTracker) Complete() {
	fmt.Printf("✔ %s: %d/%d done\n", t.label, t.current, t.total)
}

// Fail prints err.
func (t *TextProgressTracker) Fail(err error) {
	fmt.Printf("✖ %s: failed after %d/%d: %v\n", t.label, t.current, t.total, err)
}

// ========================================
// No-op progress (quiet / JSON)
// ========================================

// NoOpProgressTracker discards progress.
type NoOpProgressTracker struct{}

// NewNoOpProgressTracker returns a tracker that prints nothing.
func NewNoOpProgressTracker() *NoOpProgressTracker {
	return &NoOpProgressTracker{}
}

func (t *NoOpProgressTracker) Increment(_ string) {}
func (t *NoOpProgressTracker) SetTotal(_ int)     {}
func (t *NoOpProgressTracker) Complete()          {}
func (t *NoOpProgressTracker) Fail(_ error)       {}
