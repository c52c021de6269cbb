// Package tui provides terminal user interface components and callbacks for pkgguard.
package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/EmundoT/pkgguard/internal/core"
	"github.com/EmundoT/pkgguard/internal/types"
)

// Compile-time interface satisfaction checks.
var (
	_ core.UICallback = (*TUICallback)(nil)
	_ core.UICallback = (*NonInteractiveTUICallback)(nil)
)

// TUICallback implements UICallback for interactive terminal use with styled output.
//
//nolint:revive // Name TUICallback is intentional and descriptive
type TUICallback struct {
	progress *BubbleteaProgressTracker // live bar, if any
}

// NewTUICallback creates a new interactive terminal UI callback.
func NewTUICallback() *TUICallback {
	return &TUICallback{}
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ShowError displays an error message with styled output.
func (t *TUICallback) ShowError(title, message string) {
	PrintError(title, message)
}

// ShowSuccess displays a success message with styled output.
func (t *TUICallback) ShowSuccess(message string) {
	PrintSuccess(message)
}

// ShowWarning displays a warning message with styled output.
func (t *TUICallback) ShowWarning(title, message string) {
	PrintWarning(title, message)
}

// ShowInfo displays a dimmed informational line.
func (t *TUICallback) ShowInfo(message string) {
	PrintInfo(message)
}

// ShowStep prints the line recorded for a finished migration step.
// While a progress bar is drawn the line is printed above it.
func (t *TUICallback) ShowStep(repository string, step types.MigrationStep) {
	line := FormatStep(repository, step)
	if t.progress != nil && !t.progress.Finished() {
		t.progress.Println(line)
		return
	}
	fmt.Println(line)
}

// StartProgress returns a bubbletea progress bar on a terminal and plain
// text progress otherwise.
func (t *TUICallback) StartProgress(total int, label string) core.ProgressTracker {
	if IsTerminal() {
		t.progress = NewBubbleteaProgressTracker(total, label)
		return t.progress
	}
	return NewTextProgressTracker(total, label)
}

// AskConfirmation prompts the user for yes/no confirmation.
func (t *TUICallback) AskConfirmation(title, message string) bool {
	var confirm bool
	err := huh.NewConfirm().
		Title(title).
		Description(message).
		Value(&confirm).
		Affirmative("Yes").
		Negative("No").
		Run()
	if err != nil {
		return false
	}
	return confirm
}

// StyleTitle returns a styled title string for terminal output.
func (t *TUICallback) StyleTitle(title string) string {
	return StyleTitle(title)
}

// GetOutputMode returns the output mode (normal for interactive TUI)
func (t *TUICallback) GetOutputMode() core.OutputMode {
	return core.OutputNormal
}

// IsAutoApprove returns whether auto-approve is enabled (always false for interactive mode)
func (t *TUICallback) IsAutoApprove() bool {
	return false
}

// FormatJSON is not used in interactive mode
func (t *TUICallback) FormatJSON(_ core.JSONOutput) error {
	return nil
}
