package tui

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/EmundoT/pkgguard/internal/core"
	"github.com/EmundoT/pkgguard/internal/types"
)

// NonInteractiveTUICallback handles non-interactive mode output
type NonInteractiveTUICallback struct {
	flags core.NonInteractiveFlags
}

// NewNonInteractiveTUICallback creates a new non-interactive callback
func NewNonInteractiveTUICallback(flags core.NonInteractiveFlags) *NonInteractiveTUICallback {
	return &NonInteractiveTUICallback{flags: flags}
}

// ShowError displays an error message
func (n *NonInteractiveTUICallback) ShowError(title, message string) {
	if n.flags.Mode == core.OutputJSON {
		_ = n.FormatJSON(core.JSONOutput{
			Status: "error",
			Error: &core.JSONError{
				Title:   title,
				Message: message,
			},
		})
	} else if n.flags.Mode != core.OutputQuiet {
		// Print to stderr for non-quiet mode
		fmt.Fprintf(os.Stderr, "Error: %s - %s\n", title, message)
	}
}

// ShowSuccess displays a success message
func (n *NonInteractiveTUICallback) ShowSuccess(message string) {
	if n.flags.Mode == core.OutputJSON {
		_ = n.FormatJSON(core.JSONOutput{
			Status:  "success",
			Message: message,
		})
	} else if n.flags.Mode != core.OutputQuiet {
		fmt.Println(message)
	}
}

// ShowWarning displays a warning message
func (n *NonInteractiveTUICallback) ShowWarning(title, message string) {
	if n.flags.Mode == core.OutputJSON {
		_ = n.FormatJSON(core.JSONOutput{
			Status:  "warning",
			Message: fmt.Sprintf("%s: %s", title, message),
		})
	} else if n.flags.Mode != core.OutputQuiet {
		fmt.Fprintf(os.Stderr, "Warning: %s - %s\n", title, message)
	}
}

// ShowInfo displays an informational line in normal mode only.
func (n *NonInteractiveTUICallback) ShowInfo(message string) {
	if n.flags.Mode == core.OutputNormal {
		fmt.Println(message)
	}
}

// ShowStep prints one migration step line. JSON mode emits it as a step object.
func (n *NonInteractiveTUICallback) ShowStep(repository string, step types.MigrationStep) {
	switch n.flags.Mode {
	case core.OutputJSON:
		_ = n.FormatJSON(core.JSONOutput{
			Status:  stepStatus(step.Outcome),
			Message: fmt.Sprintf("%s %s %s", repository, step.Name, step.Outcome),
			Data: map[string]interface{}{
				"repository": repository,
				"step":       step,
			},
		})
	case core.OutputQuiet:
		if step.Outcome == types.StepFailed {
			fmt.Fprintf(os.Stderr, "%s %s FAILED: %s\n", repository, step.Name, step.Detail)
		}
	default:
		fmt.Printf("%s %s %s %s\n", repository, step.Name, step.Outcome, step.Detail)
	}
}

func stepStatus(outcome types.StepOutcome) string {
	switch outcome {
	case types.StepOK:
		return "success"
	case types.StepWarning:
		return "warning"
	default:
		return "error"
	}
}

// StartProgress returns text progress in normal mode and a no-op otherwise.
func (n *NonInteractiveTUICallback) StartProgress(total int, label string) core.ProgressTracker {
	if n.flags.Mode == core.OutputNormal {
		return NewTextProgressTracker(total, label)
	}
	return NewNoOpProgressTracker()
}

// AskConfirmation handles confirmation prompts
func (n *NonInteractiveTUICallback) AskConfirmation(title, message string) bool {
	if n.flags.Yes {
		return true // Auto-approve
	}
	// In non-interactive mode without --yes, fail for safety
	n.ShowError("Interactive Prompt Required",
		fmt.Sprintf("%s: %s\nUse --yes to auto-approve", title, message))
	return false
}

// StyleTitle returns a styled title (no styling in non-interactive mode)
func (n *NonInteractiveTUICallback) StyleTitle(title string) string {
	return title
}

// GetOutputMode returns the current output mode
func (n *NonInteractiveTUICallback) GetOutputMode() core.OutputMode {
	return n.flags.Mode
}

// IsAutoApprove returns whether auto-approve is enabled
func (n *NonInteractiveTUICallback) IsAutoApprove() bool {
	return n.flags.Yes
}

// FormatJSON formats and outputs JSON to stdout
func (n *NonInteractiveTUICallback) FormatJSON(output core.JSONOutput) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
