package core

import "github.com/EmundoT/pkgguard/internal/types"

// UICallback handles user-facing output for audits and migrations.
type UICallback interface {
	ShowError(title, message string)
	ShowSuccess(message string)
	ShowWarning(title, message string)
	ShowInfo(message string)
	AskConfirmation(title, message string) bool
	StyleTitle(title string) string

	// ShowStep prints the one line recorded for each finished migration step.
	ShowStep(repository string, step types.MigrationStep)

	// StartProgress begins a progress display for total units of work.
	StartProgress(total int, label string) ProgressTracker

	GetOutputMode() OutputMode
	IsAutoApprove() bool
	FormatJSON(output JSONOutput) error
}

// ProgressTracker reports progress of a multi-repository operation.
type ProgressTracker interface {
	Increment(message string)
	SetTotal(total int)
	Complete()
	Fail(err error)
}

// SilentUICallback is a no-op implementation (for testing/CI)
type SilentUICallback struct{}

func (s *SilentUICallback) ShowError(title, message string)                  {}
func (s *SilentUICallback) ShowSuccess(message string)                       {}
func (s *SilentUICallback) ShowWarning(title, message string)                {}
func (s *SilentUICallback) ShowInfo(message string)                          {}
func (s *SilentUICallback) AskConfirmation(title, msg string) bool           { return false }
func (s *SilentUICallback) StyleTitle(title string) string                   { return title }
func (s *SilentUICallback) ShowStep(repository string, step types.MigrationStep) {}
func (s *SilentUICallback) StartProgress(total int, label string) ProgressTracker {
	return noopProgress{}
}
func (s *SilentUICallback) GetOutputMode() OutputMode          { return OutputNormal }
func (s *SilentUICallback) IsAutoApprove() bool                { return false }
func (s *SilentUICallback) FormatJSON(output JSONOutput) error { return nil }

type noopProgress struct{}

func (noopProgress) Increment(string) {}
func (noopProgress) SetTotal(int)     {}
func (noopProgress) Complete()        {}
func (noopProgress) Fail(error)       {}

// OutputMode selects how a command reports to the terminal.
type OutputMode int

const (
	OutputNormal OutputMode = iota // styled tables and step lines
	OutputQuiet                    // errors and failed steps only
	OutputJSON                     // one JSON document per message on stdout
)

func (m OutputMode) String() string {
	switch m {
	case OutputQuiet:
		return "quiet"
	case OutputJSON:
		return "json"
	default:
		return "normal"
	}
}

// NonInteractiveFlags carries --yes and the output mode to NonInteractiveTUICallback.
type NonInteractiveFlags struct {
	Yes  bool
	Mode OutputMode
}

// JSONOutput is one message emitted by the JSON output mode.
type JSONOutput struct {
	Status  string                 `json:"status"` // success, warning or error
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *JSONError             `json:"error,omitempty"`
}

// JSONError is the error part of a JSONOutput.
type JSONError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
