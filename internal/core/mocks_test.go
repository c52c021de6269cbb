package core

import (
	"context"
	"strings"

	"github.com/EmundoT/pkgguard/internal/types"
)

// ============================================================================
// FakeToolRunner
// ============================================================================

// toolCall records one ToolRunner invocation.
type toolCall struct {
	Dir     string
	Env     map[string]string
	Command string // name and args joined by spaces
}

// FakeToolRunner implements ToolRunner for testing. Responses are keyed by the
// joined command line; RunFunc overrides them when set.
type FakeToolRunner struct {
	RunFunc   func(dir string, env map[string]string, command string) (ToolResult, error)
	Responses map[string]ToolResult
	Errors    map[string]error

	// Call tracking
	Calls []toolCall
}

// Run implements ToolRunner
func (f *FakeToolRunner) Run(_ context.Context, dir string, env map[string]string, name string, args ...string) (ToolResult, error) {
	command := strings.Join(append([]string{name}, args...), " ")
	f.Calls = append(f.Calls, toolCall{Dir: dir, Env: env, Command: command})
	if f.RunFunc != nil {
		return f.RunFunc(dir, env, command)
	}
	return f.Responses[command], f.Errors[command]
}

// Commands returns the command lines run so far.
func (f *FakeToolRunner) Commands() []string {
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.Command
	}
	return out
}

// ============================================================================
// FakeSignalCollector
// ============================================================================

// FakeSignalCollector implements SignalCollectorInterface for testing.
type FakeSignalCollector struct {
	Signals map[string]types.RepositorySignals
	Errors  map[string]error

	// Call tracking
	Collected []string
}

// Collect implements SignalCollectorInterface
func (f *FakeSignalCollector) Collect(_ context.Context, repo types.RepositoryConfig) (types.RepositorySignals, error) {
	f.Collected = append(f.Collected, repo.Name)
	if err, ok := f.Errors[repo.Name]; ok {
		return types.RepositorySignals{}, err
	}
	return f.Signals[repo.Name], nil
}

// ============================================================================
// FakeProgressTracker
// ============================================================================

// FakeProgressTracker implements ProgressTracker for testing.
type FakeProgressTracker struct {
	Total      int
	Messages   []string
	Completed  bool
	FailedWith error
}

func (p *FakeProgressTracker) Increment(message string) { p.Messages = append(p.Messages, message) }
func (p *FakeProgressTracker) SetTotal(total int)       { p.Total = total }
func (p *FakeProgressTracker) Complete()                { p.Completed = true }
func (p *FakeProgressTracker) Fail(err error)           { p.FailedWith = err }

// ============================================================================
// RecordingUICallback
// ============================================================================

// RecordingUICallback captures UI output for assertions.
type RecordingUICallback struct {
	SilentUICallback
	Errors    []string
	Warnings  []string
	Successes []string
	Infos     []string
	Steps     []string // "repo Step OUTCOME"
	Progress  *FakeProgressTracker
	Confirm   bool
}

func (r *RecordingUICallback) ShowError(title, message string) {
	r.Errors = append(r.Errors, title+": "+message)
}

func (r *RecordingUICallback) ShowWarning(title, message string) {
	r.Warnings = append(r.Warnings, title+": "+message)
}

func (r *RecordingUICallback) ShowSuccess(message string) {
	r.Successes = append(r.Successes, message)
}

func (r *RecordingUICallback) ShowInfo(message string) {
	r.Infos = append(r.Infos, message)
}

func (r *RecordingUICallback) AskConfirmation(_, _ string) bool {
	return r.Confirm
}

func (r *RecordingUICallback) ShowStep(repository string, step types.MigrationStep) {
	r.Steps = append(r.Steps, repository+" "+string(step.Name)+" "+string(step.Outcome))
}

func (r *RecordingUICallback) StartProgress(total int, _ string) ProgressTracker {
	r.Progress = &FakeProgressTracker{Total: total}
	return r.Progress
}

// ============================================================================
// FakeFleetService
// ============================================================================

// FakeFleetService implements FleetServiceInterface for testing.
type FakeFleetService struct {
	AuditResult FleetAuditResult
	AuditErr    error
	Traces      []types.MigrationTrace

	// Call tracking
	AuditCalls   int
	MigratedWith []types.FleetSummary
}

// Audit implements FleetServiceInterface
func (f *FakeFleetService) Audit(_ context.Context) (FleetAuditResult, error) {
	f.AuditCalls++
	return f.AuditResult, f.AuditErr
}

// Migrate implements FleetServiceInterface
func (f *FakeFleetService) Migrate(_ context.Context, summary types.FleetSummary) ([]types.MigrationTrace, error) {
	f.MigratedWith = append(f.MigratedWith, summary)
	return f.Traces, nil
}
