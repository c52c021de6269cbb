package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/EmundoT/pkgguard/internal/metrics"
	"github.com/EmundoT/pkgguard/internal/telemetry"
	"github.com/EmundoT/pkgguard/internal/types"
)

// MigrationRun is the state shared by the steps of one repository migration.
// Steps may fill in fields for later steps (Audit sets Tier).
type MigrationRun struct {
	Repo      types.RepositoryConfig
	RunID     string
	Branch    string
	BackupDir string
	Tier      types.RiskTier
}

// MigrationSteps performs the external work behind each migration step.
// Each method returns a one-line detail for the trace. Returning a
// *StepWarning records WARNING without treating the step as failed.
//
//go:generate mockgen -source=migration_service.go -destination=migration_steps_mock_test.go -package=core
type MigrationSteps interface {
	Setup(ctx context.Context, run *MigrationRun) (string, error)
	Audit(ctx context.Context, run *MigrationRun) (string, error)
	Cleanup(ctx context.Context, run *MigrationRun) (string, error)
	ConfigInstall(ctx context.Context, run *MigrationRun) (string, error)
	ManifestUpdate(ctx context.Context, run *MigrationRun) (string, error)
	RegistryAuth(ctx context.Context, run *MigrationRun) (string, error)
	Install(ctx context.Context, run *MigrationRun) (string, error)
	Verify(ctx context.Context, run *MigrationRun) (string, error)
	BuildTest(ctx context.Context, run *MigrationRun) (string, error)
	Commit(ctx context.Context, run *MigrationRun) (string, error)
}

// StepWarning is returned by a step that completed with a reportable problem.
type StepWarning struct {
	Detail string
}

// NewStepWarning creates a StepWarning with a formatted detail.
func NewStepWarning(format string, args ...any) *StepWarning {
	return &StepWarning{Detail: fmt.Sprintf(format, args...)}
}

func (w *StepWarning) Error() string { return w.Detail }

// fatalSteps abort the remaining sequence when they fail. Every other step
// degrades to WARNING.
var fatalSteps = map[types.StepName]bool{
	types.StepSetup:          true,
	types.StepConfigInstall:  true,
	types.StepManifestUpdate: true,
}

// IsFatalStep reports whether a failure of step aborts the migration.
func IsFatalStep(step types.StepName) bool {
	return fatalSteps[step]
}

type stepFunc func(ctx context.Context, run *MigrationRun) (string, error)

// stepTable binds every step name to its implementation, in execution order.
func stepTable(s MigrationSteps) []struct {
	name types.StepName
	run  stepFunc
} {
	return []struct {
		name types.StepName
		run  stepFunc
	}{
		{types.StepSetup, s.Setup},
		{types.StepAudit, s.Audit},
		{types.StepCleanup, s.Cleanup},
		{types.StepConfigInstall, s.ConfigInstall},
		{types.StepManifestUpdate, s.ManifestUpdate},
		{types.StepRegistryAuth, s.RegistryAuth},
		{types.StepInstall, s.Install},
		{types.StepVerify, s.Verify},
		{types.StepBuildTest, s.BuildTest},
		{types.StepCommit, s.Commit},
	}
}

// MigrationServiceInterface defines the contract for migrating one repository.
type MigrationServiceInterface interface {
	Migrate(ctx context.Context, run *MigrationRun) types.MigrationTrace
}

// Compile-time interface satisfaction check.
var _ MigrationServiceInterface = (*MigrationService)(nil)

// MigrationService runs the migration steps of one repository as a linear
// state machine. Steps run strictly in order, each exactly once; the outcome
// of a step is recorded before the next one starts.
type MigrationService struct {
	steps   MigrationSteps
	ui      UICallback
	metrics *metrics.Recorder
	clock   Clock
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewMigrationService creates a new MigrationService. rec may be nil.
func NewMigrationService(steps MigrationSteps, ui UICallback, rec *metrics.Recorder, clock Clock, logger *slog.Logger) *MigrationService {
	if ui == nil {
		ui = &SilentUICallback{}
	}
	if clock == nil {
		clock = NewMonotonicClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MigrationService{
		steps:   steps,
		ui:      ui,
		metrics: rec,
		clock:   clock,
		tracer:  telemetry.Tracer(),
		logger:  logger,
	}
}

// SetTracer replaces the tracer taken from the global provider.
func (s *MigrationService) SetTracer(tracer trace.Tracer) {
	s.tracer = tracer
}

// Migrate executes the steps for run.Repo and returns the trace. A fatal
// failure ends the trace with that step FAILED and Aborted set; the steps
// after it are not executed and not recorded.
func (s *MigrationService) Migrate(ctx context.Context, run *MigrationRun) types.MigrationTrace {
	out := types.MigrationTrace{
		Repository: run.Repo.Name,
		RunID:      run.RunID,
		BackupDir:  run.BackupDir,
		Steps:      make([]types.MigrationStep, 0, len(types.MigrationStepOrder)),
	}

	ctx, span := s.tracer.Start(ctx, "migrate "+run.Repo.Name, trace.WithAttributes(
		attribute.String("pkgguard.repository", run.Repo.Name),
		attribute.String("pkgguard.run_id", run.RunID),
	))
	defer span.End()

	for _, st := range stepTable(s.steps) {
		step := s.runStep(ctx, run, st.name, st.run)
		out.Steps = append(out.Steps, step)
		s.ui.ShowStep(run.Repo.Name, step)

		if step.Outcome == types.StepFailed {
			out.Aborted = true
			span.SetStatus(codes.Error, fmt.Sprintf("%s failed", step.Name))
			s.logger.Error("migration aborted", "repository", run.Repo.Name, "step", step.Name, "detail", step.Detail)
			break
		}
		if step.Outcome == types.StepWarning {
			s.logger.Warn("migration step warning", "repository", run.Repo.Name, "step", step.Name, "detail", step.Detail)
		}
	}

	out.Tier = run.Tier
	span.SetAttributes(
		attribute.String("pkgguard.result", out.Result()),
		attribute.Bool("pkgguard.aborted", out.Aborted),
	)
	return out
}

// runStep executes one step inside its own span and classifies the result.
func (s *MigrationService) runStep(ctx context.Context, run *MigrationRun, name types.StepName, fn stepFunc) types.MigrationStep {
	ctx, span := s.tracer.Start(ctx, string(name), trace.WithAttributes(
		attribute.String("pkgguard.repository", run.Repo.Name),
		attribute.String("pkgguard.step", string(name)),
	))
	defer span.End()

	started := s.clock.Now()
	detail, err := fn(ctx, run)
	elapsed := s.clock.Now().Sub(started)

	step := types.MigrationStep{
		Name:       name,
		Outcome:    types.StepOK,
		Detail:     detail,
		StartedAt:  started.UTC().Format(time.RFC3339),
		DurationMS: elapsed.Milliseconds(),
	}

	var warning *StepWarning
	switch {
	case err == nil:
	case errors.As(err, &warning):
		step.Outcome = types.StepWarning
		step.Detail = warning.Detail
	case IsFatalStep(name):
		step.Outcome = types.StepFailed
		step.Detail = err.Error()
		span.RecordError(err)
	default:
		step.Outcome = types.StepWarning
		step.Detail = err.Error()
		span.RecordError(err)
	}

	span.SetAttributes(attribute.String("pkgguard.outcome", string(step.Outcome)))
	if step.Outcome != types.StepOK {
		span.SetStatus(codes.Error, step.Detail)
	}
	s.metrics.ObserveStep(string(name), string(step.Outcome), elapsed)
	return step
}
