package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/golang/mock/gomock"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/EmundoT/pkgguard/internal/metrics"
	"github.com/EmundoT/pkgguard/internal/telemetry"
	"github.com/EmundoT/pkgguard/internal/types"
)

// ============================================================================
// Helpers
// ============================================================================

type migrationFixture struct {
	steps    *MockMigrationSteps
	ui       *RecordingUICallback
	metrics  *metrics.Recorder
	exporter *tracetest.InMemoryExporter
	svc      *MigrationService
}

func newMigrationFixture(t *testing.T) *migrationFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &migrationFixture{
		steps:    NewMockMigrationSteps(ctrl),
		ui:       &RecordingUICallback{},
		metrics:  metrics.NewRecorder(),
		exporter: tracetest.NewInMemoryExporter(),
	}
	f.svc = NewMigrationService(f.steps, f.ui, f.metrics, newStepClock(), nil)
	provider := telemetry.NewProvider(f.exporter, "test")
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	f.svc.SetTracer(provider.Tracer(telemetry.TracerName))
	return f
}

func newRun() *MigrationRun {
	return &MigrationRun{
		Repo:      types.RepositoryConfig{Name: "web", Path: "/repos/web"},
		RunID:     "run-1",
		Branch:    "pkgguard/pnpm",
		BackupDir: "/out/backups/run-1/web",
	}
}

// expectOK makes every listed step succeed with "ok".
func (f *migrationFixture) expectOK(names ...types.StepName) {
	for _, name := range names {
		f.expect(name).Return("ok", nil)
	}
}

func (f *migrationFixture) expect(name types.StepName) *gomock.Call {
	r := f.steps.EXPECT()
	switch name {
	case types.StepSetup:
		return r.Setup(gomock.Any(), gomock.Any())
	case types.StepAudit:
		return r.Audit(gomock.Any(), gomock.Any())
	case types.StepCleanup:
		return r.Cleanup(gomock.Any(), gomock.Any())
	case types.StepConfigInstall:
		return r.ConfigInstall(gomock.Any(), gomock.Any())
	case types.StepManifestUpdate:
		return r.ManifestUpdate(gomock.Any(), gomock.Any())
	case types.StepRegistryAuth:
		return r.RegistryAuth(gomock.Any(), gomock.Any())
	case types.StepInstall:
		return r.Install(gomock.Any(), gomock.Any())
	case types.StepVerify:
		return r.Verify(gomock.Any(), gomock.Any())
	case types.StepBuildTest:
		return r.BuildTest(gomock.Any(), gomock.Any())
	default:
		return r.Commit(gomock.Any(), gomock.Any())
	}
}

func stepNames(trace types.MigrationTrace) []types.StepName {
	out := make([]types.StepName, len(trace.Steps))
	for i, s := range trace.Steps {
		out[i] = s.Name
	}
	return out
}

// ============================================================================
// Sequencing
// ============================================================================

func TestMigrate_AllStepsOK(t *testing.T) {
	f := newMigrationFixture(t)

	var calls []types.StepName
	for _, name := range types.MigrationStepOrder {
		f.expect(name).DoAndReturn(func(context.Context, *MigrationRun) (string, error) {
			calls = append(calls, name)
			return "ok", nil
		})
	}

	trace := f.svc.Migrate(context.Background(), newRun())

	if !reflect.DeepEqual(calls, types.MigrationStepOrder) {
		t.Errorf("execution order = %v", calls)
	}
	if !reflect.DeepEqual(stepNames(trace), types.MigrationStepOrder) {
		t.Errorf("trace order = %v", stepNames(trace))
	}
	if trace.Aborted || trace.Result() != types.MigrationResultPass {
		t.Errorf("expected PASS, got %s aborted=%v", trace.Result(), trace.Aborted)
	}
	if trace.Repository != "web" || trace.RunID != "run-1" || trace.BackupDir != "/out/backups/run-1/web" {
		t.Errorf("trace identity = %+v", trace)
	}
	if len(f.ui.Steps) != 10 || f.ui.Steps[0] != "web Setup OK" {
		t.Errorf("ui lines = %v", f.ui.Steps)
	}
}

func TestMigrate_StepTiming(t *testing.T) {
	f := newMigrationFixture(t)
	f.expectOK(types.MigrationStepOrder...)

	trace := f.svc.Migrate(context.Background(), newRun())

	first := trace.Steps[0]
	if first.StartedAt != "2026-03-01T09:00:00Z" {
		t.Errorf("StartedAt = %q", first.StartedAt)
	}
	if first.DurationMS != 1000 {
		t.Errorf("DurationMS = %d, want 1000 with a one-second step clock", first.DurationMS)
	}
	if trace.Steps[1].StartedAt != "2026-03-01T09:00:02Z" {
		t.Errorf("second step must start after the first ended, got %q", trace.Steps[1].StartedAt)
	}
}

func TestMigrate_FatalStepAborts(t *testing.T) {
	for _, fatal := range []types.StepName{types.StepSetup, types.StepConfigInstall, types.StepManifestUpdate} {
		t.Run(string(fatal), func(t *testing.T) {
			f := newMigrationFixture(t)

			var before []types.StepName
			for _, name := range types.MigrationStepOrder {
				if name == fatal {
					break
				}
				before = append(before, name)
			}
			f.expectOK(before...)
			f.expect(fatal).Return("", errors.New("boom"))
			// Later steps have no expectation: gomock fails the test if they run.

			trace := f.svc.Migrate(context.Background(), newRun())

			if !trace.Aborted {
				t.Fatal("expected Aborted")
			}
			if len(trace.Steps) != len(before)+1 {
				t.Fatalf("expected %d steps, got %v", len(before)+1, stepNames(trace))
			}
			last := trace.Steps[len(trace.Steps)-1]
			if last.Name != fatal || last.Outcome != types.StepFailed || last.Detail != "boom" {
				t.Errorf("last step = %+v", last)
			}
			if trace.Result() != types.MigrationResultFail {
				t.Errorf("Result = %s", trace.Result())
			}
		})
	}
}

func TestMigrate_NonFatalFailureContinues(t *testing.T) {
	nonFatal := []types.StepName{
		types.StepAudit, types.StepCleanup, types.StepRegistryAuth,
		types.StepInstall, types.StepVerify, types.StepBuildTest, types.StepCommit,
	}
	for _, failing := range nonFatal {
		t.Run(string(failing), func(t *testing.T) {
			f := newMigrationFixture(t)
			for _, name := range types.MigrationStepOrder {
				if name == failing {
					f.expect(name).Return("", NewCollaboratorFailure("pnpm install", 1, "ERR_PNPM", errors.New("exit status 1")))
					continue
				}
				f.expectOK(name)
			}

			trace := f.svc.Migrate(context.Background(), newRun())

			if trace.Aborted || len(trace.Steps) != 10 {
				t.Fatalf("sequence must continue, got %v aborted=%v", stepNames(trace), trace.Aborted)
			}
			warnings := trace.Warnings()
			if len(warnings) != 1 || warnings[0].Name != failing {
				t.Errorf("warnings = %+v", warnings)
			}
			if trace.Result() != types.MigrationResultWarn {
				t.Errorf("Result = %s", trace.Result())
			}
		})
	}
}

func TestMigrate_StepWarningKeepsDetail(t *testing.T) {
	f := newMigrationFixture(t)
	for _, name := range types.MigrationStepOrder {
		if name == types.StepCleanup {
			f.expect(name).Return("", NewStepWarning("snapshot failed: %s; nothing deleted", "disk full"))
			continue
		}
		f.expectOK(name)
	}

	trace := f.svc.Migrate(context.Background(), newRun())

	cleanup := trace.Steps[2]
	if cleanup.Outcome != types.StepWarning || cleanup.Detail != "snapshot failed: disk full; nothing deleted" {
		t.Errorf("cleanup = %+v", cleanup)
	}
}

func TestMigrate_WarningFromFatalStepIsNotFatal(t *testing.T) {
	f := newMigrationFixture(t)
	for _, name := range types.MigrationStepOrder {
		if name == types.StepConfigInstall {
			f.expect(name).Return("", NewStepWarning("policy file missing, default policy in effect"))
			continue
		}
		f.expectOK(name)
	}

	trace := f.svc.Migrate(context.Background(), newRun())
	if trace.Aborted || len(trace.Steps) != 10 {
		t.Errorf("a warning must not abort, got %v", stepNames(trace))
	}
}

func TestMigrate_TierFromAuditStep(t *testing.T) {
	f := newMigrationFixture(t)
	for _, name := range types.MigrationStepOrder {
		if name == types.StepAudit {
			f.expect(name).DoAndReturn(func(_ context.Context, run *MigrationRun) (string, error) {
				run.Tier = types.RiskHigh
				return "tier HIGH", nil
			})
			continue
		}
		f.expectOK(name)
	}

	trace := f.svc.Migrate(context.Background(), newRun())
	if trace.Tier != types.RiskHigh {
		t.Errorf("Tier = %q", trace.Tier)
	}
}

// ============================================================================
// Observability
// ============================================================================

func TestMigrate_OneSpanAndMetricPerStep(t *testing.T) {
	f := newMigrationFixture(t)
	f.expectOK(types.StepSetup, types.StepAudit, types.StepCleanup)
	f.expect(types.StepConfigInstall).Return("", errors.New("template missing"))

	f.svc.Migrate(context.Background(), newRun())

	spans := f.exporter.GetSpans()
	if len(spans) != 5 {
		t.Fatalf("expected 4 step spans and 1 repository span, got %d", len(spans))
	}
	root := spans[len(spans)-1]
	if root.Name != "migrate web" {
		t.Errorf("root span = %q", root.Name)
	}
	for _, s := range spans[:4] {
		if s.Parent.SpanID() != root.SpanContext.SpanID() {
			t.Errorf("span %q is not a child of the repository span", s.Name)
		}
	}
	if spans[3].Name != string(types.StepConfigInstall) || len(spans[3].Events) == 0 {
		t.Errorf("failed step span should record the error, got %+v", spans[3])
	}

	n, err := promtest.GatherAndCount(f.metrics.Registry(), "pkgguard_migration_steps_total")
	if err != nil || n != 4 {
		t.Errorf("expected 4 step series, got %d (%v)", n, err)
	}
	if len(f.ui.Steps) != 4 || f.ui.Steps[3] != "web ConfigInstall FAILED" {
		t.Errorf("ui lines = %v", f.ui.Steps)
	}
}

func TestIsFatalStep(t *testing.T) {
	var fatal []types.StepName
	for _, name := range types.MigrationStepOrder {
		if IsFatalStep(name) {
			fatal = append(fatal, name)
		}
	}
	want := []types.StepName{types.StepSetup, types.StepConfigInstall, types.StepManifestUpdate}
	if !reflect.DeepEqual(fatal, want) {
		t.Errorf("fatal steps = %v, want %v", fatal, want)
	}
}
