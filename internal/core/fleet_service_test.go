package core

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/golang/mock/gomock"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/EmundoT/pkgguard/internal/metrics"
	"github.com/EmundoT/pkgguard/internal/types"
)

// ============================================================================
// Helpers
// ============================================================================

type fleetFixture struct {
	cfg       types.FleetConfig
	run       RunSettings
	collector *FakeSignalCollector
	migrator  *MockMigrationServiceInterface
	ui        *RecordingUICallback
	metrics   *metrics.Recorder
}

func newFleetFixture(t *testing.T, names ...string) *fleetFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	out := t.TempDir()
	cfg := types.FleetConfig{OutputDir: out}
	for _, n := range names {
		cfg.Repositories = append(cfg.Repositories, types.RepositoryConfig{Name: n, Path: filepath.Join("/repos", n)})
	}
	return &fleetFixture{
		cfg: cfg,
		run: RunSettings{
			RunID:      "run-9",
			OutputDir:  out,
			ReportPath: filepath.Join(out, "report-run-9.jsonl"),
		},
		collector: &FakeSignalCollector{Signals: map[string]types.RepositorySignals{}},
		migrator:  NewMockMigrationServiceInterface(ctrl),
		ui:        &RecordingUICallback{},
		metrics:   metrics.NewRecorder(),
	}
}

func (f *fleetFixture) service() *FleetService {
	report := NewFileReportStore(f.run.ReportPath, f.run.RunID)
	return NewFleetService(f.cfg, f.run, f.collector, f.migrator, report, f.ui, f.metrics, nil)
}

func passTrace(name string) types.MigrationTrace {
	return types.MigrationTrace{
		Repository: name,
		RunID:      "run-9",
		Steps:      []types.MigrationStep{{Name: types.StepSetup, Outcome: types.StepOK}},
	}
}

// ============================================================================
// Audit
// ============================================================================

func TestFleetService_Audit_ListOrderAndPriority(t *testing.T) {
	f := newFleetFixture(t, "docs", "api", "web")
	f.collector.Signals["docs"] = types.RepositorySignals{}
	f.collector.Signals["api"] = types.RepositorySignals{VulnerabilityCount: 11}
	f.collector.Signals["web"] = types.RepositorySignals{HasLifecycleScripts: true}

	result, err := f.service().Audit(context.Background())
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}

	if !reflect.DeepEqual(f.collector.Collected, []string{"docs", "api", "web"}) {
		t.Errorf("collection order = %v", f.collector.Collected)
	}
	if got := result.Summary.PrioritizedOrder; !reflect.DeepEqual(got, []string{"api", "web", "docs"}) {
		t.Errorf("PrioritizedOrder = %v", got)
	}
	if result.Summary.HighCount != 1 || result.Summary.MediumCount != 1 || result.Summary.LowCount != 1 {
		t.Errorf("counts = %+v", result.Summary)
	}
	if f.ui.Progress == nil || !f.ui.Progress.Completed || len(f.ui.Progress.Messages) != 3 {
		t.Errorf("progress = %+v", f.ui.Progress)
	}
	if n, err := promtest.GatherAndCount(f.metrics.Registry(), "pkgguard_repositories_total"); err != nil || n != 3 {
		t.Errorf("tier series = %d, %v; want 3", n, err)
	}
}

func TestFleetService_Audit_FailedRepositoryContinues(t *testing.T) {
	f := newFleetFixture(t, "broken", "ok")
	f.collector.Errors = map[string]error{
		"broken": &ClassificationInputMissingError{Repository: "broken", Err: ErrManifestNotFound},
	}

	result, err := f.service().Audit(context.Background())
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}
	if !result.Records[0].Failed() || result.Records[1].Failed() {
		t.Errorf("records = %+v", result.Records)
	}
	if result.Summary.FailedCount != 1 || !reflect.DeepEqual(result.Summary.PrioritizedOrder, []string{"ok"}) {
		t.Errorf("summary = %+v", result.Summary)
	}
	if len(f.ui.Errors) != 1 {
		t.Errorf("expected one error line, got %v", f.ui.Errors)
	}
}

func TestFleetService_Audit_NegativeCountFails(t *testing.T) {
	f := newFleetFixture(t, "weird")
	f.collector.Signals["weird"] = types.RepositorySignals{VulnerabilityCount: -1}

	result, err := f.service().Audit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Records[0].Failed() {
		t.Errorf("negative count should produce a failed record, got %+v", result.Records[0])
	}
}

func TestFleetService_Audit_WritesReport(t *testing.T) {
	f := newFleetFixture(t, "a", "b")

	if _, err := f.service().Audit(context.Background()); err != nil {
		t.Fatal(err)
	}
	lines, err := ReadReport(f.run.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	kinds := make([]string, len(lines))
	for i, l := range lines {
		kinds[i] = l.Kind
		if l.RunID != "run-9" {
			t.Errorf("line %d runId = %q", i, l.RunID)
		}
	}
	want := []string{ReportKindRecord, ReportKindRecord, ReportKindSummary}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("report kinds = %v, want %v", kinds, want)
	}
}

func TestFleetService_Audit_Cancelled(t *testing.T) {
	f := newFleetFixture(t, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.service().Audit(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(f.collector.Collected) != 0 {
		t.Error("no repository should be collected after cancellation")
	}
}

// ============================================================================
// Migrate
// ============================================================================

func TestFleetService_Migrate_FollowsPriorityOrder(t *testing.T) {
	f := newFleetFixture(t, "docs", "api", "web")
	f.cfg.Branch = "fleet/pnpm"
	f.cfg.Repositories[2].Branch = "web/pnpm"

	var runs []*MigrationRun
	f.migrator.EXPECT().Migrate(gomock.Any(), gomock.Any()).Times(3).DoAndReturn(
		func(_ context.Context, run *MigrationRun) types.MigrationTrace {
			runs = append(runs, run)
			return passTrace(run.Repo.Name)
		})

	summary := types.FleetSummary{PrioritizedOrder: []string{"api", "web", "docs"}}
	traces, err := f.service().Migrate(context.Background(), summary)
	if err != nil {
		t.Fatal(err)
	}
	if len(traces) != 3 {
		t.Fatalf("traces = %d", len(traces))
	}

	order := []string{runs[0].Repo.Name, runs[1].Repo.Name, runs[2].Repo.Name}
	if !reflect.DeepEqual(order, []string{"api", "web", "docs"}) {
		t.Errorf("migration order = %v", order)
	}
	if runs[0].Branch != "fleet/pnpm" || runs[1].Branch != "web/pnpm" {
		t.Errorf("branches = %s, %s", runs[0].Branch, runs[1].Branch)
	}
	if want := filepath.Join(f.run.OutputDir, BackupsDir, "run-9", "api"); runs[0].BackupDir != want {
		t.Errorf("backup dir = %s, want %s", runs[0].BackupDir, want)
	}
	if runs[0].RunID != "run-9" {
		t.Errorf("run id = %s", runs[0].RunID)
	}
	if len(f.ui.Successes) != 3 {
		t.Errorf("successes = %v", f.ui.Successes)
	}
}

func TestFleetService_Migrate_DefaultBranch(t *testing.T) {
	f := newFleetFixture(t, "api")
	f.migrator.EXPECT().Migrate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, run *MigrationRun) types.MigrationTrace {
			if run.Branch != DefaultBranch {
				t.Errorf("branch = %s, want %s", run.Branch, DefaultBranch)
			}
			return passTrace("api")
		})

	if _, err := f.service().Migrate(context.Background(), types.FleetSummary{PrioritizedOrder: []string{"api"}}); err != nil {
		t.Fatal(err)
	}
}

func TestFleetService_Migrate_AbortDoesNotStopFleet(t *testing.T) {
	f := newFleetFixture(t, "api", "web")
	aborted := types.MigrationTrace{
		Repository: "api",
		Aborted:    true,
		Steps: []types.MigrationStep{
			{Name: types.StepSetup, Outcome: types.StepFailed, Detail: "not a git work tree"},
		},
	}
	gomock.InOrder(
		f.migrator.EXPECT().Migrate(gomock.Any(), gomock.Any()).Return(aborted),
		f.migrator.EXPECT().Migrate(gomock.Any(), gomock.Any()).Return(passTrace("web")),
	)

	traces, err := f.service().Migrate(context.Background(), types.FleetSummary{PrioritizedOrder: []string{"api", "web"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(traces) != 2 || traces[0].Result() != types.MigrationResultFail || traces[1].Result() != types.MigrationResultPass {
		t.Errorf("traces = %+v", traces)
	}
	if len(f.ui.Errors) != 1 || len(f.ui.Successes) != 1 {
		t.Errorf("errors=%v successes=%v", f.ui.Errors, f.ui.Successes)
	}

	lines, _ := ReadReport(f.run.ReportPath)
	if len(lines) != 2 || lines[0].Kind != ReportKindTrace || lines[0].Trace.Repository != "api" {
		t.Errorf("report = %+v", lines)
	}
}

func TestFleetService_Migrate_UnknownRepository(t *testing.T) {
	f := newFleetFixture(t, "api")

	traces, err := f.service().Migrate(context.Background(), types.FleetSummary{PrioritizedOrder: []string{"ghost"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(traces) != 0 || len(f.ui.Warnings) != 1 {
		t.Errorf("traces=%v warnings=%v", traces, f.ui.Warnings)
	}
}
