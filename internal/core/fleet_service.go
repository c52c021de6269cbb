package core

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/EmundoT/pkgguard/internal/metrics"
	"github.com/EmundoT/pkgguard/internal/telemetry"
	"github.com/EmundoT/pkgguard/internal/types"
)

// FleetAuditResult is the outcome of one fleet audit.
type FleetAuditResult struct {
	Records []types.AuditRecord `json:"records"`
	Summary types.FleetSummary  `json:"summary"`
}

// FleetServiceInterface defines the contract for fleet-wide audit and migration.
type FleetServiceInterface interface {
	// Audit classifies every repository in configuration order.
	Audit(ctx context.Context) (FleetAuditResult, error)

	// Migrate migrates the repositories of summary.PrioritizedOrder, one at a time.
	Migrate(ctx context.Context, summary types.FleetSummary) ([]types.MigrationTrace, error)
}

// Compile-time interface satisfaction check.
var _ FleetServiceInterface = (*FleetService)(nil)

// FleetService audits and migrates the repositories listed in fleet.yml.
// Repositories are handled sequentially; a failure in one never stops the others.
type FleetService struct {
	cfg       types.FleetConfig
	run       RunSettings
	collector SignalCollectorInterface
	migrator  MigrationServiceInterface
	report    ReportStore
	ui        UICallback
	metrics   *metrics.Recorder
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewFleetService creates a new FleetService. rec and logger may be nil.
func NewFleetService(cfg types.FleetConfig, run RunSettings, collector SignalCollectorInterface, migrator MigrationServiceInterface, report ReportStore, ui UICallback, rec *metrics.Recorder, logger *slog.Logger) *FleetService {
	if ui == nil {
		ui = &SilentUICallback{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FleetService{
		cfg:       cfg,
		run:       run,
		collector: collector,
		migrator:  migrator,
		report:    report,
		ui:        ui,
		metrics:   rec,
		tracer:    telemetry.Tracer(),
		logger:    logger,
	}
}

// SetTracer replaces the tracer taken from the global provider.
func (s *FleetService) SetTracer(tracer trace.Tracer) {
	s.tracer = tracer
}

// Audit collects signals and classifies each repository strictly in list order.
// Each record is written to the report as soon as it exists. A repository
// whose inputs cannot be read gets a failed-status record.
func (s *FleetService) Audit(ctx context.Context) (FleetAuditResult, error) {
	repos := s.cfg.Repositories
	progress := s.ui.StartProgress(len(repos), "Auditing repositories")

	records := make([]types.AuditRecord, 0, len(repos))
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			progress.Fail(err)
			return FleetAuditResult{}, err
		}

		record := s.auditOne(ctx, repo)
		if err := s.report.AppendRecord(record); err != nil {
			progress.Fail(err)
			return FleetAuditResult{}, err
		}
		records = append(records, record)
		progress.Increment(repo.Name)
	}
	progress.Complete()

	summary := Aggregate(records)
	if err := s.report.AppendSummary(summary); err != nil {
		return FleetAuditResult{}, err
	}
	s.logger.Info("fleet audit finished",
		"high", summary.HighCount, "medium", summary.MediumCount,
		"low", summary.LowCount, "failed", summary.FailedCount)
	return FleetAuditResult{Records: records, Summary: summary}, nil
}

func (s *FleetService) auditOne(ctx context.Context, repo types.RepositoryConfig) types.AuditRecord {
	ctx, span := s.tracer.Start(ctx, "audit "+repo.Name, trace.WithAttributes(
		attribute.String("pkgguard.repository", repo.Name),
		attribute.String("pkgguard.run_id", s.run.RunID),
	))
	defer span.End()

	signals, err := s.collector.Collect(ctx, repo)
	var record types.AuditRecord
	if err == nil {
		record, err = NewAuditRecord(repo.Name, signals)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.ui.ShowError("Audit failed", fmt.Sprintf("%s: %v", repo.Name, err))
		s.logger.Error("audit failed", "repository", repo.Name, "error", err)
		s.metrics.ObserveTier(types.AuditStatusFailed)
		return NewFailedAuditRecord(repo.Name, err)
	}

	span.SetAttributes(attribute.String("pkgguard.tier", string(record.Tier)))
	s.metrics.ObserveTier(string(record.Tier))
	s.logger.Debug("repository classified", "repository", repo.Name, "tier", record.Tier,
		"vulnerabilities", record.VulnerabilityCount, "source", signals.VulnerabilitySource)
	return record
}

// Migrate runs the migration of every repository in summary.PrioritizedOrder.
// Failed-status repositories are not in that order and are skipped. Each
// trace is written to the report when its repository finishes.
func (s *FleetService) Migrate(ctx context.Context, summary types.FleetSummary) ([]types.MigrationTrace, error) {
	byName := make(map[string]types.RepositoryConfig, len(s.cfg.Repositories))
	for _, r := range s.cfg.Repositories {
		byName[r.Name] = r
	}

	progress := s.ui.StartProgress(len(summary.PrioritizedOrder), "Migrating repositories")
	traces := make([]types.MigrationTrace, 0, len(summary.PrioritizedOrder))
	for _, name := range summary.PrioritizedOrder {
		if err := ctx.Err(); err != nil {
			progress.Fail(err)
			return traces, err
		}
		repo, ok := byName[name]
		if !ok {
			s.ui.ShowWarning("Unknown repository", fmt.Sprintf("%s is not in %s", name, ConfigFile))
			continue
		}

		out := s.migrator.Migrate(ctx, s.newRun(repo))
		if err := s.report.AppendTrace(out); err != nil {
			progress.Fail(err)
			return traces, err
		}
		traces = append(traces, out)
		s.showResult(out)
		progress.Increment(name)
	}
	progress.Complete()
	return traces, nil
}

func (s *FleetService) newRun(repo types.RepositoryConfig) *MigrationRun {
	branch := repo.Branch
	if branch == "" {
		branch = s.cfg.Branch
	}
	if branch == "" {
		branch = DefaultBranch
	}
	return &MigrationRun{
		Repo:      repo,
		RunID:     s.run.RunID,
		Branch:    branch,
		BackupDir: s.run.BackupDir(repo.Name),
	}
}

func (s *FleetService) showResult(out types.MigrationTrace) {
	switch out.Result() {
	case types.MigrationResultPass:
		s.ui.ShowSuccess(fmt.Sprintf("%s migrated", out.Repository))
	case types.MigrationResultWarn:
		s.ui.ShowWarning("Migrated with warnings", fmt.Sprintf("%s: %d warning(s)", out.Repository, len(out.Warnings())))
	default:
		last := out.Steps[len(out.Steps)-1]
		s.ui.ShowError("Migration failed", fmt.Sprintf("%s: %s failed: %s", out.Repository, last.Name, last.Detail))
	}
}
