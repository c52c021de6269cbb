package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/EmundoT/pkgguard/internal/metrics"
	"github.com/EmundoT/pkgguard/internal/types"
)

// NewRunID returns a fresh run identifier. It names the audit log, the report
// and the backup directory of one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// ManagerOptions configures NewManager. Zero values pick the defaults.
type ManagerOptions struct {
	ConfigPath string              // defaults to fleet.yml in the working directory
	RunID      string              // defaults to NewRunID()
	UI         UICallback          // defaults to SilentUICallback
	Metrics    *metrics.Recorder   // may be nil
	Logger     *slog.Logger        // defaults to slog.Default()
	Getenv     func(string) string // defaults to os.Getenv
	Executable string              // pkgguard binary the pnpmfile calls back into
}

// Manager provides the main API for pkgguard fleet operations.
// It delegates to FleetService for audit and migration.
type Manager struct {
	configPath string
	cfg        types.FleetConfig
	run        RunSettings
	ui         UICallback
	logger     *slog.Logger
	fleet      FleetServiceInterface
}

// NewManager loads fleet.yml, resolves the run settings and wires the default
// collaborators.
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = ConfigFile
	}
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	if opts.UI == nil {
		opts.UI = &SilentUICallback{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	store := NewFileConfigStore(opts.ConfigPath)
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	run, err := ResolveRunSettings(cfg, opts.RunID, opts.Getenv)
	if err != nil {
		return nil, err
	}

	runner := NewToolRunner(opts.Logger)
	collector, err := NewSignalCollector(runner, cfg.RiskPackages, opts.Logger)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = store.Path()
		}
		return nil, err
	}

	fs := NewOSFileSystem()
	clock := NewMonotonicClock()
	steps := NewDefaultMigrationSteps(MigrationSettings{
		TemplatesDir:   cfg.TemplatesDir,
		Templates:      cfg.Templates,
		PolicyFile:     run.PolicyFile,
		Policy:         run.Policy,
		PackageManager: cfg.PackageManager,
		AuditLogPath:   run.AuditLogPath,
		Registry:       cfg.Registry,
		Executable:     opts.Executable,
	}, StepDeps{
		Git:       NewSystemGitClient(opts.Logger),
		FS:        fs,
		Runner:    runner,
		Collector: collector,
		Backups:   NewBackupService(fs, clock),
		Registry:  NewCodeArtifactAuthenticator(NewSTSAccountResolver(), runner),
		Metrics:   opts.Metrics,
		Clock:     clock,
		Logger:    opts.Logger,
	})
	migrator := NewMigrationService(steps, opts.UI, opts.Metrics, clock, opts.Logger)
	report := NewFileReportStore(run.ReportPath, run.RunID)

	return &Manager{
		configPath: store.Path(),
		cfg:        cfg,
		run:        run,
		ui:         opts.UI,
		logger:     opts.Logger,
		fleet:      NewFleetService(cfg, run, collector, migrator, report, opts.UI, opts.Metrics, opts.Logger),
	}, nil
}

// NewManagerWithFleet creates a Manager around a custom fleet service (useful for testing)
func NewManagerWithFleet(cfg types.FleetConfig, run RunSettings, fleet FleetServiceInterface, ui UICallback) *Manager {
	if ui == nil {
		ui = &SilentUICallback{}
	}
	return &Manager{cfg: cfg, run: run, ui: ui, logger: slog.Default(), fleet: fleet}
}

// ConfigPath returns the path to fleet.yml
func (m *Manager) ConfigPath() string { return m.configPath }

// Config returns the loaded fleet configuration.
func (m *Manager) Config() types.FleetConfig { return m.cfg }

// Run returns the resolved run settings.
func (m *Manager) Run() RunSettings { return m.run }

// Audit classifies every repository of the fleet.
func (m *Manager) Audit(ctx context.Context) (FleetAuditResult, error) {
	return m.fleet.Audit(ctx)
}

// Migrate audits the fleet, then migrates it in priority order. confirm is
// asked once with the audit summary; returning false stops before any change.
func (m *Manager) Migrate(ctx context.Context, confirm func(types.FleetSummary) bool) (FleetAuditResult, []types.MigrationTrace, error) {
	audit, err := m.fleet.Audit(ctx)
	if err != nil {
		return audit, nil, err
	}
	if len(audit.Summary.PrioritizedOrder) == 0 {
		m.ui.ShowWarning("Nothing to migrate", "no repository was classified")
		return audit, nil, nil
	}
	if confirm != nil && !confirm(audit.Summary) {
		m.ui.ShowInfo("Migration cancelled")
		return audit, nil, nil
	}
	traces, err := m.fleet.Migrate(ctx, audit.Summary)
	return audit, traces, err
}

// Restore copies the snapshot of repo back into its working tree. An empty
// runID selects the most recent run that snapshotted repo.
func (m *Manager) Restore(repo, runID string) ([]string, error) {
	var target *types.RepositoryConfig
	for i := range m.cfg.Repositories {
		if m.cfg.Repositories[i].Name == repo {
			target = &m.cfg.Repositories[i]
			break
		}
	}
	if target == nil {
		return nil, NewConfigurationError(m.configPath, "repositories", fmt.Errorf("repository %q not found", repo))
	}

	if runID == "" {
		latest, err := LatestBackupRun(m.run.OutputDir, repo)
		if err != nil {
			return nil, err
		}
		runID = latest
	}
	backupDir := filepath.Join(m.run.OutputDir, BackupsDir, runID, repo)
	restored, err := RestoreBackup(backupDir, target.Path)
	if err != nil {
		return nil, err
	}
	m.logger.Info("restored snapshot", "repository", repo, "run", runID, "files", len(restored))
	return restored, nil
}

// LatestBackupRun returns the newest run under outputDir holding a snapshot of repo.
func LatestBackupRun(outputDir, repo string) (string, error) {
	root := filepath.Join(outputDir, BackupsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", repo, ErrSnapshotMissing)
		}
		return "", err
	}

	type candidate struct {
		run   string
		index BackupIndex
	}
	var found []candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		index, err := ReadBackupIndex(filepath.Join(root, e.Name(), repo))
		if err != nil {
			continue
		}
		found = append(found, candidate{run: e.Name(), index: index})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%s: %w", repo, ErrSnapshotMissing)
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].index.CreatedAt.After(found[j].index.CreatedAt)
	})
	return found[0].run, nil
}

// Watch re-runs the fleet audit whenever fleet.yml or the policy file changes.
func (m *Manager) Watch(ctx context.Context) error {
	paths := []string{m.configPath, m.run.PolicyFile}
	watcher := NewWatchService(paths, DefaultWatchDebounce, m.ui, m.logger)
	return watcher.Watch(ctx, func(ctx context.Context) error {
		// The watch re-reads configuration so edits take effect.
		next, err := NewManager(ManagerOptions{
			ConfigPath: m.configPath,
			UI:         m.ui,
			Logger:     m.logger,
		})
		if err != nil {
			return err
		}
		_, err = next.Audit(ctx)
		return err
	})
}

// RunHook serves one `pkgguard hook` invocation: settings come from the
// environment, the package from in, the result goes to out.
func RunHook(in io.Reader, out io.Writer, getenv func(string) string, logger *slog.Logger) error {
	settings := HookSettingsFromEnv(getenv)
	policy, err := LoadHookPolicy(settings, getenv)
	if err != nil {
		return err
	}
	svc := NewScriptPolicyService(policy, NewFileAuditLog(settings.AuditLogPath), nil, nil, settings.RunID)
	return NewHookSession(svc, logger).Serve(in, out)
}

// RunSanitize sanitizes package.json files in place using the hook settings.
func RunSanitize(paths []string, getenv func(string) string, rec *metrics.Recorder, logger *slog.Logger) (types.SanitizeSummary, error) {
	settings := HookSettingsFromEnv(getenv)
	policy, err := LoadHookPolicy(settings, getenv)
	if err != nil {
		return types.SanitizeSummary{}, err
	}
	svc := NewScriptPolicyService(policy, NewFileAuditLog(settings.AuditLogPath), nil, rec, settings.RunID)
	return NewHookSession(svc, logger).SanitizeFiles(paths)
}
