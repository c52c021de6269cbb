package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/EmundoT/pkgguard/internal/git"
	"github.com/EmundoT/pkgguard/internal/manifest"
	"github.com/EmundoT/pkgguard/internal/metrics"
	"github.com/EmundoT/pkgguard/internal/templates"
	"github.com/EmundoT/pkgguard/internal/types"
)

// MigrationSettings are the fleet-wide inputs of the default steps. Paths are absolute.
type MigrationSettings struct {
	TemplatesDir   string   // empty uses the built-in templates
	Templates      []string // empty uses templates.DefaultNames
	PolicyFile     string   // copied into each repository; empty leaves the default policy in effect
	Policy         types.ScriptPolicy
	PackageManager string
	AuditLogPath   string
	Registry       *types.RegistryConfig
	Executable     string // pkgguard binary exported to .pnpmfile.cjs as PKGGUARD_BIN
}

// StepDeps are the collaborators of DefaultMigrationSteps.
type StepDeps struct {
	Git       GitClient
	FS        FileSystem
	Runner    ToolRunner
	Collector SignalCollectorInterface
	Backups   BackupServiceInterface
	Registry  RegistryAuthenticator
	Metrics   *metrics.Recorder
	Clock     Clock
	Logger    *slog.Logger
}

// Compile-time interface satisfaction check.
var _ MigrationSteps = (*DefaultMigrationSteps)(nil)

// DefaultMigrationSteps drives git, pnpm, npm and aws for a real migration.
// It makes no sequencing decisions; MigrationService does.
type DefaultMigrationSteps struct {
	settings MigrationSettings
	deps     StepDeps
}

// NewDefaultMigrationSteps creates the production step implementation.
func NewDefaultMigrationSteps(settings MigrationSettings, deps StepDeps) *DefaultMigrationSteps {
	if deps.Clock == nil {
		deps.Clock = NewMonotonicClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if settings.PackageManager == "" {
		settings.PackageManager = DefaultPackageManager
	}
	return &DefaultMigrationSteps{settings: settings, deps: deps}
}

// Setup checks the repository is a git work tree and checks out the migration branch.
func (d *DefaultMigrationSteps) Setup(ctx context.Context, run *MigrationRun) (string, error) {
	info, err := d.deps.FS.Stat(run.Repo.Path)
	if err != nil {
		return "", fmt.Errorf("repository path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("repository path %s is not a directory", run.Repo.Path)
	}

	ok, err := d.deps.Git.IsWorkTree(ctx, run.Repo.Path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", run.Repo.Path, ErrNotWorkTree)
	}

	if err := d.deps.Git.CheckoutBranch(ctx, run.Repo.Path, run.Branch); err != nil {
		return "", err
	}
	return "on branch " + run.Branch, nil
}

// Audit collects signals and classifies the repository.
func (d *DefaultMigrationSteps) Audit(ctx context.Context, run *MigrationRun) (string, error) {
	signals, err := d.deps.Collector.Collect(ctx, run.Repo)
	if err != nil {
		return "", err
	}
	record, err := NewAuditRecord(run.Repo.Name, signals)
	if err != nil {
		return "", err
	}
	run.Tier = record.Tier
	return fmt.Sprintf("tier %s (vulnerabilities=%d lifecycle=%t riskPackage=%t)",
		record.Tier, record.VulnerabilityCount, record.LifecycleFlag, record.RiskPackageFlag), nil
}

// Cleanup snapshots the repository, then removes npm and yarn install state.
// Without a snapshot nothing is deleted.
func (d *DefaultMigrationSteps) Cleanup(_ context.Context, run *MigrationRun) (string, error) {
	index, err := d.deps.Backups.Snapshot(run.Repo.Path, run.BackupDir)
	if err != nil {
		return "", NewStepWarning("snapshot failed, nothing deleted: %v", err)
	}

	var removed []string
	var errs []error
	for _, name := range CleanupTargets {
		path := filepath.Join(run.Repo.Path, name)
		if !pathExists(d.deps.FS, path) {
			continue
		}
		if err := d.deps.FS.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
			continue
		}
		removed = append(removed, name)
	}

	detail := fmt.Sprintf("snapshot of %d files; removed %s", len(index.Files), listOrNone(removed))
	if len(errs) > 0 {
		return "", NewStepWarning("%s; %v", detail, errors.Join(errs...))
	}
	return detail, nil
}

// ConfigInstall writes the pnpm templates and the policy file into the repository.
func (d *DefaultMigrationSteps) ConfigInstall(_ context.Context, run *MigrationRun) (string, error) {
	names := d.settings.Templates
	if len(names) == 0 {
		names = templates.DefaultNames()
	}

	installed := make([]string, 0, len(names)+1)
	for _, name := range names {
		if err := ValidateDestPath(name); err != nil {
			return "", NewConfigurationError(ConfigFile, "templates", err)
		}
		dst := filepath.Join(run.Repo.Path, name)

		if d.settings.TemplatesDir != "" {
			if _, err := d.deps.FS.CopyFile(filepath.Join(d.settings.TemplatesDir, name), dst); err != nil {
				return "", fmt.Errorf("install template %s: %w", name, err)
			}
		} else {
			data, err := templates.Read(name)
			if err != nil {
				return "", fmt.Errorf("install template %s: %w", name, err)
			}
			if err := d.deps.FS.WriteFile(dst, data); err != nil {
				return "", fmt.Errorf("install template %s: %w", name, err)
			}
		}
		installed = append(installed, name)
	}

	if d.settings.PolicyFile != "" {
		dst := filepath.Join(run.Repo.Path, PolicyFileName)
		if _, err := d.deps.FS.CopyFile(d.settings.PolicyFile, dst); err != nil {
			return "", fmt.Errorf("install policy: %w", err)
		}
		installed = append(installed, PolicyFileName)
	}
	return "installed " + strings.Join(installed, ", "), nil
}

// ManifestUpdate pins the package manager in package.json, keeping key order.
func (d *DefaultMigrationSteps) ManifestUpdate(_ context.Context, run *MigrationRun) (string, error) {
	path := filepath.Join(run.Repo.Path, manifest.FileName)
	doc, err := manifest.Load(path)
	if err != nil {
		return "", err
	}

	previous, _ := doc.GetString(manifest.KeyPackageManager)
	if err := doc.Set(manifest.KeyPackageManager, d.settings.PackageManager); err != nil {
		return "", err
	}
	if err := doc.Save(path); err != nil {
		return "", fmt.Errorf("write %s: %w", manifest.FileName, err)
	}

	if previous != "" && previous != d.settings.PackageManager {
		return fmt.Sprintf("packageManager %s -> %s", previous, d.settings.PackageManager), nil
	}
	return "packageManager=" + d.settings.PackageManager, nil
}

// RegistryAuth logs into the private registry, or skips when none is configured.
func (d *DefaultMigrationSteps) RegistryAuth(ctx context.Context, run *MigrationRun) (string, error) {
	if !RegistryConfigured(d.settings.Registry) {
		return "skipped: no registry configured", nil
	}
	return d.deps.Registry.Login(ctx, run.Repo.Path, *d.settings.Registry)
}

// Install runs `pnpm install` with the hook environment, then closes the
// repository's sanitization pass with a COMPLETED entry.
func (d *DefaultMigrationSteps) Install(ctx context.Context, run *MigrationRun) (string, error) {
	log := NewFileAuditLog(d.settings.AuditLogPath)
	before, err := ReadAuditLog(log.Path())
	if err != nil {
		return "", err
	}

	_, installErr := d.deps.Runner.Run(ctx, run.Repo.Path, d.hookEnv(run), "pnpm", "install")

	after, err := ReadAuditLog(log.Path())
	if err != nil {
		return "", errors.Join(installErr, err)
	}
	var entries []types.AuditLogEntry
	if len(after) > len(before) {
		entries = FilterRun(after[len(before):], run.RunID)
	}
	for _, e := range entries {
		d.deps.Metrics.ObserveScriptAction(string(e.Action))
	}

	summary := Summarize(entries)
	svc := NewScriptPolicyService(d.settings.Policy, log, d.deps.Clock, d.deps.Metrics, run.RunID)
	if err := svc.Complete(run.Repo.Name, summary); err != nil {
		return "", errors.Join(installErr, err)
	}
	if installErr != nil {
		return "", installErr
	}
	return "pnpm install: " + FormatSummary(summary), nil
}

// hookEnv is the environment .pnpmfile.cjs passes on to `pkgguard hook`.
func (d *DefaultMigrationSteps) hookEnv(run *MigrationRun) map[string]string {
	env := map[string]string{
		EnvAuditLog: d.settings.AuditLogPath,
		EnvRunID:    run.RunID,
	}
	if d.settings.PolicyFile != "" {
		env[EnvPolicy] = filepath.Join(run.Repo.Path, PolicyFileName)
	}
	if d.settings.Policy.TrustedNamespace != "" {
		env[EnvTrustedNamespace] = d.settings.Policy.TrustedNamespace
	}
	if d.settings.Executable != "" {
		env[EnvBinary] = d.settings.Executable
	}
	return env
}

// Verify checks the install produced a pnpm lockfile with the hook in place,
// and that no locked package still runs lifecycle scripts the policy forbids.
func (d *DefaultMigrationSteps) Verify(_ context.Context, run *MigrationRun) (string, error) {
	lockPath := filepath.Join(run.Repo.Path, PnpmLockFile)
	if !pathExists(d.deps.FS, lockPath) {
		return "", fmt.Errorf("%s missing after install", PnpmLockFile)
	}
	if !pathExists(d.deps.FS, filepath.Join(run.Repo.Path, templates.Pnpmfile)) {
		return "", NewStepWarning("%s missing: scripts were not filtered", templates.Pnpmfile)
	}

	lock, err := readPnpmLock(d.deps.FS, lockPath)
	if err != nil {
		return "", err
	}
	building := lock.buildPackages()
	if lock.majorVersion() >= 9 {
		// v9 lockfiles no longer mark requiresBuild.
		building, err = d.unstrippedLifecyclePackages(run)
		if err != nil {
			return "", err
		}
	}

	var surviving []string
	for _, name := range building {
		if !ScriptsPermitted(name, d.settings.Policy) {
			surviving = append(surviving, name)
		}
	}
	if len(surviving) > 0 {
		return "", NewStepWarning("forbidden lifecycle scripts survived install: %s", strings.Join(surviving, ", "))
	}
	return fmt.Sprintf("%s ok (%d packages, %d with permitted scripts)", PnpmLockFile, len(lock.Packages), len(building)), nil
}

// pnpmLock is the part of pnpm-lock.yaml Verify reads.
type pnpmLock struct {
	LockfileVersion string `yaml:"lockfileVersion"`
	Packages        map[string]struct {
		RequiresBuild bool `yaml:"requiresBuild"`
	} `yaml:"packages"`
}

func readPnpmLock(fs FileSystem, path string) (pnpmLock, error) {
	var lf pnpmLock
	data, err := fs.ReadFile(path)
	if err != nil {
		return lf, err
	}
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return lf, fmt.Errorf("parse %s: %w", PnpmLockFile, err)
	}
	return lf, nil
}

func (lf pnpmLock) majorVersion() int {
	major, _, _ := strings.Cut(lf.LockfileVersion, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0
	}
	return n
}

// buildPackages returns the sorted names of packages marked requiresBuild.
func (lf pnpmLock) buildPackages() []string {
	var names []string
	for key, pkg := range lf.Packages {
		if !pkg.RequiresBuild {
			continue
		}
		if name, _ := splitPnpmKey(key); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// unstrippedLifecyclePackages scans pnpm's virtual store for installed
// packages declaring reserved lifecycle scripts. Manifests on disk keep their
// scripts even when the hook removed them from pnpm's copy, so packages the
// hook stripped or blocked during this run are left out.
func (d *DefaultMigrationSteps) unstrippedLifecyclePackages(run *MigrationRun) ([]string, error) {
	store := filepath.Join(run.Repo.Path, "node_modules", ".pnpm")
	var paths []string
	for _, pattern := range []string{
		filepath.Join(store, "*", "node_modules", "*", manifest.FileName),
		filepath.Join(store, "*", "node_modules", "@*", "*", manifest.FileName),
	} {
		matches, err := d.deps.FS.Glob(pattern)
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}

	handled := make(map[string]bool)
	if d.settings.AuditLogPath != "" {
		entries, err := ReadAuditLog(d.settings.AuditLogPath)
		if err != nil {
			return nil, err
		}
		for _, e := range FilterRun(entries, run.RunID) {
			if e.Action == types.ActionRemovedScript || e.Action == types.ActionBlockedPackage {
				handled[e.PackageName] = true
			}
		}
	}

	var names []string
	for _, path := range paths {
		data, err := d.deps.FS.ReadFile(path)
		if err != nil {
			return nil, err
		}
		doc, err := manifest.Parse(data)
		if err != nil {
			d.deps.Logger.Debug("skipping unreadable installed manifest", "path", path, "error", err)
			continue
		}
		pkg, err := doc.Descriptor()
		if err != nil || pkg.Name == "" || handled[pkg.Name] || slices.Contains(names, pkg.Name) {
			continue
		}
		if len(presentLifecycleScripts(pkg.Scripts)) > 0 {
			names = append(names, pkg.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// BuildTest runs the repository's build and test scripts when it declares them.
func (d *DefaultMigrationSteps) BuildTest(ctx context.Context, run *MigrationRun) (string, error) {
	doc, err := manifest.Load(filepath.Join(run.Repo.Path, manifest.FileName))
	if err != nil {
		return "", err
	}
	pkg, err := doc.Descriptor()
	if err != nil {
		return "", err
	}

	var ran []string
	for _, script := range []string{"build", "test"} {
		if _, ok := pkg.Scripts[script]; !ok {
			continue
		}
		if _, err := d.deps.Runner.Run(ctx, run.Repo.Path, nil, "pnpm", "run", script); err != nil {
			return "", fmt.Errorf("pnpm run %s: %w", script, err)
		}
		ran = append(ran, script)
	}
	if len(ran) == 0 {
		return "skipped: no build or test script", nil
	}
	return "passed: " + strings.Join(ran, ", "), nil
}

// Commit stages every change and commits it with run trailers.
func (d *DefaultMigrationSteps) Commit(ctx context.Context, run *MigrationRun) (string, error) {
	if err := d.deps.Git.Add(ctx, run.Repo.Path); err != nil {
		return "", err
	}
	staged, err := d.deps.Git.DiffCachedNames(ctx, run.Repo.Path)
	if err != nil {
		return "", err
	}
	if len(staged) == 0 {
		return "nothing to commit", nil
	}

	policy := "default"
	if d.settings.PolicyFile != "" {
		policy = PolicyFileName
	}
	tier := string(run.Tier)
	if tier == "" {
		tier = "unknown"
	}
	err = d.deps.Git.Commit(ctx, run.Repo.Path, git.CommitOpts{
		Message: fmt.Sprintf("chore: migrate %s to pnpm", run.Repo.Name),
		Trailers: []git.Trailer{
			{Key: TrailerRunID, Value: run.RunID},
			{Key: TrailerTier, Value: tier},
			{Key: TrailerPolicy, Value: policy},
		},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("committed %d files on %s", len(staged), run.Branch), nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "nothing"
	}
	return strings.Join(items, ", ")
}
