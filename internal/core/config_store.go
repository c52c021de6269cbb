package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/EmundoT/pkgguard/internal/types"
)

// ConfigStore handles fleet.yml I/O operations
type ConfigStore interface {
	Load() (types.FleetConfig, error)
	Path() string
}

// Compile-time interface satisfaction check.
var _ ConfigStore = (*FileConfigStore)(nil)

// FileConfigStore implements ConfigStore using the filesystem. Relative paths
// in the file are resolved against the directory holding it.
type FileConfigStore struct {
	store *YAMLStore[types.FleetConfig]
}

// NewFileConfigStore creates a FileConfigStore for the fleet file at path.
func NewFileConfigStore(path string) *FileConfigStore {
	return &FileConfigStore{store: NewYAMLStore[types.FleetConfig](filepath.Dir(path), filepath.Base(path), false)}
}

// Path returns the config file path
func (s *FileConfigStore) Path() string {
	return s.store.Path()
}

// Load reads, resolves and validates fleet.yml. Every problem is a ConfigurationError.
func (s *FileConfigStore) Load() (types.FleetConfig, error) {
	cfg, err := s.store.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.FleetConfig{}, NewConfigurationError(s.Path(), "", fmt.Errorf("file not found: %w", err))
		}
		return types.FleetConfig{}, NewConfigurationError(s.Path(), "", err)
	}

	base, err := filepath.Abs(filepath.Dir(s.Path()))
	if err != nil {
		return types.FleetConfig{}, err
	}
	cfg = resolveFleetPaths(cfg, base)

	if err := ValidateFleetConfig(cfg); err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) && cfgErr.Source == "" {
			cfgErr.Source = s.Path()
		}
		return types.FleetConfig{}, err
	}
	return cfg, nil
}

// resolveFleetPaths makes repository, policy, template and output paths absolute.
// SBOM paths stay relative to their repository.
func resolveFleetPaths(cfg types.FleetConfig, base string) types.FleetConfig {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	repos := make([]types.RepositoryConfig, len(cfg.Repositories))
	for i, r := range cfg.Repositories {
		r.Path = abs(r.Path)
		repos[i] = r
	}
	cfg.Repositories = repos
	cfg.PolicyFile = abs(cfg.PolicyFile)
	cfg.TemplatesDir = abs(cfg.TemplatesDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	cfg.OutputDir = abs(cfg.OutputDir)
	return cfg
}

// ValidateFleetConfig checks repositories, risk rules, templates and registry settings.
func ValidateFleetConfig(cfg types.FleetConfig) error {
	if len(cfg.Repositories) == 0 {
		return NewConfigurationError("", "repositories", ErrNoRepositories)
	}

	seen := make(map[string]bool, len(cfg.Repositories))
	for i, r := range cfg.Repositories {
		field := fmt.Sprintf("repositories[%d]", i)
		if r.Name == "" {
			return NewConfigurationError("", field, errors.New("name is required"))
		}
		if seen[r.Name] {
			return NewConfigurationError("", field, fmt.Errorf("duplicate repository name %q", r.Name))
		}
		seen[r.Name] = true
		if r.Path == "" {
			return NewConfigurationError("", field, fmt.Errorf("repository %q has no path", r.Name))
		}
	}

	if _, err := compileRiskRules(cfg.RiskPackages); err != nil {
		return err
	}

	for i, name := range cfg.Templates {
		if err := ValidateDestPath(name); err != nil {
			return NewConfigurationError("", fmt.Sprintf("templates[%d]", i), err)
		}
	}

	if reg := cfg.Registry; reg != nil && !RegistryConfigured(reg) {
		return NewConfigurationError("", "registry", errors.New("domain and repository are both required"))
	}
	return nil
}

// RunSettings are the per-run values derived from fleet.yml and the environment.
type RunSettings struct {
	RunID        string
	OutputDir    string
	AuditLogPath string
	ReportPath   string
	PolicyFile   string // empty when the default policy is in effect
	Policy       types.ScriptPolicy
}

// BackupDir returns the snapshot directory of one repository in this run.
func (r RunSettings) BackupDir(repo string) string {
	return filepath.Join(r.OutputDir, BackupsDir, r.RunID, repo)
}

// ResolveRunSettings applies the PKGGUARD_* overrides and loads the script policy once.
func ResolveRunSettings(cfg types.FleetConfig, runID string, getenv func(string) string) (RunSettings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	rs := RunSettings{
		RunID:        runID,
		OutputDir:    cfg.OutputDir,
		AuditLogPath: filepath.Join(cfg.OutputDir, fmt.Sprintf(AuditLogPattern, runID)),
		ReportPath:   filepath.Join(cfg.OutputDir, fmt.Sprintf(ReportPattern, runID)),
		PolicyFile:   cfg.PolicyFile,
	}
	if v := getenv(EnvAuditLog); v != "" {
		rs.AuditLogPath = v
	}
	if v := getenv(EnvPolicy); v != "" {
		rs.PolicyFile = v
	}

	policy, err := loadPolicyWithOverrides(rs.PolicyFile, getenv)
	if err != nil {
		return RunSettings{}, err
	}
	rs.Policy = policy
	return rs, nil
}

// loadPolicyWithOverrides loads path (or the default policy when empty) and
// applies PKGGUARD_TRUSTED_NAMESPACE.
func loadPolicyWithOverrides(path string, getenv func(string) string) (types.ScriptPolicy, error) {
	policy := DefaultScriptPolicy()
	if path != "" {
		var err error
		if policy, err = LoadScriptPolicy(path); err != nil {
			return types.ScriptPolicy{}, err
		}
	}
	if ns := getenv(EnvTrustedNamespace); ns != "" {
		policy.TrustedNamespace = ns
		if err := ValidateScriptPolicy(policy); err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				cfgErr.Source = EnvTrustedNamespace
			}
			return types.ScriptPolicy{}, err
		}
	}
	return policy, nil
}
