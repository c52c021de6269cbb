// Package types defines data structures for pkgguard configuration, audit records and migration traces.
package types

// FleetConfig is the fleet definition loaded from fleet.yml. It lists the repositories of one audit run plus the settings shared by every migration.
type FleetConfig struct {
	Repositories   []RepositoryConfig `yaml:"repositories"`
	PolicyFile     string             `yaml:"policy_file,omitempty"`     // Script policy YAML, relative to fleet.yml
	RiskPackages   []RiskPackageRule  `yaml:"risk_packages,omitempty"`   // Known-compromised packages
	TemplatesDir   string             `yaml:"templates_dir,omitempty"`   // Directory holding .npmrc / .pnpmfile.cjs templates
	Templates      []string           `yaml:"templates,omitempty"`       // Template file names copied by ConfigInstall
	PackageManager string             `yaml:"package_manager,omitempty"` // Value written to package.json "packageManager"
	Branch         string             `yaml:"branch,omitempty"`          // Migration branch created by Setup
	OutputDir      string             `yaml:"output_dir,omitempty"`      // Audit log, report and backups root
	Registry       *RegistryConfig    `yaml:"registry,omitempty"`
}

// RepositoryConfig describes one repository of the fleet.
type RepositoryConfig struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	CycloneDX string `yaml:"cyclonedx,omitempty"` // Scanner-produced CycloneDX JSON, relative to Path
	SPDX      string `yaml:"spdx,omitempty"`      // SPDX 2.3 JSON SBOM, relative to Path
	Branch    string `yaml:"branch,omitempty"`    // Overrides FleetConfig.Branch
}

// RegistryConfig configures the private registry login performed by the RegistryAuth step.
// DomainOwner defaults to the caller's AWS account when empty.
type RegistryConfig struct {
	Domain      string `yaml:"domain"`
	DomainOwner string `yaml:"domain_owner,omitempty"`
	Repository  string `yaml:"repository"`
	Region      string `yaml:"region,omitempty"`
}

// RiskPackageRule names a known-risk dependency.
// Versions is an optional semver constraint ("1.2.3", ">=2.0.0 <2.1.0"); empty means every version.
type RiskPackageRule struct {
	Name     string `yaml:"name" json:"name"`
	Versions string `yaml:"versions,omitempty" json:"versions,omitempty"`
	Reason   string `yaml:"reason,omitempty" json:"reason,omitempty"`
}
