package core

// File and directory names
const (
	// ConfigFile is the default fleet definition filename
	ConfigFile = "fleet.yml"
	// DefaultOutputDir holds audit logs, reports and backups when fleet.yml sets no output_dir
	DefaultOutputDir = ".pkgguard"
	// BackupsDir is the directory under the output dir holding per-run snapshots
	BackupsDir = "backups"
	// NodeModulesDir is removed by Cleanup
	NodeModulesDir = "node_modules"
)

// Output file name patterns, formatted with the run ID.
const (
	// AuditLogPattern names the per-run audit log
	AuditLogPattern = "audit-%s.jsonl"
	// ReportPattern names the per-run report
	ReportPattern = "report-%s.jsonl"
)

// Migration defaults
const (
	// DefaultBranch is the migration branch when fleet.yml sets none
	DefaultBranch = "pkgguard/pnpm-migration"
	// DefaultPackageManager is written to package.json "packageManager" when fleet.yml sets none
	DefaultPackageManager = "pnpm@9.15.0"
)

// Environment variables read by `pkgguard hook` and the fleet configuration.
const (
	// EnvAuditLog is the audit log path the hook appends to
	EnvAuditLog = "PKGGUARD_AUDIT_LOG"
	// EnvPolicy is the script policy file the hook loads
	EnvPolicy = "PKGGUARD_POLICY"
	// EnvTrustedNamespace overrides the policy's trusted namespace
	EnvTrustedNamespace = "PKGGUARD_TRUSTED_NAMESPACE"
	// EnvRunID stamps hook entries with the migration run
	EnvRunID = "PKGGUARD_RUN_ID"
	// EnvBinary tells .pnpmfile.cjs which pkgguard executable to call
	EnvBinary = "PKGGUARD_BIN"
)

// CleanupTargets are deleted by Cleanup after a successful snapshot, in order.
var CleanupTargets = []string{
	PackageLockFile,
	YarnLockFile,
	ShrinkwrapFile,
	NodeModulesDir,
}
