// Package types defines data structures for pkgguard configuration, audit records and migration traces.
package types

import "time"

// PackageDescriptor is the part of a dependency manifest the script policy acts on.
type PackageDescriptor struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version,omitempty"`
	Scripts              map[string]string `json:"scripts,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	BundleDependencies   []string          `json:"bundleDependencies,omitempty"`
}

// ScriptPolicyFile is the on-disk layout of .pkgguard-policy.yml.
type ScriptPolicyFile struct {
	ScriptPolicy ScriptPolicy `yaml:"script_policy"`
}

// ScriptPolicy holds the allow and deny lists evaluated for every dependency.
// Allow entries are exact names or "@scope/*" wildcards; Deny entries are exact names.
type ScriptPolicy struct {
	Allow            []string `yaml:"allow" json:"allow"`
	Deny             []string `yaml:"deny" json:"deny"`
	TrustedNamespace string   `yaml:"trusted_namespace,omitempty" json:"trustedNamespace,omitempty"` // e.g. "@acme"
}

// AuditAction identifies what the script policy did to a package.
type AuditAction string

// AuditAction values written to the audit log.
const (
	ActionRemovedScript  AuditAction = "REMOVED_SCRIPT"
	ActionBlockedPackage AuditAction = "BLOCKED_PACKAGE"
	ActionAllowedScripts AuditAction = "ALLOWED_SCRIPTS"
	ActionCompleted      AuditAction = "COMPLETED"
)

// AuditLogEntry is a single line of the append-only audit log (JSONL).
type AuditLogEntry struct {
	Timestamp   time.Time   `json:"timestamp"`
	Action      AuditAction `json:"action"`
	PackageName string      `json:"packageName"`
	Detail      string      `json:"detail"`
	Script      string      `json:"script,omitempty"`  // REMOVED_SCRIPT only
	Command     string      `json:"command,omitempty"` // REMOVED_SCRIPT only: original command text
	RunID       string      `json:"runId,omitempty"`
}

// SanitizeSummary counts audit actions over a set of log entries.
type SanitizeSummary struct {
	Packages int `json:"packages"` // distinct package names with at least one entry
	Removed  int `json:"removed"`
	Blocked  int `json:"blocked"`
	Allowed  int `json:"allowed"`
}
