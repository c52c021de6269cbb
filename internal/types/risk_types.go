// Package types defines data structures for pkgguard configuration, audit records and migration traces.
package types

// RiskTier is the coarse supply-chain exposure of a repository.
type RiskTier string

// RiskTier values, from least to most exposed.
const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// RepositorySignals are the per-repository inputs of classification.
// Only the first three fields drive the tier; the lists explain it in reports.
type RepositorySignals struct {
	HasLifecycleScripts bool `json:"hasLifecycleScripts"`
	VulnerabilityCount  int  `json:"vulnerabilityCount"`
	HasRiskPackage      bool `json:"hasRiskPackage"`

	LifecycleScripts    []string `json:"lifecycleScripts,omitempty"`
	RiskPackages        []string `json:"riskPackages,omitempty"`
	VulnerabilitySource string   `json:"vulnerabilitySource,omitempty"` // "cyclonedx" or "npm-audit"
}

// Audit record statuses.
const (
	AuditStatusOK     = "ok"
	AuditStatusFailed = "failed"
)

// AuditRecord is the classification outcome for one repository in one run.
// A failed record has no Tier and never counts towards tier statistics.
type AuditRecord struct {
	Repository         string   `json:"repository"`
	Tier               RiskTier `json:"tier,omitempty"`
	VulnerabilityCount int      `json:"vulnerabilityCount"`
	LifecycleFlag      bool     `json:"lifecycleFlag"`
	RiskPackageFlag    bool     `json:"riskPackageFlag"`
	Status             string   `json:"status"`
	Error              string   `json:"error,omitempty"`
	Timestamp          string   `json:"timestamp"`
}

// Failed reports whether the record is a failed-status row.
func (r AuditRecord) Failed() bool {
	return r.Status == AuditStatusFailed
}

// FleetSummary is the aggregation of every AuditRecord of a run.
type FleetSummary struct {
	HighCount          int      `json:"highCount"`
	MediumCount        int      `json:"mediumCount"`
	LowCount           int      `json:"lowCount"`
	FailedCount        int      `json:"failedCount"`
	PrioritizedOrder   []string `json:"prioritizedOrder"`
	FailedRepositories []string `json:"failedRepositories,omitempty"`
}
