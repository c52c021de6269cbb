package core

import (
	"fmt"
	"time"

	"github.com/EmundoT/pkgguard/internal/types"
)

// HighVulnerabilityThreshold is the largest vulnerability count that is still
// MEDIUM on its own. Anything above it is HIGH.
const HighVulnerabilityThreshold = 10

// Classify maps repository signals to a risk tier. First match wins:
//
//  1. lifecycle scripts, a known-risk package or more than
//     HighVulnerabilityThreshold vulnerabilities → HIGH
//  2. any vulnerability → MEDIUM
//  3. LOW
func Classify(signals types.RepositorySignals) types.RiskTier {
	switch {
	case signals.HasLifecycleScripts,
		signals.HasRiskPackage,
		signals.VulnerabilityCount > HighVulnerabilityThreshold:
		return types.RiskHigh
	case signals.VulnerabilityCount > 0:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// NewAuditRecord classifies signals for repo. A negative vulnerability count is a
// ConfigurationError: the scanner contract was broken and nothing is defaulted.
func NewAuditRecord(repo string, signals types.RepositorySignals) (types.AuditRecord, error) {
	if signals.VulnerabilityCount < 0 {
		return types.AuditRecord{}, NewConfigurationError(repo, "vulnerabilityCount",
			fmt.Errorf("%w: got %d", ErrNegativeVulnerabilityCount, signals.VulnerabilityCount))
	}
	return types.AuditRecord{
		Repository:         repo,
		Tier:               Classify(signals),
		VulnerabilityCount: signals.VulnerabilityCount,
		LifecycleFlag:      signals.HasLifecycleScripts,
		RiskPackageFlag:    signals.HasRiskPackage,
		Status:             types.AuditStatusOK,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// NewFailedAuditRecord builds the failed-status row for a repository whose
// signals could not be collected or classified.
func NewFailedAuditRecord(repo string, err error) types.AuditRecord {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return types.AuditRecord{
		Repository: repo,
		Status:     types.AuditStatusFailed,
		Error:      msg,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// Aggregate counts tiers and orders repositories HIGH, then MEDIUM, then LOW,
// keeping input order inside each tier. Failed rows are not counted in any tier
// and are listed separately.
func Aggregate(records []types.AuditRecord) types.FleetSummary {
	summary := types.FleetSummary{PrioritizedOrder: []string{}}
	var high, medium, low []string

	for _, r := range records {
		if r.Failed() {
			summary.FailedCount++
			summary.FailedRepositories = append(summary.FailedRepositories, r.Repository)
			continue
		}
		switch r.Tier {
		case types.RiskHigh:
			high = append(high, r.Repository)
		case types.RiskMedium:
			medium = append(medium, r.Repository)
		case types.RiskLow:
			low = append(low, r.Repository)
		default:
			// An ok row without a tier cannot be ranked.
			summary.FailedCount++
			summary.FailedRepositories = append(summary.FailedRepositories, r.Repository)
		}
	}

	summary.HighCount = len(high)
	summary.MediumCount = len(medium)
	summary.LowCount = len(low)
	summary.PrioritizedOrder = append(summary.PrioritizedOrder, high...)
	summary.PrioritizedOrder = append(summary.PrioritizedOrder, medium...)
	summary.PrioritizedOrder = append(summary.PrioritizedOrder, low...)
	return summary
}
