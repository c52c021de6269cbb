// Package types defines data structures for pkgguard configuration, audit records and migration traces.
package types

// StepName identifies a migration step.
type StepName string

// Migration steps in execution order.
const (
	StepSetup          StepName = "Setup"
	StepAudit          StepName = "Audit"
	StepCleanup        StepName = "Cleanup"
	StepConfigInstall  StepName = "ConfigInstall"
	StepManifestUpdate StepName = "ManifestUpdate"
	StepRegistryAuth   StepName = "RegistryAuth"
	StepInstall        StepName = "Install"
	StepVerify         StepName = "Verify"
	StepBuildTest      StepName = "BuildTest"
	StepCommit         StepName = "Commit"
)

// MigrationStepOrder lists every step in the order the orchestrator runs them.
var MigrationStepOrder = []StepName{
	StepSetup,
	StepAudit,
	StepCleanup,
	StepConfigInstall,
	StepManifestUpdate,
	StepRegistryAuth,
	StepInstall,
	StepVerify,
	StepBuildTest,
	StepCommit,
}

// StepOutcome is the recorded result of one migration step.
type StepOutcome string

// StepOutcome values.
const (
	StepOK      StepOutcome = "OK"
	StepWarning StepOutcome = "WARNING"
	StepFailed  StepOutcome = "FAILED"
)

// MigrationStep is one entry of a migration trace.
type MigrationStep struct {
	Name       StepName    `json:"name"`
	Outcome    StepOutcome `json:"outcome"`
	Detail     string      `json:"detail"`
	StartedAt  string      `json:"startedAt,omitempty"`
	DurationMS int64       `json:"durationMs"`
}

// MigrationTrace is the ordered step history of one repository migration.
type MigrationTrace struct {
	Repository string          `json:"repository"`
	RunID      string          `json:"runId"`
	Tier       RiskTier        `json:"tier,omitempty"`
	BackupDir  string          `json:"backupDir,omitempty"`
	Steps      []MigrationStep `json:"steps"`
	Aborted    bool            `json:"aborted"`
}

// Migration result constants for MigrationTrace.Result.
const (
	MigrationResultPass = "PASS"
	MigrationResultWarn = "WARN"
	MigrationResultFail = "FAIL"
)

// Result collapses the trace into PASS, WARN or FAIL. FAIL > WARN > PASS.
func (t MigrationTrace) Result() string {
	result := MigrationResultPass
	for _, step := range t.Steps {
		switch step.Outcome {
		case StepFailed:
			return MigrationResultFail
		case StepWarning:
			result = MigrationResultWarn
		}
	}
	return result
}

// Warnings returns the steps that finished with a WARNING outcome.
func (t MigrationTrace) Warnings() []MigrationStep {
	var out []MigrationStep
	for _, step := range t.Steps {
		if step.Outcome == StepWarning {
			out = append(out, step)
		}
	}
	return out
}
