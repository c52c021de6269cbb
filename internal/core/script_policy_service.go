package core

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/EmundoT/pkgguard/internal/metrics"
	"github.com/EmundoT/pkgguard/internal/npmname"
	"github.com/EmundoT/pkgguard/internal/types"
)

// Sanitize applies policy to one dependency descriptor and returns the descriptor
// the installer should use plus the audit entries describing what happened.
//
// Evaluation order: trusted namespace → deny list → allow list → strip.
// pkg is never modified; the returned descriptor never shares maps with it.
func Sanitize(pkg types.PackageDescriptor, policy types.ScriptPolicy, clock Clock) (types.PackageDescriptor, []types.AuditLogEntry, error) {
	if strings.TrimSpace(pkg.Name) == "" {
		return types.PackageDescriptor{}, nil, NewConfigurationError("package descriptor", "name", ErrMissingPackageName)
	}
	if clock == nil {
		clock = NewMonotonicClock()
	}

	if npmname.InNamespace(pkg.Name, policy.TrustedNamespace) {
		return copyDescriptor(pkg), nil, nil
	}

	for _, denied := range policy.Deny {
		if denied == pkg.Name {
			blocked := types.PackageDescriptor{
				Name:                 pkg.Name,
				Version:              pkg.Version,
				Scripts:              map[string]string{},
				Dependencies:         map[string]string{},
				OptionalDependencies: map[string]string{},
				PeerDependencies:     map[string]string{},
				BundleDependencies:   []string{},
			}
			entry := types.AuditLogEntry{
				Timestamp:   clock.Now(),
				Action:      types.ActionBlockedPackage,
				PackageName: pkg.Name,
				Detail:      blockedDetail(pkg),
			}
			return blocked, []types.AuditLogEntry{entry}, nil
		}
	}

	present := presentLifecycleScripts(pkg.Scripts)

	if pattern, ok := npmname.MatchAny(policy.Allow, pkg.Name); ok {
		var entries []types.AuditLogEntry
		if len(present) > 0 {
			entries = append(entries, types.AuditLogEntry{
				Timestamp:   clock.Now(),
				Action:      types.ActionAllowedScripts,
				PackageName: pkg.Name,
				Detail:      fmt.Sprintf("allowed by %q: %s", pattern, strings.Join(present, ", ")),
			})
		}
		return copyDescriptor(pkg), entries, nil
	}

	out := copyDescriptor(pkg)
	entries := make([]types.AuditLogEntry, 0, len(present))
	for _, script := range present {
		command := out.Scripts[script]
		delete(out.Scripts, script)
		entries = append(entries, types.AuditLogEntry{
			Timestamp:   clock.Now(),
			Action:      types.ActionRemovedScript,
			PackageName: pkg.Name,
			Detail:      "removed lifecycle script " + script,
			Script:      script,
			Command:     command,
		})
	}
	return out, entries, nil
}

// ScriptsPermitted reports whether policy lets the package called name keep
// its lifecycle scripts. It follows the same precedence as Sanitize.
func ScriptsPermitted(name string, policy types.ScriptPolicy) bool {
	if npmname.InNamespace(name, policy.TrustedNamespace) {
		return true
	}
	if slices.Contains(policy.Deny, name) {
		return false
	}
	_, ok := npmname.MatchAny(policy.Allow, name)
	return ok
}

// Summarize counts the policy actions in entries. COMPLETED entries are ignored.
func Summarize(entries []types.AuditLogEntry) types.SanitizeSummary {
	var summary types.SanitizeSummary
	packages := make(map[string]struct{})
	for _, e := range entries {
		switch e.Action {
		case types.ActionRemovedScript:
			summary.Removed++
		case types.ActionBlockedPackage:
			summary.Blocked++
		case types.ActionAllowedScripts:
			summary.Allowed++
		default:
			continue
		}
		packages[e.PackageName] = struct{}{}
	}
	summary.Packages = len(packages)
	return summary
}

// FormatSummary renders a summary as the detail of a COMPLETED entry.
func FormatSummary(s types.SanitizeSummary) string {
	return fmt.Sprintf("packages=%d removed=%d blocked=%d allowed=%d", s.Packages, s.Removed, s.Blocked, s.Allowed)
}

// presentLifecycleScripts returns the reserved script names declared in scripts,
// in reserved order.
func presentLifecycleScripts(scripts map[string]string) []string {
	var present []string
	for _, name := range LifecycleScripts {
		if _, ok := scripts[name]; ok {
			present = append(present, name)
		}
	}
	return present
}

func blockedDetail(pkg types.PackageDescriptor) string {
	detail := "package is on the deny list"
	if pkg.Version != "" {
		detail += " (version " + pkg.Version + ")"
	}
	if n := len(pkg.Scripts); n > 0 {
		names := make([]string, 0, n)
		for name := range pkg.Scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		detail += "; dropped scripts " + strings.Join(names, ", ")
	}
	return detail
}

func copyDescriptor(pkg types.PackageDescriptor) types.PackageDescriptor {
	return types.PackageDescriptor{
		Name:                 pkg.Name,
		Version:              pkg.Version,
		Scripts:              copyStringMap(pkg.Scripts),
		Dependencies:         copyStringMap(pkg.Dependencies),
		OptionalDependencies: copyStringMap(pkg.OptionalDependencies),
		PeerDependencies:     copyStringMap(pkg.PeerDependencies),
		BundleDependencies:   slices.Clone(pkg.BundleDependencies),
	}
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ScriptPolicyServiceInterface defines the contract for install-time script sanitization.
type ScriptPolicyServiceInterface interface {
	// Sanitize evaluates pkg and appends the resulting entries to the audit log.
	Sanitize(pkg types.PackageDescriptor) (types.PackageDescriptor, []types.AuditLogEntry, error)

	// Complete appends the COMPLETED entry closing a sanitization pass.
	Complete(scope string, summary types.SanitizeSummary) error

	// Summary returns the counts accumulated by this service instance.
	Summary() types.SanitizeSummary

	// Policy returns the loaded policy.
	Policy() types.ScriptPolicy
}

// Compile-time interface satisfaction check.
var _ ScriptPolicyServiceInterface = (*ScriptPolicyService)(nil)

// ScriptPolicyService binds a loaded ScriptPolicy to an audit log sink.
type ScriptPolicyService struct {
	policy  types.ScriptPolicy
	log     AuditLogWriter
	clock   Clock
	metrics *metrics.Recorder
	runID   string
	entries []types.AuditLogEntry
}

// NewScriptPolicyService creates a ScriptPolicyService. rec may be nil.
func NewScriptPolicyService(policy types.ScriptPolicy, log AuditLogWriter, clock Clock, rec *metrics.Recorder, runID string) *ScriptPolicyService {
	if clock == nil {
		clock = NewMonotonicClock()
	}
	return &ScriptPolicyService{
		policy:  policy,
		log:     log,
		clock:   clock,
		metrics: rec,
		runID:   runID,
	}
}

// Sanitize runs Sanitize and persists every entry before returning.
// A failed log write is returned as an error: removals must never go unrecorded.
func (s *ScriptPolicyService) Sanitize(pkg types.PackageDescriptor) (types.PackageDescriptor, []types.AuditLogEntry, error) {
	out, entries, err := Sanitize(pkg, s.policy, s.clock)
	if err != nil {
		return types.PackageDescriptor{}, nil, err
	}
	if len(entries) == 0 {
		return out, nil, nil
	}

	for i := range entries {
		entries[i].RunID = s.runID
	}
	if err := s.log.Append(entries...); err != nil {
		return types.PackageDescriptor{}, nil, fmt.Errorf("record audit entries for %s: %w", pkg.Name, err)
	}
	for _, e := range entries {
		s.metrics.ObserveScriptAction(string(e.Action))
	}
	s.entries = append(s.entries, entries...)
	return out, entries, nil
}

// Complete appends one COMPLETED entry whose detail carries the summary counts.
func (s *ScriptPolicyService) Complete(scope string, summary types.SanitizeSummary) error {
	entry := types.AuditLogEntry{
		Timestamp:   s.clock.Now(),
		Action:      types.ActionCompleted,
		PackageName: scope,
		Detail:      FormatSummary(summary),
		RunID:       s.runID,
	}
	if err := s.log.Append(entry); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	s.metrics.ObserveScriptAction(string(types.ActionCompleted))
	return nil
}

// Summary returns the counts of entries written through this instance.
func (s *ScriptPolicyService) Summary() types.SanitizeSummary {
	return Summarize(s.entries)
}

// Policy returns the loaded policy.
func (s *ScriptPolicyService) Policy() types.ScriptPolicy {
	return s.policy
}
