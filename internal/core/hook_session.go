package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/EmundoT/pkgguard/internal/manifest"
	"github.com/EmundoT/pkgguard/internal/types"
)

// maxHookInput bounds one package descriptor read from stdin.
const maxHookInput = 10 << 20

// ErrEmptyInput is returned when the hook receives no descriptor.
var ErrEmptyInput = errors.New("empty input")

// HookSettings are read from the environment .pnpmfile.cjs passes down.
type HookSettings struct {
	AuditLogPath string
	PolicyFile   string
	RunID        string
}

// HookSettingsFromEnv resolves hook settings. Without PKGGUARD_POLICY the
// policy file in the working directory is used, if any.
func HookSettingsFromEnv(getenv func(string) string) HookSettings {
	if getenv == nil {
		getenv = os.Getenv
	}
	s := HookSettings{
		AuditLogPath: getenv(EnvAuditLog),
		PolicyFile:   getenv(EnvPolicy),
		RunID:        getenv(EnvRunID),
	}
	if s.AuditLogPath == "" {
		s.AuditLogPath = DefaultAuditLogName
	}
	if s.PolicyFile == "" {
		s.PolicyFile = PolicyFileName
	}
	return s
}

// LoadHookPolicy loads the policy named by settings and applies PKGGUARD_TRUSTED_NAMESPACE.
// A missing policy file yields the default policy.
func LoadHookPolicy(settings HookSettings, getenv func(string) string) (types.ScriptPolicy, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	return loadPolicyWithOverrides(settings.PolicyFile, getenv)
}

// HookSession applies the script policy to package descriptors handed over
// by the package manager or named on the command line.
type HookSession struct {
	policy ScriptPolicyServiceInterface
	logger *slog.Logger
}

// NewHookSession creates a HookSession around a policy service.
func NewHookSession(policy ScriptPolicyServiceInterface, logger *slog.Logger) *HookSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &HookSession{policy: policy, logger: logger}
}

// Serve reads one package JSON from in and writes the sanitized package to out
// as a single compact line. Keys the policy does not touch pass through in
// their original order. Malformed input is a ConfigurationError.
func (h *HookSession) Serve(in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(io.LimitReader(in, maxHookInput+1))
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) > maxHookInput {
		return NewConfigurationError("stdin", "", fmt.Errorf("input exceeds %d bytes", maxHookInput))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewConfigurationError("stdin", "", ErrEmptyInput)
	}

	doc, err := manifest.Parse(data)
	if err != nil {
		return NewConfigurationError("stdin", "", err)
	}
	changed, err := h.apply(doc, "stdin")
	if err != nil {
		return err
	}

	encoded, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := out.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	h.logger.Debug("hook served", "changed", changed)
	return nil
}

// SanitizeFiles rewrites each package.json in place and closes the pass with
// one COMPLETED entry. Files the policy leaves unchanged are not rewritten.
func (h *HookSession) SanitizeFiles(paths []string) (types.SanitizeSummary, error) {
	for _, path := range paths {
		doc, err := manifest.Load(path)
		if err != nil {
			return types.SanitizeSummary{}, NewConfigurationError(path, "", err)
		}
		changed, err := h.apply(doc, path)
		if err != nil {
			return types.SanitizeSummary{}, err
		}
		if !changed {
			continue
		}
		if err := doc.Save(path); err != nil {
			return types.SanitizeSummary{}, fmt.Errorf("write %s: %w", path, err)
		}
		h.logger.Info("sanitized", "file", path)
	}

	summary := h.policy.Summary()
	if err := h.policy.Complete(sanitizeScope(paths), summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// apply runs the policy over doc and writes the result back. It reports
// whether anything was removed.
func (h *HookSession) apply(doc *manifest.Document, source string) (bool, error) {
	pkg, err := doc.Descriptor()
	if err != nil {
		return false, NewConfigurationError(source, "", err)
	}
	sanitized, entries, err := h.policy.Sanitize(pkg)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = source
		}
		return false, err
	}

	changed := false
	for _, e := range entries {
		if e.Action == types.ActionRemovedScript || e.Action == types.ActionBlockedPackage {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	if err := doc.ApplyDescriptor(sanitized); err != nil {
		return false, NewConfigurationError(source, "", err)
	}
	return true, nil
}

// sanitizeScope names the COMPLETED entry of a sanitize pass.
func sanitizeScope(paths []string) string {
	if len(paths) == 1 {
		return filepath.Dir(paths[0])
	}
	return fmt.Sprintf("%d manifests", len(paths))
}
