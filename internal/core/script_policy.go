package core

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/EmundoT/pkgguard/internal/npmname"
	"github.com/EmundoT/pkgguard/internal/types"
)

// PolicyFileName is the script policy file looked up next to fleet.yml and
// copied into each migrated repository.
const PolicyFileName = ".pkgguard-policy.yml"

// LifecycleScripts are the reserved script names a package manager runs during
// installation, in the order removals are recorded.
var LifecycleScripts = []string{
	"install",
	"postinstall",
	"preinstall",
	"prepare",
	"prepublish",
	"prepublishOnly",
	"prepack",
	"postpack",
}

// IsLifecycleScript reports whether name is a reserved lifecycle script.
func IsLifecycleScript(name string) bool {
	for _, s := range LifecycleScripts {
		if s == name {
			return true
		}
	}
	return false
}

// DefaultScriptPolicy returns the policy used when no policy file exists:
// nothing is allowed, nothing is denied, every lifecycle script is stripped.
func DefaultScriptPolicy() types.ScriptPolicy {
	return types.ScriptPolicy{
		Allow: []string{},
		Deny:  []string{},
	}
}

// LoadScriptPolicy reads and validates a script policy file.
// LoadScriptPolicy returns DefaultScriptPolicy when the file does not exist.
// Any malformed entry is a ConfigurationError.
func LoadScriptPolicy(path string) (types.ScriptPolicy, error) {
	store := NewYAMLStore[types.ScriptPolicyFile](filepath.Dir(path), filepath.Base(path), true)
	file, err := store.Load()
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return types.ScriptPolicy{}, fmt.Errorf("read script policy %s: %w", path, err)
		}
		return types.ScriptPolicy{}, NewConfigurationError(path, "", err)
	}

	policy := file.ScriptPolicy
	if err := ValidateScriptPolicy(policy); err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = path
		}
		return types.ScriptPolicy{}, err
	}
	if policy.Allow == nil {
		policy.Allow = []string{}
	}
	if policy.Deny == nil {
		policy.Deny = []string{}
	}
	return policy, nil
}

// ValidateScriptPolicy checks every allow and deny entry.
// Allow entries may be exact names or "@scope/*"; deny entries must be exact names.
// A name in both lists is legal: deny wins at evaluation time.
func ValidateScriptPolicy(policy types.ScriptPolicy) error {
	for i, pattern := range policy.Allow {
		if err := npmname.ValidatePattern(pattern); err != nil {
			return NewConfigurationError("", fmt.Sprintf("allow[%d]", i), err)
		}
	}
	for i, name := range policy.Deny {
		if err := npmname.ValidatePattern(name); err != nil {
			return NewConfigurationError("", fmt.Sprintf("deny[%d]", i), err)
		}
		if npmname.IsWildcard(name) {
			return NewConfigurationError("", fmt.Sprintf("deny[%d]", i),
				fmt.Errorf("deny entry %q: wildcards are only allowed in allow", name))
		}
	}
	if ns := policy.TrustedNamespace; ns != "" {
		if !strings.HasPrefix(ns, "@") || len(ns) < 2 || strings.Contains(ns, "/") || strings.Contains(ns, "*") {
			return NewConfigurationError("", "trusted_namespace",
				fmt.Errorf("trusted namespace %q must look like \"@scope\"", ns))
		}
	}
	return nil
}
