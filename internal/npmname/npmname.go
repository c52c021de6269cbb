// Package npmname parses npm package names and matches them against policy patterns.
//
// A pattern is either an exact package name ("esbuild", "@acme/ui") or a
// namespace wildcard ("@acme/*"). A wildcard matches every name that starts
// with the scope followed by the "/" separator, so "@acme/*" matches
// "@acme/ui" but never "@acme-evil/ui".
package npmname

import (
	"errors"
	"fmt"
	"strings"
)

// WildcardSuffix terminates a namespace wildcard pattern.
const WildcardSuffix = "/*"

// Errors returned by ValidatePattern.
var (
	ErrEmptyPattern     = errors.New("pattern is empty")
	ErrMisplacedStar    = errors.New("'*' is only allowed as a trailing \"@scope/*\"")
	ErrUnscopedWildcard = errors.New("wildcard pattern must start with '@'")
)

// Scope returns the "@scope" part of a scoped name, or "" for unscoped names.
func Scope(name string) string {
	if !strings.HasPrefix(name, "@") {
		return ""
	}
	idx := strings.Index(name, "/")
	if idx <= 1 {
		return ""
	}
	return name[:idx]
}

// Split separates a package name into its scope (may be empty) and bare name.
func Split(name string) (scope, bare string) {
	scope = Scope(name)
	if scope == "" {
		return "", name
	}
	return scope, name[len(scope)+1:]
}

// Join builds a package name from a scope and a bare name.
// Join accepts the scope with or without its leading '@'.
func Join(scope, bare string) string {
	if scope == "" {
		return bare
	}
	if !strings.HasPrefix(scope, "@") {
		scope = "@" + scope
	}
	return scope + "/" + bare
}

// InNamespace reports whether name belongs to namespace ("@acme").
// An empty namespace contains nothing.
func InNamespace(name, namespace string) bool {
	namespace = strings.TrimSuffix(namespace, WildcardSuffix)
	namespace = strings.TrimSuffix(namespace, "/")
	if namespace == "" {
		return false
	}
	return strings.HasPrefix(name, namespace+"/")
}

// IsWildcard reports whether pattern is a namespace wildcard.
func IsWildcard(pattern string) bool {
	return strings.HasSuffix(pattern, WildcardSuffix)
}

// Match reports whether name matches pattern.
// "@scope/*" matches names with the prefix "@scope/"; anything else must be identical.
func Match(pattern, name string) bool {
	if IsWildcard(pattern) {
		prefix := strings.TrimSuffix(pattern, "*")
		return len(name) > len(prefix) && strings.HasPrefix(name, prefix)
	}
	return pattern == name
}

// MatchAny returns the first pattern matching name.
func MatchAny(patterns []string, name string) (string, bool) {
	for _, p := range patterns {
		if Match(p, name) {
			return p, true
		}
	}
	return "", false
}

// ValidatePattern checks that pattern is an exact name or a well-formed "@scope/*".
func ValidatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return ErrEmptyPattern
	}
	if pattern != strings.TrimSpace(pattern) {
		return fmt.Errorf("pattern %q has surrounding whitespace", pattern)
	}
	if !strings.Contains(pattern, "*") {
		return nil
	}
	if !IsWildcard(pattern) || strings.Count(pattern, "*") != 1 {
		return fmt.Errorf("pattern %q: %w", pattern, ErrMisplacedStar)
	}
	scope := strings.TrimSuffix(pattern, WildcardSuffix)
	if !strings.HasPrefix(scope, "@") || len(scope) < 2 || strings.Contains(scope, "/") {
		return fmt.Errorf("pattern %q: %w", pattern, ErrUnscopedWildcard)
	}
	return nil
}
