package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions.
// These can be used with errors.Is() for error type checking.
var (
	// ErrMissingPackageName indicates a package descriptor without a name
	ErrMissingPackageName = errors.New("package descriptor has no name")

	// ErrNegativeVulnerabilityCount indicates a scanner reported fewer than zero findings
	ErrNegativeVulnerabilityCount = errors.New("vulnerability count must not be negative")

	// ErrManifestNotFound indicates a repository has no package.json
	ErrManifestNotFound = errors.New("package.json not found")

	// ErrNoRepositories indicates fleet.yml lists no repositories
	ErrNoRepositories = errors.New("fleet.yml lists no repositories")

	// ErrNotWorkTree indicates a repository path is not inside a git work tree
	ErrNotWorkTree = errors.New("not a git work tree")

	// ErrSnapshotMissing indicates a backup directory without a snapshot index
	ErrSnapshotMissing = errors.New("backup snapshot not found")
)

// Error message templates for formatted errors.
// Use with fmt.Errorf() to create errors with context.
const (
	// ErrRepositoryNotFoundMsg is the message for unknown repository names
	ErrRepositoryNotFoundMsg = "repository '%s' not found in fleet.yml"

	// ErrStepFailedMsg is the message for a failed migration step
	ErrStepFailedMsg = "step %s failed for %s: %w"
)

// ConfigurationError reports malformed policy lists, fleet configuration or
// package descriptors. It aborts the current unit of work.
type ConfigurationError struct {
	Source string // file or input the problem was found in
	Field  string
	Err    error
}

// NewConfigurationError wraps err as a ConfigurationError for source.
func NewConfigurationError(source, field string, err error) *ConfigurationError {
	return &ConfigurationError{Source: source, Field: field, Err: err}
}

func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration error")
	if e.Source != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Source)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, " (%s)", e.Field)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// CollaboratorFailure reports an external tool or service that did not complete.
type CollaboratorFailure struct {
	Tool     string
	ExitCode int // -1 when the process never started or was killed
	Stderr   string
	Err      error
}

// NewCollaboratorFailure wraps err as a CollaboratorFailure for tool.
func NewCollaboratorFailure(tool string, exitCode int, stderr string, err error) *CollaboratorFailure {
	return &CollaboratorFailure{Tool: tool, ExitCode: exitCode, Stderr: strings.TrimSpace(stderr), Err: err}
}

func (e *CollaboratorFailure) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + lastLine(e.Stderr)
	}
	return msg
}

func (e *CollaboratorFailure) Unwrap() error { return e.Err }

// ClassificationInputMissingError reports a repository whose signals could not be collected.
// Such repositories become failed-status audit rows instead of being assigned a tier.
type ClassificationInputMissingError struct {
	Repository string
	Err        error
}

func (e *ClassificationInputMissingError) Error() string {
	return fmt.Sprintf("classification input missing for %s: %v", e.Repository, e.Err)
}

func (e *ClassificationInputMissingError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsCollaboratorFailure reports whether err is or wraps a CollaboratorFailure.
func IsCollaboratorFailure(err error) bool {
	var target *CollaboratorFailure
	return errors.As(err, &target)
}

// IsClassificationInputMissing reports whether err is or wraps a ClassificationInputMissingError.
func IsClassificationInputMissing(err error) bool {
	var target *ClassificationInputMissingError
	return errors.As(err, &target)
}

// lastLine returns the last non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
