package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// ToolResult is the captured output of one external tool invocation.
type ToolResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// ToolRunner runs external tools (pnpm, npm, aws) for the migration steps and
// the signal collector.
//
//go:generate mockgen -source=tool_runner.go -destination=tool_runner_mock_test.go -package=core
type ToolRunner interface {
	// Run executes name with args in dir. env entries are added on top of the
	// current environment. A non-zero exit returns the captured result together
	// with a *CollaboratorFailure.
	Run(ctx context.Context, dir string, env map[string]string, name string, args ...string) (ToolResult, error)
}

// execToolRunner implements ToolRunner with os/exec.
type execToolRunner struct {
	logger *slog.Logger
}

// NewToolRunner creates a ToolRunner that starts real processes.
func NewToolRunner(logger *slog.Logger) ToolRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &execToolRunner{logger: logger}
}

// Run executes the tool and waits for it. Cancelling ctx kills the process.
func (r *execToolRunner) Run(ctx context.Context, dir string, env map[string]string, name string, args ...string) (ToolResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = buildEnvironment(env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	label := toolLabel(name, args)
	r.logger.Debug("running tool", "tool", label, "dir", dir)

	err := cmd.Run()
	result := ToolResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return result, nil
	}

	result.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}
	r.logger.Debug("tool failed", "tool", label, "exit", result.ExitCode, "stderr", strings.TrimSpace(stderr.String()))
	return result, NewCollaboratorFailure(label, result.ExitCode, stderr.String(), err)
}

// buildEnvironment appends extra variables to the current environment in key order.
func buildEnvironment(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, extra[k]))
	}
	return env
}

// toolLabel names an invocation by its binary and subcommand, e.g. "pnpm install".
func toolLabel(name string, args []string) string {
	if len(args) > 0 && args[0] != "" && !strings.HasPrefix(args[0], "-") {
		return name + " " + args[0]
	}
	return name
}
