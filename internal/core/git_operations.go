package core

import (
	"context"
	"log/slog"

	"github.com/EmundoT/pkgguard/internal/git"
)

// Commit trailers written by the Commit step.
const (
	TrailerRunID  = "Pkgguard-Run-Id"
	TrailerTier   = "Pkgguard-Tier"
	TrailerPolicy = "Pkgguard-Policy"
)

// GitClient handles the git operations of a migration.
//
//go:generate mockgen -source=git_operations.go -destination=git_client_mock_test.go -package=core
type GitClient interface {
	IsWorkTree(ctx context.Context, dir string) (bool, error)
	CheckoutBranch(ctx context.Context, dir, branch string) error
	Add(ctx context.Context, dir string, paths ...string) error
	DiffCachedNames(ctx context.Context, dir string) ([]string, error)
	Commit(ctx context.Context, dir string, opts git.CommitOpts) error
}

// Compile-time interface satisfaction check.
var _ GitClient = (*SystemGitClient)(nil)

// SystemGitClient implements GitClient using system git commands
type SystemGitClient struct {
	logger *slog.Logger
}

// NewSystemGitClient creates a new SystemGitClient. A nil logger disables
// command tracing.
func NewSystemGitClient(logger *slog.Logger) *SystemGitClient {
	return &SystemGitClient{logger: logger}
}

// gitFor creates a Git instance for the given directory.
func (g *SystemGitClient) gitFor(dir string) *git.Git {
	return &git.Git{Dir: dir, Logger: g.logger}
}

// IsWorkTree reports whether dir is inside a git work tree
func (g *SystemGitClient) IsWorkTree(ctx context.Context, dir string) (bool, error) {
	return g.gitFor(dir).IsWorkTree(ctx)
}

// CheckoutBranch creates or resets branch at HEAD and checks it out
func (g *SystemGitClient) CheckoutBranch(ctx context.Context, dir, branch string) error {
	return g.gitFor(dir).CheckoutBranch(ctx, branch)
}

// Add stages files; no paths stages everything
func (g *SystemGitClient) Add(ctx context.Context, dir string, paths ...string) error {
	return g.gitFor(dir).Add(ctx, paths...)
}

// DiffCachedNames returns the staged file paths
func (g *SystemGitClient) DiffCachedNames(ctx context.Context, dir string) ([]string, error) {
	return g.gitFor(dir).DiffCachedNames(ctx)
}

// Commit creates a commit with trailers
func (g *SystemGitClient) Commit(ctx context.Context, dir string, opts git.CommitOpts) error {
	return g.gitFor(dir).Commit(ctx, opts)
}
