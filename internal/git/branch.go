package git

import (
	"context"
	"fmt"
)

// IsWorkTree reports whether Dir is inside a git work tree. A directory
// outside any repository is reported as false without an error.
func (g *Git) IsWorkTree(ctx context.Context) (bool, error) {
	out, err := g.Run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		if IsNotRepo(err) {
			return false, nil
		}
		return false, err
	}
	return out == "true", nil
}

// CurrentBranch returns the checked out branch name, or "HEAD" when detached.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	return g.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// CheckoutBranch creates name at HEAD, or resets it there when it already
// exists, and checks it out. Re-running a migration reuses the branch.
func (g *Git) CheckoutBranch(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("checkout: empty branch name")
	}
	return g.RunSilent(ctx, "checkout", "-B", name)
}

// HEAD returns the commit hash HEAD points to.
func (g *Git) HEAD(ctx context.Context) (string, error) {
	return g.Run(ctx, "rev-parse", "HEAD")
}
