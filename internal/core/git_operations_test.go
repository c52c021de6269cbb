package core

import (
	"context"
	"strings"
	"testing"

	"github.com/EmundoT/pkgguard/internal/git"
	"github.com/EmundoT/pkgguard/internal/git/gittest"
)

// ============================================================================
// SystemGitClient Tests
// ============================================================================

func TestSystemGitClient_MigrationCommit(t *testing.T) {
	repo := gittest.NewTestRepo(t)
	repo.Commit("initial", map[string]string{"package.json": `{"name":"web"}`, "yarn.lock": "# yarn"})
	client := NewSystemGitClient(nil)
	ctx := context.Background()

	ok, err := client.IsWorkTree(ctx, repo.Dir)
	if err != nil || !ok {
		t.Fatalf("IsWorkTree = %v, %v", ok, err)
	}
	if err := client.CheckoutBranch(ctx, repo.Dir, "pkgguard/pnpm"); err != nil {
		t.Fatalf("CheckoutBranch: %v", err)
	}

	repo.WriteFile("pnpm-lock.yaml", "lockfileVersion: '9.0'\n")
	if err := client.Add(ctx, repo.Dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	staged, err := client.DiffCachedNames(ctx, repo.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 1 || staged[0] != "pnpm-lock.yaml" {
		t.Errorf("staged = %v", staged)
	}

	err = client.Commit(ctx, repo.Dir, git.CommitOpts{
		Message:  "chore: migrate web to pnpm",
		Trailers: []git.Trailer{{Key: TrailerRunID, Value: "run-9"}},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !strings.Contains(repo.LastCommitMessage(), TrailerRunID+": run-9") {
		t.Errorf("trailer missing:\n%s", repo.LastCommitMessage())
	}
	if repo.CurrentBranch() != "pkgguard/pnpm" {
		t.Errorf("branch = %s", repo.CurrentBranch())
	}
}

func TestSystemGitClient_NotAWorkTree(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ok, err := NewSystemGitClient(nil).IsWorkTree(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("temp dir reported as a work tree")
	}
}
