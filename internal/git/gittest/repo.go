// Package gittest creates throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestRepo is a temporary git repository for testing.
type TestRepo struct {
	Dir string
	t   *testing.T
}

// NewTestRepo creates an initialized git repository in t.TempDir(). The test
// is skipped when git is not installed.
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run(t, dir, "init")
	run(t, dir, "config", "user.email", "test@example.com")
	run(t, dir, "config", "user.name", "Test User")
	run(t, dir, "config", "commit.gpgsign", "false")
	return &TestRepo{Dir: dir, t: t}
}

// Commit creates a commit with the given files and returns the commit SHA.
func (r *TestRepo) Commit(msg string, files map[string]string) string {
	r.t.Helper()
	for path, content := range files {
		writeFile(r.t, r.Dir, path, content)
	}
	run(r.t, r.Dir, "add", ".")
	run(r.t, r.Dir, "commit", "-m", msg)
	return strings.TrimSpace(run(r.t, r.Dir, "rev-parse", "HEAD"))
}

// CurrentBranch returns the name of the current branch.
func (r *TestRepo) CurrentBranch() string {
	r.t.Helper()
	return strings.TrimSpace(run(r.t, r.Dir, "rev-parse", "--abbrev-ref", "HEAD"))
}

// LastCommitMessage returns the full message of HEAD, trailers included.
func (r *TestRepo) LastCommitMessage() string {
	r.t.Helper()
	return run(r.t, r.Dir, "log", "-1", "--format=%B")
}

// CommitCount returns the number of commits reachable from HEAD.
func (r *TestRepo) CommitCount() string {
	r.t.Helper()
	return strings.TrimSpace(run(r.t, r.Dir, "rev-list", "--count", "HEAD"))
}

// WriteFile creates a file in the repo directory.
func (r *TestRepo) WriteFile(name, content string) {
	r.t.Helper()
	writeFile(r.t, r.Dir, name, content)
}

func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	// Commit signing depends on the host configuration.
	fullArgs := append([]string{"-c", "commit.gpgsign=false"}, args...)
	cmd := exec.Command("git", fullArgs...)
	cmd.Dir = dir
	cmd.Env = sanitizedEnv()
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, string(out))
	}
	return string(out)
}

// sanitizedEnv returns os.Environ() without git hook and identity overrides.
func sanitizedEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		key := strings.ToUpper(strings.SplitN(e, "=", 2)[0])
		if strings.HasPrefix(key, "GIT_AUTHOR_") ||
			strings.HasPrefix(key, "GIT_COMMITTER_") {
			continue
		}
		switch key {
		case "GIT_DIR", "GIT_INDEX_FILE", "GIT_WORK_TREE",
			"GIT_OBJECT_DIRECTORY", "GIT_ALTERNATE_OBJECT_DIRECTORIES":
			continue
		}
		env = append(env, e)
	}
	return env
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
