package git

import (
	"errors"
	"strings"
)

// ErrNotRepo is returned when a directory is not inside a git work tree.
var ErrNotRepo = errors.New("not a git repository")

// GitError wraps an exec error with the command that was run and stderr output.
type GitError struct {
	Args   []string // git subcommand and arguments
	Stderr string   // stderr output from git
	Err    error    // underlying exec error
}

func (e *GitError) Error() string {
	s := strings.TrimSpace(e.Stderr)
	if s != "" {
		return "git " + firstArg(e.Args) + ": " + s
	}
	return "git " + firstArg(e.Args) + ": " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// IsNotRepo reports whether err indicates the directory is not a git repository.
func IsNotRepo(err error) bool {
	if errors.Is(err, ErrNotRepo) {
		return true
	}
	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return strings.Contains(gitErr.Stderr, "not a git repository")
	}
	return false
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
