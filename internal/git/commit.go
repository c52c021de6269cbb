package git

import "context"

// Trailer represents a single key-value git trailer.
type Trailer struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CommitOpts configures a commit operation.
type CommitOpts struct {
	Message  string
	Trailers []Trailer // ordered key-value pairs added via --trailer
}

// Commit creates a new commit with the given options.
func (g *Git) Commit(ctx context.Context, opts CommitOpts) error {
	args := []string{"commit", "-m", opts.Message}
	for _, t := range opts.Trailers {
		args = append(args, "--trailer", t.Key+"="+t.Value)
	}
	return g.RunSilent(ctx, args...)
}

// Add stages paths for the next commit. With no paths every change in the
// work tree is staged, deletions included.
func (g *Git) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return g.RunSilent(ctx, "add", "-A")
	}
	args := append([]string{"add", "--"}, paths...)
	return g.RunSilent(ctx, args...)
}

// DiffCachedNames returns file paths with staged changes.
func (g *Git) DiffCachedNames(ctx context.Context) ([]string, error) {
	return g.RunLines(ctx, "diff", "--cached", "--name-only")
}
