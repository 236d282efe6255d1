// Package publish moves locally edited content into the shared remote
// history by wrapping the version-control binary. Every operation is scoped
// to the content directory and serialized through a single mutex, since the
// working tree is process-wide shared state.
package publish

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"oversite-cms/internal/logger"
)

// Runner executes one version-control command and returns its combined
// output with surrounding whitespace trimmed.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ToolError wraps a failed subprocess invocation, carrying the tool's own
// output so it can be surfaced to the caller verbatim.
type ToolError struct {
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	return e.Err.Error()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// execRunner invokes the configured binary with the repository root as its
// working directory.
type execRunner struct {
	bin string
	dir string
}

// NewExecRunner creates a Runner that shells out to the given binary inside
// the given working-tree root.
func NewExecRunner(bin, dir string) Runner {
	return &execRunner{bin: bin, dir: dir}
}

func (r *execRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, &ToolError{Output: output, Err: err}
	}
	return output, nil
}

// Change is one changed path under the content directory.
type Change struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

// Status describes the content directory relative to the remote.
type Status struct {
	HasLocalChanges bool     `json:"hasLocalChanges"`
	BehindRemote    bool     `json:"behindRemote"`
	AheadRemote     bool     `json:"aheadRemote"`
	BehindCount     int      `json:"behindCount"`
	AheadCount      int      `json:"aheadCount"`
	Changes         []Change `json:"changes"`
}

// PushResult reports the outcome of a publish attempt. NoChanges marks the
// expected steady state where there was nothing to commit.
type PushResult struct {
	Success   bool `json:"success"`
	NoChanges bool `json:"noChanges,omitempty"`
}

// Gateway exposes the four operations an editor needs against the content
// directory: inspect, pull, publish, and discard-all.
type Gateway struct {
	mu             sync.Mutex
	runner         Runner
	contentDir     string
	remote         string
	branch         string
	defaultMessage string
	log            logger.Logger
}

// NewGateway creates a Gateway. contentDir is the pathspec of the content
// directory relative to the working-tree root the runner operates in.
func NewGateway(runner Runner, contentDir, remote, branch, defaultMessage string, log logger.Logger) *Gateway {
	return &Gateway{
		runner:         runner,
		contentDir:     contentDir,
		remote:         remote,
		branch:         branch,
		defaultMessage: defaultMessage,
		log:            log,
	}
}

func (g *Gateway) upstream() string {
	return g.remote + "/" + g.branch
}

// Status reports local changes under the content directory plus ahead/behind
// counts against the upstream branch. When the fetch fails (no network, no
// remote) the counts stay zero and only local information is returned.
func (g *Gateway) Status(ctx context.Context) (*Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out, err := g.runner.Run(ctx, "status", "--porcelain", "--", g.contentDir)
	if err != nil {
		return nil, err
	}
	changes := parsePorcelain(out)

	status := &Status{
		HasLocalChanges: len(changes) > 0,
		Changes:         changes,
	}

	if _, err := g.runner.Run(ctx, "fetch", g.remote); err != nil {
		g.log.Warn(fmt.Sprintf("Fetch failed, reporting local-only status: %v", err))
		return status, nil
	}

	if out, err := g.runner.Run(ctx, "rev-list", "--count", "HEAD.."+g.upstream()); err == nil {
		if n, err := strconv.Atoi(out); err == nil {
			status.BehindCount = n
		}
	}
	if out, err := g.runner.Run(ctx, "rev-list", "--count", g.upstream()+"..HEAD"); err == nil {
		if n, err := strconv.Atoi(out); err == nil {
			status.AheadCount = n
		}
	}
	status.BehindRemote = status.BehindCount > 0
	status.AheadRemote = status.AheadCount > 0
	return status, nil
}

// Pull fast-forwards the tracked branch from the remote. Failures carry the
// tool's message verbatim.
func (g *Gateway) Pull(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, err := g.runner.Run(ctx, "pull", g.remote, g.branch)
	return err
}

// Push stages the content directory, commits with the given message, and
// pushes. An empty message falls back to the configured default. "Nothing to
// commit" is an expected steady state, reported through the result rather
// than as an error.
func (g *Gateway) Push(ctx context.Context, message string) (*PushResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		message = g.defaultMessage
	}

	if _, err := g.runner.Run(ctx, "add", "--", g.contentDir); err != nil {
		return nil, err
	}
	if out, err := g.runner.Run(ctx, "commit", "-m", message); err != nil {
		if strings.Contains(out, "nothing to commit") || strings.Contains(err.Error(), "nothing to commit") {
			return &PushResult{Success: false, NoChanges: true}, nil
		}
		return nil, err
	}
	if _, err := g.runner.Run(ctx, "push", g.remote, g.branch); err != nil {
		return nil, err
	}
	return &PushResult{Success: true}, nil
}

// Undo removes untracked files under the content directory and discards all
// tracked modifications, fully reverting to the last published state. The
// caller is responsible for confirming destructive intent.
func (g *Gateway) Undo(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.runner.Run(ctx, "clean", "-fd", "--", g.contentDir); err != nil {
		return err
	}
	_, err := g.runner.Run(ctx, "checkout", "--", g.contentDir)
	return err
}

// parsePorcelain turns `status --porcelain` output into Changes. Each line
// is "XY PATH"; renames carry "old -> new" in the path column.
func parsePorcelain(out string) []Change {
	changes := []Change{}
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		p := strings.TrimSpace(line[3:])

		var status string
		switch {
		case code == "??":
			status = "untracked"
		case strings.ContainsRune(code, 'R'):
			status = "renamed"
			if _, after, found := strings.Cut(p, " -> "); found {
				p = after
			}
		case strings.ContainsRune(code, 'A'):
			status = "added"
		case strings.ContainsRune(code, 'D'):
			status = "deleted"
		default:
			status = "modified"
		}
		changes = append(changes, Change{Status: status, Path: p})
	}
	return changes
}
