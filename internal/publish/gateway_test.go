//go:build unit

package publish

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"oversite-cms/internal/config"
	"oversite-cms/internal/logger"
)

// fakeRunner records invocations and returns scripted results keyed by the
// subcommand (the first argument).
type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: map[string]string{},
		errs:    map[string]error{},
	}
}

func (r *fakeRunner) Run(ctx context.Context, args ...string) (string, error) {
	r.calls = append(r.calls, args)
	sub := args[0]
	if sub == "rev-list" {
		// Distinguish ahead from behind by the range argument.
		if strings.HasPrefix(args[2], "HEAD..") {
			sub = "rev-list-behind"
		} else {
			sub = "rev-list-ahead"
		}
	}
	return r.outputs[sub], r.errs[sub]
}

func (r *fakeRunner) commandsRun() []string {
	cmds := make([]string, len(r.calls))
	for i, call := range r.calls {
		cmds[i] = call[0]
	}
	return cmds
}

func newTestGateway(runner Runner) *Gateway {
	log := logger.New(config.LogConfig{Level: "error", Format: "json"}, io.Discard)
	return NewGateway(runner, "public/data", "origin", "main", "Update content via admin panel", log)
}

func TestGateway_StatusParsesChanges(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["status"] = strings.Join([]string{
		" M public/data/solutions/1.json",
		"A  public/data/solutions/8.json",
		" D public/data/blog/2.json",
		"?? public/data/solutions/8/",
		"R  public/data/old.json -> public/data/new.json",
	}, "\n")
	runner.outputs["rev-list-behind"] = "2"
	runner.outputs["rev-list-ahead"] = "1"

	status, err := newTestGateway(runner).Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !status.HasLocalChanges {
		t.Error("expected hasLocalChanges to be true")
	}
	wantStatuses := []string{"modified", "added", "deleted", "untracked", "renamed"}
	if len(status.Changes) != len(wantStatuses) {
		t.Fatalf("expected %d changes, got %d", len(wantStatuses), len(status.Changes))
	}
	for i, want := range wantStatuses {
		if status.Changes[i].Status != want {
			t.Errorf("change %d: expected status %q, got %q", i, want, status.Changes[i].Status)
		}
	}
	if status.Changes[4].Path != "public/data/new.json" {
		t.Errorf("expected rename to report the new path, got %q", status.Changes[4].Path)
	}
	if status.BehindCount != 2 || !status.BehindRemote {
		t.Errorf("expected behind count 2, got %d", status.BehindCount)
	}
	if status.AheadCount != 1 || !status.AheadRemote {
		t.Errorf("expected ahead count 1, got %d", status.AheadCount)
	}
}

func TestGateway_StatusDegradesWhenFetchFails(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["status"] = "?? public/data/solutions/9.json"
	runner.errs["fetch"] = &ToolError{Output: "fatal: unable to access remote", Err: errors.New("exit status 128")}

	status, err := newTestGateway(runner).Status(context.Background())
	if err != nil {
		t.Fatalf("expected status to degrade gracefully, got %v", err)
	}

	if !status.HasLocalChanges {
		t.Error("expected local changes to be reported from local status alone")
	}
	if status.BehindCount != 0 || status.AheadCount != 0 {
		t.Errorf("expected zero counts when fetch fails, got behind=%d ahead=%d", status.BehindCount, status.AheadCount)
	}
	for _, call := range runner.calls {
		if call[0] == "rev-list" {
			t.Error("rev-list must not run when the fetch fails")
		}
	}
}

func TestGateway_StatusCleanTree(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["rev-list-behind"] = "0"
	runner.outputs["rev-list-ahead"] = "0"

	status, err := newTestGateway(runner).Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.HasLocalChanges {
		t.Error("expected no local changes for empty porcelain output")
	}
	if len(status.Changes) != 0 {
		t.Errorf("expected no changes, got %d", len(status.Changes))
	}
	if status.BehindRemote || status.AheadRemote {
		t.Error("expected clean state relative to remote")
	}
}

func TestGateway_PushUsesDefaultMessage(t *testing.T) {
	runner := newFakeRunner()

	result, err := newTestGateway(runner).Push(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("expected successful push")
	}

	var commitCall []string
	for _, call := range runner.calls {
		if call[0] == "commit" {
			commitCall = call
		}
	}
	if commitCall == nil {
		t.Fatal("expected a commit invocation")
	}
	if commitCall[2] != "Update content via admin panel" {
		t.Errorf("expected default commit message, got %q", commitCall[2])
	}

	want := []string{"add", "commit", "push"}
	got := runner.commandsRun()
	if len(got) != len(want) {
		t.Fatalf("expected commands %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected command %d to be %q, got %q", i, want[i], got[i])
		}
	}
}

func TestGateway_PushNothingToCommit(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["commit"] = "On branch main\nnothing to commit, working tree clean"
	runner.errs["commit"] = &ToolError{Output: "nothing to commit, working tree clean", Err: errors.New("exit status 1")}

	result, err := newTestGateway(runner).Push(context.Background(), "update hero copy")
	if err != nil {
		t.Fatalf("expected noChanges outcome, got error %v", err)
	}
	if result.Success {
		t.Error("expected success=false for an empty commit")
	}
	if !result.NoChanges {
		t.Error("expected noChanges=true for an empty commit")
	}
	for _, call := range runner.calls {
		if call[0] == "push" {
			t.Error("push must not run when there was nothing to commit")
		}
	}
}

func TestGateway_PushCommitFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["commit"] = &ToolError{Output: "fatal: empty ident name", Err: errors.New("exit status 128")}

	_, err := newTestGateway(runner).Push(context.Background(), "msg")
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if !strings.Contains(toolErr.Error(), "empty ident name") {
		t.Errorf("expected the tool's message verbatim, got %q", toolErr.Error())
	}
}

func TestGateway_PullPropagatesError(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["pull"] = &ToolError{Output: "fatal: couldn't find remote ref main", Err: errors.New("exit status 1")}

	err := newTestGateway(runner).Pull(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "couldn't find remote ref") {
		t.Errorf("expected the tool's message verbatim, got %q", err.Error())
	}
}

func TestGateway_UndoRunsCleanThenCheckout(t *testing.T) {
	runner := newFakeRunner()

	if err := newTestGateway(runner).Undo(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"clean", "checkout"}
	got := runner.commandsRun()
	if len(got) != len(want) {
		t.Fatalf("expected commands %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected command %d to be %q, got %q", i, want[i], got[i])
		}
	}
	// Both operations are scoped to the content directory.
	for _, call := range runner.calls {
		if call[len(call)-1] != "public/data" {
			t.Errorf("expected %q to be scoped to the content directory, got %v", call[0], call)
		}
	}
}
