package harness

import (
	"bytes"
	"context"
	"time"

	"github.com/artpar/awsbrowse/internal/cli"
)

// CLIResult holds CLI execution results.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CLIRunner executes CLI commands.
type CLIRunner struct {
	harness *E2EHarness
}

// Run executes a CLI command with the given arguments. The harness config
// path is always passed, so a config file only applies once written.
func (r *CLIRunner) Run(args ...string) (*CLIResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.harness.timeout)
	defer cancel()

	start := time.Now()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := cli.NewRootCommand("test")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", r.harness.ConfigPath()}, args...))

	err := cmd.ExecuteContext(ctx)

	result := &CLIResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.ExitCode = 1
	}

	return result, err
}

// List runs `list` against the harness inventory.
func (r *CLIRunner) List(kind string, opts ...string) (*CLIResult, error) {
	args := []string{"--inventory", r.harness.InventoryPath(), "list", kind}
	return r.Run(append(args, opts...)...)
}

// ListJSON runs `list --json` against the harness inventory.
func (r *CLIRunner) ListJSON(kind string, opts ...string) (*CLIResult, error) {
	return r.List(kind, append(opts, "--json")...)
}

// Import loads the harness inventory into the SQLite file db.
func (r *CLIRunner) Import(db string) (*CLIResult, error) {
	return r.Run("import", r.harness.InventoryPath(), db)
}
