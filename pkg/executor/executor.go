// Package executor abstracts the browser-automation agent that performs
// the submitted task. The real agent is an external command; its absence
// is an expected condition detected up front, not an error surfaced to
// callers.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kunnath/RobotBrowser/pkg/models"
)

// Executor runs one job's automation task. Execute blocks until the task
// finishes and returns the agent's result text; progress lines go through
// emit as they happen.
type Executor interface {
	Available() bool
	Execute(ctx context.Context, job *models.Job, emit func(string)) (string, error)
}

// DefaultAgentCommand is the agent binary looked up on PATH
const DefaultAgentCommand = "browser-use"

// credentialEnv carries the job credential into the agent process so it
// never appears in the argument list
const credentialEnv = "BROWSER_PASSWORD"

// Agent invokes the external automation command for real runs
type Agent struct {
	Command string
}

// NewAgent creates an Agent for the given command, or the default when empty
func NewAgent(command string) *Agent {
	if command == "" {
		command = DefaultAgentCommand
	}
	return &Agent{Command: command}
}

// Available reports whether the agent command can be located on PATH
func (a *Agent) Available() bool {
	_, err := exec.LookPath(a.Command)
	return err == nil
}

// Execute runs the agent against the job's target and returns its stdout
// as the result text
func (a *Agent) Execute(ctx context.Context, job *models.Job, emit func(string)) (string, error) {
	path, err := exec.LookPath(a.Command)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", a.Command, err)
	}

	args := []string{"run", "--url", job.TargetURL, "--task", job.Task}
	if job.Headless {
		args = append(args, "--headless")
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if job.Credential != "" {
		cmd.Env = append(cmd.Environ(), credentialEnv+"="+job.Credential)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	emit(fmt.Sprintf("Running %s against %s", a.Command, job.TargetURL))
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("agent failed: %w: %s", err, detail)
		}
		return "", fmt.Errorf("agent failed: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
