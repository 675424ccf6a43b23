package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external tool vidpress relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// versionCheckTimeout bounds each version invocation so a wedged binary
// cannot stall the availability check.
const versionCheckTimeout = 10 * time.Second

// runner abstracts command execution for testability.
type runner func(ctx context.Context, command string, args ...string) error

func runCommand(ctx context.Context, command string, args ...string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// CheckTools verifies each requirement by invoking the tool with a version
// query. A missing binary and a non-zero exit are both reported as
// unavailable; the tool must actually run.
func CheckTools(ctx context.Context, requirements []Requirement) []Status {
	return checkTools(ctx, requirements, runCommand)
}

func checkTools(ctx context.Context, requirements []Requirement, run runner) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		command := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     command,
			Description: strings.TrimSpace(req.Description),
		}
		if command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
		err := run(checkCtx, command, "-version")
		cancel()
		if err != nil {
			status.Detail = fmt.Sprintf("%q version check failed: %v", command, err)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the names of unavailable tools from a status list.
func Missing(statuses []Status) []string {
	var names []string
	for _, status := range statuses {
		if !status.Available {
			names = append(names, status.Name)
		}
	}
	return names
}
