package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/codectx-dev/codectx/internal/errs"
)

// execTools shells out to the project's own test/task runners. Out of
// scope per spec.md: the exact command resolution each wraps (go test,
// make, npm run, ...) is the caller's concern, not this server's; these
// handlers run whatever command string the caller supplies and report its
// output verbatim.
func execTools(svc *Services) []Tool {
	return []Tool{
		{
			Name:        "run_tests",
			Description: "Run a test command in the project root and return its combined output.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"command": stringProp("shell command to run, e.g. \"go test ./...\""),
			}, "command"),
			Handler: handleRunCommand(svc, "run_tests"),
		},
		{
			Name:        "run_task",
			Description: "Run an arbitrary project task command in the project root and return its combined output.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"command": stringProp("shell command to run"),
			}, "command"),
			Handler: handleRunCommand(svc, "run_task"),
		},
	}
}

type runCommandParams struct {
	Command string `json:"command"`
}

// handleRunCommand builds the shared run_tests/run_task handler. Commands
// run through "sh -c" the way a developer's own shell would interpret
// them, with the project root as the working directory. No timeout is
// applied: a slow test suite is the caller's call, not this server's.
func handleRunCommand(svc *Services, op string) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var p runCommandParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errs.NewRPCError(errs.CodeInternal, "invalid "+op+" params: "+err.Error(), nil)
		}
		if strings.TrimSpace(p.Command) == "" {
			return nil, errs.NewRPCError(errs.CodeInternal, op+" requires a non-empty command", nil)
		}

		cmd := exec.CommandContext(ctx, "sh", "-c", p.Command)
		cmd.Dir = svc.ProjectRoot
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		runErr := cmd.Run()
		exitCode := 0
		if runErr != nil {
			if exitErr, ok := runErr.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				return nil, &errs.IOError{Op: op, Err: runErr}
			}
		}

		return map[string]any{
			"command":  p.Command,
			"exitCode": exitCode,
			"output":   out.String(),
		}, nil
	}
}
