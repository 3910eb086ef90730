package execenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	dserrors "github.com/Manta-Network/cli/internal/errors"
	"github.com/Manta-Network/cli/internal/logging"
)

// Executor runs the external node and signer binaries
type Executor struct {
	logger *logging.Logger
}

// New creates a new executor
func New(logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		logger: logger,
	}
}

// ExecOptions configures command execution
type ExecOptions struct {
	Command     []string          // Command and arguments to run
	Environment map[string]string // Extra environment variables, override the inherited ones

	// Stdio defaults to the current process streams when nil.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Exec runs a command to completion. A non-zero exit is reported as a
// CommandError carrying the child's exit code.
func (e *Executor) Exec(ctx context.Context, options ExecOptions) error {
	if err := ValidateCommand(options.Command); err != nil {
		return err
	}

	cmdName := options.Command[0]
	cmd := exec.CommandContext(ctx, cmdName, options.Command[1:]...)
	cmd.Env = buildEnvironment(os.Environ(), options.Environment)
	cmd.Stdin = options.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = options.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = options.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	e.logger.Debug("Executing command: %s", strings.Join(options.Command, " "))
	e.logger.Debug("Environment variables set: %d", len(options.Environment))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s interrupted: %w", cmdName, ctx.Err())
		}
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return dserrors.CommandError{
				Command:    cmdName,
				ExitCode:   exitError.ExitCode(),
				Message:    "process exited with an error",
				Suggestion: "Check the command output above for details",
			}
		}
		return dserrors.CommandError{
			Command:    cmdName,
			Message:    err.Error(),
			Suggestion: "Check the command output above for details",
		}
	}

	return nil
}

// buildEnvironment merges extra into base. Extra values take precedence.
func buildEnvironment(base []string, extra map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(extra))
	for _, env := range base {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}
	for key, value := range extra {
		envMap[key] = value
	}

	result := make([]string, 0, len(envMap))
	for key, value := range envMap {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}

	// Sort for consistent ordering (helps with debugging)
	sort.Strings(result)

	return result
}

// ValidateCommand checks that a command was given and can be found
func ValidateCommand(command []string) error {
	if len(command) == 0 {
		return dserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Set the binary path in the config file",
		}
	}

	cmdName := command[0]
	if _, err := exec.LookPath(cmdName); err != nil {
		return dserrors.WrapCommandNotFound(cmdName, err)
	}
	return nil
}

// ParseEnv turns KEY=VALUE pairs into a map.
func ParseEnv(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, dserrors.UserError{
				Message:    fmt.Sprintf("Invalid environment variable %q", pair),
				Suggestion: "Use KEY=VALUE, e.g. --env RUST_LOG=info",
			}
		}
		env[key] = value
	}
	return env, nil
}
