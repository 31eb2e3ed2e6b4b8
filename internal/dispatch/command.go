package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/leapstack-labs/chauffeur/internal/param"
)

// runCommand interpolates a command template and executes it through
// the shell with the working directory preset. The worker blocks
// until the child exits; the exit code is logged for every
// invocation and a non-zero exit is an instance failure.
func (d *Dispatcher) runCommand(ctx context.Context, logger *slog.Logger, chain param.Chain, workDir, stage, template string) error {
	cmdline, err := d.interp.Render(template, chain, d.opts.ShortFormats)
	if err != nil {
		return fmt.Errorf("%s command: %w", stage, err)
	}

	logger.Info("executing command", slog.String("stage", stage), slog.String("command", cmdline))

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdline)
	cmd.Dir = workDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	logger.Info("command finished", slog.String("stage", stage), slog.Int("exit_code", exitCode))

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return fmt.Errorf("%s command exited with status %d", stage, exitCode)
		}
		return fmt.Errorf("%s command: %w", stage, runErr)
	}
	return nil
}
