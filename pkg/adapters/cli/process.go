package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ProcessRunner runs another command of this same binary.
type ProcessRunner interface {
	Run(ctx context.Context, out io.Writer, args ...string) error
}

// SelfRunner re-executes the running binary. A non-zero exit status is
// returned as an *ExitCodeError carrying that status.
type SelfRunner struct{}

func (SelfRunner) Run(ctx context.Context, out io.Writer, args ...string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, self, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = os.Environ()

	err = cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitCodeError{Code: exitErr.ExitCode()}
	}
	return err
}
