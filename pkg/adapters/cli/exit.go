// Package cli implements the shortlink maintenance commands.
package cli

import (
	"errors"
	"fmt"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
	// ExitWarning means the command did nothing, usually because another
	// process holds its lock.
	ExitWarning = 2
)

// ExitCodeError carries a process exit code up to Execute. Err may be nil
// when the command already reported what happened.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error { return e.Err }

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
