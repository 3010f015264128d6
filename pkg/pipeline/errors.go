package pipeline

import (
	"errors"
	"fmt"
)

// ExitCoder is implemented by errors providing
// a process exit status.
type ExitCoder interface {
	ExitCode() int
}

// StepError reports the failure of a pipeline step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %s", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status of the failed step,
// which is the status of a failed child process or 1.
func (e *StepError) ExitCode() int {
	var ec ExitCoder
	if errors.As(e.Err, &ec) {
		if c := ec.ExitCode(); c > 0 {
			return c
		}
	}
	return 1
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		if c := ec.ExitCode(); c > 0 {
			return c
		}
	}
	return 1
}
