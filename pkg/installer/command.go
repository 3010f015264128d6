package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

// Command describes a process to execute.
type Command struct {
	Path string
	Args []string
	// Dir is the working directory, the current one if empty.
	Dir string
	// Env is added to the environment of the tool.
	Env []string
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// ExitError reports a command terminated with a non-zero exit status.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%q exited with status %d", e.Command, e.Code)
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd *Command) error
}

// ExecRunner executes commands as child processes. The process
// output is streamed to the configured writers.
// On context cancellation the complete process group is killed.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*ExecRunner)(nil)

func NewExecRunner(stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{
		Stdout: stdout,
		Stderr: stderr,
	}
}

func (r *ExecRunner) Run(ctx context.Context, c *Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = utils.OptionalDefaulted[io.Writer](os.Stdout, r.Stdout)
	cmd.Stderr = utils.OptionalDefaulted[io.Writer](os.Stderr, r.Stderr)
	processGroup(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("cannot start %q: %w", c.Path, err)
	}
	log.Debug("started {{command}} with pid {{pid}}", "command", c.String(), "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return fmt.Errorf("%q cancelled: %w", c.String(), ctx.Err())
	case err = <-done:
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: c.String(), Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("%q failed: %w", c.String(), err)
	}
	return nil
}
