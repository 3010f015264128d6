//go:build !windows

package installer

import (
	"os/exec"
	"syscall"
)

func processGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		// negative pid addresses the group
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
