// +build !windows

package depbuild

import (
	"os/exec"
	"syscall"
)

func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}

	// Negative pid addresses the group created by Setpgid.
	syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
