// +build windows

package depbuild

import "os/exec"

func setupProcessGroup(cmd *exec.Cmd) {}

func terminateProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}

	cmd.Process.Kill()
}
