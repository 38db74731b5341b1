//go:build windows

package pipeline

import "os/exec"

func setProcessGroup(*exec.Cmd) {}

func signalTerminate(cmd *exec.Cmd) { signalKill(cmd) }

func signalKill(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
