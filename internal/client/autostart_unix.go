//go:build !windows

package client

import (
	"os/exec"
	"syscall"
)

// detachDaemon starts the daemon in its own session so closing the
// terminal that launched notetaker does not take the daemon with it.
func detachDaemon(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
}
