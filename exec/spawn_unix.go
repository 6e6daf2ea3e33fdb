//go:build !windows

package exec

import (
	"os/exec"
	"syscall"
)

func configureProcessGroupUnix(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
