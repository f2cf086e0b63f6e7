// SPDX-License-Identifier: MPL-2.0

//go:build unix

package probe

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureUnitProcess puts the unit in its own process group so a kill also
// reaches anything the check started.
func configureUnitProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killUnitProcess(p *os.Process) error {
	err := syscall.Kill(-p.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		// The group is gone already; make sure the leader is too.
		return p.Kill()
	}
	return err
}

// closeOnExec keeps the result pipe out of processes the check starts.
func closeOnExec(f *os.File) {
	syscall.CloseOnExec(int(f.Fd()))
}
