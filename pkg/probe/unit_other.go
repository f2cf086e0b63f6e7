// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package probe

import (
	"os"
	"os/exec"
)

func configureUnitProcess(*exec.Cmd) {}

func killUnitProcess(p *os.Process) error {
	return p.Kill()
}

func closeOnExec(*os.File) {}
