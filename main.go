// SPDX-License-Identifier: MPL-2.0

package main

import "conu-cli/cmd/conu"

func main() {
	cmd.Execute()
}
