// SPDX-License-Identifier: MPL-2.0

package checks

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"conu-cli/pkg/probe"
)

// fileExists reports whether args["path"] exists. A missing file is a
// non-matching false, not an error.
func fileExists(_ context.Context, args probe.Args) (any, error) {
	path, err := args.String("path")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return nil, err
	}
	return true, nil
}
