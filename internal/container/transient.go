// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// IsTransientError reports whether err is a container engine failure that may
// go away on its own: generic engine errors (exit code 125), rootless Podman
// races, network hiccups and storage driver glitches. The container checks
// report these as "engine-transient" so probes can list them as not ready.
//
// Context cancellation and deadline errors are never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 125 {
		return true
	}

	errStr := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

var transientMarkers = []string{
	// Rootless Podman race conditions and OCI runtime errors.
	"ping_group_range",
	"OCI runtime error",
	// Network errors.
	"Temporary failure resolving",
	"Could not resolve host",
	"connection timed out",
	"connection refused",
	// Docker daemon restarting.
	"Cannot connect to the Docker daemon",
	// Storage driver errors (overlay mount races on rootless Podman).
	"error creating overlay mount",
	"error mounting layer",
}
