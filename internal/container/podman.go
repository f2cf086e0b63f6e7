// SPDX-License-Identifier: MPL-2.0

package container

// PodmanEngine implements the Engine interface using Podman CLI.
type PodmanEngine struct {
	*cliEngine
}

// NewPodmanEngine creates a new Podman engine.
func NewPodmanEngine(opts ...Option) *PodmanEngine {
	return &PodmanEngine{cliEngine: newCLIEngine(string(EngineTypePodman), "{{.Version}}", opts...)}
}
