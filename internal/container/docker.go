// SPDX-License-Identifier: MPL-2.0

package container

// DockerEngine implements the Engine interface using Docker CLI.
type DockerEngine struct {
	*cliEngine
}

// NewDockerEngine creates a new Docker engine.
func NewDockerEngine(opts ...Option) *DockerEngine {
	return &DockerEngine{cliEngine: newCLIEngine(string(EngineTypeDocker), "{{.Server.Version}}", opts...)}
}
