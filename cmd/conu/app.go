// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"conu-cli/internal/config"
	"conu-cli/internal/container"
	"conu-cli/pkg/probe"
)

type (
	// App wires CLI services and shared dependencies. All Cobra command
	// handlers receive an App reference.
	App struct {
		Config  config.Provider
		Spawner probe.Spawner
		Engines EngineFactory
		stdout  io.Writer
		stderr  io.Writer
	}

	// EngineFactory resolves the container engine selected by configuration.
	EngineFactory func(container.EngineType) (container.Engine, error)

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  config.Provider
		Spawner probe.Spawner
		Engines EngineFactory
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// unitArgs re-enters the binary through the hidden execution unit command.
var unitArgs = []string{"internal", "probe-unit"}

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Spawner == nil {
		deps.Spawner = &probe.ProcessSpawner{Args: unitArgs}
	}
	if deps.Engines == nil {
		deps.Engines = func(t container.EngineType) (container.Engine, error) {
			return container.NewEngine(t)
		}
	}
	return &App{
		Config:  deps.Config,
		Spawner: deps.Spawner,
		Engines: deps.Engines,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

// loadConfig loads the effective configuration honoring --config.
func (a *App) loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, string, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
}
