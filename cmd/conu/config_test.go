// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"conu-cli/internal/config"
)

func TestConfigShow(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Container.Engine = config.EngineDocker

	tests := []struct {
		format string
		want   []string
	}{
		{format: "text", want: []string{"Current Configuration", "(using defaults)", "docker"}},
		{format: "cue", want: []string{`engine: "docker"`, `timeout: "1s"`}},
		{format: "toml", want: []string{"[container]", "engine = 'docker'"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			stdout, _, err := runCLI(t, cfg, "config", "show", "--format", tt.format)
			if err != nil {
				t.Fatalf("config show error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout, want) {
					t.Errorf("output missing %q:\n%s", want, stdout)
				}
			}
		})
	}

	if _, _, err := runCLI(t, cfg, "config", "show", "--format", "yaml"); err == nil {
		t.Error("config show --format yaml error = nil")
	}
}

func TestConfigLoadFailureStopsCommand(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("boom")
	app := NewApp(Dependencies{Config: staticConfig{err: loadErr}, Stdout: &strings.Builder{}, Stderr: &strings.Builder{}})
	root := NewRootCommand(app)
	root.SetArgs([]string{"probe", "checks"})
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	if err := root.Execute(); !errors.Is(err, loadErr) {
		t.Errorf("Execute() error = %v, want %v", err, loadErr)
	}
}
