// SPDX-License-Identifier: MPL-2.0

package probefile

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"conu-cli/internal/config"
	"conu-cli/internal/issue"
	"conu-cli/pkg/cueutil"
	"conu-cli/pkg/probe"
)

//go:embed probefile_schema.cue
var schema []byte

var (
	// ErrNoProbes is returned for a file without probe entries.
	ErrNoProbes = errors.New("probe file defines no probes")
	// ErrDuplicateName is returned when two entries share a name.
	ErrDuplicateName = errors.New("duplicate probe name")
	// ErrUnknownProbe is returned by Select for a name not in the file.
	ErrUnknownProbe = errors.New("unknown probe")
)

type (
	// File is a decoded probe file.
	File struct {
		Path   string  `json:"-"`
		Probes []Entry `json:"probes"`
	}

	// Entry is one probe definition. Zero budgets are filled from the
	// configured defaults when the entry is converted.
	Entry struct {
		Name           string         `json:"name"`
		Check          string         `json:"check"`
		Args           map[string]any `json:"args,omitempty"`
		Timeout        string         `json:"timeout,omitempty"`
		Pause          string         `json:"pause,omitempty"`
		Count          int            `json:"count,omitempty"`
		ExpectedErrors []string       `json:"expected_errors,omitempty"`
		Expected       any            `json:"expected,omitempty"`
	}
)

// Load reads and validates the probe file at path.
func Load(path string) (*File, error) {
	res, err := cueutil.ParseFile[File](schema, path, "#Probes")
	if err != nil {
		ctx := issue.NewErrorContext().
			WithOperation("load probe file").
			WithResource(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ctx.
				WithSuggestion("Verify the --file path is correct").
				WithIssue(issue.ProbeFileNotFoundId).
				Wrap(err).
				BuildError()
		}
		return nil, ctx.
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Every probe needs a name and a check").
			WithIssue(issue.ProbeFileParseErrorId).
			Wrap(err).
			BuildError()
	}

	f := res.Value
	f.Path = path
	if err := f.validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate probe file").
			WithResource(path).
			WithIssue(issue.ProbeFileParseErrorId).
			Wrap(err).
			BuildError()
	}
	return f, nil
}

func (f *File) validate() error {
	if len(f.Probes) == 0 {
		return ErrNoProbes
	}
	seen := make(map[string]int, len(f.Probes))
	for i, e := range f.Probes {
		if first, dup := seen[e.Name]; dup {
			return fmt.Errorf("probes[%d]: %w %q (same as probes[%d])", i, ErrDuplicateName, e.Name, first)
		}
		seen[e.Name] = i
	}
	return nil
}

// Select returns the entries named in names, in that order, or every entry
// when names is empty.
func (f *File) Select(names []string) ([]Entry, error) {
	if len(names) == 0 {
		return f.Probes, nil
	}
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		i := f.index(name)
		if i < 0 {
			return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownProbe, name, strings.Join(f.Names(), ", "))
		}
		out = append(out, f.Probes[i])
	}
	return out, nil
}

// Names returns the probe names in file order.
func (f *File) Names() []string {
	names := make([]string, len(f.Probes))
	for i, e := range f.Probes {
		names[i] = e.Name
	}
	return names
}

func (f *File) index(name string) int {
	for i, e := range f.Probes {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// Config converts e into a probe.Config, filling unset budgets from defaults.
func (e Entry) Config(defaults config.ProbeDefaults) (probe.Config, error) {
	cfg := probe.Config{
		Check:          e.Check,
		Args:           e.Args,
		Count:          e.Count,
		ExpectedErrors: e.ExpectedErrors,
		ExpectedValue:  e.Expected,
	}
	if e.Timeout != "" {
		d, err := config.ParseBudget("timeout", e.Timeout)
		if err != nil {
			return probe.Config{}, fmt.Errorf("probe %s: %w", e.Name, err)
		}
		cfg.Timeout = d
	}
	if e.Pause != "" {
		d, err := time.ParseDuration(e.Pause)
		if err != nil {
			return probe.Config{}, fmt.Errorf("probe %s: %w", e.Name, &config.InvalidDurationError{Field: "pause", Value: e.Pause})
		}
		cfg.Pause = d
	}
	if err := defaults.Apply(&cfg); err != nil {
		return probe.Config{}, err
	}
	return cfg, nil
}
