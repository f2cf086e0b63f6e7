// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSchema = `
#Target: {
	name:  string & =~"^[a-z]+$"
	port?: int & >0 & <65536
	tags: [...string] | *[]
}
`

type target struct {
	Name string   `json:"name"`
	Port int      `json:"port"`
	Tags []string `json:"tags"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	res, err := ParseAndDecode[target]([]byte(testSchema), []byte(`name: "db", port: 5432`), "#Target")
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if res.Value.Name != "db" || res.Value.Port != 5432 || len(res.Value.Tags) != 0 {
		t.Errorf("Value = %+v", res.Value)
	}
	if !res.Unified.Exists() {
		t.Error("Unified value does not exist")
	}
}

func TestParseAndDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		wantPath string
	}{
		{name: "syntax", data: `name: "db" port: `},
		{name: "constraint", data: `name: "DB"`, wantPath: "name"},
		{name: "range", data: `name: "db", port: 70000`, wantPath: "port"},
		{name: "unknown field", data: `name: "db", extra: 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseAndDecode[target]([]byte(testSchema), []byte(tt.data), "#Target", WithFilename("t.cue"))
			if err == nil {
				t.Fatal("ParseAndDecode() error = nil")
			}
			if !strings.HasPrefix(err.Error(), "t.cue") {
				t.Errorf("error %q does not name the file", err)
			}
			if tt.wantPath == "" {
				return
			}
			var pe *ParseError
			if !errors.As(err, &pe) || !errors.Is(err, ErrInvalidCUE) {
				t.Fatalf("error %T is not a *ParseError", err)
			}
			if !strings.HasSuffix(pe.Problems[0].CUEPath, tt.wantPath) {
				t.Errorf("CUEPath = %q, want suffix %q", pe.Problems[0].CUEPath, tt.wantPath)
			}
		})
	}
}

func TestParseAndDecode_FileTooLarge(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[target]([]byte(testSchema), []byte(`name: "db"`), "#Target", WithMaxFileSize(4))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "target.cue")
	if err := os.WriteFile(path, []byte(`name: "web"`), 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := ParseFile[target]([]byte(testSchema), path, "#Target")
	if err != nil || res.Value.Name != "web" {
		t.Fatalf("ParseFile() = %+v, %v", res, err)
	}

	if _, err := ParseFile[target]([]byte(testSchema), path+".missing", "#Target"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ParseFile(missing) error = %v, want fs.ErrNotExist", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"probes"}, "probes"},
		{[]string{"probes", "0", "check"}, "probes[0].check"},
		{[]string{"probes", "1", "args", "path"}, "probes[1].args.path"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.in); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseError_Multiline(t *testing.T) {
	t.Parallel()

	err := &ParseError{FilePath: "p.cue", Problems: []Problem{{CUEPath: "a", Message: "x"}, {Message: "y"}}}
	want := "p.cue: validation failed:\n  a: x\n  y"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
