// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrInvalidCUE is the sentinel error wrapped by ParseError.
	ErrInvalidCUE = errors.New("invalid CUE input")
	// ErrFileTooLarge is returned when an input exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

type (
	// Problem is one CUE error located by its JSON path.
	Problem struct {
		// CUEPath is the JSON path to the invalid value (e.g., "probes[0].timeout").
		CUEPath string
		// Message is the validation error message.
		Message string
	}

	// ParseError reports every problem found in a CUE input.
	// It wraps ErrInvalidCUE for errors.Is() compatibility.
	ParseError struct {
		FilePath string
		Problems []Problem
	}
)

// Error implements the error interface.
//
//	probes.cue: probes[0].timeout: conflicting values "soon" and =~"^[0-9]..."
func (e *ParseError) Error() string {
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.CUEPath != "" {
			lines = append(lines, p.CUEPath+": "+p.Message)
		} else {
			lines = append(lines, p.Message)
		}
	}
	if len(lines) == 1 {
		return fmt.Sprintf("%s: %s", e.FilePath, lines[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
}

// Unwrap returns ErrInvalidCUE for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrInvalidCUE }

// FormatError converts a CUE error into a *ParseError with JSON-path
// prefixes. Non-CUE errors are wrapped with the file path as-is.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	pe := &ParseError{FilePath: filePath}
	for _, e := range cueErrs {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		// CUE sometimes includes the path in the message itself.
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		pe.Problems = append(pe.Problems, Problem{CUEPath: path, Message: msg})
	}
	return pe
}

// formatPath converts a CUE error path such as ["probes", "0", "check"] to
// JSON-path notation: "probes[0].check".
func formatPath(path []string) string {
	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns an error wrapping ErrFileTooLarge when data exceeds maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: %w: %d bytes exceeds maximum %d bytes",
			filename, ErrFileTooLarge, len(data), maxSize)
	}
	return nil
}
