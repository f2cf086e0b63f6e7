// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"errors"
	"testing"
)

func TestCanonicalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{`{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{`1`, `1.0`, true},
		{`[1,2]`, `[2,1]`, false},
		{`"true"`, `true`, false},
		{`{"a":{"y":1,"x":[true,null]}}`, `{ "a" : { "x" : [true, null], "y" : 1 } }`, true},
		{`9007199254740993`, `9007199254740992`, false},
		{`{"id":9007199254740993}`, `{"id":9007199254740993}`, true},
		{`[-9223372036854775807]`, `[-9223372036854775806]`, false},
		{`2.5`, `2.50`, true},
	}

	for _, tt := range tests {
		a, err := canonicalJSON([]byte(tt.a))
		if err != nil {
			t.Fatalf("canonicalJSON(%s) error = %v", tt.a, err)
		}
		b, err := canonicalJSON([]byte(tt.b))
		if err != nil {
			t.Fatalf("canonicalJSON(%s) error = %v", tt.b, err)
		}
		if got := string(a) == string(b); got != tt.want {
			t.Errorf("canonical(%s) == canonical(%s) is %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDecodeMessage_RejectsUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := decodeMessage([]byte(`{"kind":"maybe"}`)); err == nil {
		t.Error("decodeMessage() error = nil for unknown kind")
	}
	if _, err := decodeMessage([]byte(`{"kind":"value","value":true}`)); err != nil {
		t.Errorf("decodeMessage() error = %v", err)
	}
}

func TestCheckError_UnwrapsRegisteredKind(t *testing.T) {
	t.Parallel()

	err := error(&CheckError{Check: "c", Attempt: 2, Kind: "test.boom", Message: "boom"})
	if !errors.Is(err, errBoom) {
		t.Errorf("errors.Is(%v, errBoom) = false", err)
	}

	unknown := error(&CheckError{Check: "c", Attempt: 1, Kind: "never-registered", Message: "x"})
	if errors.Unwrap(unknown) != nil {
		t.Errorf("Unwrap() = %v for an unregistered kind, want nil", errors.Unwrap(unknown))
	}
	if errors.Unwrap(&CheckError{Message: "no kind"}) != nil {
		t.Error("Unwrap() != nil for an empty kind")
	}
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome Outcome
		name    string
		failure bool
	}{
		{OutcomeNone, "none", false},
		{OutcomeSuccess, "success", false},
		{OutcomeUnexpectedError, "unexpected-error", true},
		{OutcomeCountExceeded, "count-exceeded", true},
		{OutcomeTimeoutExceeded, "timeout-exceeded", true},
		{OutcomeCancelled, "cancelled", true},
		{Outcome(99), "unknown", false},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.name {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(tt.outcome), got, tt.name)
		}
		if got := tt.outcome.IsFailure(); got != tt.failure {
			t.Errorf("%s.IsFailure() = %v, want %v", tt.name, got, tt.failure)
		}
	}
}
