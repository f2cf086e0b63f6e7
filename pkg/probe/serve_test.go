// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func serveOnce(t *testing.T, req UnitRequest) UnitMessage {
	t.Helper()
	in, err := encodeRequest(req)
	if err != nil {
		t.Fatalf("encodeRequest() error = %v", err)
	}
	var out bytes.Buffer
	if err := ServeUnit(context.Background(), bytes.NewReader(in), &out); err != nil {
		t.Fatalf("ServeUnit() error = %v", err)
	}
	msg, err := decodeMessage(out.Bytes())
	if err != nil {
		t.Fatalf("decodeMessage(%q) error = %v", out.String(), err)
	}
	return msg
}

func TestServeUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		req           UnitRequest
		wantKind      MessageKind
		wantErrorKind string
		wantValue     string
	}{
		{
			name:      "value",
			req:       UnitRequest{Check: "test.true"},
			wantKind:  MessageValue,
			wantValue: "true",
		},
		{
			name:      "value from args",
			req:       UnitRequest{Check: "test.echo", Args: json.RawMessage(`{"value":{"b":1,"a":2}}`)},
			wantKind:  MessageValue,
			wantValue: `{"a":2,"b":1}`,
		},
		{
			name:          "expected error",
			req:           UnitRequest{Check: "test.not-ready", ExpectedErrors: []string{"test.boom", "test.not-ready"}},
			wantKind:      MessageNotReady,
			wantErrorKind: "test.not-ready",
		},
		{
			name:          "registered but not expected",
			req:           UnitRequest{Check: "test.not-ready"},
			wantKind:      MessageError,
			wantErrorKind: "test.not-ready",
		},
		{
			name:     "unregistered error",
			req:      UnitRequest{Check: "test.unlisted", ExpectedErrors: []string{"test.not-ready"}},
			wantKind: MessageError,
		},
		{
			name:          "panic",
			req:           UnitRequest{Check: "test.panic"},
			wantKind:      MessageError,
			wantErrorKind: KindPanic,
		},
		{
			name:          "unknown check",
			req:           UnitRequest{Check: "test.missing"},
			wantKind:      MessageError,
			wantErrorKind: KindUnknownCheck,
		},
		{
			name:          "malformed args",
			req:           UnitRequest{Check: "test.echo", Args: json.RawMessage(`[1,2]`)},
			wantKind:      MessageError,
			wantErrorKind: KindInvalidArgs,
		},
		{
			name:          "missing arg",
			req:           UnitRequest{Check: "test.counter", Args: json.RawMessage(`{}`)},
			wantKind:      MessageError,
			wantErrorKind: KindInvalidArgs,
		},
		{
			name:          "unencodable result",
			req:           UnitRequest{Check: "test.chan"},
			wantKind:      MessageError,
			wantErrorKind: KindBadResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := serveOnce(t, tt.req)
			if msg.Kind != tt.wantKind {
				t.Fatalf("Kind = %q, want %q (message %+v)", msg.Kind, tt.wantKind, msg)
			}
			if msg.ErrorKind != tt.wantErrorKind {
				t.Errorf("ErrorKind = %q, want %q", msg.ErrorKind, tt.wantErrorKind)
			}
			if tt.wantValue != "" {
				got, err := canonicalJSON(msg.Value)
				if err != nil {
					t.Fatalf("canonicalJSON() error = %v", err)
				}
				if string(got) != tt.wantValue {
					t.Errorf("Value = %s, want %s", got, tt.wantValue)
				}
			}
			if msg.Kind != MessageValue && msg.Error == "" {
				t.Error("error message has no text")
			}
		})
	}
}

func TestServeUnit_MalformedRequest(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := ServeUnit(context.Background(), strings.NewReader("not json"), &out)
	if err == nil {
		t.Fatal("ServeUnit() error = nil, want decode error")
	}
	if out.Len() != 0 {
		t.Errorf("ServeUnit() wrote %q for a malformed request", out.String())
	}
}

func TestServeFD_ClosedDescriptor(t *testing.T) {
	t.Parallel()

	// Far above any descriptor limit, so never open.
	const fd = 1 << 30
	in, err := encodeRequest(UnitRequest{Check: "test.true"})
	if err != nil {
		t.Fatal(err)
	}
	err = serveFD(context.Background(), bytes.NewReader(in), fd)
	if err == nil || !strings.Contains(err.Error(), "not open") {
		t.Errorf("serveFD() error = %v, want descriptor not open", err)
	}
}
