// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

const (
	// MessageValue carries the raw return value of the check.
	MessageValue MessageKind = "value"
	// MessageNotReady reports an expected error: the condition does not hold yet.
	MessageNotReady MessageKind = "not_ready"
	// MessageError reports an unexpected error.
	MessageError MessageKind = "error"
)

// maxMessageSize bounds what a unit may publish on its result pipe.
const maxMessageSize = 4 << 20

var (
	// codec sorts map keys, which makes encoded values comparable byte for byte.
	codec = sonic.ConfigStd

	// numberCodec decodes numbers as json.Number so large integers survive.
	numberCodec = sonic.Config{
		EscapeHTML:       true,
		SortMapKeys:      true,
		CompactMarshaler: true,
		CopyString:       true,
		ValidateString:   true,
		UseNumber:        true,
	}.Froze()
)

type (
	// MessageKind discriminates the single message an execution unit publishes.
	MessageKind string

	// UnitRequest is everything an execution unit needs to run one attempt.
	UnitRequest struct {
		RunID          string          `json:"run_id"`
		Attempt        int             `json:"attempt"`
		Check          string          `json:"check"`
		Args           json.RawMessage `json:"args,omitempty"`
		ExpectedErrors []string        `json:"expected_errors,omitempty"`
	}

	// UnitMessage is the one message an execution unit publishes before exiting.
	UnitMessage struct {
		Kind      MessageKind     `json:"kind"`
		Value     json.RawMessage `json:"value,omitempty"`
		ErrorKind string          `json:"error_kind,omitempty"`
		Error     string          `json:"error,omitempty"`
	}
)

// ValueMessage builds the message for a check that returned v.
func ValueMessage(v any) (UnitMessage, error) {
	raw, err := encodeValue(v)
	if err != nil {
		return UnitMessage{}, err
	}
	return UnitMessage{Kind: MessageValue, Value: raw}, nil
}

// NotReadyMessage builds the message for an expected error of the given kind.
func NotReadyMessage(kind string, err error) UnitMessage {
	return UnitMessage{Kind: MessageNotReady, ErrorKind: kind, Error: errorText(err)}
}

// ErrorMessage builds the message for an unexpected error of the given kind.
func ErrorMessage(kind string, err error) UnitMessage {
	return UnitMessage{Kind: MessageError, ErrorKind: kind, Error: errorText(err)}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func encodeValue(v any) (json.RawMessage, error) {
	raw, err := codec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-serializable: %w", err)
	}
	return raw, nil
}

// canonicalJSON re-encodes raw through a generic value so that equal values
// compare equal regardless of key order or number formatting. Integers that
// fit in int64 are compared exactly.
func canonicalJSON(raw []byte) ([]byte, error) {
	var v any
	if err := numberCodec.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return codec.Marshal(normalizeNumbers(v))
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalizeNumbers(e)
		}
		return x
	default:
		return v
	}
}

func encodeRequest(req UnitRequest) ([]byte, error) {
	return codec.Marshal(req)
}

func decodeRequest(data []byte) (UnitRequest, error) {
	var req UnitRequest
	if err := codec.Unmarshal(data, &req); err != nil {
		return UnitRequest{}, fmt.Errorf("decode unit request: %w", err)
	}
	return req, nil
}

func encodeMessage(msg UnitMessage) ([]byte, error) {
	return codec.Marshal(msg)
}

func decodeMessage(data []byte) (UnitMessage, error) {
	var msg UnitMessage
	if err := codec.Unmarshal(data, &msg); err != nil {
		return UnitMessage{}, fmt.Errorf("decode unit message: %w", err)
	}
	switch msg.Kind {
	case MessageValue, MessageNotReady, MessageError:
		return msg, nil
	default:
		return UnitMessage{}, fmt.Errorf("decode unit message: unknown kind %q", msg.Kind)
	}
}
