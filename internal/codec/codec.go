// Package codec is the canonical message serializer: every value that
// crosses a cast boundary is encoded to this inert byte form before it
// leaves a sandbox, and decoded back inside the receiver's sandbox. No
// live object reference ever crosses an actor boundary.
//
// No dedicated message-codec library (msgpack, cbor, protobuf-as-generic-
// envelope, ...) appears anywhere in the retrieval pack; the protobuf usages
// present are tied to gRPC/MCP transport, not a general dynamic-message
// codec. encoding/json is used here instead, matching build.Info's own use
// of encoding/json for its compile-time-embedded metadata.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode wraps any failure to deserialize a message inside recv. Per the
// error-kind table this is treated as a UserFault of the receiving actor.
var ErrDecode = errors.New("message decode error")

// Marshal encodes v into its canonical byte form.
func Marshal[T any](v T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}

	return b, nil
}

// Unmarshal decodes b into a T. Failures are wrapped in ErrDecode so callers
// can attribute them to the UserFault/DecodeError policy without inspecting
// the underlying encoding error.
func Unmarshal[T any](b []byte) (T, error) {
	var v T

	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return v, nil
}
