package transport

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is advertised as the grpc content-subtype; a client dials
// with grpc.CallContentSubtype(codecName) to select it over the
// built-in protobuf codec.
const codecName = "json"

// jsonCodec implements encoding.Codec by delegating straight to
// encoding/json. No protoc-generated stubs are involved: messages are
// plain Go structs (see wire.go) and grpc only needs Marshal/Unmarshal to
// move bytes on the wire.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
