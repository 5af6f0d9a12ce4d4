package pb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// wireMessage is implemented by every request/response type the Stream and
// Fetch services exchange.
type wireMessage interface {
	Marshal() ([]byte, error)
}

type wireUnmarshaler interface {
	Unmarshal([]byte) error
}

// name matches the codec name google.golang.org/grpc looks up by default
// (the "proto" content-subtype); registering under this name overrides the
// stock codec so grpc-go's transport uses our hand-rolled protowire
// Marshal/Unmarshal pairs instead of reflection-based proto.Message
// marshaling, which our hand-authored pb types (see types.go's package
// doc) don't implement.
const name = "proto"

type codec struct{}

func (codec) Name() string { return name }

func (codec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.Marshal()
	default:
		return nil, fmt.Errorf("pb: codec cannot marshal %T", v)
	}
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	switch m := v.(type) {
	case wireUnmarshaler:
		return m.Unmarshal(data)
	default:
		return fmt.Errorf("pb: codec cannot unmarshal into %T", v)
	}
}

// RegisterCodec installs the hand-rolled wire codec as grpc-go's default
// "proto" codec for this process. Call once, before serving.
func RegisterCodec() {
	encoding.RegisterCodec(codec{})
}
