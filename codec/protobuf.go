package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNoConstructor = errors.New("codec: protobuf codec built without a message constructor")

// Protobuf lets StoreAs/GetAs carry proto messages in their binary wire form.
// Encoding is deterministic so storing the same message twice writes the same
// bytes under each uuid key.
type Protobuf[T proto.Message] struct {
	new func() T
}

// NewProtobuf takes a constructor for an empty message, for example
// func() *userpb.User { return new(userpb.User) }.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.new == nil {
		var zero T
		return zero, errNoConstructor
	}
	m := c.new()
	err := proto.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(b, m)
	return m, err
}
