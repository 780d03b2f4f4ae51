package cbor

import (
	smithy "github.com/smithy-run/schema"
)

// Codec is a codec for the Smithy RPCv2-CBOR protocol, built on the
// package's definite-length Value tree encoder/decoder.
type Codec struct{}

var _ smithy.Codec = (*Codec)(nil)

// Serializer returns a CBOR shape serializer.
func (c *Codec) Serializer() smithy.ShapeSerializer {
	ss := &ShapeSerializer{}
	ss.root = &slot{set: func(v Value) { ss.result = v }}
	return ss
}

// Deserializer returns a CBOR shape deserializer over p.
func (c *Codec) Deserializer(p []byte) smithy.ShapeDeserializer {
	return NewShapeDeserializer(p)
}

type stack struct {
	values []any
}

func (s *stack) Top() any {
	if len(s.values) == 0 {
		return nil
	}
	return s.values[len(s.values)-1]
}

func (s *stack) Push(v any) {
	s.values = append(s.values, v)
}

func (s *stack) Pop() {
	s.values = s.values[:len(s.values)-1]
}
