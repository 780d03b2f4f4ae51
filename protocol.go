package smithy

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/smithy-run/schema/datastream"
)

// ClientProtocol defines the interface through which client-side operation
// request/responses are (de)serialized across the wire.
//
// TRequest and TResponse represent the input and output transport types for
// the protocol. In most cases this corresponds to *smithyhttp.Request and
// *smithyhttp.Response.
//
// While a caller CAN define their own protocol, it is almost never necessary
// to do so. In practice, a generated client will utilize one of the predefined
// protocols implemented as part of the Smithy client runtime.
type ClientProtocol[TRequest, TResponse any] interface {
	ID() string
	SerializeRequest(context.Context, Serializable, TRequest) error

	// DeserializeResponse deserializes the transport response into the modeled
	DeserializeResponse(ctx context.Context, types *TypeRegistry, resp TResponse, out Deserializable) error
}

// Codec provides implementations of Serializer and ShapeDeserializer to be
// used by a Protocol.
type Codec interface {
	Serializer() ShapeSerializer
	Deserializer([]byte) ShapeDeserializer
}

// ShapeSerializer implements the marshaling of an in-code representation of a
// shape to an unspecified data format, which is determined by the
// implementation.
type ShapeSerializer interface {
	Bytes() []byte

	WriteInt8(*Schema, int8)
	WriteInt16(*Schema, int16)
	WriteInt32(*Schema, int32)
	WriteInt64(*Schema, int64)
	WriteInt8Ptr(*Schema, *int8)
	WriteInt16Ptr(*Schema, *int16)
	WriteInt32Ptr(*Schema, *int32)
	WriteInt64Ptr(*Schema, *int64)

	WriteFloat32(*Schema, float32)
	WriteFloat64(*Schema, float64)
	WriteFloat32Ptr(*Schema, *float32)
	WriteFloat64Ptr(*Schema, *float64)

	WriteBool(*Schema, bool)
	WriteBoolPtr(*Schema, *bool)

	WriteString(*Schema, string)
	WriteStringPtr(*Schema, *string)

	WriteBigInteger(*Schema, big.Int)
	WriteBigDecimal(*Schema, big.Float)
	WriteBlob(*Schema, []byte)
	WriteTime(*Schema, time.Time)
	WriteTimePtr(*Schema, *time.Time)

	WriteStruct(*Schema, Serializable)

	WriteUnion(schema, variant *Schema, v Serializable)

	WriteDocument(*Schema, Document)

	WriteNil(*Schema)

	WriteList(*Schema)
	CloseList()

	WriteMap(*Schema)
	WriteKey(*Schema, string)
	CloseMap()

	// WriteDataStream writes the contents of a streaming blob member.
	WriteDataStream(*Schema, *datastream.DataStream) error

	// WriteEventStream hands off to w so it can publish modeled frames as
	// they become available, for protocols that support event streaming.
	WriteEventStream(*Schema, EventStreamWriter) error
}

// EventStreamWriter is the minimal surface a ShapeSerializer needs to hand
// off to an event-stream publisher: serialize one modeled event frame at a
// time without blocking the caller beyond that single frame.
type EventStreamWriter interface {
	WriteEvent(schema *Schema, v Serializable) error
}

// ShapeDeserializer implements the unmarshaling from some unspecified data
// format to an encoded shape.
type ShapeDeserializer interface {
	ReadInt8(*Schema, *int8) error
	ReadInt16(*Schema, *int16) error
	ReadInt32(*Schema, *int32) error
	ReadInt64(*Schema, *int64) error

	ReadInt8Ptr(*Schema, **int8) error
	ReadInt16Ptr(*Schema, **int16) error
	ReadInt32Ptr(*Schema, **int32) error
	ReadInt64Ptr(*Schema, **int64) error

	ReadFloat32(*Schema, *float32) error
	ReadFloat64(*Schema, *float64) error

	ReadFloat32Ptr(*Schema, **float32) error
	ReadFloat64Ptr(*Schema, **float64) error

	ReadBool(*Schema, *bool) error
	ReadBoolPtr(*Schema, **bool) error

	ReadString(*Schema, *string) error
	ReadStringPtr(*Schema, **string) error

	ReadTime(*Schema, *time.Time) error
	ReadTimePtr(*Schema, **time.Time) error

	ReadBlob(*Schema, *[]byte) error

	ReadList(*Schema) error
	// returns true if there's another item in the list, false at the end and
	// an error if a decode error is encountered. use other deserializer
	// methods to read the expected type from the deserializer
	ReadListItem(*Schema) (bool, error)

	ReadMap(*Schema) error
	// the bool will be true if there's another key in the list and the string
	// will have the value of that key, with any decode error in the error. use
	// other deserializer methods to read the expected type.
	ReadMapKey(*Schema) (string, bool, error)

	ReadStruct(*Schema) error
	// returns the member schema for the given struct, nil when there are no
	// more members, with any decode error in the error. use other deserializer
	// methods to read the expected type.
	ReadStructMember() (*Schema, error)

	// returns the schema for the variant that the union is
	ReadUnion(*Schema) (*Schema, error)

	ReadDocument(*Schema, *Document) error

	// IsNull reports whether the next value is null, for codecs capable of
	// look-ahead. Codecs that cannot look ahead always return false; callers
	// must still handle a null coming back from the Read* call itself.
	IsNull() bool
	// ReadNull consumes a null value, returning an error if the next value
	// is not null.
	ReadNull() error

	// ReadDataStream materializes a streaming blob member.
	ReadDataStream(*Schema) (*datastream.DataStream, error)

	// ReadEventStream hands off to fn once per received event frame until
	// the stream closes or fn returns an error.
	ReadEventStream(*Schema, func(*Schema, ShapeDeserializer) error) error
}

// Serializable is an entity that can describe itself to a ShapeSerializer to
// be encoded to some format.
//
// Unlike the standard library marshaler interfaces, which idiomatically encode
// to []byte, the output format and data type here is not specified at all.
// This is because Smithy shapes need to encode to a variety of formats or data
// carriers. For example, HTTP-binding JSON protocols need to serialize some
// members to bytes (the HTTP request body) and others directly to fields on
// the HTTP request itself (e.g. headers).
type Serializable interface {
	Serialize(ShapeSerializer)
}

// Deserializable is an entity that can unmarshal itself from a
// ShapeDeserializer.
type Deserializable interface {
	Deserialize(ShapeDeserializer) error
}

// DeserializableError is implemented by modeled error types for a service.
type DeserializableError interface {
	Deserializable
	error
}

// ReadStruct is a utility API for generated clients. It is
// ReadStructWithUnknown with no unknown-member hook, so unrecognized members
// fall through to memberFn, which codecs are expected to skip safely.
func ReadStruct(d ShapeDeserializer, schema *Schema, memberFn func(*Schema) error) error {
	return ReadStructWithUnknown(d, schema, memberFn, nil)
}

// ReadStructWithUnknown is ReadStruct with an explicit unknown-member hook.
//
// unknownMember, if non-nil, is invoked with a member's field name instead
// of memberFn when ReadStructMember returns a schema the caller doesn't
// recognize (signaled by the deserializer returning a member with an empty
// target, i.e. Type == ShapeTypeMember with no Members).
func ReadStructWithUnknown(d ShapeDeserializer, schema *Schema, memberFn func(*Schema) error, unknownMember func(string) error) error {
	if err := d.ReadStruct(schema); err != nil {
		return err
	}

	for {
		ms, err := d.ReadStructMember()
		if ms == nil {
			return nil
		}

		if err != nil {
			return err
		}

		if ms.Type == ShapeTypeMember && ms.Members == nil && unknownMember != nil {
			if err := unknownMember(ms.MemberName()); err != nil {
				return err
			}
			continue
		}

		if err := memberFn(ms); err != nil {
			return err
		}
	}
}

// ReadList is a utility API for generated clients.
func ReadList(d ShapeDeserializer, schema *Schema, memberFn func() error) error {
	if err := d.ReadList(schema); err != nil {
		return err
	}

	for {
		ok, err := d.ReadListItem(schema.Members["member"]) // TODO
		if !ok {
			return nil
		}
		if err != nil {
			return err
		}

		if err := memberFn(); err != nil {
			return err
		}
	}

	return nil
}

// ReadMap is a utility API for generated clients.
func ReadMap(d ShapeDeserializer, schema *Schema, memberFn func(string) error) error {
	if err := d.ReadMap(schema); err != nil {
		return err
	}

	for {
		k, ok, err := d.ReadMapKey(schema.Members["key"]) // TODO
		if !ok {
			return nil
		}
		if err != nil {
			return err
		}

		if err := memberFn(k); err != nil {
			return err
		}
	}

	return nil
}

// NullSerializer discards every write. It is useful as the terminus of a
// chain of InterceptingSerializers that only want to validate or observe,
// never actually encode.
type NullSerializer struct{}

var _ ShapeSerializer = NullSerializer{}

func (NullSerializer) Bytes() []byte                                 { return nil }
func (NullSerializer) WriteInt8(*Schema, int8)                       {}
func (NullSerializer) WriteInt16(*Schema, int16)                     {}
func (NullSerializer) WriteInt32(*Schema, int32)                     {}
func (NullSerializer) WriteInt64(*Schema, int64)                     {}
func (NullSerializer) WriteInt8Ptr(*Schema, *int8)                   {}
func (NullSerializer) WriteInt16Ptr(*Schema, *int16)                 {}
func (NullSerializer) WriteInt32Ptr(*Schema, *int32)                 {}
func (NullSerializer) WriteInt64Ptr(*Schema, *int64)                 {}
func (NullSerializer) WriteFloat32(*Schema, float32)                 {}
func (NullSerializer) WriteFloat64(*Schema, float64)                 {}
func (NullSerializer) WriteFloat32Ptr(*Schema, *float32)             {}
func (NullSerializer) WriteFloat64Ptr(*Schema, *float64)             {}
func (NullSerializer) WriteBool(*Schema, bool)                       {}
func (NullSerializer) WriteBoolPtr(*Schema, *bool)                   {}
func (NullSerializer) WriteString(*Schema, string)                   {}
func (NullSerializer) WriteStringPtr(*Schema, *string)               {}
func (NullSerializer) WriteBigInteger(*Schema, big.Int)              {}
func (NullSerializer) WriteBigDecimal(*Schema, big.Float)            {}
func (NullSerializer) WriteBlob(*Schema, []byte)                     {}
func (NullSerializer) WriteTime(*Schema, time.Time)                  {}
func (NullSerializer) WriteTimePtr(*Schema, *time.Time)               {}
func (NullSerializer) WriteStruct(*Schema, Serializable)              {}
func (NullSerializer) WriteUnion(_, _ *Schema, _ Serializable)        {}
func (NullSerializer) WriteDocument(*Schema, Document)                {}
func (NullSerializer) WriteNil(*Schema)                               {}
func (NullSerializer) WriteList(*Schema)                              {}
func (NullSerializer) CloseList()                                     {}
func (NullSerializer) WriteMap(*Schema)                               {}
func (NullSerializer) WriteKey(*Schema, string)                       {}
func (NullSerializer) CloseMap()                                      {}
func (NullSerializer) WriteDataStream(*Schema, *datastream.DataStream) error {
	return nil
}
func (NullSerializer) WriteEventStream(*Schema, EventStreamWriter) error { return nil }

// InterceptingSerializer wraps a downstream ShapeSerializer and gives
// implementations a chance to substitute a different inner serializer (for
// filtering, uniqueness checks, or path maintenance) before each write by
// overriding Before. With Before nil, every call is delegated to Inner unchanged, so
// embedding it and overriding only the methods of interest is the expected
// usage, matching the "wrap and override a few methods" shape the teacher's
// codec serializers already use.
type InterceptingSerializer struct {
	// Inner is the wrapped serializer. Before, when non-nil, is called
	// ahead of every write to select the serializer that write is actually
	// applied to; it defaults to returning Inner unchanged.
	Inner  ShapeSerializer
	Before func(schema *Schema) ShapeSerializer
}

func (s *InterceptingSerializer) inner(schema *Schema) ShapeSerializer {
	if s.Before != nil {
		return s.Before(schema)
	}
	return s.Inner
}

func (s *InterceptingSerializer) Bytes() []byte { return s.Inner.Bytes() }

func (s *InterceptingSerializer) WriteInt8(schema *Schema, v int8) {
	s.inner(schema).WriteInt8(schema, v)
}
func (s *InterceptingSerializer) WriteInt16(schema *Schema, v int16) {
	s.inner(schema).WriteInt16(schema, v)
}
func (s *InterceptingSerializer) WriteInt32(schema *Schema, v int32) {
	s.inner(schema).WriteInt32(schema, v)
}
func (s *InterceptingSerializer) WriteInt64(schema *Schema, v int64) {
	s.inner(schema).WriteInt64(schema, v)
}
func (s *InterceptingSerializer) WriteInt8Ptr(schema *Schema, v *int8) {
	s.inner(schema).WriteInt8Ptr(schema, v)
}
func (s *InterceptingSerializer) WriteInt16Ptr(schema *Schema, v *int16) {
	s.inner(schema).WriteInt16Ptr(schema, v)
}
func (s *InterceptingSerializer) WriteInt32Ptr(schema *Schema, v *int32) {
	s.inner(schema).WriteInt32Ptr(schema, v)
}
func (s *InterceptingSerializer) WriteInt64Ptr(schema *Schema, v *int64) {
	s.inner(schema).WriteInt64Ptr(schema, v)
}
func (s *InterceptingSerializer) WriteFloat32(schema *Schema, v float32) {
	s.inner(schema).WriteFloat32(schema, v)
}
func (s *InterceptingSerializer) WriteFloat64(schema *Schema, v float64) {
	s.inner(schema).WriteFloat64(schema, v)
}
func (s *InterceptingSerializer) WriteFloat32Ptr(schema *Schema, v *float32) {
	s.inner(schema).WriteFloat32Ptr(schema, v)
}
func (s *InterceptingSerializer) WriteFloat64Ptr(schema *Schema, v *float64) {
	s.inner(schema).WriteFloat64Ptr(schema, v)
}
func (s *InterceptingSerializer) WriteBool(schema *Schema, v bool) {
	s.inner(schema).WriteBool(schema, v)
}
func (s *InterceptingSerializer) WriteBoolPtr(schema *Schema, v *bool) {
	s.inner(schema).WriteBoolPtr(schema, v)
}
func (s *InterceptingSerializer) WriteString(schema *Schema, v string) {
	s.inner(schema).WriteString(schema, v)
}
func (s *InterceptingSerializer) WriteStringPtr(schema *Schema, v *string) {
	s.inner(schema).WriteStringPtr(schema, v)
}
func (s *InterceptingSerializer) WriteBigInteger(schema *Schema, v big.Int) {
	s.inner(schema).WriteBigInteger(schema, v)
}
func (s *InterceptingSerializer) WriteBigDecimal(schema *Schema, v big.Float) {
	s.inner(schema).WriteBigDecimal(schema, v)
}
func (s *InterceptingSerializer) WriteBlob(schema *Schema, v []byte) {
	s.inner(schema).WriteBlob(schema, v)
}
func (s *InterceptingSerializer) WriteTime(schema *Schema, v time.Time) {
	s.inner(schema).WriteTime(schema, v)
}
func (s *InterceptingSerializer) WriteTimePtr(schema *Schema, v *time.Time) {
	s.inner(schema).WriteTimePtr(schema, v)
}
func (s *InterceptingSerializer) WriteStruct(schema *Schema, v Serializable) {
	s.inner(schema).WriteStruct(schema, v)
}
func (s *InterceptingSerializer) WriteUnion(schema, variant *Schema, v Serializable) {
	s.inner(schema).WriteUnion(schema, variant, v)
}
func (s *InterceptingSerializer) WriteDocument(schema *Schema, v Document) {
	s.inner(schema).WriteDocument(schema, v)
}
func (s *InterceptingSerializer) WriteNil(schema *Schema) { s.inner(schema).WriteNil(schema) }
func (s *InterceptingSerializer) WriteList(schema *Schema) {
	s.inner(schema).WriteList(schema)
}
func (s *InterceptingSerializer) CloseList() { s.Inner.CloseList() }
func (s *InterceptingSerializer) WriteMap(schema *Schema) {
	s.inner(schema).WriteMap(schema)
}
func (s *InterceptingSerializer) WriteKey(schema *Schema, k string) {
	s.inner(schema).WriteKey(schema, k)
}
func (s *InterceptingSerializer) CloseMap() { s.Inner.CloseMap() }
func (s *InterceptingSerializer) WriteDataStream(schema *Schema, v *datastream.DataStream) error {
	return s.inner(schema).WriteDataStream(schema, v)
}
func (s *InterceptingSerializer) WriteEventStream(schema *Schema, w EventStreamWriter) error {
	return s.inner(schema).WriteEventStream(schema, w)
}

// SpecificShapeSerializer rejects every write by panicking with an
// *UnsupportedWriteError except the ones an embedder overrides, which is
// useful for codec assertions in tests that only expect one or two shapes
// to be written.
type SpecificShapeSerializer struct {
	// Name identifies the serializer in UnsupportedWriteError messages.
	Name string
}

// UnsupportedWriteError reports an unsupported write. SpecificShapeSerializer
// panics with one from every method an embedder doesn't override.
type UnsupportedWriteError struct {
	Serializer, Method string
}

func (e *UnsupportedWriteError) Error() string {
	return fmt.Sprintf("smithy: %s does not support %s", e.Serializer, e.Method)
}

func (s SpecificShapeSerializer) unsupported(method string) {
	panic(&UnsupportedWriteError{Serializer: s.Name, Method: method})
}

func (s SpecificShapeSerializer) Bytes() []byte                      { return nil }
func (s SpecificShapeSerializer) WriteInt8(*Schema, int8)             { s.unsupported("WriteInt8") }
func (s SpecificShapeSerializer) WriteInt16(*Schema, int16)           { s.unsupported("WriteInt16") }
func (s SpecificShapeSerializer) WriteInt32(*Schema, int32)           { s.unsupported("WriteInt32") }
func (s SpecificShapeSerializer) WriteInt64(*Schema, int64)           { s.unsupported("WriteInt64") }
func (s SpecificShapeSerializer) WriteInt8Ptr(*Schema, *int8)         { s.unsupported("WriteInt8Ptr") }
func (s SpecificShapeSerializer) WriteInt16Ptr(*Schema, *int16)       { s.unsupported("WriteInt16Ptr") }
func (s SpecificShapeSerializer) WriteInt32Ptr(*Schema, *int32)       { s.unsupported("WriteInt32Ptr") }
func (s SpecificShapeSerializer) WriteInt64Ptr(*Schema, *int64)       { s.unsupported("WriteInt64Ptr") }
func (s SpecificShapeSerializer) WriteFloat32(*Schema, float32)       { s.unsupported("WriteFloat32") }
func (s SpecificShapeSerializer) WriteFloat64(*Schema, float64)       { s.unsupported("WriteFloat64") }
func (s SpecificShapeSerializer) WriteFloat32Ptr(*Schema, *float32)   { s.unsupported("WriteFloat32Ptr") }
func (s SpecificShapeSerializer) WriteFloat64Ptr(*Schema, *float64)   { s.unsupported("WriteFloat64Ptr") }
func (s SpecificShapeSerializer) WriteBool(*Schema, bool)             { s.unsupported("WriteBool") }
func (s SpecificShapeSerializer) WriteBoolPtr(*Schema, *bool)         { s.unsupported("WriteBoolPtr") }
func (s SpecificShapeSerializer) WriteString(*Schema, string)        { s.unsupported("WriteString") }
func (s SpecificShapeSerializer) WriteStringPtr(*Schema, *string)     { s.unsupported("WriteStringPtr") }
func (s SpecificShapeSerializer) WriteBigInteger(*Schema, big.Int)    { s.unsupported("WriteBigInteger") }
func (s SpecificShapeSerializer) WriteBigDecimal(*Schema, big.Float)  { s.unsupported("WriteBigDecimal") }
func (s SpecificShapeSerializer) WriteBlob(*Schema, []byte)           { s.unsupported("WriteBlob") }
func (s SpecificShapeSerializer) WriteTime(*Schema, time.Time)       { s.unsupported("WriteTime") }
func (s SpecificShapeSerializer) WriteTimePtr(*Schema, *time.Time)   { s.unsupported("WriteTimePtr") }
func (s SpecificShapeSerializer) WriteStruct(*Schema, Serializable)  { s.unsupported("WriteStruct") }
func (s SpecificShapeSerializer) WriteUnion(*Schema, *Schema, Serializable) {
	s.unsupported("WriteUnion")
}
func (s SpecificShapeSerializer) WriteDocument(*Schema, Document) { s.unsupported("WriteDocument") }
func (s SpecificShapeSerializer) WriteNil(*Schema)                { s.unsupported("WriteNil") }
func (s SpecificShapeSerializer) WriteList(*Schema)                { s.unsupported("WriteList") }
func (s SpecificShapeSerializer) CloseList()                       { s.unsupported("CloseList") }
func (s SpecificShapeSerializer) WriteMap(*Schema)                 { s.unsupported("WriteMap") }
func (s SpecificShapeSerializer) WriteKey(*Schema, string)         { s.unsupported("WriteKey") }
func (s SpecificShapeSerializer) CloseMap()                        { s.unsupported("CloseMap") }
func (s SpecificShapeSerializer) WriteDataStream(*Schema, *datastream.DataStream) error {
	s.unsupported("WriteDataStream")
	return nil
}
func (s SpecificShapeSerializer) WriteEventStream(*Schema, EventStreamWriter) error {
	s.unsupported("WriteEventStream")
	return nil
}

var (
	_ ShapeSerializer = (*InterceptingSerializer)(nil)
	_ ShapeSerializer = SpecificShapeSerializer{}
)
