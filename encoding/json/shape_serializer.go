package json

import (
	"math"
	"math/big"
	"strconv"
	"time"

	smithy "github.com/smithy-run/schema"
	"github.com/smithy-run/schema/datastream"
	smithytime "github.com/smithy-run/schema/time"
	"github.com/smithy-run/schema/traits"
)

// ShapeSerializer implements marshaling of Smithy shapes to JSON.
//
// Writes thread through a stack of open containers (head): the top of the
// stack tells each Write* call where its value belongs, whether that's a
// keyed member of an *Object, the next slot of an *Array, a single Value
// consumed by a map/list write once and then discarded, or the document
// root when the stack is empty.
type ShapeSerializer struct {
	root *Encoder
	head stack
}

var _ smithy.ShapeSerializer = (*ShapeSerializer)(nil)

func (ss *ShapeSerializer) Bytes() []byte {
	return ss.root.Bytes()
}

// value returns the Value slot the next scalar write should land in,
// popping any single-use Value the write consumes.
func (ss *ShapeSerializer) value(s *smithy.Schema) Value {
	switch enc := ss.head.Top().(type) {
	case *Object:
		return enc.Key(s.ID.Member)
	case *Array:
		return enc.Value()
	case Value:
		ss.head.Pop()
		return enc
	default:
		return ss.root.Value
	}
}

func (ss *ShapeSerializer) WriteInt8Ptr(s *smithy.Schema, v *int8) {
	if v != nil {
		ss.WriteInt8(s, *v)
	}
}

func (ss *ShapeSerializer) WriteInt16Ptr(s *smithy.Schema, v *int16) {
	if v != nil {
		ss.WriteInt16(s, *v)
	}
}

func (ss *ShapeSerializer) WriteInt32Ptr(s *smithy.Schema, v *int32) {
	if v != nil {
		ss.WriteInt32(s, *v)
	}
}

func (ss *ShapeSerializer) WriteInt64Ptr(s *smithy.Schema, v *int64) {
	if v != nil {
		ss.WriteInt64(s, *v)
	}
}

func (ss *ShapeSerializer) WriteFloat32Ptr(s *smithy.Schema, v *float32) {
	if v != nil {
		ss.WriteFloat32(s, *v)
	}
}

func (ss *ShapeSerializer) WriteFloat64Ptr(s *smithy.Schema, v *float64) {
	if v != nil {
		ss.WriteFloat64(s, *v)
	}
}

func (ss *ShapeSerializer) WriteBoolPtr(s *smithy.Schema, v *bool) {
	if v != nil {
		ss.WriteBool(s, *v)
	}
}

func (ss *ShapeSerializer) WriteStringPtr(s *smithy.Schema, v *string) {
	if v != nil {
		ss.WriteString(s, *v)
	}
}

func (ss *ShapeSerializer) WriteTimePtr(s *smithy.Schema, v *time.Time) {
	if v != nil {
		ss.WriteTime(s, *v)
	}
}

func (ss *ShapeSerializer) WriteBool(s *smithy.Schema, v bool) {
	ss.value(s).Boolean(v)
}

func (ss *ShapeSerializer) WriteInt8(s *smithy.Schema, v int8) {
	ss.value(s).Byte(v)
}

func (ss *ShapeSerializer) WriteInt16(s *smithy.Schema, v int16) {
	ss.value(s).Short(v)
}

func (ss *ShapeSerializer) WriteInt32(s *smithy.Schema, v int32) {
	ss.value(s).Integer(v)
}

func (ss *ShapeSerializer) WriteInt64(s *smithy.Schema, v int64) {
	ss.value(s).Long(v)
}

func (ss *ShapeSerializer) WriteString(s *smithy.Schema, v string) {
	ss.value(s).String(v)
}

func (ss *ShapeSerializer) WriteBlob(s *smithy.Schema, v []byte) {
	ss.value(s).Base64EncodeBytes(v)
}

// floatSpecialString reports the quoted-string encoding AWS JSON protocols
// use for the IEEE 754 special values that JSON's number grammar can't
// represent.
func floatSpecialString(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "Infinity", true
	case math.IsInf(v, -1):
		return "-Infinity", true
	default:
		return "", false
	}
}

func (ss *ShapeSerializer) WriteFloat32(s *smithy.Schema, v float32) {
	if str, ok := floatSpecialString(float64(v)); ok {
		ss.WriteString(s, str)
		return
	}
	ss.value(s).Float(v)
}

func (ss *ShapeSerializer) WriteFloat64(s *smithy.Schema, v float64) {
	if str, ok := floatSpecialString(v); ok {
		ss.WriteString(s, str)
		return
	}
	ss.value(s).Double(v)
}

func (ss *ShapeSerializer) WriteBigInteger(s *smithy.Schema, v big.Int) {
	ss.value(s).Raw([]byte(v.String()))
}

func (ss *ShapeSerializer) WriteBigDecimal(s *smithy.Schema, v big.Float) {
	ss.value(s).Raw([]byte(v.Text('g', -1)))
}

// WriteTime encodes v according to the member's smithy.api#timestampFormat
// trait, defaulting to epoch-seconds the way AWS JSON protocols do absent
// an explicit format.
func (ss *ShapeSerializer) WriteTime(s *smithy.Schema, v time.Time) {
	format := "epoch-seconds"
	if tf, ok := smithy.SchemaTrait[*traits.TimestampFormat](s); ok {
		format = tf.Format
	}
	switch format {
	case "date-time":
		ss.WriteString(s, smithytime.FormatDateTime(v))
	case "http-date":
		ss.WriteString(s, smithytime.FormatHTTPDate(v))
	default:
		ss.value(s).Raw([]byte(strconv.FormatFloat(smithytime.FormatEpochSeconds(v), 'f', -1, 64)))
	}
}

// WriteDocument writes a document's contents directly into the current
// slot. Documents carry their own schema/type information, so the codec
// doesn't need to interpret s beyond locating the slot; SerializeContents
// never re-enters WriteDocument.
func (ss *ShapeSerializer) WriteDocument(s *smithy.Schema, v smithy.Document) {
	v.SerializeContents(ss)
}

func (ss *ShapeSerializer) WriteNil(s *smithy.Schema) {
	ss.value(s).Null()
}

func (ss *ShapeSerializer) WriteStruct(s *smithy.Schema, v smithy.Serializable) {
	switch enc := ss.head.Top().(type) {
	case *Object:
		ss.head.Push(enc.Key(s.ID.Member).Object())
	case *Array:
		ss.head.Push(enc.Value().Object())
	case Value:
		ss.head.Push(enc.Object())
	default:
		ss.head.Push(ss.root.Object())
	}

	v.Serialize(ss)

	ss.CloseMap()
}

func (ss *ShapeSerializer) WriteUnion(s, variant *smithy.Schema, v smithy.Serializable) {
	// JSON unions serialize as a single-key object; the variant's own
	// member write already keys itself by variant.ID.Member, so writing
	// the union is identical to writing a struct with one member set.
	ss.WriteStruct(s, v)
}

func (ss *ShapeSerializer) WriteList(s *smithy.Schema) {
	switch enc := ss.head.Top().(type) {
	case *Object:
		ss.head.Push(enc.Key(s.ID.Member).Array())
	case *Array:
		ss.head.Push(enc.Value().Array())
	case Value:
		ss.head.Push(enc.Array())
	default:
		ss.head.Push(ss.root.Array())
	}
}

func (ss *ShapeSerializer) CloseList() {
	if enc, ok := ss.head.Top().(*Array); ok {
		enc.Close()
		ss.head.Pop()

		// if this array was itself a map/list value or struct member slot,
		// pop the consumed Value that produced it.
		if _, ok := ss.head.Top().(Value); ok {
			ss.head.Pop()
		}
	}
}

func (ss *ShapeSerializer) WriteMap(s *smithy.Schema) {
	switch enc := ss.head.Top().(type) {
	case *Object:
		ss.head.Push(enc.Key(s.ID.Member).Object())
	case *Array:
		ss.head.Push(enc.Value().Object())
	case Value:
		ss.head.Push(enc.Object())
	default:
		ss.head.Push(ss.root.Object())
	}
}

func (ss *ShapeSerializer) WriteKey(s *smithy.Schema, key string) {
	if enc, ok := ss.head.Top().(*Object); ok {
		ss.head.Push(enc.Key(key))
	}
}

func (ss *ShapeSerializer) CloseMap() {
	if enc, ok := ss.head.Top().(*Object); ok {
		enc.Close()
		ss.head.Pop()

		// if this is a map _inside_ a map, pop off the underlying key encoder
		// as well (for scalar values that's not necessarily since we can
		// deterministically do it there)
		if _, ok := ss.head.Top().(Value); ok {
			ss.head.Pop()
		}
	}
}

// WriteDataStream materializes the stream into memory and writes it as a
// base64 blob, the only representation a JSON body can carry; there is no
// native chunked encoding at this layer.
func (ss *ShapeSerializer) WriteDataStream(s *smithy.Schema, d *datastream.DataStream) error {
	b, err := d.ReadToBytes(0)
	if err != nil {
		return err
	}
	ss.WriteBlob(s, b)
	return nil
}

// WriteEventStream is not meaningful for a JSON document body serializer:
// event framing happens at the transport layer, not inside a single JSON
// payload.
func (ss *ShapeSerializer) WriteEventStream(s *smithy.Schema, w smithy.EventStreamWriter) error {
	return &smithy.UnsupportedWriteError{Serializer: "json.ShapeSerializer", Method: "WriteEventStream"}
}
