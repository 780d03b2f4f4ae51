package cbor

import (
	"math/big"
	"time"

	smithy "github.com/smithy-run/schema"
	"github.com/smithy-run/schema/datastream"
	smithytime "github.com/smithy-run/schema/time"
	"github.com/smithy-run/schema/traits"
)

// slot is a single place a Value can be written exactly once, mirroring
// the json package's chainable Value but over an in-memory tree instead
// of a byte stream: set stores the finished Value into whatever container
// (map entry, list element, or document root) the slot was carved from.
type slot struct {
	set func(Value)
}

// objectBuilder accumulates a Smithy structure or map's members into a
// cbor.Map as they're written.
type objectBuilder struct {
	m map[string]Value
}

func newObjectBuilder() *objectBuilder { return &objectBuilder{m: map[string]Value{}} }

func (o *objectBuilder) Key(k string) *slot {
	return &slot{set: func(v Value) { o.m[k] = v }}
}

func (o *objectBuilder) Value() Map { return Map(o.m) }

// arrayBuilder accumulates a Smithy list's elements into a cbor.List.
type arrayBuilder struct {
	items []Value
}

func (a *arrayBuilder) Value() *slot {
	idx := len(a.items)
	a.items = append(a.items, nil)
	return &slot{set: func(v Value) { a.items[idx] = v }}
}

func (a *arrayBuilder) ToValue() List { return List(a.items) }

// ShapeSerializer builds a cbor.Value tree as Smithy shapes are written to
// it, then encodes the finished tree to bytes on demand.
type ShapeSerializer struct {
	root   *slot
	result Value
	head   stack
}

var _ smithy.ShapeSerializer = (*ShapeSerializer)(nil)

// Bytes encodes the tree built so far.
func (ss *ShapeSerializer) Bytes() []byte {
	if ss.result == nil {
		return nil
	}
	return Encode(ss.result)
}

// target returns the slot the next write should land in, consuming a
// single-use slot left by a parent WriteKey/WriteStruct/WriteList call.
func (ss *ShapeSerializer) target(s *smithy.Schema) *slot {
	switch enc := ss.head.Top().(type) {
	case *objectBuilder:
		return enc.Key(s.ID.Member)
	case *arrayBuilder:
		return enc.Value()
	case *pendingList:
		return enc.arr.Value()
	case *slot:
		ss.head.Pop()
		return enc
	default:
		return ss.root
	}
}

func intValue(n int64) Value {
	if n >= 0 {
		return Uint(n)
	}
	return NegInt(uint64(-n))
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

func (ss *ShapeSerializer) WriteBool(s *smithy.Schema, v bool) { ss.target(s).set(Bool(v)) }

func (ss *ShapeSerializer) WriteInt8(s *smithy.Schema, v int8) { ss.target(s).set(intValue(int64(v))) }

func (ss *ShapeSerializer) WriteInt16(s *smithy.Schema, v int16) {
	ss.target(s).set(intValue(int64(v)))
}

func (ss *ShapeSerializer) WriteInt32(s *smithy.Schema, v int32) {
	ss.target(s).set(intValue(int64(v)))
}

func (ss *ShapeSerializer) WriteInt64(s *smithy.Schema, v int64) { ss.target(s).set(intValue(v)) }

func (ss *ShapeSerializer) WriteFloat32(s *smithy.Schema, v float32) { ss.target(s).set(Float32(v)) }

func (ss *ShapeSerializer) WriteFloat64(s *smithy.Schema, v float64) { ss.target(s).set(Float64(v)) }

func (ss *ShapeSerializer) WriteString(s *smithy.Schema, v string) { ss.target(s).set(String(v)) }

func (ss *ShapeSerializer) WriteBlob(s *smithy.Schema, v []byte) { ss.target(s).set(Slice(v)) }

// WriteBigInteger and WriteBigDecimal encode the value's decimal text as a
// CBOR text string: the package's Value tree has no bignum major type, and
// a string preserves arbitrary precision round-trips, unlike a float.
func (ss *ShapeSerializer) WriteBigInteger(s *smithy.Schema, v big.Int) {
	ss.target(s).set(String(v.String()))
}

func (ss *ShapeSerializer) WriteBigDecimal(s *smithy.Schema, v big.Float) {
	ss.target(s).set(String(v.Text('g', -1)))
}

// WriteTime encodes v per the member's smithy.api#timestampFormat trait,
// defaulting to epoch-seconds as a CBOR float.
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
		ss.target(s).set(Float64(smithytime.FormatEpochSeconds(v)))
	}
}

// WriteDocument writes a document's contents directly into the current
// slot; SerializeContents never re-enters WriteDocument.
func (ss *ShapeSerializer) WriteDocument(s *smithy.Schema, v smithy.Document) {
	v.SerializeContents(ss)
}

func (ss *ShapeSerializer) WriteNil(s *smithy.Schema) { ss.target(s).set(&Nil{}) }

func (ss *ShapeSerializer) WriteStruct(s *smithy.Schema, v smithy.Serializable) {
	obj := newObjectBuilder()
	target := ss.target(s)
	ss.head.Push(obj)

	v.Serialize(ss)

	ss.head.Pop()
	target.set(obj.Value())
}

// WriteUnion writes identically to WriteStruct: the variant's own member
// write keys itself by variant.ID.Member, producing a single-key map.
func (ss *ShapeSerializer) WriteUnion(s, variant *smithy.Schema, v smithy.Serializable) {
	ss.WriteStruct(s, v)
}

func (ss *ShapeSerializer) WriteList(s *smithy.Schema) {
	ss.head.Push(&pendingList{target: ss.target(s), arr: &arrayBuilder{}})
}

// pendingList pairs an arrayBuilder with the slot it will eventually fill,
// since CloseList needs both: one to keep appending elements to and one
// to commit the finished List into once closed.
type pendingList struct {
	target *slot
	arr    *arrayBuilder
}

func (ss *ShapeSerializer) CloseList() {
	if p, ok := ss.head.Top().(*pendingList); ok {
		ss.head.Pop()
		p.target.set(p.arr.ToValue())
	}
}

func (ss *ShapeSerializer) WriteMap(s *smithy.Schema) {
	ss.head.Push(&pendingMap{target: ss.target(s), obj: newObjectBuilder()})
}

type pendingMap struct {
	target *slot
	obj    *objectBuilder
}

func (ss *ShapeSerializer) WriteKey(s *smithy.Schema, key string) {
	if p, ok := ss.head.Top().(*pendingMap); ok {
		ss.head.Push(p.obj.Key(key))
	}
}

func (ss *ShapeSerializer) CloseMap() {
	if p, ok := ss.head.Top().(*pendingMap); ok {
		ss.head.Pop()
		p.target.set(p.obj.Value())
	}
}

// WriteDataStream materializes the stream into memory and writes it as a
// CBOR byte string.
func (ss *ShapeSerializer) WriteDataStream(s *smithy.Schema, d *datastream.DataStream) error {
	b, err := d.ReadToBytes(0)
	if err != nil {
		return err
	}
	ss.WriteBlob(s, b)
	return nil
}

// WriteEventStream is not meaningful for a single CBOR document body: event
// framing happens at the transport layer.
func (ss *ShapeSerializer) WriteEventStream(s *smithy.Schema, w smithy.EventStreamWriter) error {
	return &smithy.UnsupportedWriteError{Serializer: "cbor.ShapeSerializer", Method: "WriteEventStream"}
}
