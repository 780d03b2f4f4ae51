package cbor

import (
	"fmt"
	"sort"
	"time"

	smithy "github.com/smithy-run/schema"
	"github.com/smithy-run/schema/datastream"
	smithytime "github.com/smithy-run/schema/time"
	"github.com/smithy-run/schema/traits"
)

// ShapeDeserializer walks a cbor.Value tree decoded up front, rather than
// a byte stream, since the package's Decode always materializes the whole
// document before returning.
type ShapeDeserializer struct {
	root Value
	head stack
}

// NewShapeDeserializer decodes p and returns a deserializer over the
// resulting Value tree.
func NewShapeDeserializer(p []byte) *ShapeDeserializer {
	v, err := Decode(p)
	if err != nil {
		// the decode error surfaces on first use instead of at
		// construction, matching how the json deserializer only reports
		// errors as Read* calls are made.
		return &ShapeDeserializer{root: &decodeError{err}}
	}
	return &ShapeDeserializer{root: v}
}

// decodeError stands in for the document root when up-front decoding
// fails, so the failure surfaces through the normal Read* error path.
type decodeError struct{ err error }

func (d *decodeError) len() int         { return 0 }
func (d *decodeError) encode([]byte) int { return 0 }

var _ smithy.ShapeDeserializer = (*ShapeDeserializer)(nil)

// listCursor walks a List's elements in order.
type listCursor struct {
	l   List
	idx int
}

// mapCursor walks a Map's entries in a stable (sorted) key order, paired
// with the struct schema when reading modeled members so member lookup
// can happen by key.
type mapCursor struct {
	m      map[string]Value
	keys   []string
	idx    int
	schema *smithy.Schema // non-nil when reading a modeled struct
}

func newMapCursor(v Value, schema *smithy.Schema) (*mapCursor, error) {
	m, ok := v.(Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %T", v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &mapCursor{m: m, keys: keys, schema: schema}, nil
}

// current returns the Value the next scalar Read* call should consume,
// pulled from whatever's on top of the stack: a pending single-use Value
// left by ReadStructMember/ReadMapKey/ReadListItem, the next element of an
// open list, or the document root.
func (d *ShapeDeserializer) current() (Value, error) {
	switch top := d.head.Top().(type) {
	case Value:
		d.head.Pop()
		return top, nil
	case *listCursor:
		if top.idx >= len(top.l) {
			return nil, fmt.Errorf("list exhausted")
		}
		v := top.l[top.idx]
		top.idx++
		return v, nil
	default:
		if de, ok := d.root.(*decodeError); ok {
			return nil, de.err
		}
		return d.root, nil
	}
}

func (d *ShapeDeserializer) ReadInt8(s *smithy.Schema, v *int8) error {
	n, err := d.readInt()
	*v = int8(n)
	return err
}

func (d *ShapeDeserializer) ReadInt16(s *smithy.Schema, v *int16) error {
	n, err := d.readInt()
	*v = int16(n)
	return err
}

func (d *ShapeDeserializer) ReadInt32(s *smithy.Schema, v *int32) error {
	n, err := d.readInt()
	*v = int32(n)
	return err
}

func (d *ShapeDeserializer) ReadInt64(s *smithy.Schema, v *int64) error {
	n, err := d.readInt()
	*v = n
	return err
}

func (d *ShapeDeserializer) ReadInt8Ptr(s *smithy.Schema, v **int8) error {
	if *v == nil {
		*v = new(int8)
	}
	return d.ReadInt8(s, *v)
}

func (d *ShapeDeserializer) ReadInt16Ptr(s *smithy.Schema, v **int16) error {
	if *v == nil {
		*v = new(int16)
	}
	return d.ReadInt16(s, *v)
}

func (d *ShapeDeserializer) ReadInt32Ptr(s *smithy.Schema, v **int32) error {
	if *v == nil {
		*v = new(int32)
	}
	return d.ReadInt32(s, *v)
}

func (d *ShapeDeserializer) ReadInt64Ptr(s *smithy.Schema, v **int64) error {
	if *v == nil {
		*v = new(int64)
	}
	return d.ReadInt64(s, *v)
}

func (d *ShapeDeserializer) readInt() (int64, error) {
	v, err := d.current()
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case Uint:
		return int64(n), nil
	case NegInt:
		return -int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func (d *ShapeDeserializer) ReadFloat32(s *smithy.Schema, v *float32) error {
	n, err := d.readFloat()
	*v = float32(n)
	return err
}

func (d *ShapeDeserializer) ReadFloat64(s *smithy.Schema, v *float64) error {
	n, err := d.readFloat()
	*v = n
	return err
}

func (d *ShapeDeserializer) ReadFloat32Ptr(s *smithy.Schema, v **float32) error {
	if *v == nil {
		*v = new(float32)
	}
	return d.ReadFloat32(s, *v)
}

func (d *ShapeDeserializer) ReadFloat64Ptr(s *smithy.Schema, v **float64) error {
	if *v == nil {
		*v = new(float64)
	}
	return d.ReadFloat64(s, *v)
}

func (d *ShapeDeserializer) readFloat() (float64, error) {
	v, err := d.current()
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case Float32:
		return float64(n), nil
	case Float64:
		return float64(n), nil
	case Uint:
		return float64(n), nil
	case NegInt:
		return -float64(n), nil
	default:
		return 0, fmt.Errorf("expected float, got %T", v)
	}
}

func (d *ShapeDeserializer) ReadBool(s *smithy.Schema, v *bool) error {
	val, err := d.current()
	if err != nil {
		return err
	}
	b, ok := val.(Bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", val)
	}
	*v = bool(b)
	return nil
}

func (d *ShapeDeserializer) ReadBoolPtr(s *smithy.Schema, v **bool) error {
	if *v == nil {
		*v = new(bool)
	}
	return d.ReadBool(s, *v)
}

func (d *ShapeDeserializer) ReadString(s *smithy.Schema, v *string) error {
	val, err := d.current()
	if err != nil {
		return err
	}
	str, ok := val.(String)
	if !ok {
		return fmt.Errorf("expected string, got %T", val)
	}
	*v = string(str)
	return nil
}

func (d *ShapeDeserializer) ReadStringPtr(s *smithy.Schema, v **string) error {
	if *v == nil {
		*v = new(string)
	}
	return d.ReadString(s, *v)
}

func (d *ShapeDeserializer) ReadBlob(s *smithy.Schema, v *[]byte) error {
	val, err := d.current()
	if err != nil {
		return err
	}
	sl, ok := val.(Slice)
	if !ok {
		return fmt.Errorf("expected byte string, got %T", val)
	}
	*v = []byte(sl)
	return nil
}

func (d *ShapeDeserializer) ReadTime(s *smithy.Schema, v *time.Time) error {
	format := "epoch-seconds"
	if tf, ok := smithy.SchemaTrait[*traits.TimestampFormat](s); ok {
		format = tf.Format
	}
	switch format {
	case "date-time":
		var str string
		if err := d.ReadString(s, &str); err != nil {
			return err
		}
		t, err := smithytime.ParseDateTimeFormat(str)
		if err != nil {
			return err
		}
		*v = t
		return nil
	case "http-date":
		var str string
		if err := d.ReadString(s, &str); err != nil {
			return err
		}
		t, err := smithytime.ParseHTTPDate(str)
		if err != nil {
			return err
		}
		*v = t
		return nil
	default:
		n, err := d.readFloat()
		if err != nil {
			return err
		}
		*v = smithytime.ParseEpochSeconds(n)
		return nil
	}
}

func (d *ShapeDeserializer) ReadTimePtr(s *smithy.Schema, v **time.Time) error {
	if *v == nil {
		*v = new(time.Time)
	}
	return d.ReadTime(s, *v)
}

func (d *ShapeDeserializer) ReadList(s *smithy.Schema) error {
	val, err := d.current()
	if err != nil {
		return err
	}
	l, ok := val.(List)
	if !ok {
		return fmt.Errorf("expected list, got %T", val)
	}
	d.head.Push(&listCursor{l: l})
	return nil
}

func (d *ShapeDeserializer) ReadListItem(s *smithy.Schema) (bool, error) {
	top, ok := d.head.Top().(*listCursor)
	if !ok {
		return false, fmt.Errorf("ReadListItem called without ReadList")
	}
	if top.idx >= len(top.l) {
		d.head.Pop()
		return false, nil
	}
	d.head.Push(top.l[top.idx])
	top.idx++
	return true, nil
}

func (d *ShapeDeserializer) ReadMap(s *smithy.Schema) error {
	val, err := d.current()
	if err != nil {
		return err
	}
	cur, err := newMapCursor(val, nil)
	if err != nil {
		return err
	}
	d.head.Push(cur)
	return nil
}

func (d *ShapeDeserializer) ReadMapKey(s *smithy.Schema) (string, bool, error) {
	top, ok := d.head.Top().(*mapCursor)
	if !ok {
		return "", false, fmt.Errorf("ReadMapKey called without ReadMap")
	}
	if top.idx >= len(top.keys) {
		d.head.Pop()
		return "", false, nil
	}
	key := top.keys[top.idx]
	top.idx++
	d.head.Push(top.m[key])
	return key, true, nil
}

func (d *ShapeDeserializer) ReadStruct(s *smithy.Schema) error {
	val, err := d.current()
	if err != nil {
		return err
	}
	cur, err := newMapCursor(val, s)
	if err != nil {
		return err
	}
	d.head.Push(cur)
	return nil
}

func (d *ShapeDeserializer) ReadStructMember() (*smithy.Schema, error) {
	top, ok := d.head.Top().(*mapCursor)
	if !ok {
		return nil, fmt.Errorf("ReadStructMember called without ReadStruct")
	}
	if top.idx >= len(top.keys) {
		d.head.Pop()
		return nil, nil
	}
	key := top.keys[top.idx]
	top.idx++

	member := top.schema.Members[key]
	if member == nil {
		return d.ReadStructMember() // skip unknown members, try the next one
	}

	d.head.Push(top.m[key])
	return member, nil
}

func (d *ShapeDeserializer) ReadUnion(s *smithy.Schema) (*smithy.Schema, error) {
	val, err := d.current()
	if err != nil {
		return nil, err
	}
	m, ok := val.(Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %T", val)
	}
	if len(m) != 1 {
		return nil, fmt.Errorf("union must have exactly one member, got %d", len(m))
	}

	for key, v := range m {
		member := s.Members[key]
		if member == nil {
			return nil, fmt.Errorf("unknown union variant: %s", key)
		}
		d.head.Push(v)
		return member, nil
	}
	panic("unreachable")
}

func (d *ShapeDeserializer) ReadDocument(s *smithy.Schema, v *smithy.Document) error {
	val, err := d.current()
	if err != nil {
		return err
	}
	doc, err := valueToDocument(val)
	if err != nil {
		return err
	}
	*v = doc
	return nil
}

func valueToDocument(val Value) (smithy.Document, error) {
	switch t := val.(type) {
	case *Nil:
		return smithy.DocumentOfNull(), nil
	case Bool:
		return smithy.DocumentOfBoolean(bool(t)), nil
	case String:
		return smithy.DocumentOfString(string(t)), nil
	case Uint:
		return smithy.DocumentOfLong(int64(t)), nil
	case NegInt:
		return smithy.DocumentOfLong(-int64(t)), nil
	case Float32:
		return smithy.DocumentOfDouble(float64(t)), nil
	case Float64:
		return smithy.DocumentOfDouble(float64(t)), nil
	case Slice:
		return smithy.DocumentOfBlob([]byte(t)), nil
	case List:
		items := make([]smithy.Document, len(t))
		for i, e := range t {
			item, err := valueToDocument(e)
			if err != nil {
				return smithy.Document{}, err
			}
			items[i] = item
		}
		return smithy.DocumentOfList(items), nil
	case Map:
		m := make(map[string]smithy.Document, len(t))
		for k, e := range t {
			item, err := valueToDocument(e)
			if err != nil {
				return smithy.Document{}, err
			}
			m[k] = item
		}
		return smithy.DocumentOfStringMap(m), nil
	default:
		return smithy.Document{}, fmt.Errorf("unsupported document value: %T", val)
	}
}

// IsNull reports whether the slot about to be read holds the CBOR null
// literal. Unlike the JSON codec, the whole tree is already in memory, so
// this deserializer can look ahead without consuming anything.
func (d *ShapeDeserializer) IsNull() bool {
	switch top := d.head.Top().(type) {
	case Value:
		_, ok := top.(*Nil)
		return ok
	case *listCursor:
		if top.idx >= len(top.l) {
			return false
		}
		_, ok := top.l[top.idx].(*Nil)
		return ok
	default:
		_, ok := d.root.(*Nil)
		return ok
	}
}

func (d *ShapeDeserializer) ReadNull() error {
	val, err := d.current()
	if err != nil {
		return err
	}
	if _, ok := val.(*Nil); !ok {
		return fmt.Errorf("expected null, got %T", val)
	}
	return nil
}

// ReadDataStream materializes a streaming blob member from the CBOR byte
// string it was written as.
func (d *ShapeDeserializer) ReadDataStream(s *smithy.Schema) (*datastream.DataStream, error) {
	var b []byte
	if err := d.ReadBlob(s, &b); err != nil {
		return nil, err
	}
	return datastream.NewFromBytes(b, ""), nil
}

// ReadEventStream is not meaningful for a single CBOR document body: event
// framing happens at the transport layer.
func (d *ShapeDeserializer) ReadEventStream(s *smithy.Schema, fn func(*smithy.Schema, smithy.ShapeDeserializer) error) error {
	return fmt.Errorf("cbor: ReadEventStream not supported by a CBOR document body deserializer")
}
