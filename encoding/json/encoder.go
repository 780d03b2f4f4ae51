package json

import (
	"bytes"
	"encoding/base64"
	"strconv"
)

// Encoder is a streaming JSON encoder that supports construction of JSON
// documents through chainable Key/Value/Object/Array methods, mirroring the
// shape of the xml package's Encoder/Object/Array/Value split but without
// the attribute back-patching XML needs: a JSON value, once its bytes are
// written, never needs to be revisited.
type Encoder struct {
	w *bytes.Buffer
	Value
}

// NewEncoder returns a JSON encoder writing to a fresh internal buffer.
func NewEncoder() *Encoder {
	w := &bytes.Buffer{}
	return &Encoder{w: w, Value: Value{w: w}}
}

// Bytes returns the encoded JSON document.
func (e *Encoder) Bytes() []byte { return e.w.Bytes() }

// Value is a single JSON value-writing slot: a struct member, a map entry,
// a list element, or the document root. Each slot is written exactly once.
type Value struct {
	w *bytes.Buffer
}

func (v Value) Boolean(b bool) {
	if b {
		v.w.WriteString("true")
	} else {
		v.w.WriteString("false")
	}
}

func (v Value) Byte(n int8)     { v.w.WriteString(strconv.FormatInt(int64(n), 10)) }
func (v Value) Short(n int16)   { v.w.WriteString(strconv.FormatInt(int64(n), 10)) }
func (v Value) Integer(n int32) { v.w.WriteString(strconv.FormatInt(int64(n), 10)) }
func (v Value) Long(n int64)    { v.w.WriteString(strconv.FormatInt(n, 10)) }

func (v Value) Float(f float32)  { v.w.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32)) }
func (v Value) Double(f float64) { v.w.WriteString(strconv.FormatFloat(f, 'g', -1, 64)) }

func (v Value) String(s string) { writeJSONString(v.w, s) }

func (v Value) Base64EncodeBytes(b []byte) {
	writeJSONString(v.w, base64.StdEncoding.EncodeToString(b))
}

// Null writes a JSON null into the slot.
func (v Value) Null() { v.w.WriteString("null") }

// Raw writes already-encoded bytes directly into the slot, used for
// document values that have been pre-serialized by another ShapeSerializer
// write (e.g. a nested smithy.Document).
func (v Value) Raw(b []byte) { v.w.Write(b) }

// Object opens a JSON object in this slot and returns it for Key calls.
func (v Value) Object() *Object { return newObject(v.w) }

// Array opens a JSON array in this slot and returns it for Value calls.
func (v Value) Array() *Array { return newArray(v.w) }

// Object is an open JSON object being written member by member.
type Object struct {
	w     *bytes.Buffer
	first bool
}

func newObject(w *bytes.Buffer) *Object {
	w.WriteByte('{')
	return &Object{w: w, first: true}
}

// Key writes the next member's name and returns the Value slot for it.
func (o *Object) Key(k string) Value {
	if !o.first {
		o.w.WriteByte(',')
	}
	o.first = false
	writeJSONString(o.w, k)
	o.w.WriteByte(':')
	return Value{w: o.w}
}

// Close finishes the object.
func (o *Object) Close() { o.w.WriteByte('}') }

// Array is an open JSON array being written element by element.
type Array struct {
	w     *bytes.Buffer
	first bool
}

func newArray(w *bytes.Buffer) *Array {
	w.WriteByte('[')
	return &Array{w: w, first: true}
}

// Value returns the slot for the next element.
func (a *Array) Value() Value {
	if !a.first {
		a.w.WriteByte(',')
	}
	a.first = false
	return Value{w: a.w}
}

// Close finishes the array.
func (a *Array) Close() { a.w.WriteByte(']') }

func writeJSONString(w *bytes.Buffer, s string) {
	w.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			w.WriteString(`\"`)
		case '\\':
			w.WriteString(`\\`)
		case '\n':
			w.WriteString(`\n`)
		case '\r':
			w.WriteString(`\r`)
		case '\t':
			w.WriteString(`\t`)
		default:
			if r < 0x20 {
				const hex = "0123456789abcdef"
				w.WriteString(`\u`)
				w.WriteByte(hex[(r>>12)&0xf])
				w.WriteByte(hex[(r>>8)&0xf])
				w.WriteByte(hex[(r>>4)&0xf])
				w.WriteByte(hex[r&0xf])
			} else {
				w.WriteRune(r)
			}
		}
	}
	w.WriteByte('"')
}
