package smithy

import (
	"fmt"
	"time"

	"github.com/smithy-run/schema/datastream"
)

// documentDeserializer adapts an already-parsed Document tree to the
// ShapeDeserializer visitor protocol, so TypeRegistry.Deserialize/
// DeserializeStrict can feed a document straight into a modeled type's
// Deserialize method without a round-trip through bytes.
//
// It does not itself retain any wire-format state; it is a thin cursor over
// the Document value tree, matching the "current value plus a stack of
// aggregate frames" shape the byte-oriented codec deserializers use.
type documentDeserializer struct {
	strict bool
	next   Document
	frames []*docFrame
}

type docFrame struct {
	schema *Schema // container schema, for struct member lookup

	// structure/map frame
	keys   []string
	keyIdx int
	omap   map[string]Document

	// list frame
	list []Document
	idx  int
}

func newDocumentDeserializer(doc Document, strict bool) *documentDeserializer {
	return &documentDeserializer{strict: strict, next: doc}
}

var _ ShapeDeserializer = (*documentDeserializer)(nil)

// RequiredMemberMissingError is returned by DeserializeStrict when a
// document is missing a required-by-validation member.
type RequiredMemberMissingError struct {
	Schema *Schema
	Member string
}

func (e *RequiredMemberMissingError) Error() string {
	return fmt.Sprintf("smithy: %s missing required member %q", e.Schema.ID.String(), e.Member)
}

func (d *documentDeserializer) ReadStruct(s *Schema) error {
	if d.next.Type() != ShapeTypeMap {
		return &DocumentTypeError{d.next.Type(), ShapeTypeStructure}
	}
	omap, _ := d.next.AsStringMap()

	if d.strict {
		for _, m := range s.MemberList() {
			if !isRequiredByValidation(m) {
				continue
			}
			if _, ok := omap[m.MemberName()]; !ok {
				return &RequiredMemberMissingError{Schema: s, Member: m.MemberName()}
			}
		}
	}

	keys := make([]string, 0, len(omap))
	for k := range omap {
		if k == "__type" {
			continue
		}
		keys = append(keys, k)
	}

	d.frames = append(d.frames, &docFrame{schema: s, omap: omap, keys: keys})
	return nil
}

func (d *documentDeserializer) ReadStructMember() (*Schema, error) {
	f := d.top()
	if f == nil || f.keyIdx >= len(f.keys) {
		d.pop()
		return nil, nil
	}
	key := f.keys[f.keyIdx]
	f.keyIdx++

	member, ok := f.schema.Members[key]
	if !ok {
		// Unknown member: synthesize a bare ShapeTypeMember schema with no
		// Members map so ReadStructWithUnknown's sniff can recognize it and
		// route it to the caller's unknown-member hook.
		member = &Schema{ID: ShapeID{Member: key}, Type: ShapeTypeMember}
	}

	d.next = f.omap[key]
	return member, nil
}

func (d *documentDeserializer) ReadList(s *Schema) error {
	if d.next.Type() != ShapeTypeList {
		return &DocumentTypeError{d.next.Type(), ShapeTypeList}
	}
	list, _ := d.next.AsList()
	d.frames = append(d.frames, &docFrame{schema: s, list: list})
	return nil
}

func (d *documentDeserializer) ReadListItem(s *Schema) (bool, error) {
	f := d.top()
	if f == nil || f.idx >= len(f.list) {
		d.pop()
		return false, nil
	}
	d.next = f.list[f.idx]
	f.idx++
	return true, nil
}

func (d *documentDeserializer) ReadMap(s *Schema) error {
	if d.next.Type() != ShapeTypeMap {
		return &DocumentTypeError{d.next.Type(), ShapeTypeMap}
	}
	omap, _ := d.next.AsStringMap()
	keys := make([]string, 0, len(omap))
	for k := range omap {
		keys = append(keys, k)
	}
	d.frames = append(d.frames, &docFrame{schema: s, omap: omap, keys: keys})
	return nil
}

func (d *documentDeserializer) ReadMapKey(s *Schema) (string, bool, error) {
	f := d.top()
	if f == nil || f.keyIdx >= len(f.keys) {
		d.pop()
		return "", false, nil
	}
	key := f.keys[f.keyIdx]
	f.keyIdx++
	d.next = f.omap[key]
	return key, true, nil
}

func (d *documentDeserializer) ReadUnion(s *Schema) (*Schema, error) {
	if err := d.ReadStruct(s); err != nil {
		return nil, err
	}
	return d.ReadStructMember()
}

func (d *documentDeserializer) top() *docFrame {
	if len(d.frames) == 0 {
		return nil
	}
	return d.frames[len(d.frames)-1]
}

func (d *documentDeserializer) pop() {
	if len(d.frames) > 0 {
		d.frames = d.frames[:len(d.frames)-1]
	}
}

func (d *documentDeserializer) IsNull() bool { return d.next.Type() == ShapeTypeUnit }

func (d *documentDeserializer) ReadNull() error {
	if !d.IsNull() {
		return fmt.Errorf("smithy: ReadNull called on non-null document value")
	}
	return nil
}

func (d *documentDeserializer) ReadDocument(s *Schema, out *Document) error {
	*out = d.next
	return nil
}

func (d *documentDeserializer) ReadDataStream(s *Schema) (*datastream.DataStream, error) {
	return nil, fmt.Errorf("smithy: document deserializer does not support streaming members")
}

func (d *documentDeserializer) ReadEventStream(s *Schema, fn func(*Schema, ShapeDeserializer) error) error {
	return fmt.Errorf("smithy: document deserializer does not support event streams")
}

func (d *documentDeserializer) ReadBool(s *Schema, v *bool) error {
	b, err := d.next.AsBoolean()
	*v = b
	return err
}

func (d *documentDeserializer) ReadBoolPtr(s *Schema, v **bool) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var b bool
	if err := d.ReadBool(s, &b); err != nil {
		return err
	}
	*v = &b
	return nil
}

func (d *documentDeserializer) ReadString(s *Schema, v *string) error {
	str, err := d.next.AsString()
	*v = str
	return err
}

func (d *documentDeserializer) ReadStringPtr(s *Schema, v **string) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var str string
	if err := d.ReadString(s, &str); err != nil {
		return err
	}
	*v = &str
	return nil
}

func (d *documentDeserializer) ReadBlob(s *Schema, v *[]byte) error {
	b, err := d.next.AsBlob()
	*v = b
	return err
}

func (d *documentDeserializer) ReadTime(s *Schema, v *time.Time) error {
	t, err := d.next.AsTimestamp()
	*v = t
	return err
}

func (d *documentDeserializer) ReadTimePtr(s *Schema, v **time.Time) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var t time.Time
	if err := d.ReadTime(s, &t); err != nil {
		return err
	}
	*v = &t
	return nil
}

func (d *documentDeserializer) ReadInt8(s *Schema, v *int8) error {
	n, err := d.next.AsByte()
	*v = n
	return err
}
func (d *documentDeserializer) ReadInt16(s *Schema, v *int16) error {
	n, err := d.next.AsShort()
	*v = n
	return err
}
func (d *documentDeserializer) ReadInt32(s *Schema, v *int32) error {
	n, err := d.next.AsInteger()
	*v = n
	return err
}
func (d *documentDeserializer) ReadInt64(s *Schema, v *int64) error {
	n, err := d.next.AsLong()
	*v = n
	return err
}

func (d *documentDeserializer) ReadInt8Ptr(s *Schema, v **int8) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var n int8
	err := d.ReadInt8(s, &n)
	*v = &n
	return err
}
func (d *documentDeserializer) ReadInt16Ptr(s *Schema, v **int16) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var n int16
	err := d.ReadInt16(s, &n)
	*v = &n
	return err
}
func (d *documentDeserializer) ReadInt32Ptr(s *Schema, v **int32) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var n int32
	err := d.ReadInt32(s, &n)
	*v = &n
	return err
}
func (d *documentDeserializer) ReadInt64Ptr(s *Schema, v **int64) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var n int64
	err := d.ReadInt64(s, &n)
	*v = &n
	return err
}

func (d *documentDeserializer) ReadFloat32(s *Schema, v *float32) error {
	f, err := d.next.AsFloat()
	*v = f
	return err
}
func (d *documentDeserializer) ReadFloat64(s *Schema, v *float64) error {
	f, err := d.next.AsDouble()
	*v = f
	return err
}
func (d *documentDeserializer) ReadFloat32Ptr(s *Schema, v **float32) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var f float32
	err := d.ReadFloat32(s, &f)
	*v = &f
	return err
}
func (d *documentDeserializer) ReadFloat64Ptr(s *Schema, v **float64) error {
	if d.IsNull() {
		*v = nil
		return nil
	}
	var f float64
	err := d.ReadFloat64(s, &f)
	*v = &f
	return err
}

