package smithy

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Document is a protocol-agnostic dynamic value: a sum type over the shape
// kind space that is either untyped (built directly from a host value, with
// an attached prelude schema matching its kind) or typed (wrapping a
// self-serializing value bound to a modeled schema, so it round-trips
// through a codec faithfully rather than through a generic value tree).
//
// Document supersedes the older document.Document/document.Value sketches:
// one type instead of two, with a single set of ofX constructors.
type Document struct {
	kind   ShapeType
	schema *Schema

	// untyped payload. Exactly one of these is meaningful, selected by kind.
	scalar any
	list   []Document
	omap   map[string]Document

	// typed payload: present only when the document wraps a modeled value.
	typed Serializable
}

// preludeSchema returns a minimal scalar schema of the given kind, used to
// tag untyped documents the way the prelude tags host-constructed values.
func preludeSchema(kind ShapeType) *Schema {
	return &Schema{ID: ShapeID{Namespace: "smithy.api", Name: kind.String()}, Type: kind}
}

func ofScalar(kind ShapeType, v any) Document {
	return Document{kind: kind, schema: preludeSchema(kind), scalar: v}
}

// DocumentOfBoolean wraps a bool as an untyped document.
func DocumentOfBoolean(v bool) Document { return ofScalar(ShapeTypeBoolean, v) }

// DocumentOfByte wraps an int8 as an untyped document.
func DocumentOfByte(v int8) Document { return ofScalar(ShapeTypeByte, v) }

// DocumentOfShort wraps an int16 as an untyped document.
func DocumentOfShort(v int16) Document { return ofScalar(ShapeTypeShort, v) }

// DocumentOfInteger wraps an int32 as an untyped document.
func DocumentOfInteger(v int32) Document { return ofScalar(ShapeTypeInteger, v) }

// DocumentOfLong wraps an int64 as an untyped document.
func DocumentOfLong(v int64) Document { return ofScalar(ShapeTypeLong, v) }

// DocumentOfFloat wraps a float32 as an untyped document.
func DocumentOfFloat(v float32) Document { return ofScalar(ShapeTypeFloat, v) }

// DocumentOfDouble wraps a float64 as an untyped document.
func DocumentOfDouble(v float64) Document { return ofScalar(ShapeTypeDouble, v) }

// DocumentOfBigInteger wraps a big.Int as an untyped document.
func DocumentOfBigInteger(v big.Int) Document { return ofScalar(ShapeTypeBigInteger, v) }

// DocumentOfBigDecimal wraps a big.Float as an untyped document.
func DocumentOfBigDecimal(v big.Float) Document { return ofScalar(ShapeTypeBigDecimal, v) }

// DocumentOfString wraps a string as an untyped document.
func DocumentOfString(v string) Document { return ofScalar(ShapeTypeString, v) }

// DocumentOfBlob wraps a []byte as an untyped document.
func DocumentOfBlob(v []byte) Document { return ofScalar(ShapeTypeBlob, v) }

// DocumentOfTimestamp wraps a time.Time as an untyped document.
func DocumentOfTimestamp(v time.Time) Document { return ofScalar(ShapeTypeTimestamp, v) }

// DocumentOfNull returns the untyped null document.
func DocumentOfNull() Document { return Document{kind: ShapeTypeUnit, schema: preludeSchema(ShapeTypeUnit)} }

// DocumentOfList wraps a slice of documents as an untyped list document.
func DocumentOfList(v []Document) Document {
	return Document{kind: ShapeTypeList, schema: preludeSchema(ShapeTypeList), list: v}
}

// DocumentOfStringMap wraps a string-keyed map of documents as an untyped
// map document.
func DocumentOfStringMap(v map[string]Document) Document {
	return Document{kind: ShapeTypeMap, schema: preludeSchema(ShapeTypeMap), omap: v}
}

// DocumentOf wraps an already-constructed Document as a fixed point:
// Document.of(Document.of(v)) == Document.of(v).
func DocumentOf(v Document) Document { return v }

// NewTypedDocument builds a typed document bound to schema, wrapping a
// self-serializing value so it round-trips through a codec faithfully
// rather than through the generic untyped value tree.
func NewTypedDocument(schema *Schema, v Serializable) Document {
	return Document{kind: schema.Type, schema: schema, typed: v}
}

// IsTyped reports whether the document wraps a modeled value rather than a
// bare host value.
func (d Document) IsTyped() bool { return d.typed != nil }

// Type returns the document's underlying shape kind. For enum/int-enum
// documents this is String/Integer respectively; SerializeContents still
// emits through the enum schema.
func (d Document) Type() ShapeType { return d.kind }

// Schema returns the schema attached to the document: a prelude schema for
// untyped documents, the modeled schema for typed ones.
func (d Document) Schema() *Schema { return d.schema }

// Serialize always writes writeDocument(schema, self), so codecs get a
// chance to intercept document values before descending into their
// contents.
func (d Document) Serialize(s ShapeSerializer) {
	s.WriteDocument(d.schema, d)
}

// SerializeContents emits the document's actual contents: it must never
// re-enter WriteDocument, or a codec intercepting at the document boundary
// would recurse forever.
func (d Document) SerializeContents(s ShapeSerializer) {
	if d.typed != nil {
		d.typed.Serialize(s)
		return
	}
	switch d.kind {
	case ShapeTypeUnit:
		s.WriteNil(d.schema)
	case ShapeTypeBoolean:
		s.WriteBool(d.schema, d.scalar.(bool))
	case ShapeTypeByte:
		s.WriteInt8(d.schema, d.scalar.(int8))
	case ShapeTypeShort:
		s.WriteInt16(d.schema, d.scalar.(int16))
	case ShapeTypeInteger:
		s.WriteInt32(d.schema, d.scalar.(int32))
	case ShapeTypeLong:
		s.WriteInt64(d.schema, d.scalar.(int64))
	case ShapeTypeFloat:
		s.WriteFloat32(d.schema, d.scalar.(float32))
	case ShapeTypeDouble:
		s.WriteFloat64(d.schema, d.scalar.(float64))
	case ShapeTypeBigInteger:
		v := d.scalar.(big.Int)
		s.WriteBigInteger(d.schema, v)
	case ShapeTypeBigDecimal:
		v := d.scalar.(big.Float)
		s.WriteBigDecimal(d.schema, v)
	case ShapeTypeString:
		s.WriteString(d.schema, d.scalar.(string))
	case ShapeTypeBlob:
		s.WriteBlob(d.schema, d.scalar.([]byte))
	case ShapeTypeTimestamp:
		s.WriteTime(d.schema, d.scalar.(time.Time))
	case ShapeTypeList:
		s.WriteList(d.schema)
		for _, e := range d.list {
			e.Serialize(s)
		}
		s.CloseList()
	case ShapeTypeMap:
		s.WriteMap(d.schema)
		for k, v := range d.omap {
			s.WriteKey(d.schema, k)
			v.Serialize(s)
		}
		s.CloseMap()
	}
}

// DocumentTypeError reports a failed protocol-smoothing conversion between
// a document's actual kind and the kind an accessor requested.
type DocumentTypeError struct {
	Actual, Requested ShapeType
}

func (e *DocumentTypeError) Error() string {
	return fmt.Sprintf("smithy: document is %s, not %s", e.Actual, e.Requested)
}

// AsBoolean performs a best-effort protocol-smoothing conversion to bool.
func (d Document) AsBoolean() (bool, error) {
	if v, ok := d.scalar.(bool); ok {
		return v, nil
	}
	return false, &DocumentTypeError{d.kind, ShapeTypeBoolean}
}

// AsString performs a best-effort protocol-smoothing conversion to string.
// Blob documents are base64-free here; codecs that require base64 on the
// wire perform that coercion themselves when serializing blob-kind
// documents as strings.
func (d Document) AsString() (string, error) {
	if v, ok := d.scalar.(string); ok {
		return v, nil
	}
	return "", &DocumentTypeError{d.kind, ShapeTypeString}
}

// AsBlob performs a best-effort protocol-smoothing conversion to []byte.
func (d Document) AsBlob() ([]byte, error) {
	if v, ok := d.scalar.([]byte); ok {
		return v, nil
	}
	return nil, &DocumentTypeError{d.kind, ShapeTypeBlob}
}

// AsByte performs a best-effort protocol-smoothing conversion to int8.
func (d Document) AsByte() (int8, error) { return asInt[int8](d, ShapeTypeByte) }

// AsShort performs a best-effort protocol-smoothing conversion to int16.
func (d Document) AsShort() (int16, error) { return asInt[int16](d, ShapeTypeShort) }

// AsInteger performs a best-effort protocol-smoothing conversion to int32.
func (d Document) AsInteger() (int32, error) { return asInt[int32](d, ShapeTypeInteger) }

// AsLong performs a best-effort protocol-smoothing conversion to int64.
func (d Document) AsLong() (int64, error) { return asInt[int64](d, ShapeTypeLong) }

func asInt[T ~int8 | ~int16 | ~int32 | ~int64](d Document, want ShapeType) (T, error) {
	switch v := d.scalar.(type) {
	case int8:
		return T(v), nil
	case int16:
		return T(v), nil
	case int32:
		return T(v), nil
	case int64:
		return T(v), nil
	}
	var zero T
	return zero, &DocumentTypeError{d.kind, want}
}

// AsFloat performs a best-effort protocol-smoothing conversion to float32.
func (d Document) AsFloat() (float32, error) {
	switch v := d.scalar.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	}
	return 0, &DocumentTypeError{d.kind, ShapeTypeFloat}
}

// AsDouble performs a best-effort protocol-smoothing conversion to float64.
func (d Document) AsDouble() (float64, error) {
	switch v := d.scalar.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, &DocumentTypeError{d.kind, ShapeTypeDouble}
}

// AsTimestamp performs a best-effort protocol-smoothing conversion to
// time.Time.
func (d Document) AsTimestamp() (time.Time, error) {
	if v, ok := d.scalar.(time.Time); ok {
		return v, nil
	}
	return time.Time{}, &DocumentTypeError{d.kind, ShapeTypeTimestamp}
}

// AsList performs a best-effort protocol-smoothing conversion to a document
// slice.
func (d Document) AsList() ([]Document, error) {
	if d.kind != ShapeTypeList {
		return nil, &DocumentTypeError{d.kind, ShapeTypeList}
	}
	return d.list, nil
}

// AsStringMap performs a best-effort protocol-smoothing conversion to a
// string-keyed document map.
func (d Document) AsStringMap() (map[string]Document, error) {
	if d.kind != ShapeTypeMap {
		return nil, &DocumentTypeError{d.kind, ShapeTypeMap}
	}
	return d.omap, nil
}

// GetMember looks up a member of a map-kind document by key.
func (d Document) GetMember(name string) (Document, bool) {
	if d.kind != ShapeTypeMap {
		return Document{}, false
	}
	v, ok := d.omap[name]
	return v, ok
}

// DiscriminatorError reports a malformed __type field on a structure
// document.
type DiscriminatorError struct {
	Value string
}

func (e *DiscriminatorError) Error() string {
	return fmt.Sprintf("smithy: malformed document discriminator %q", e.Value)
}

// Discriminator extracts and parses a shape ID from a structure document's
// "__type" field. Absence of the field yields (ShapeID{}, false, nil);
// malformed content yields a DiscriminatorError.
func (d Document) Discriminator() (ShapeID, bool, error) {
	if d.kind != ShapeTypeMap {
		return ShapeID{}, false, nil
	}
	raw, ok := d.omap["__type"]
	if !ok {
		return ShapeID{}, false, nil
	}
	s, err := raw.AsString()
	if err != nil {
		return ShapeID{}, false, &DiscriminatorError{Value: fmt.Sprint(raw.scalar)}
	}
	id, err := ParseShapeID(s)
	if err != nil {
		return ShapeID{}, false, &DiscriminatorError{Value: s}
	}
	return id, true, nil
}

// EqualityFlags controls the strictness of Document.Equal.
type EqualityFlags uint8

const (
	// EqualityStrict is the default: no numeric promotion. big_decimal
	// values compare by numeric value, so trailing zeros are not significant.
	EqualityStrict EqualityFlags = 0
	// EqualityNumericPromotion permits comparisons across differently
	// kinded numeric documents (e.g. integer 1 == float 1.0).
	EqualityNumericPromotion EqualityFlags = 1 << iota
)

// Equal compares two documents for value equality. Lists compare
// elementwise; maps compare by key-set and value-map, ignoring order.
func (d Document) Equal(other Document, flags EqualityFlags) bool {
	if d.kind != other.kind {
		if flags&EqualityNumericPromotion == 0 || !d.kind.IsNumeric() || !other.kind.IsNumeric() {
			return false
		}
		a, aerr := d.AsDouble()
		b, berr := other.AsDouble()
		return aerr == nil && berr == nil && a == b
	}
	switch d.kind {
	case ShapeTypeList:
		if len(d.list) != len(other.list) {
			return false
		}
		for i := range d.list {
			if !d.list[i].Equal(other.list[i], flags) {
				return false
			}
		}
		return true
	case ShapeTypeMap:
		if len(d.omap) != len(other.omap) {
			return false
		}
		for k, v := range d.omap {
			ov, ok := other.omap[k]
			if !ok || !v.Equal(ov, flags) {
				return false
			}
		}
		return true
	case ShapeTypeBigDecimal:
		a := d.scalar.(big.Float)
		b := other.scalar.(big.Float)
		return a.Cmp(&b) == 0
	case ShapeTypeBigInteger:
		a := d.scalar.(big.Int)
		b := other.scalar.(big.Int)
		return a.Cmp(&b) == 0
	default:
		return d.scalar == other.scalar
	}
}

// ComparisonError reports that Compare was called on documents whose kind
// does not support ordering: only numbers, strings, and timestamps do.
type ComparisonError struct {
	Kind ShapeType
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("smithy: documents of kind %s are not comparable", e.Kind)
}

// Compare orders two documents. It is defined only over numeric kinds
// (promoted to a common representation the way JLS §5.1.2 widens mixed
// numeric operands), strings, and timestamps; any other kind, or a kind
// mismatch outside the numeric family, returns a ComparisonError.
func (d Document) Compare(other Document) (int, error) {
	switch {
	case d.kind == ShapeTypeString && other.kind == ShapeTypeString:
		a, _ := d.AsString()
		b, _ := other.AsString()
		return strings.Compare(a, b), nil
	case d.kind == ShapeTypeTimestamp && other.kind == ShapeTypeTimestamp:
		a, _ := d.AsTimestamp()
		b, _ := other.AsTimestamp()
		return a.Compare(b), nil
	case d.kind.IsNumeric() && other.kind.IsNumeric():
		a, err := d.asBigFloat()
		if err != nil {
			return 0, err
		}
		b, err := other.asBigFloat()
		if err != nil {
			return 0, err
		}
		return a.Cmp(b), nil
	default:
		return 0, &ComparisonError{Kind: d.kind}
	}
}

// asBigFloat promotes a numeric document to a big.Float, the widest common
// representation among the numeric kinds, so Compare can treat them
// uniformly the way JLS §5.1.2 promotes mixed numeric operands.
func (d Document) asBigFloat() (*big.Float, error) {
	switch d.kind {
	case ShapeTypeByte, ShapeTypeShort, ShapeTypeInteger, ShapeTypeLong, ShapeTypeIntEnum:
		n, err := d.AsLong()
		if err != nil {
			return nil, err
		}
		return new(big.Float).SetInt64(n), nil
	case ShapeTypeFloat, ShapeTypeDouble:
		n, err := d.AsDouble()
		if err != nil {
			return nil, err
		}
		return big.NewFloat(n), nil
	case ShapeTypeBigInteger:
		v, ok := d.scalar.(big.Int)
		if !ok {
			return nil, &DocumentTypeError{d.kind, ShapeTypeBigInteger}
		}
		return new(big.Float).SetInt(&v), nil
	case ShapeTypeBigDecimal:
		v, ok := d.scalar.(big.Float)
		if !ok {
			return nil, &DocumentTypeError{d.kind, ShapeTypeBigDecimal}
		}
		return &v, nil
	default:
		return nil, &ComparisonError{Kind: d.kind}
	}
}

// ObjectConversionError reports that OfObject was given a host value outside
// the fixed set of types it understands.
type ObjectConversionError struct {
	Value any
}

func (e *ObjectConversionError) Error() string {
	return fmt.Sprintf("smithy: cannot convert %T to a document", e.Value)
}

// OfObject converts a fixed set of host types — numbers, string, bool,
// []byte, time.Time, []any, and map[string]any (applied recursively) — to a
// Document. It never uses reflection: a value outside this set is an
// ObjectConversionError.
func OfObject(value any) (Document, error) {
	switch v := value.(type) {
	case nil:
		return DocumentOfNull(), nil
	case Document:
		return DocumentOf(v), nil
	case bool:
		return DocumentOfBoolean(v), nil
	case int8:
		return DocumentOfByte(v), nil
	case int16:
		return DocumentOfShort(v), nil
	case int32:
		return DocumentOfInteger(v), nil
	case int64:
		return DocumentOfLong(v), nil
	case int:
		return DocumentOfLong(int64(v)), nil
	case float32:
		return DocumentOfFloat(v), nil
	case float64:
		return DocumentOfDouble(v), nil
	case big.Int:
		return DocumentOfBigInteger(v), nil
	case big.Float:
		return DocumentOfBigDecimal(v), nil
	case string:
		return DocumentOfString(v), nil
	case []byte:
		return DocumentOfBlob(v), nil
	case time.Time:
		return DocumentOfTimestamp(v), nil
	case []any:
		list := make([]Document, len(v))
		for i, e := range v {
			ed, err := OfObject(e)
			if err != nil {
				return Document{}, err
			}
			list[i] = ed
		}
		return DocumentOfList(list), nil
	case map[string]any:
		m := make(map[string]Document, len(v))
		for k, e := range v {
			ed, err := OfObject(e)
			if err != nil {
				return Document{}, err
			}
			m[k] = ed
		}
		return DocumentOfStringMap(m), nil
	default:
		return Document{}, &ObjectConversionError{Value: value}
	}
}
