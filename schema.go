package smithy

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
)

// ShapeType is a type of Smithy shape.
// See https://smithy.io/2.0/spec/idl.html#defining-shapes.
type ShapeType int

// Enumerates ShapeType per the Smithy IDL.
const (
	ShapeTypeBlob ShapeType = iota
	ShapeTypeBoolean
	ShapeTypeString
	ShapeTypeTimestamp
	ShapeTypeByte
	ShapeTypeShort
	ShapeTypeInteger
	ShapeTypeLong
	ShapeTypeFloat
	ShapeTypeDocument
	ShapeTypeDouble
	ShapeTypeBigDecimal
	ShapeTypeBigInteger
	ShapeTypeEnum
	ShapeTypeIntEnum
	ShapeTypeList
	ShapeTypeSet
	ShapeTypeMap
	ShapeTypeStructure
	ShapeTypeUnion
	ShapeTypeMember
	ShapeTypeService
	ShapeTypeResource
	ShapeTypeOperation
	ShapeTypeUnit
)

// String renders the ShapeType the way it appears in the Smithy IDL grammar.
func (t ShapeType) String() string {
	switch t {
	case ShapeTypeBlob:
		return "blob"
	case ShapeTypeBoolean:
		return "boolean"
	case ShapeTypeString:
		return "string"
	case ShapeTypeTimestamp:
		return "timestamp"
	case ShapeTypeByte:
		return "byte"
	case ShapeTypeShort:
		return "short"
	case ShapeTypeInteger:
		return "integer"
	case ShapeTypeLong:
		return "long"
	case ShapeTypeFloat:
		return "float"
	case ShapeTypeDocument:
		return "document"
	case ShapeTypeDouble:
		return "double"
	case ShapeTypeBigDecimal:
		return "bigDecimal"
	case ShapeTypeBigInteger:
		return "bigInteger"
	case ShapeTypeEnum:
		return "enum"
	case ShapeTypeIntEnum:
		return "intEnum"
	case ShapeTypeList:
		return "list"
	case ShapeTypeSet:
		return "set"
	case ShapeTypeMap:
		return "map"
	case ShapeTypeStructure:
		return "structure"
	case ShapeTypeUnion:
		return "union"
	case ShapeTypeMember:
		return "member"
	case ShapeTypeService:
		return "service"
	case ShapeTypeResource:
		return "resource"
	case ShapeTypeOperation:
		return "operation"
	case ShapeTypeUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether t is one of the Smithy numeric shape types.
func (t ShapeType) IsNumeric() bool {
	switch t {
	case ShapeTypeByte, ShapeTypeShort, ShapeTypeInteger, ShapeTypeLong,
		ShapeTypeFloat, ShapeTypeDouble, ShapeTypeBigDecimal, ShapeTypeBigInteger,
		ShapeTypeIntEnum:
		return true
	default:
		return false
	}
}

// shapeIDPattern is the grammar from spec.md §6:
// ^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*#[A-Za-z_][A-Za-z0-9_]*(\$[A-Za-z_][A-Za-z0-9_]*)?$
var shapeIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*#[A-Za-z_][A-Za-z0-9_]*(\$[A-Za-z_][A-Za-z0-9_]*)?$`)

// ShapeID fields of a Smithy shape ID.
type ShapeID struct {
	Namespace, Name, Member string
}

// String returns the IDL microformat for the shape ID.
func (s *ShapeID) String() string {
	if s.Member == "" {
		return fmt.Sprintf("%s#%s", s.Namespace, s.Name)
	}
	return fmt.Sprintf("%s#%s$%s", s.Namespace, s.Name, s.Member)
}

// ParseShapeID parses a shape ID string, failing fast on malformed input per
// the grammar in spec.md §6.
func ParseShapeID(s string) (ShapeID, error) {
	if !shapeIDPattern.MatchString(s) {
		return ShapeID{}, fmt.Errorf("smithy: malformed shape id %q", s)
	}
	return stoid(s), nil
}

// MustParseShapeID parses a shape ID string and panics if it is malformed.
// Intended for use in package-level var initializers (prelude schemas,
// generated code) where a malformed ID is a programmer error.
func MustParseShapeID(s string) ShapeID {
	id, err := ParseShapeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func stoid(s string) ShapeID {
	ns, n, _ := strings.Cut(s, "#")
	n, m, _ := strings.Cut(n, "$")
	return ShapeID{ns, n, m}
}

// Schema encodes information about a shape from a Smithy model.
//
// Generated clients use schemas at runtime to dynamically (de)serialize
// request/responses. Once returned from a builder's Build method (or from
// NewMember), a Schema is frozen: its Members and Traits are never mutated.
type Schema struct {
	ID      ShapeID
	Type    ShapeType
	Members map[string]*Schema // member name -> schema
	Traits  map[string]Trait   // trait ID -> trait

	// memberList holds the declaration order of Members for aggregate
	// shapes. nil for scalars. Populated by the builders in
	// schema_builder.go; NewMember-constructed schemas leave it nil since
	// they only ever describe a single member in isolation.
	memberList []*Schema

	// Member-only fields. Zero/nil on non-member schemas. The member name
	// itself lives on ID.Member (set by NewMember/the builders).
	memberIndex                     int
	requiredByValidationBitmask     uint64
	requiredStructureMemberBitfield uint64 // mirror of the parent's total mask, for O(1) allSet checks

	// enum/intEnum value sets, populated by createEnum/createIntEnum.
	stringEnumValues []string
	intEnumValues    []int32

	// val holds precomputed validation state (numeric/length bounds,
	// composed string validator). nil for shapes the validator never
	// needs to look closely at.
	val *validationState

	requiredMemberCount int // on aggregate container schemas only
}

// MemberList returns the member schemas of a structure, union, list, or map
// shape in their built order (required-without-default members first). It
// returns nil for scalar shapes and for Schemas built via NewMember rather
// than a builder.
func (s *Schema) MemberList() []*Schema {
	return s.memberList
}

// MemberIndex returns the 0-based position assigned to a member schema at
// build time, matching its position in the parent's MemberList.
func (s *Schema) MemberIndex() int {
	return s.memberIndex
}

// MemberName returns the member name for schemas produced as a structure,
// union, list, or map member.
func (s *Schema) MemberName() string {
	return s.ID.Member
}

// RequiredByValidationBitmask returns the single-bit mask
// (1 << MemberIndex) when this member is required-by-validation and
// MemberIndex < 64, else 0.
func (s *Schema) RequiredByValidationBitmask() uint64 {
	return s.requiredByValidationBitmask
}

// RequiredStructureMemberBitfield returns the OR of all required-by-validation
// member masks of a structure/union container schema. It is zero both when
// there are no required members and when there are more than 64 (the bitset
// presence strategy takes over in that case).
func (s *Schema) RequiredStructureMemberBitfield() uint64 {
	return s.requiredStructureMemberBitfield
}

// RequiredMemberCount returns the number of required-by-validation members of
// a structure/union container schema.
func (s *Schema) RequiredMemberCount() int {
	return s.requiredMemberCount
}

// StringEnumValues returns the permissible values of an enum shape.
func (s *Schema) StringEnumValues() []string {
	return s.stringEnumValues
}

// IntEnumValues returns the permissible values of an intEnum shape.
func (s *Schema) IntEnumValues() []int32 {
	return s.intEnumValues
}

// NewMember creates a member schema from a target schema, overriding traits.
//
// Traits provided for the member override any traits on the target if there
// is collision.
func NewMember(name string, target *Schema, traits ...Trait) *Schema {
	m := &Schema{
		ID:      ShapeID{Member: name},
		Type:    target.Type,
		Members: target.Members,
		Traits:  maps.Clone(target.Traits),
	}

	if len(m.Traits) == 0 && len(traits) != 0 {
		m.Traits = map[string]Trait{}
	}
	for _, t := range traits {
		m.Traits[t.TraitID()] = t
	}

	return m
}

// Trait returns the target trait on the schema if it exists.
func SchemaTrait[T Trait](s *Schema) (T, bool) {
	var trait T

	opaque, ok := s.Traits[trait.TraitID()]
	if !ok {
		return trait, false
	}

	tt, ok := opaque.(T)
	return tt, ok
}
