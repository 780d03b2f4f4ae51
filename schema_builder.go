package smithy

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/smithy-run/schema/traits"
)

// SchemaBuilder constructs an immutable Schema graph. Builders are not
// thread-safe; confine one to its constructing goroutine until Build returns
// (spec.md §5).
//
// A member target is either a resolved *Schema (PutMember) or a forward
// reference to another, possibly not-yet-built, builder (PutMemberBuilder).
// The latter is how cyclic/recursive schemas are expressed: the member
// Schema starts out as an empty shell and is resolved in place, exactly
// once, the moment the referenced builder's Build method runs.
type SchemaBuilder struct {
	id     ShapeID
	kind   ShapeType
	traits map[string]Trait

	order []string
	specs map[string]*memberSpec

	stringEnum []string
	intEnum    []int32

	built  bool
	result *Schema
}

type memberSpec struct {
	name    string
	target  *Schema
	builder *SchemaBuilder
	traits  []Trait
}

func newBuilder(id ShapeID, kind ShapeType, traits []Trait) *SchemaBuilder {
	return &SchemaBuilder{
		id:     id,
		kind:   kind,
		traits: traitSliceToMap(traits),
		specs:  map[string]*memberSpec{},
	}
}

// StructureBuilder starts a structure schema builder.
func StructureBuilder(id ShapeID, t ...Trait) *SchemaBuilder { return newBuilder(id, ShapeTypeStructure, t) }

// UnionBuilder starts a union schema builder. Build panics via
// SchemaBuildError if no member is ever added.
func UnionBuilder(id ShapeID, t ...Trait) *SchemaBuilder { return newBuilder(id, ShapeTypeUnion, t) }

// ListBuilder starts a list schema builder. Exactly one member, named
// "member", must be added before Build.
func ListBuilder(id ShapeID, t ...Trait) *SchemaBuilder { return newBuilder(id, ShapeTypeList, t) }

// MapBuilder starts a map schema builder. Exactly two members, "key" and
// "value", must be added before Build.
func MapBuilder(id ShapeID, t ...Trait) *SchemaBuilder { return newBuilder(id, ShapeTypeMap, t) }

// CreateBoolean returns a frozen scalar schema of the given kind. One
// constructor per scalar shape kind mirrors the Smithy IDL's prelude
// shapes.
func CreateBoolean(id ShapeID, t ...Trait) *Schema { return newScalar(id, ShapeTypeBoolean, t...) }
func CreateByte(id ShapeID, t ...Trait) *Schema       { return newScalar(id, ShapeTypeByte, t...) }
func CreateShort(id ShapeID, t ...Trait) *Schema      { return newScalar(id, ShapeTypeShort, t...) }
func CreateInteger(id ShapeID, t ...Trait) *Schema    { return newScalar(id, ShapeTypeInteger, t...) }
func CreateLong(id ShapeID, t ...Trait) *Schema       { return newScalar(id, ShapeTypeLong, t...) }
func CreateFloat(id ShapeID, t ...Trait) *Schema      { return newScalar(id, ShapeTypeFloat, t...) }
func CreateDouble(id ShapeID, t ...Trait) *Schema     { return newScalar(id, ShapeTypeDouble, t...) }
func CreateBigInteger(id ShapeID, t ...Trait) *Schema { return newScalar(id, ShapeTypeBigInteger, t...) }
func CreateBigDecimal(id ShapeID, t ...Trait) *Schema { return newScalar(id, ShapeTypeBigDecimal, t...) }
func CreateString(id ShapeID, t ...Trait) *Schema     { return newScalar(id, ShapeTypeString, t...) }
func CreateBlob(id ShapeID, t ...Trait) *Schema       { return newScalar(id, ShapeTypeBlob, t...) }
func CreateTimestamp(id ShapeID, t ...Trait) *Schema  { return newScalar(id, ShapeTypeTimestamp, t...) }
func CreateDocument(id ShapeID, t ...Trait) *Schema   { return newScalar(id, ShapeTypeDocument, t...) }

// CreateEnum returns a frozen string-enum schema. Build fails fast
// (SchemaBuildError) if values is empty.
func CreateEnum(id ShapeID, values []string, t ...Trait) *Schema {
	if len(values) == 0 {
		panic(&SchemaBuildError{Message: fmt.Sprintf("enum schema %s requires at least one value", id.String())})
	}
	s := newScalar(id, ShapeTypeEnum, t...)
	s.stringEnumValues = values
	s.val = computeValidationState(s)
	return s
}

// CreateIntEnum returns a frozen int-enum schema.
func CreateIntEnum(id ShapeID, values []int32, t ...Trait) *Schema {
	if len(values) == 0 {
		panic(&SchemaBuildError{Message: fmt.Sprintf("intEnum schema %s requires at least one value", id.String())})
	}
	s := newScalar(id, ShapeTypeIntEnum, t...)
	s.intEnumValues = values
	s.val = computeValidationState(s)
	return s
}

func newScalar(id ShapeID, kind ShapeType, t ...Trait) *Schema {
	s := &Schema{ID: id, Type: kind, Traits: traitSliceToMap(t)}
	s.val = computeValidationState(s)
	return s
}

func traitSliceToMap(ts []Trait) map[string]Trait {
	if len(ts) == 0 {
		return nil
	}
	m := make(map[string]Trait, len(ts))
	for _, t := range ts {
		m[t.TraitID()] = t
	}
	return m
}

// PutMember adds a member targeting an already-built schema.
func (b *SchemaBuilder) PutMember(name string, target *Schema, t ...Trait) *SchemaBuilder {
	b.put(name, &memberSpec{name: name, target: target, traits: t})
	return b
}

// PutMemberBuilder adds a member targeting a builder that may not be built
// yet (including itself, or a mutually-recursive peer). Resolution happens
// automatically and exactly once, when target.Build() eventually runs.
func (b *SchemaBuilder) PutMemberBuilder(name string, target *SchemaBuilder, t ...Trait) *SchemaBuilder {
	b.put(name, &memberSpec{name: name, builder: target, traits: t})
	return b
}

func (b *SchemaBuilder) put(name string, spec *memberSpec) {
	if b.built {
		panic(&SchemaBuildError{Message: fmt.Sprintf("putMember(%s) called on %s after build", name, b.id.String())})
	}
	switch b.kind {
	case ShapeTypeList:
		if name != "member" {
			panic(&SchemaBuildError{Message: fmt.Sprintf("list schema %s member must be named \"member\", got %q", b.id.String(), name)})
		}
	case ShapeTypeMap:
		if name != "key" && name != "value" {
			panic(&SchemaBuildError{Message: fmt.Sprintf("map schema %s members must be named \"key\" or \"value\", got %q", b.id.String(), name)})
		}
	}
	if _, exists := b.specs[name]; !exists {
		b.order = append(b.order, name)
	}
	b.specs[name] = spec
}

// Build freezes the builder and returns the schema. Build is idempotent:
// calling it again returns the same Schema value without rebuilding.
func (b *SchemaBuilder) Build() *Schema {
	if b.result != nil {
		return b.result
	}
	b.built = true

	switch b.kind {
	case ShapeTypeList:
		if _, ok := b.specs["member"]; !ok {
			panic(&SchemaBuildError{Message: fmt.Sprintf("list schema %s requires a \"member\"", b.id.String())})
		}
	case ShapeTypeMap:
		if _, ok := b.specs["key"]; !ok {
			panic(&SchemaBuildError{Message: fmt.Sprintf("map schema %s requires a \"key\"", b.id.String())})
		}
		if _, ok := b.specs["value"]; !ok {
			panic(&SchemaBuildError{Message: fmt.Sprintf("map schema %s requires a \"value\"", b.id.String())})
		}
	case ShapeTypeUnion:
		if len(b.order) == 0 {
			panic(&SchemaBuildError{Message: fmt.Sprintf("union schema %s requires at least one member", b.id.String())})
		}
	}

	s := &Schema{ID: b.id, Type: b.kind, Traits: b.traits, Members: map[string]*Schema{}}

	names := b.orderedNames()
	members := make([]*Schema, 0, len(names))
	for _, name := range names {
		m := b.buildMember(b.specs[name])
		s.Members[name] = m
		members = append(members, m)
	}
	s.memberList = members
	assignMemberIndices(s, members)

	s.val = computeValidationState(s)

	b.result = s
	resolveDeferred(b, s)
	return s
}

// orderedNames returns member names in build order: fixed for list ("member")
// and map ("key","value"); for structure/union, required-without-default
// members sorted first, otherwise declaration order preserved (spec.md §4.B
// step 4 — a stable sort, so it only reorders the required-without-default
// group to the front).
func (b *SchemaBuilder) orderedNames() []string {
	switch b.kind {
	case ShapeTypeList:
		return []string{"member"}
	case ShapeTypeMap:
		return []string{"key", "value"}
	default:
		names := append([]string(nil), b.order...)
		sort.SliceStable(names, func(i, j int) bool {
			return b.isRequiredWithoutDefault(names[i]) && !b.isRequiredWithoutDefault(names[j])
		})
		return names
	}
}

func (b *SchemaBuilder) isRequiredWithoutDefault(name string) bool {
	spec := b.specs[name]
	var hasRequired, hasDefault bool
	for _, t := range spec.traits {
		switch t.(type) {
		case *traits.Required:
			hasRequired = true
		case *traits.Default:
			hasDefault = true
		}
	}
	return hasRequired && !hasDefault
}

func (b *SchemaBuilder) buildMember(spec *memberSpec) *Schema {
	if spec.target != nil {
		return NewMember(spec.name, spec.target, spec.traits...)
	}
	if spec.builder.result != nil {
		return NewMember(spec.name, spec.builder.result, spec.traits...)
	}

	shell := &Schema{
		ID:     ShapeID{Member: spec.name},
		Traits: traitSliceToMap(spec.traits),
	}
	registerDeferred(spec.builder, shell, spec.traits)
	return shell
}

// assignMemberIndices assigns the 0-based memberIndex and
// requiredByValidationBitmask/requiredStructureMemberBitfield fields
// described in spec.md §3/§4.B steps 5-6.
func assignMemberIndices(parent *Schema, members []*Schema) {
	var total uint64
	var requiredCount int
	for i, m := range members {
		m.memberIndex = i
		_, hasRequired := SchemaTrait[*traits.Required](m)
		_, hasDefault := SchemaTrait[*traits.Default](m)
		if hasRequired && !hasDefault {
			requiredCount++
			if i < 64 {
				m.requiredByValidationBitmask = 1 << uint(i)
			}
		}
	}
	if requiredCount >= 1 && requiredCount <= 64 {
		for _, m := range members {
			total |= m.requiredByValidationBitmask
		}
		for _, m := range members {
			m.requiredStructureMemberBitfield = total
		}
	}
	parent.requiredMemberCount = requiredCount
}

// Deferred resolution registry (spec.md §9 "Cyclic schemas"). Builder
// pointers are a stable, already-unique key; entries are removed the moment
// they are resolved so the registry never holds onto finished models.
var deferredMu sync.Mutex
var deferredShells = map[*SchemaBuilder][]*pendingShell{}

type pendingShell struct {
	shell     *Schema
	overrides []Trait
}

func registerDeferred(b *SchemaBuilder, shell *Schema, overrides []Trait) {
	deferredMu.Lock()
	defer deferredMu.Unlock()
	deferredShells[b] = append(deferredShells[b], &pendingShell{shell: shell, overrides: overrides})
}

// resolveDeferred runs once per builder, immediately after it produces its
// Schema, publishing that schema into every shell that was waiting on it.
// This is the one-shot memoized accessor spec.md §3/§9 requires: readers
// never observe a partially resolved shell because the in-place field copy
// happens-before any release of the builder's own result.
func resolveDeferred(b *SchemaBuilder, built *Schema) {
	deferredMu.Lock()
	pending := deferredShells[b]
	delete(deferredShells, b)
	deferredMu.Unlock()

	for _, p := range pending {
		resolveShell(p.shell, built, p.overrides)
	}
}

func resolveShell(shell, target *Schema, overrides []Trait) {
	shell.Type = target.Type
	shell.Members = target.Members
	shell.memberList = target.memberList
	shell.stringEnumValues = target.stringEnumValues
	shell.intEnumValues = target.intEnumValues
	shell.val = target.val
	shell.requiredMemberCount = target.requiredMemberCount

	merged := maps.Clone(target.Traits)
	if merged == nil {
		merged = map[string]Trait{}
	}
	for _, t := range overrides {
		merged[t.TraitID()] = t
	}
	shell.Traits = merged
}

// SchemaBuildError reports invalid builder state detected at build time.
// Per spec.md §7, it is fatal: callers are expected to let it propagate (or
// panic, since builders run at process startup).
type SchemaBuildError struct {
	Message string
}

func (e *SchemaBuildError) Error() string {
	return "smithy: schema build: " + e.Message
}
