package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	smithy "github.com/smithy-run/schema"
	"github.com/smithy-run/schema/traits"
)

type stringList struct {
	schema *smithy.Schema
	values []string
}

func (l *stringList) Serialize(s smithy.ShapeSerializer) {
	member := l.schema.Members["member"]
	s.WriteList(l.schema)
	for _, v := range l.values {
		s.WriteString(member, v)
	}
	s.CloseList()
}

func newUniqueStringList(values []string) *stringList {
	item := smithy.CreateString(smithy.MustParseShapeID("smithy.example#Item"))
	schema := smithy.ListBuilder(smithy.MustParseShapeID("smithy.example#UniqueList"), &traits.UniqueItems{}).
		PutMember("member", item).
		Build()
	return &stringList{schema: schema, values: values}
}

func TestUniqueItemsConflict(t *testing.T) {
	l := newUniqueStringList([]string{"x", "y", "x"})
	v := New(smithy.NullSerializer{})

	l.Serialize(v)

	var conflicts []*Error
	for _, e := range v.Errors() {
		if e.Kind == KindUniqueItems {
			conflicts = append(conflicts, e)
		}
	}
	require.Lenf(t, conflicts, 1, "expected exactly 1 UniqueItems conflict, got %v", v.Errors())
}

type requiredStruct struct {
	schema *smithy.Schema
	name   *string
}

func (r *requiredStruct) Serialize(s smithy.ShapeSerializer) {
	s.WriteStruct(r.schema, serializeFn(func(s smithy.ShapeSerializer) {
		if r.name != nil {
			s.WriteString(r.schema.Members["name"], *r.name)
		}
	}))
}

type serializeFn func(smithy.ShapeSerializer)

func (f serializeFn) Serialize(s smithy.ShapeSerializer) { f(s) }

func newRequiredStructSchema() *smithy.Schema {
	name := smithy.CreateString(smithy.MustParseShapeID("smithy.example#Name"))
	return smithy.StructureBuilder(smithy.MustParseShapeID("smithy.example#Person")).
		PutMember("name", name, &traits.Required{}).
		Build()
}

func TestMissingRequiredMember(t *testing.T) {
	schema := newRequiredStructSchema()
	r := &requiredStruct{schema: schema}
	v := New(smithy.NullSerializer{})

	r.Serialize(v)

	require.True(t, containsKind(kindsOf(v.Errors()), KindRequired), "expected a Required error, got %v", v.Errors())
}

func TestRequiredMemberPresentPassesClean(t *testing.T) {
	schema := newRequiredStructSchema()
	name := "ok"
	r := &requiredStruct{schema: schema, name: &name}
	v := New(smithy.NullSerializer{})

	r.Serialize(v)

	require.Empty(t, v.Errors())
}

func TestStringLengthAndPatternErrors(t *testing.T) {
	min := int64(3)
	max := int64(5)
	target := smithy.CreateString(smithy.MustParseShapeID("smithy.example#Code"),
		&traits.Length{Min: &min, Max: &max},
		&traits.Pattern{Value: "^[a-z]+$"},
	)
	schema := smithy.StructureBuilder(smithy.MustParseShapeID("smithy.example#Widget")).
		PutMember("code", target).
		Build()

	v := New(smithy.NullSerializer{})
	r := serializeFn(func(s smithy.ShapeSerializer) {
		s.WriteStruct(schema, serializeFn(func(s smithy.ShapeSerializer) {
			s.WriteString(schema.Members["code"], "A1")
		}))
	})
	r.Serialize(v)

	kinds := kindsOf(v.Errors())
	require.True(t, containsKind(kinds, KindLength), "expected a Length error, got %v", v.Errors())
	require.True(t, containsKind(kinds, KindPattern), "expected a Pattern error, got %v", v.Errors())
}

func kindsOf(errs []*Error) []Kind {
	kinds := make([]Kind, len(errs))
	for i, e := range errs {
		kinds[i] = e.Kind
	}
	return kinds
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}
