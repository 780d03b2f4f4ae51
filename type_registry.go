package smithy

import "fmt"

// TypeRegistry creates an instance of a type based on its Smithy IDL shape ID.
//
// Generated clients have an exported package-level registry (named
// TypeRegistry) that holds all structure types for the service. Registries
// are immutable once returned from NewTypeRegistry/Compose: callers build a
// fresh one rather than mutating an existing one in place.
type TypeRegistry struct {
	Entries map[string]*TypeRegistryEntry
}

// NewTypeRegistry builds a registry from a set of entries keyed by shape ID.
func NewTypeRegistry(entries map[string]*TypeRegistryEntry) *TypeRegistry {
	return &TypeRegistry{Entries: entries}
}

// RegistryEntry creates an eager type registry entry: the schema and builder
// supplier are both known up front.
func RegistryEntry[T any](schema *Schema) *TypeRegistryEntry {
	return &TypeRegistryEntry{
		Schema: schema,
		New: func() any {
			return new(T)
		},
	}
}

// LazyRegistryEntry creates a lazy type registry entry: supplier isn't
// invoked (and the class token behind it isn't loaded) until the entry is
// first resolved by a lookup (CreateBuilder, CreateTypedBuilder,
// DeserializableError, Deserialize); Contains does not resolve it. Useful for
// very large registries where eagerly materializing every entry's type
// information at startup is wasteful.
func LazyRegistryEntry(supplier func() *TypeRegistryEntry) *TypeRegistryEntry {
	return &TypeRegistryEntry{lazy: supplier}
}

// DeserializableError provides an instance of a deserializable error structure
// for a given shape ID.
//
// The ID is given as a string here since this will be called in a context where
// a shape ID is a discriminator read in from some wire payload.
func (t *TypeRegistry) DeserializableError(id string) (DeserializableError, bool) {
	return typeRegistryLookup[DeserializableError](t, id)
}

// TypeRegistryEntry pairs a shape's schema with a supplier of fresh,
// zero-valued instances of its Go type. A lazy entry defers both until
// resolve is first called.
type TypeRegistryEntry struct {
	Schema *Schema
	New    func() any

	lazy func() *TypeRegistryEntry
}

func (e *TypeRegistryEntry) resolve() *TypeRegistryEntry {
	if e.lazy != nil {
		resolved := e.lazy()
		e.Schema, e.New = resolved.Schema, resolved.New
		e.lazy = nil
	}
	return e
}

func typeRegistryLookup[T any](t *TypeRegistry, id string) (T, bool) {
	entry, ok := t.Entries[id]
	if !ok {
		var v T
		return v, false
	}
	entry.resolve()

	v, ok := entry.New().(T)
	return v, ok
}

// Contains reports whether the registry has an entry for shapeID.
func (t *TypeRegistry) Contains(shapeID string) bool {
	_, ok := t.Entries[shapeID]
	return ok
}

// RegistryTypeError reports that CreateBuilder's expectedType did not match
// the schema type registered for a shape ID.
type RegistryTypeError struct {
	ShapeID              string
	Expected, Registered ShapeType
}

func (e *RegistryTypeError) Error() string {
	return fmt.Sprintf("smithy: registry entry %q has type %s, expected %s", e.ShapeID, e.Registered, e.Expected)
}

// CreateBuilder returns a fresh, zero-valued Deserializable instance for
// shapeID, or (nil, false) if the registry has no entry for it.
func (t *TypeRegistry) CreateBuilder(shapeID string) (Deserializable, bool) {
	return typeRegistryLookup[Deserializable](t, shapeID)
}

// CreateTypedBuilder is the type-checked variant of CreateBuilder: it
// verifies the registered schema's Type matches expectedType before
// constructing the instance, returning a RegistryTypeError on mismatch.
func (t *TypeRegistry) CreateTypedBuilder(shapeID string, expectedType ShapeType) (Deserializable, error) {
	entry, ok := t.Entries[shapeID]
	if !ok {
		return nil, nil
	}
	entry.resolve()
	if entry.Schema != nil && entry.Schema.Type != expectedType {
		return nil, &RegistryTypeError{ShapeID: shapeID, Expected: expectedType, Registered: entry.Schema.Type}
	}
	v, _ := entry.New().(Deserializable)
	return v, nil
}

// Compose merges t and b into a new registry; t's entries win on shape ID
// collision. Composing with an empty registry on either side returns
// (effectively) a copy of the non-empty one.
func (t *TypeRegistry) Compose(b *TypeRegistry) *TypeRegistry {
	merged := make(map[string]*TypeRegistryEntry, len(t.Entries)+len(b.Entries))
	for id, e := range b.Entries {
		merged[id] = e
	}
	for id, e := range t.Entries {
		merged[id] = e
	}
	return &TypeRegistry{Entries: merged}
}

// DiscriminatorMissingError is returned by Deserialize/DeserializeStrict when the
// document carries no usable discriminator.
type DiscriminatorMissingError struct{}

func (e *DiscriminatorMissingError) Error() string {
	return "smithy: document has no discriminator and cannot be looked up in the type registry"
}

// UnknownShapeError is returned when a document's discriminator doesn't
// match any registry entry.
type UnknownShapeError struct {
	ShapeID string
}

func (e *UnknownShapeError) Error() string {
	return fmt.Sprintf("smithy: type registry has no entry for %q", e.ShapeID)
}

// Deserialize reads doc's discriminator, looks up the corresponding builder,
// and deserializes doc's contents into it with error correction: missing
// required members are zero-filled rather than rejected.
func (t *TypeRegistry) Deserialize(doc Document) (Deserializable, error) {
	return t.deserialize(doc, false)
}

// DeserializeStrict is Deserialize without error correction: a document
// missing a required member fails instead of being zero-filled. Intended
// for authoritative consumers (e.g. a server validating client input)
// rather than best-effort clients reading a possibly-newer server response.
func (t *TypeRegistry) DeserializeStrict(doc Document) (Deserializable, error) {
	return t.deserialize(doc, true)
}

func (t *TypeRegistry) deserialize(doc Document, strict bool) (Deserializable, error) {
	id, ok, err := doc.Discriminator()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &DiscriminatorMissingError{}
	}

	key := id.String()
	v, ok := t.CreateBuilder(key)
	if !ok {
		return nil, &UnknownShapeError{ShapeID: key}
	}

	dd := newDocumentDeserializer(doc, strict)
	if err := v.Deserialize(dd); err != nil {
		return nil, err
	}
	return v, nil
}
