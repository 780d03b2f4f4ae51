package traits

import "math/big"

// Required represents smithy.api#required. A member marked required must be
// present on the wire unless it also carries Default, in which case it is
// not counted as required-by-validation (spec.md §3 invariants).
type Required struct{}

// TraitID identifies the trait.
func (*Required) TraitID() string { return "smithy.api#required" }

// Default represents smithy.api#default. Value holds the modeled default,
// already decoded to its Go representation (bool, string, float64, etc.).
type Default struct {
	Value any
}

// TraitID identifies the trait.
func (*Default) TraitID() string { return "smithy.api#default" }

// Length represents smithy.api#length. Either bound may be nil to indicate
// it is unset.
type Length struct {
	Min *int64
	Max *int64
}

// TraitID identifies the trait.
func (*Length) TraitID() string { return "smithy.api#length" }

// Range represents smithy.api#range. Bounds are arbitrary precision per
// spec.md §4.B, since Smithy allows range constraints on bigInteger/bigDecimal
// members that exceed the native numeric kind's width.
type Range struct {
	Min *big.Float
	Max *big.Float
}

// TraitID identifies the trait.
func (*Range) TraitID() string { return "smithy.api#range" }

// Pattern represents smithy.api#pattern. The value is the regex source text;
// callers validating against it should compile once and cache, which is what
// the schema's precomputed validation state does (validation_state.go).
type Pattern struct {
	Value string
}

// TraitID identifies the trait.
func (*Pattern) TraitID() string { return "smithy.api#pattern" }

// Sensitive represents smithy.api#sensitive. It carries no payload; its
// presence is a membership test (smithy.SchemaTrait).

// Sparse represents smithy.api#sparse — lists/maps that may contain null
// members.
type Sparse struct{}

// TraitID identifies the trait.
func (*Sparse) TraitID() string { return "smithy.api#sparse" }

// UniqueItems represents smithy.api#uniqueItems.
type UniqueItems struct{}

// TraitID identifies the trait.
func (*UniqueItems) TraitID() string { return "smithy.api#uniqueItems" }

// Error represents smithy.api#error, identifying a structure as a modeled
// error and classifying its default fault.
type Error struct {
	// Fault is "client" or "server".
	Fault string
}

// TraitID identifies the trait.
func (*Error) TraitID() string { return "smithy.api#error" }

// HTTPError represents smithy.api#httpError, pinning the HTTP status code a
// modeled error should be associated with absent protocol-specific override.
type HTTPError struct {
	StatusCode int
}

// TraitID identifies the trait.
func (*HTTPError) TraitID() string { return "smithy.api#httpError" }

// IdempotencyToken represents smithy.api#idempotencyToken.
type IdempotencyToken struct{}

// TraitID identifies the trait.
func (*IdempotencyToken) TraitID() string { return "smithy.api#idempotencyToken" }

// UnitType represents smithy.api#unitType, the marker trait the prelude
// attaches to smithy.api#Unit to identify it for serializers that special
// case the unit shape (e.g. to omit it from output entirely).
type UnitType struct{}

// TraitID identifies the trait.
func (*UnitType) TraitID() string { return "smithy.api#unitType" }
