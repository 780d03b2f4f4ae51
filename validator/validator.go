// Package validator implements the streaming validator: a ShapeSerializer
// decorator that checks every value written against its attached schema and
// accumulates a list of typed validation errors rather than failing fast.
//
// It is built directly on the InterceptingSerializer/SpecificShapeSerializer
// capability the core package exposes (smithy.InterceptingSerializer wraps
// a downstream and lets a caller substitute serializers per write), applied
// here to observe rather than substitute: the validator is itself a full
// smithy.ShapeSerializer that checks, then forwards to an inner one.
package validator

import (
	"fmt"
	"strconv"

	smithy "github.com/smithy-run/schema"
	"github.com/smithy-run/schema/logging"
	"github.com/smithy-run/schema/traits"
)

// Kind classifies a validation failure.
type Kind int

const (
	KindType Kind = iota
	KindRequired
	KindPattern
	KindEnum
	KindIntEnum
	KindRange
	KindLength
	KindDepth
	KindUnionNoMember
	KindUnionConflict
	KindSparse
	KindUniqueItems
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "Type"
	case KindRequired:
		return "Required"
	case KindPattern:
		return "Pattern"
	case KindEnum:
		return "Enum"
	case KindIntEnum:
		return "IntEnum"
	case KindRange:
		return "Range"
	case KindLength:
		return "Length"
	case KindDepth:
		return "Depth"
	case KindUnionNoMember:
		return "UnionNoMember"
	case KindUnionConflict:
		return "UnionConflict"
	case KindSparse:
		return "Sparse"
	case KindUniqueItems:
		return "UniqueItems"
	default:
		return "Unknown"
	}
}

// Error is one accumulated validation failure.
type Error struct {
	Kind    Kind
	Path    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Message)
}

const (
	defaultMaxDepth         = 100
	defaultMaxAllowedErrors = int(^uint(0) >> 1) // math.MaxInt, without importing math for one constant
)

// Option configures a Validator.
type Option func(*Validator)

// WithMaxDepth overrides the default depth cap (100).
func WithMaxDepth(n int) Option { return func(v *Validator) { v.maxDepth = n } }

// WithMaxAllowedErrors overrides the default error cap (unbounded).
func WithMaxAllowedErrors(n int) Option { return func(v *Validator) { v.maxAllowedErrors = n } }

// WithLogger attaches a logger that receives a debug-classified entry for
// every validation error as it's recorded. The default is logging.Noop.
func WithLogger(l logging.Logger) Option { return func(v *Validator) { v.logger = l } }

// frame tracks per-container state: the path segment that led into it, a
// presence tracker for structs/unions, and a uniqueness set for lists.
type frame struct {
	schema      *Schema
	presence    smithy.PresenceTracker
	nonNull     int    // union: count of non-null members seen
	firstMember string // union: member name that first set nonNull, for conflict messages
	seen        map[any]struct{}
	elemCount   int
	pathEntered bool // whether enter() actually pushed a path segment for this frame
	keyPushed   bool // whether WriteKey currently has a map-key segment on the path
}

type Schema = smithy.Schema

// Validator decorates an inner ShapeSerializer, checking every write against
// its schema before forwarding. It never panics or returns an error from a
// Write method: failures accumulate in Errors().
type Validator struct {
	inner smithy.ShapeSerializer

	maxDepth         int
	maxAllowedErrors int

	errors        []*Error
	errorOverflow bool

	path   []string
	frames []*frame

	logger logging.Logger
}

// New wraps inner with a streaming validator.
func New(inner smithy.ShapeSerializer, opts ...Option) *Validator {
	v := &Validator{
		inner:            inner,
		maxDepth:         defaultMaxDepth,
		maxAllowedErrors: defaultMaxAllowedErrors,
		logger:           logging.Noop{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Errors returns the accumulated validation errors. An empty slice means
// the write succeeded validation.
func (v *Validator) Errors() []*Error { return v.errors }

func (v *Validator) currentPath() string {
	out := ""
	for _, seg := range v.path {
		out += "/" + seg
	}
	if out == "" {
		return "/"
	}
	return out
}

func (v *Validator) record(kind Kind, format string, args ...any) {
	if v.errorOverflow {
		return
	}
	e := &Error{Kind: kind, Path: v.currentPath(), Message: fmt.Sprintf(format, args...)}
	v.errors = append(v.errors, e)
	v.logger.Logf(logging.Debug, "validator: %s", e.Error())
	if len(v.errors) >= v.maxAllowedErrors {
		v.errorOverflow = true
	}
}

// checkType reports whether the schema's kind matches want, recording a
// Type error and returning false if not.
func (v *Validator) checkType(schema *Schema, want smithy.ShapeType) bool {
	if v.errorOverflow {
		return false
	}
	if schema.Type != want {
		v.record(KindType, "expected %s, got %s", want, schema.Type)
		return false
	}
	return true
}

func (v *Validator) pushFrame(schema *Schema) *frame {
	f := &frame{schema: schema}
	v.frames = append(v.frames, f)
	return f
}

func (v *Validator) topFrame() *frame {
	if len(v.frames) == 0 {
		return nil
	}
	return v.frames[len(v.frames)-1]
}

func (v *Validator) popFrame() *frame {
	f := v.topFrame()
	if f != nil {
		v.frames = v.frames[:len(v.frames)-1]
	}
	return f
}

// pathSegment computes the path segment a write of schema should contribute,
// and whether it should be pushed at all. Top-level writes (no enclosing
// frame) contribute nothing, so the root path stays "/". List elements are
// addressed by their 0-based position. Map entries are addressed by the key
// WriteKey already pushed, so a map's values contribute nothing here.
// Everything else (struct and union members) is addressed by member name.
func (v *Validator) pathSegment(schema *Schema) (seg string, push bool) {
	f := v.topFrame()
	if f == nil {
		return "", false
	}
	switch f.schema.Type {
	case smithy.ShapeTypeList:
		return strconv.Itoa(f.elemCount), true
	case smithy.ShapeTypeMap:
		return "", false
	default:
		return schema.MemberName(), true
	}
}

func (v *Validator) pushPath(seg string) bool {
	if len(v.path) >= v.maxDepth {
		v.record(KindDepth, "Value is too deeply nested")
		return false
	}
	v.path = append(v.path, seg)
	return true
}

func (v *Validator) popPath() {
	if len(v.path) > 0 {
		v.path = v.path[:len(v.path)-1]
	}
}

// checkLength validates byte/rune/element count n against schema's length
// constraint.
func (v *Validator) checkLength(schema *Schema, n int) {
	if lo, ok := schema.MinLengthConstraint(); ok && int64(n) < lo {
		v.record(KindLength, "length %d is below minimum %d", n, lo)
	}
	if hi, ok := schema.MaxLengthConstraint(); ok && int64(n) > hi {
		v.record(KindLength, "length %d is above maximum %d", n, hi)
	}
}

func (v *Validator) checkString(schema *Schema, s string) {
	v.checkLength(schema, len(s))
	if pat := schema.PatternConstraint(); pat != nil && !pat.MatchString(s) {
		v.record(KindPattern, "value does not match pattern %s", pat.String())
	}
	if schema.Type == smithy.ShapeTypeEnum && !schema.StringEnumMember(s) {
		v.record(KindEnum, "value %q is not a member of the enum", s)
	}
}

func (v *Validator) checkLong(schema *Schema, n int64) {
	if lo, ok := schema.MinLongConstraint(); ok && n < lo {
		v.record(KindRange, "Value must be greater than or equal to %d", lo)
	}
	if hi, ok := schema.MaxLongConstraint(); ok && n > hi {
		v.record(KindRange, "Value must be less than or equal to %d", hi)
	}
}

func (v *Validator) checkDouble(schema *Schema, n float64) {
	if lo, ok := schema.MinDoubleConstraint(); ok && n < lo {
		v.record(KindRange, "Value must be greater than or equal to %v", lo)
	}
	if hi, ok := schema.MaxDoubleConstraint(); ok && n > hi {
		v.record(KindRange, "Value must be less than or equal to %v", hi)
	}
}

// noteUnionMember records schema as the member set on f, which must be a
// union frame, recording a conflict naming the first member set if a second
// one is written.
func (v *Validator) noteUnionMember(f *frame, schema *Schema) {
	if f.nonNull == 0 {
		f.firstMember = schema.MemberName()
	}
	f.nonNull++
	if f.nonNull > 1 {
		v.record(KindUnionConflict, "Union member conflicts with '%s'", f.firstMember)
	}
}

// onMemberWritten marks member present on the current struct/union frame,
// enforces sparse-null rules, and tracks union exclusivity.
func (v *Validator) onMemberWritten(schema *Schema, isNull bool) {
	f := v.topFrame()
	if f == nil {
		return
	}
	if f.presence != nil {
		f.presence.MarkPresent(schema)
	}
	if f.schema.Type == smithy.ShapeTypeList {
		f.elemCount++
	}
	if f.schema.Type == smithy.ShapeTypeUnion {
		if !isNull {
			v.noteUnionMember(f, schema)
		}
	}
	if isNull {
		if _, sparse := smithy.SchemaTrait[*traits.Sparse](f.schema); !sparse {
			v.record(KindSparse, "null member %q in non-sparse container", schema.MemberName())
		}
	}
}
