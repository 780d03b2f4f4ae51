package smithy

import (
	"math"
	"math/big"
	"regexp"

	"github.com/smithy-run/schema/traits"
)

// validationState holds the validator's precomputed, per-schema bounds
// (spec.md §4.B step 7 / §4.E step 3). It is built once, at schema-build
// time, and read concurrently thereafter without locking.
type validationState struct {
	minLong, maxLong     *int64
	minDouble, maxDouble *float64
	minBig, maxBig       *big.Float

	minLen, maxLen *int64

	pattern *regexp.Regexp
	enumSet map[string]struct{}
}

// MinLongConstraint and friends are exported read accessors used by the
// validator package, which lives outside this package.
func (s *Schema) MinLongConstraint() (int64, bool) {
	if s.val == nil || s.val.minLong == nil {
		return 0, false
	}
	return *s.val.minLong, true
}

func (s *Schema) MaxLongConstraint() (int64, bool) {
	if s.val == nil || s.val.maxLong == nil {
		return 0, false
	}
	return *s.val.maxLong, true
}

func (s *Schema) MinDoubleConstraint() (float64, bool) {
	if s.val == nil || s.val.minDouble == nil {
		return 0, false
	}
	return *s.val.minDouble, true
}

func (s *Schema) MaxDoubleConstraint() (float64, bool) {
	if s.val == nil || s.val.maxDouble == nil {
		return 0, false
	}
	return *s.val.maxDouble, true
}

func (s *Schema) MinBigConstraint() *big.Float {
	if s.val == nil {
		return nil
	}
	return s.val.minBig
}

func (s *Schema) MaxBigConstraint() *big.Float {
	if s.val == nil {
		return nil
	}
	return s.val.maxBig
}

func (s *Schema) MinLengthConstraint() (int64, bool) {
	if s.val == nil || s.val.minLen == nil {
		return 0, false
	}
	return *s.val.minLen, true
}

func (s *Schema) MaxLengthConstraint() (int64, bool) {
	if s.val == nil || s.val.maxLen == nil {
		return 0, false
	}
	return *s.val.maxLen, true
}

// PatternConstraint returns the compiled smithy.api#pattern regex, if any.
func (s *Schema) PatternConstraint() *regexp.Regexp {
	if s.val == nil {
		return nil
	}
	return s.val.pattern
}

// StringEnumMember reports whether v is a member of the schema's string enum
// value set. Schemas without an enum set always report true (no constraint).
func (s *Schema) StringEnumMember(v string) bool {
	if s.val == nil || s.val.enumSet == nil {
		return true
	}
	_, ok := s.val.enumSet[v]
	return ok
}

// IntEnumMember reports whether v is a member of the schema's int-enum value
// set. Schemas without an int-enum value set always report true.
func (s *Schema) IntEnumMember(v int32) bool {
	if len(s.intEnumValues) == 0 {
		return true
	}
	for _, c := range s.intEnumValues {
		if c == v {
			return true
		}
	}
	return false
}

func computeValidationState(s *Schema) *validationState {
	vs := &validationState{}

	if rangeTrait, ok := SchemaTrait[*traits.Range](s); ok && s.Type.IsNumeric() {
		applyRange(vs, s.Type, rangeTrait)
	} else if s.Type.IsNumeric() {
		applyNativeBounds(vs, s.Type)
	}

	switch s.Type {
	case ShapeTypeString, ShapeTypeEnum, ShapeTypeBlob, ShapeTypeList, ShapeTypeMap:
		if lengthTrait, ok := SchemaTrait[*traits.Length](s); ok {
			vs.minLen = lengthTrait.Min
			vs.maxLen = lengthTrait.Max
		}
	}

	switch s.Type {
	case ShapeTypeString, ShapeTypeEnum:
		if patternTrait, ok := SchemaTrait[*traits.Pattern](s); ok {
			if re, err := regexp.Compile(patternTrait.Value); err == nil {
				vs.pattern = re
			}
		}
		if len(s.stringEnumValues) > 0 {
			vs.enumSet = make(map[string]struct{}, len(s.stringEnumValues))
			for _, v := range s.stringEnumValues {
				vs.enumSet[v] = struct{}{}
			}
		}
	}

	return vs
}

func applyNativeBounds(vs *validationState, kind ShapeType) {
	switch kind {
	case ShapeTypeByte:
		setLongBounds(vs, math.MinInt8, math.MaxInt8)
	case ShapeTypeShort:
		setLongBounds(vs, math.MinInt16, math.MaxInt16)
	case ShapeTypeInteger, ShapeTypeIntEnum:
		setLongBounds(vs, math.MinInt32, math.MaxInt32)
	case ShapeTypeLong:
		setLongBounds(vs, math.MinInt64, math.MaxInt64)
	case ShapeTypeFloat, ShapeTypeDouble:
		setDoubleBounds(vs, -math.MaxFloat64, math.MaxFloat64)
	}
}

func applyRange(vs *validationState, kind ShapeType, r *traits.Range) {
	switch kind {
	case ShapeTypeByte, ShapeTypeShort, ShapeTypeInteger, ShapeTypeLong, ShapeTypeIntEnum:
		var lo, hi int64
		switch kind {
		case ShapeTypeByte:
			lo, hi = math.MinInt8, math.MaxInt8
		case ShapeTypeShort:
			lo, hi = math.MinInt16, math.MaxInt16
		case ShapeTypeInteger, ShapeTypeIntEnum:
			lo, hi = math.MinInt32, math.MaxInt32
		case ShapeTypeLong:
			lo, hi = math.MinInt64, math.MaxInt64
		}
		if r.Min != nil {
			if v, _ := r.Min.Int64(); v > lo {
				lo = v
			}
		}
		if r.Max != nil {
			if v, _ := r.Max.Int64(); v < hi {
				hi = v
			}
		}
		setLongBounds(vs, lo, hi)
	case ShapeTypeFloat, ShapeTypeDouble:
		lo, hi := -math.MaxFloat64, math.MaxFloat64
		if r.Min != nil {
			lo, _ = r.Min.Float64()
		}
		if r.Max != nil {
			hi, _ = r.Max.Float64()
		}
		setDoubleBounds(vs, lo, hi)
	case ShapeTypeBigInteger, ShapeTypeBigDecimal:
		vs.minBig = r.Min
		vs.maxBig = r.Max
	}
}

func setLongBounds(vs *validationState, lo, hi int64) {
	vs.minLong, vs.maxLong = &lo, &hi
}

func setDoubleBounds(vs *validationState, lo, hi float64) {
	vs.minDouble, vs.maxDouble = &lo, &hi
}
