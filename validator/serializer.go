package validator

import (
	"math/big"
	"time"

	smithy "github.com/smithy-run/schema"
	"github.com/smithy-run/schema/datastream"
	"github.com/smithy-run/schema/traits"
)

var _ smithy.ShapeSerializer = (*Validator)(nil)

// enter pushes the path segment schema's write contributes (per
// pathSegment) and returns a pop function, unless the depth cap was hit, in
// which case ok is false and the write should be skipped entirely. A write
// that contributes no segment (a top-level write, or a map's value) still
// reports ok true; pop is just a no-op.
func (v *Validator) enter(schema *smithy.Schema) (pop func(), ok bool) {
	seg, push := v.pathSegment(schema)
	if !push {
		return func() {}, true
	}
	if !v.pushPath(seg) {
		return func() {}, false
	}
	return v.popPath, true
}

func (v *Validator) Bytes() []byte { return v.inner.Bytes() }

// noteContainerEntry marks member present on the enclosing struct/union
// frame, bumps the enclosing list frame's element count when a struct,
// list, or map is itself a list element, and tracks union exclusivity when
// one is itself a union variant. Scalar writes do this same bookkeeping
// through onMemberWritten; aggregates need a separate hook since they go
// through pushFrame rather than a single scalar write call.
func (v *Validator) noteContainerEntry(schema *smithy.Schema) {
	f := v.topFrame()
	if f == nil {
		return
	}
	if f.presence != nil {
		f.presence.MarkPresent(schema)
	}
	switch f.schema.Type {
	case smithy.ShapeTypeList:
		f.elemCount++
	case smithy.ShapeTypeUnion:
		v.noteUnionMember(f, schema)
	}
}

// checkUniqueItem enforces uniqueItems (spec.md §4.E.2) against the
// enclosing list frame, if any. Floats, doubles, documents, nulls, data
// streams, and event streams cannot be compared for uniqueness and always
// record a conflict when written into a uniqueItems list.
func (v *Validator) checkUniqueItem(key any, unsupported bool) {
	f := v.topFrame()
	if f == nil || f.seen == nil {
		return
	}
	if unsupported {
		v.record(KindUniqueItems, "uniqueItems list elements of this type cannot be compared for uniqueness")
		return
	}
	if _, dup := f.seen[key]; dup {
		v.record(KindUniqueItems, "duplicate element %v in uniqueItems list", key)
		return
	}
	f.seen[key] = struct{}{}
}

func (v *Validator) WriteInt8(schema *smithy.Schema, n int8) {
	v.writeLong(schema, int64(n))
	v.inner.WriteInt8(schema, n)
}
func (v *Validator) WriteInt16(schema *smithy.Schema, n int16) {
	v.writeLong(schema, int64(n))
	v.inner.WriteInt16(schema, n)
}
func (v *Validator) WriteInt32(schema *smithy.Schema, n int32) {
	v.writeLong(schema, int64(n))
	if schema.Type == smithy.ShapeTypeIntEnum && !schema.IntEnumMember(n) {
		v.record(KindIntEnum, "value %d is not a member of the int enum", n)
	}
	v.inner.WriteInt32(schema, n)
}
func (v *Validator) WriteInt64(schema *smithy.Schema, n int64) {
	v.writeLong(schema, n)
	v.inner.WriteInt64(schema, n)
}

func (v *Validator) writeLong(schema *smithy.Schema, n int64) {
	if v.errorOverflow {
		return
	}
	pop, ok := v.enter(schema)
	defer pop()
	if !ok {
		return
	}
	v.checkLong(schema, n)
	v.checkUniqueItem(n, false)
	v.onMemberWritten(schema, false)
}

func (v *Validator) WriteInt8Ptr(schema *smithy.Schema, n *int8) {
	if n == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteInt8(schema, *n)
	}
	v.inner.WriteInt8Ptr(schema, n)
}
func (v *Validator) WriteInt16Ptr(schema *smithy.Schema, n *int16) {
	if n == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteInt16(schema, *n)
	}
	v.inner.WriteInt16Ptr(schema, n)
}
func (v *Validator) WriteInt32Ptr(schema *smithy.Schema, n *int32) {
	if n == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteInt32(schema, *n)
	}
	v.inner.WriteInt32Ptr(schema, n)
}
func (v *Validator) WriteInt64Ptr(schema *smithy.Schema, n *int64) {
	if n == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteInt64(schema, *n)
	}
	v.inner.WriteInt64Ptr(schema, n)
}

func (v *Validator) WriteFloat32(schema *smithy.Schema, n float32) {
	v.writeDouble(schema, float64(n))
	v.inner.WriteFloat32(schema, n)
}
func (v *Validator) WriteFloat64(schema *smithy.Schema, n float64) {
	v.writeDouble(schema, n)
	v.inner.WriteFloat64(schema, n)
}

func (v *Validator) writeDouble(schema *smithy.Schema, n float64) {
	if v.errorOverflow {
		return
	}
	pop, ok := v.enter(schema)
	defer pop()
	if !ok {
		return
	}
	v.checkDouble(schema, n)
	v.checkUniqueItem(n, true)
	v.onMemberWritten(schema, false)
}

func (v *Validator) WriteFloat32Ptr(schema *smithy.Schema, n *float32) {
	if n == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteFloat32(schema, *n)
	}
	v.inner.WriteFloat32Ptr(schema, n)
}
func (v *Validator) WriteFloat64Ptr(schema *smithy.Schema, n *float64) {
	if n == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteFloat64(schema, *n)
	}
	v.inner.WriteFloat64Ptr(schema, n)
}

func (v *Validator) WriteBool(schema *smithy.Schema, b bool) {
	if !v.errorOverflow {
		pop, ok := v.enter(schema)
		if ok {
			v.checkUniqueItem(b, false)
			v.onMemberWritten(schema, false)
		}
		pop()
	}
	v.inner.WriteBool(schema, b)
}
func (v *Validator) WriteBoolPtr(schema *smithy.Schema, b *bool) {
	if b == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteBool(schema, *b)
	}
	v.inner.WriteBoolPtr(schema, b)
}

func (v *Validator) WriteString(schema *smithy.Schema, s string) {
	if !v.errorOverflow {
		pop, ok := v.enter(schema)
		if ok {
			v.checkString(schema, s)
			v.checkUniqueItem(s, false)
			v.onMemberWritten(schema, false)
		}
		pop()
	}
	v.inner.WriteString(schema, s)
}
func (v *Validator) WriteStringPtr(schema *smithy.Schema, s *string) {
	if s == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteString(schema, *s)
	}
	v.inner.WriteStringPtr(schema, s)
}

func (v *Validator) WriteBigInteger(schema *smithy.Schema, n big.Int) {
	if !v.errorOverflow {
		pop, ok := v.enter(schema)
		if ok {
			if hi := schema.MaxBigConstraint(); hi != nil {
				if new(big.Float).SetInt(&n).Cmp(hi) > 0 {
					v.record(KindRange, "Value must be less than or equal to %s", hi.String())
				}
			}
			if lo := schema.MinBigConstraint(); lo != nil {
				if new(big.Float).SetInt(&n).Cmp(lo) < 0 {
					v.record(KindRange, "Value must be greater than or equal to %s", lo.String())
				}
			}
			v.checkUniqueItem(n.String(), false)
			v.onMemberWritten(schema, false)
		}
		pop()
	}
	v.inner.WriteBigInteger(schema, n)
}
func (v *Validator) WriteBigDecimal(schema *smithy.Schema, n big.Float) {
	if !v.errorOverflow {
		pop, ok := v.enter(schema)
		if ok {
			if hi := schema.MaxBigConstraint(); hi != nil && n.Cmp(hi) > 0 {
				v.record(KindRange, "Value must be less than or equal to %s", hi.String())
			}
			if lo := schema.MinBigConstraint(); lo != nil && n.Cmp(lo) < 0 {
				v.record(KindRange, "Value must be greater than or equal to %s", lo.String())
			}
			v.checkUniqueItem(n.String(), false)
			v.onMemberWritten(schema, false)
		}
		pop()
	}
	v.inner.WriteBigDecimal(schema, n)
}

func (v *Validator) WriteBlob(schema *smithy.Schema, b []byte) {
	if !v.errorOverflow {
		pop, ok := v.enter(schema)
		if ok {
			v.checkLength(schema, len(b))
			v.checkUniqueItem(string(b), false)
			v.onMemberWritten(schema, false)
		}
		pop()
	}
	v.inner.WriteBlob(schema, b)
}

func (v *Validator) WriteTime(schema *smithy.Schema, t time.Time) {
	if !v.errorOverflow {
		pop, ok := v.enter(schema)
		if ok {
			v.onMemberWritten(schema, false)
		}
		pop()
	}
	v.inner.WriteTime(schema, t)
}
func (v *Validator) WriteTimePtr(schema *smithy.Schema, t *time.Time) {
	if t == nil {
		v.writeNilMember(schema)
	} else {
		v.WriteTime(schema, *t)
	}
	v.inner.WriteTimePtr(schema, t)
}

func (v *Validator) writeNilMember(schema *smithy.Schema) {
	if v.errorOverflow {
		return
	}
	pop, ok := v.enter(schema)
	defer pop()
	if !ok {
		return
	}
	v.checkUniqueItem(nil, true)
	v.onMemberWritten(schema, true)
}

func (v *Validator) WriteNil(schema *smithy.Schema) {
	v.writeNilMember(schema)
	v.inner.WriteNil(schema)
}

func (v *Validator) WriteStruct(schema *smithy.Schema, val smithy.Serializable) {
	if v.errorOverflow {
		v.inner.WriteStruct(schema, val)
		return
	}

	pop, ok := v.enter(schema)
	if ok {
		v.noteContainerEntry(schema)
	}

	f := v.pushFrame(schema)
	if ok && schema.Type == smithy.ShapeTypeStructure {
		f.presence = smithy.NewPresenceTracker(schema)
	}

	val.Serialize(v)

	v.popFrame()

	// Required/union-no-member errors are recorded with this struct's own
	// path segment still on the stack, so a missing member m reports at
	// the struct's path plus m, not just the struct's path.
	if ok {
		if f.presence != nil && !f.presence.AllSet() {
			for _, name := range f.presence.MissingMembers() {
				if v.pushPath(name) {
					v.record(KindRequired, "Value is missing a required member")
					v.popPath()
				}
			}
		}
		if schema.Type == smithy.ShapeTypeUnion && f.nonNull == 0 {
			v.record(KindUnionNoMember, "No member is set in the union")
		}
	}

	pop()

	v.inner.WriteStruct(schema, val)
}

func (v *Validator) WriteUnion(schema, variant *smithy.Schema, val smithy.Serializable) {
	v.WriteStruct(schema, val)
	v.inner.WriteUnion(schema, variant, val)
}

func (v *Validator) WriteDocument(schema *smithy.Schema, doc smithy.Document) {
	if !v.errorOverflow {
		pop, ok := v.enter(schema)
		if ok {
			v.checkUniqueItem(nil, true)
			v.onMemberWritten(schema, false)
		}
		pop()
	}
	v.inner.WriteDocument(schema, doc)
}

func (v *Validator) WriteList(schema *smithy.Schema) {
	if v.errorOverflow {
		v.inner.WriteList(schema)
		return
	}
	// Always push a frame so the matching CloseList has something to pop,
	// keeping the frame stack balanced even when the depth cap was hit.
	seg, push := v.pathSegment(schema)
	ok := true
	if push {
		ok = v.pushPath(seg)
	}
	if ok {
		v.noteContainerEntry(schema)
	}
	f := v.pushFrame(schema)
	f.pathEntered = push && ok
	if ok {
		if _, unique := smithy.SchemaTrait[*traits.UniqueItems](schema); unique {
			f.seen = map[any]struct{}{}
		}
	}
	v.inner.WriteList(schema)
}

func (v *Validator) CloseList() {
	f := v.popFrame()
	if f != nil {
		v.checkLength(f.schema, f.elemCount)
		if f.pathEntered {
			v.popPath()
		}
	}
	v.inner.CloseList()
}

func (v *Validator) WriteMap(schema *smithy.Schema) {
	if v.errorOverflow {
		v.inner.WriteMap(schema)
		return
	}
	// Always push a frame so the matching CloseMap has something to pop,
	// keeping the frame stack balanced even when the depth cap was hit.
	seg, push := v.pathSegment(schema)
	ok := true
	if push {
		ok = v.pushPath(seg)
	}
	if ok {
		v.noteContainerEntry(schema)
	}
	f := v.pushFrame(schema)
	f.pathEntered = push && ok
	v.inner.WriteMap(schema)
}

// WriteKey addresses the entry that follows by its key, replacing whatever
// key segment the previous entry (if any) left on the path.
func (v *Validator) WriteKey(schema *smithy.Schema, key string) {
	if f := v.topFrame(); f != nil {
		f.elemCount++
		v.checkString(schema, key)
		if f.keyPushed {
			v.popPath()
			f.keyPushed = false
		}
		if v.pushPath(key) {
			f.keyPushed = true
		}
	}
	v.inner.WriteKey(schema, key)
}

func (v *Validator) CloseMap() {
	f := v.popFrame()
	if f != nil {
		v.checkLength(f.schema, f.elemCount)
		if f.keyPushed {
			v.popPath()
		}
		if f.pathEntered {
			v.popPath()
		}
	}
	v.inner.CloseMap()
}

func (v *Validator) WriteDataStream(schema *smithy.Schema, d *datastream.DataStream) error {
	v.checkStreamUniqueItem(schema)
	return v.inner.WriteDataStream(schema, d)
}

func (v *Validator) WriteEventStream(schema *smithy.Schema, w smithy.EventStreamWriter) error {
	v.checkStreamUniqueItem(schema)
	return v.inner.WriteEventStream(schema, w)
}

func (v *Validator) checkStreamUniqueItem(schema *smithy.Schema) {
	if v.errorOverflow {
		return
	}
	pop, ok := v.enter(schema)
	if ok {
		v.checkUniqueItem(nil, true)
	}
	pop()
}
