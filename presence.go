package smithy

import (
	"sort"

	"github.com/smithy-run/schema/traits"
)

// PresenceTracker accumulates which required-by-validation members of a
// structure or union have been written, so a validator can report the ones
// that were missed on close (spec.md §4.F).
//
// Three strategies are selected by NewPresenceTracker based on the
// container schema's RequiredMemberCount: none (0), a 64-bit bitfield
// (1..64), or a dense bitset (>64).
type PresenceTracker interface {
	// MarkPresent records that member was written.
	MarkPresent(member *Schema)
	// AllSet reports whether every required-by-validation member has been
	// marked present.
	AllSet() bool
	// MissingMembers returns the names of required members not yet marked
	// present, sorted for deterministic error reporting.
	MissingMembers() []string
}

// NewPresenceTracker returns the presence tracking strategy appropriate for
// container's required-member count.
func NewPresenceTracker(container *Schema) PresenceTracker {
	switch {
	case container.RequiredMemberCount() == 0:
		return noopPresence{}
	case container.RequiredMemberCount() <= 64:
		// Every member of the container carries the same precomputed total
		// (spec.md §3), so any one of them will do.
		var total uint64
		if len(container.memberList) > 0 {
			total = container.memberList[0].requiredStructureMemberBitfield
		}
		return &bitfieldPresence{total: total, container: container}
	default:
		return newBitsetPresence(container)
	}
}

func isRequiredByValidation(m *Schema) bool {
	_, hasRequired := SchemaTrait[*traits.Required](m)
	_, hasDefault := SchemaTrait[*traits.Default](m)
	return hasRequired && !hasDefault
}

type noopPresence struct{}

func (noopPresence) MarkPresent(*Schema)     {}
func (noopPresence) AllSet() bool            { return true }
func (noopPresence) MissingMembers() []string { return nil }

type bitfieldPresence struct {
	mask      uint64
	total     uint64
	container *Schema
}

func (p *bitfieldPresence) MarkPresent(m *Schema) {
	p.mask |= m.requiredByValidationBitmask
}

func (p *bitfieldPresence) AllSet() bool {
	return p.mask == p.total
}

func (p *bitfieldPresence) MissingMembers() []string {
	var missing []string
	for _, m := range p.container.memberList {
		if m.requiredByValidationBitmask != 0 && p.mask&m.requiredByValidationBitmask == 0 {
			missing = append(missing, m.MemberName())
		}
	}
	sort.Strings(missing)
	return missing
}

// bitsetPresence backs containers with more than 64 required members, where
// a single uint64 mask can no longer address every member by bit position
// (requiredByValidationBitmask is always 0 past index 63, spec.md §3).
type bitsetPresence struct {
	bits      []uint64
	required  int
	seen      int
	container *Schema
}

func newBitsetPresence(container *Schema) *bitsetPresence {
	words := (len(container.memberList) + 63) / 64
	return &bitsetPresence{
		bits:      make([]uint64, words),
		required:  container.RequiredMemberCount(),
		container: container,
	}
}

func (p *bitsetPresence) MarkPresent(m *Schema) {
	if !isRequiredByValidation(m) {
		return
	}
	word, bit := m.memberIndex/64, uint(m.memberIndex%64)
	before := p.bits[word]
	p.bits[word] |= 1 << bit
	if before != p.bits[word] {
		p.seen++
	}
}

func (p *bitsetPresence) AllSet() bool {
	return p.seen == p.required
}

func (p *bitsetPresence) MissingMembers() []string {
	var missing []string
	for _, m := range p.container.memberList {
		if !isRequiredByValidation(m) {
			continue
		}
		word, bit := m.memberIndex/64, uint(m.memberIndex%64)
		if p.bits[word]&(1<<bit) == 0 {
			missing = append(missing, m.MemberName())
		}
	}
	sort.Strings(missing)
	return missing
}
