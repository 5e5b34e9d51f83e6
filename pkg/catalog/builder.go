package catalog

import "strings"

// ExclusionSet holds names that must never appear in a catalog.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from names. Blank names are ignored.
func NewExclusionSet(names ...string) ExclusionSet {
	set := make(ExclusionSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether name is excluded. A nil set excludes nothing.
func (s ExclusionSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Builder accumulates the entries of one scan run in insertion order.
// Entries are not deduplicated: two files yielding the same handle both stay.
// A Builder is not safe for concurrent use.
type Builder struct {
	exclude ExclusionSet
	entries []*Entry
}

// NewBuilder creates an empty builder that rejects excluded names.
func NewBuilder(exclude ExclusionSet) *Builder {
	return &Builder{exclude: exclude}
}

// Add appends a record with its handles. It returns false, without error,
// when the record's name is excluded.
func (b *Builder) Add(record *Record, handles []Handle) bool {
	if b.exclude.Contains(record.Name) {
		return false
	}
	b.entries = append(b.entries, &Entry{Record: record, Handles: handles})
	return true
}

// Excluded reports whether name would be rejected by Add.
func (b *Builder) Excluded(name string) bool {
	return b.exclude.Contains(name)
}

// Entries returns the accepted entries in the order they were added.
func (b *Builder) Entries() []*Entry {
	out := make([]*Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of accepted entries.
func (b *Builder) Len() int {
	return len(b.entries)
}
