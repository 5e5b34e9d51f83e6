package filter

import (
	"path/filepath"

	"github.com/dyluth/modcat/pkg/catalog"
)

// Criteria defines filtering criteria for catalog records.
// All filters are ANDed together - a record must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	NameGlob         string // Glob pattern for record name, empty = no filter
	Category         string // Exact match against any category, empty = no filter
	SupportStatus    string // Exact match for extension support status, empty = no filter
}

// Matches returns true if the record matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(r *catalog.Record) bool {
	if c.SinceTimestampMs > 0 && r.CreatedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && r.CreatedAtMs > c.UntilTimestampMs {
		return false
	}

	// Names may contain slashes (nested walk names); filepath.Match keeps
	// "*" from crossing them, so "mpi/*" matches "mpi/openmpi" only.
	if c.NameGlob != "" {
		matched, err := filepath.Match(c.NameGlob, r.Name)
		if err != nil || !matched {
			return false
		}
	}

	if c.Category != "" && !contains(r.Extension.Categories, c.Category) {
		return false
	}

	if c.SupportStatus != "" && r.Extension.SupportStatus != c.SupportStatus {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.NameGlob != "" ||
		c.Category != "" ||
		c.SupportStatus != ""
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
