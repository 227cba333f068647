// Package optimizer shapes and budgets the textual context a role receives
// before its prompt is assembled. Everything here is pure: functions take
// documents and artifacts in and return trimmed text and cost estimates
// out, with no dependency on the bus or the handoff protocol.
package optimizer

import (
	"github.com/foundry-sim/foundry/internal/pipeline"
)

// ContextSlice configures what one role gets to see: which analysis and
// style-profile sections matter to it, and whether it needs full artifact
// content instead of a summary.
type ContextSlice struct {
	AnalysisSections []string
	ProfileSections  []string
	FullArtifacts    bool
}

// SliceTable is an immutable role-to-slice lookup built once at startup.
// Roles absent from the table get no filtering: their context passes
// through unmodified.
type SliceTable struct {
	slices map[pipeline.Role]ContextSlice
}

// NewSliceTable copies the provided mapping into an immutable table.
func NewSliceTable(slices map[pipeline.Role]ContextSlice) *SliceTable {
	cloned := make(map[pipeline.Role]ContextSlice, len(slices))
	for role, slice := range slices {
		cloned[role] = ContextSlice{
			AnalysisSections: append([]string(nil), slice.AnalysisSections...),
			ProfileSections:  append([]string(nil), slice.ProfileSections...),
			FullArtifacts:    slice.FullArtifacts,
		}
	}
	return &SliceTable{slices: cloned}
}

// Lookup returns the slice for a role, with ok reporting whether the role
// is configured at all.
func (t *SliceTable) Lookup(role pipeline.Role) (ContextSlice, bool) {
	if t == nil {
		return ContextSlice{}, false
	}
	slice, ok := t.slices[role]
	return slice, ok
}

// DefaultSlices is the canonical role table used when no configuration
// overrides it. The analysis sections follow the shared analysis document
// convention; profile sections follow the style profile convention.
func DefaultSlices() map[pipeline.Role]ContextSlice {
	return map[pipeline.Role]ContextSlice{
		pipeline.RoleProductManager: {
			AnalysisSections: []string{"Overview", "Goals", "Requirements"},
			ProfileSections:  []string{"Tone", "Documentation"},
		},
		pipeline.RoleArchitect: {
			AnalysisSections: []string{"Overview", "Architecture", "Constraints", "Dependencies"},
			ProfileSections:  []string{"Conventions", "Patterns"},
			FullArtifacts:    true,
		},
		pipeline.RoleDeveloper: {
			AnalysisSections: []string{"Architecture", "Implementation", "Dependencies"},
			ProfileSections:  []string{"Conventions", "Formatting", "Testing"},
			FullArtifacts:    true,
		},
		pipeline.RoleReviewer: {
			AnalysisSections: []string{"Requirements", "Constraints", "Testing"},
			ProfileSections:  []string{"Conventions", "Testing"},
		},
		pipeline.RoleTester: {
			AnalysisSections: []string{"Requirements", "Testing"},
			ProfileSections:  []string{"Testing"},
		},
	}
}
