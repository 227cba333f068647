package optimizer

import (
	"strings"
	"testing"

	"github.com/foundry-sim/foundry/internal/pipeline"
)

const profileDoc = `# Style Profile
## Conventions
Accept interfaces, return structs.
## Tone
Plain and direct.
## Testing
Table-driven tests.
`

func TestOptimizeAnalysisForRoleFilters(t *testing.T) {
	table := NewSliceTable(DefaultSlices())
	got := OptimizeAnalysisForRole(table, analysisDoc, pipeline.RoleTester)
	if !strings.Contains(got, "## Testing Conventions") {
		t.Fatalf("tester should keep testing sections:\n%s", got)
	}
	if strings.Contains(got, "## Architecture") {
		t.Fatalf("tester should not see architecture:\n%s", got)
	}
}

func TestUnknownRolePassesThrough(t *testing.T) {
	table := NewSliceTable(DefaultSlices())
	if got := OptimizeAnalysisForRole(table, analysisDoc, "intern"); got != analysisDoc {
		t.Fatalf("unconfigured role must get the full document")
	}
	if got := OptimizeProfileForRole(table, profileDoc, "intern"); got != profileDoc {
		t.Fatalf("unconfigured role must get the full profile")
	}
}

func TestOptimizeProfileForRoleFilters(t *testing.T) {
	table := NewSliceTable(DefaultSlices())
	got := OptimizeProfileForRole(table, profileDoc, pipeline.RoleReviewer)
	if !strings.Contains(got, "## Conventions") || !strings.Contains(got, "## Testing") {
		t.Fatalf("reviewer slice sections missing:\n%s", got)
	}
	if strings.Contains(got, "## Tone") {
		t.Fatalf("unrequested section leaked:\n%s", got)
	}
}

func TestAbsentDocumentYieldsAbsentResult(t *testing.T) {
	table := NewSliceTable(DefaultSlices())
	if got := OptimizeAnalysisForRole(table, "", pipeline.RoleDeveloper); got != "" {
		t.Fatalf("absent document must yield absent result, got %q", got)
	}
}

func TestSliceTableIsImmutable(t *testing.T) {
	source := map[pipeline.Role]ContextSlice{
		pipeline.RoleTester: {AnalysisSections: []string{"Testing"}},
	}
	table := NewSliceTable(source)
	source[pipeline.RoleTester] = ContextSlice{AnalysisSections: []string{"Everything"}}

	slice, ok := table.Lookup(pipeline.RoleTester)
	if !ok {
		t.Fatalf("role missing from table")
	}
	if len(slice.AnalysisSections) != 1 || slice.AnalysisSections[0] != "Testing" {
		t.Fatalf("table observed mutation of the source map: %v", slice.AnalysisSections)
	}
}
