package optimizer

import (
	"fmt"
	"strings"

	"github.com/foundry-sim/foundry/internal/artifact"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

// verbatimArtifactLimit is the combined content size under which a role
// configured for full artifacts receives them verbatim. Anything larger is
// summarized regardless of role: small, decision-critical input stays
// intact while bulk always compresses.
const verbatimArtifactLimit = 8000

// OptimizeAnalysisForRole filters the shared analysis document down to the
// sections the role's slice names. Roles without a slice get the document
// unchanged; an absent document or no matching section yields "".
func OptimizeAnalysisForRole(table *SliceTable, document string, role pipeline.Role) string {
	slice, ok := table.Lookup(role)
	if !ok {
		return document
	}
	return ExtractSections(document, slice.AnalysisSections)
}

// OptimizeProfileForRole filters the shared style-profile document down to
// the sections the role's slice names, with the same pass-through and
// absence rules as OptimizeAnalysisForRole.
func OptimizeProfileForRole(table *SliceTable, document string, role pipeline.Role) string {
	slice, ok := table.Lookup(role)
	if !ok {
		return document
	}
	return ExtractSections(document, slice.ProfileSections)
}

// OptimizeInputArtifacts renders the input artifacts for a role's prompt.
// A role whose slice asks for full artifacts gets verbatim content while
// the combined size stays under the limit; everything else is summarized.
// Roles absent from the table are treated as full-artifact roles, so an
// unconfigured role never loses content it would have had without a table.
func OptimizeInputArtifacts(table *SliceTable, artifacts []artifact.Artifact, role pipeline.Role) string {
	if len(artifacts) == 0 {
		return ""
	}
	slice, ok := table.Lookup(role)
	full := !ok || slice.FullArtifacts
	if full && combinedLen(artifacts) < verbatimArtifactLimit {
		var b strings.Builder
		for _, a := range artifacts {
			fmt.Fprintf(&b, "### %s\n```\n%s\n```\n\n", a.Name, strings.TrimRight(a.Content, "\n"))
		}
		return strings.TrimRight(b.String(), "\n")
	}
	var b strings.Builder
	for _, a := range artifacts {
		fmt.Fprintf(&b, "### %s\n%s\n\n", a.Name, SummarizeArtifact(a, DefaultSummaryLines))
	}
	return strings.TrimRight(b.String(), "\n")
}

func combinedLen(artifacts []artifact.Artifact) int {
	total := 0
	for _, a := range artifacts {
		total += len(a.Content)
	}
	return total
}
