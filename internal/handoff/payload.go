// Package handoff implements the stage-to-stage transfer protocol. Every
// transfer attempt is validated before anything touches the bus, and every
// attempt, accepted or rejected, leaves one immutable record in an
// append-only history. That history is the protocol's audit trail.
package handoff

import (
	"fmt"
	"strings"
	"time"

	"github.com/foundry-sim/foundry/internal/artifact"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

// Payload describes one proposed transfer of work between roles.
type Payload struct {
	From          pipeline.Role
	To            pipeline.Role
	Stage         pipeline.Stage
	Context       string
	Instructions  string
	Artifacts     []artifact.Artifact
	Constraints   []string
	PriorFeedback []string
}

// ArtifactIDs returns the payload's artifact ids in order.
func (p *Payload) ArtifactIDs() []string {
	ids := make([]string, 0, len(p.Artifacts))
	for _, a := range p.Artifacts {
		ids = append(ids, a.ID)
	}
	return ids
}

// Body renders the deterministic handoff message body. Sections appear in
// a fixed order and are omitted entirely when their source field is empty.
func (p *Payload) Body() string {
	var b strings.Builder
	if strings.TrimSpace(p.Context) != "" {
		fmt.Fprintf(&b, "## Context\n%s\n\n", strings.TrimSpace(p.Context))
	}
	if strings.TrimSpace(p.Instructions) != "" {
		fmt.Fprintf(&b, "## Instructions\n%s\n\n", strings.TrimSpace(p.Instructions))
	}
	if len(p.Artifacts) > 0 {
		b.WriteString("## Artifacts\n")
		for _, a := range p.Artifacts {
			fmt.Fprintf(&b, "%s\n", a.Line())
		}
		b.WriteString("\n")
	}
	if len(p.Constraints) > 0 {
		b.WriteString("## Constraints\n")
		for _, c := range p.Constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}
	if len(p.PriorFeedback) > 0 {
		b.WriteString("## Previous Feedback\n")
		for _, f := range p.PriorFeedback {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Result is the immutable outcome of one Execute invocation. Payload is
// held by reference and must never be mutated after recording.
type Result struct {
	Accepted   bool
	Payload    *Payload
	RecordedAt time.Time
	Errors     []string
}
