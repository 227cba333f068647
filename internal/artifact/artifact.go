// Package artifact defines the versioned documents that roles exchange
// during a pipeline run. The coordination core only ever reads artifacts;
// creation and revision belong to the drivers feeding the store.
package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/foundry-sim/foundry/internal/pipeline"
)

// Type captures the shape of an artifact's content.
type Type string

const (
	TypeRequirements Type = "requirements"
	TypeDesignDoc    Type = "design-doc"
	TypeCode         Type = "code"
	TypeTestPlan     Type = "test-plan"
	TypeReviewNotes  Type = "review-notes"
)

// Status captures where an artifact sits in its lifecycle.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusReady    Status = "ready"
	StatusArchived Status = "archived"
)

// ReviewStatus captures the most recent review outcome for an artifact.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Artifact is a versioned document produced by a role during a stage.
type Artifact struct {
	ID           string
	Type         Type
	Name         string
	Description  string
	Content      string
	Version      int
	Status       Status
	ReviewStatus ReviewStatus
	CreatedBy    pipeline.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate ensures the artifact record is well-formed enough to circulate.
func (a Artifact) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("artifact: name is required for %s", a.ID)
	}
	if a.Type == "" {
		return fmt.Errorf("artifact: type is required for %s", a.ID)
	}
	return nil
}

// Line summarizes the artifact on a single line for message bodies.
func (a Artifact) Line() string {
	desc := strings.TrimSpace(a.Description)
	if desc == "" {
		desc = "no description"
	}
	return fmt.Sprintf("%s: %s (%s) - %s", a.ID, a.Name, a.Type, desc)
}
