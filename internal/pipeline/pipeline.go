// Package pipeline names the participants and phases of the simulated
// delivery workflow. Roles and stages are plain string types so external
// drivers can introduce their own, but the canonical set defined here is
// what the default configuration and the demo orchestrator use.
package pipeline

// Role identifies a named persona participating in the pipeline.
type Role string

const (
	RoleProductManager Role = "product-manager"
	RoleArchitect      Role = "architect"
	RoleDeveloper      Role = "developer"
	RoleReviewer       Role = "reviewer"
	RoleTester         Role = "tester"
)

// CoreRoles lists the canonical roles in pipeline order.
func CoreRoles() []Role {
	return []Role{
		RoleProductManager,
		RoleArchitect,
		RoleDeveloper,
		RoleReviewer,
		RoleTester,
	}
}

// Stage identifies a phase of the simulated workflow.
type Stage string

const (
	StageRequirements   Stage = "requirements"
	StageDesign         Stage = "design"
	StageImplementation Stage = "implementation"
	StageReview         Stage = "review"
	StageDelivery       Stage = "delivery"
)

var stageOrder = []Stage{
	StageRequirements,
	StageDesign,
	StageImplementation,
	StageReview,
	StageDelivery,
}

// Stages returns the canonical stage sequence.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// KnownStage reports whether the stage belongs to the canonical sequence.
func KnownStage(s Stage) bool {
	for _, known := range stageOrder {
		if known == s {
			return true
		}
	}
	return false
}

// NextStage returns the stage that follows s, or ("", false) when s is the
// final stage or not part of the canonical sequence.
func NextStage(s Stage) (Stage, bool) {
	for i, known := range stageOrder {
		if known == s && i+1 < len(stageOrder) {
			return stageOrder[i+1], true
		}
	}
	return "", false
}

// OwnerRole returns the role responsible for driving a stage.
func OwnerRole(s Stage) (Role, bool) {
	switch s {
	case StageRequirements:
		return RoleProductManager, true
	case StageDesign:
		return RoleArchitect, true
	case StageImplementation:
		return RoleDeveloper, true
	case StageReview:
		return RoleReviewer, true
	case StageDelivery:
		return RoleTester, true
	default:
		return "", false
	}
}
