package contracts

import (
	"github.com/foundry-sim/foundry/internal/pipeline"
)

// Contract pins down one stage transition: who hands work to whom, and
// how many artifacts an accepted payload must carry.
type Contract struct {
	Stage        pipeline.Stage
	From         pipeline.Role
	To           pipeline.Role
	MinArtifacts int
}

var stageContracts = map[pipeline.Stage]Contract{
	pipeline.StageRequirements: {
		Stage:        pipeline.StageRequirements,
		From:         pipeline.RoleProductManager,
		To:           pipeline.RoleArchitect,
		MinArtifacts: 1,
	},
	pipeline.StageDesign: {
		Stage:        pipeline.StageDesign,
		From:         pipeline.RoleArchitect,
		To:           pipeline.RoleDeveloper,
		MinArtifacts: 1,
	},
	pipeline.StageImplementation: {
		Stage:        pipeline.StageImplementation,
		From:         pipeline.RoleDeveloper,
		To:           pipeline.RoleReviewer,
		MinArtifacts: 1,
	},
	pipeline.StageReview: {
		Stage:        pipeline.StageReview,
		From:         pipeline.RoleReviewer,
		To:           pipeline.RoleTester,
		MinArtifacts: 1,
	},
	pipeline.StageDelivery: {
		Stage:        pipeline.StageDelivery,
		From:         pipeline.RoleTester,
		To:           pipeline.RoleProductManager,
		MinArtifacts: 1,
	},
}

// ContractForStage returns the contract for the given stage, if it exists.
func ContractForStage(stage pipeline.Stage) (Contract, bool) {
	contract, ok := stageContracts[stage]
	return contract, ok
}
