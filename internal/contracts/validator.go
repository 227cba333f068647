package contracts

import (
	"fmt"

	"github.com/foundry-sim/foundry/internal/handoff"
)

// VerifyResult checks one recorded handoff against its stage contract.
func VerifyResult(result handoff.Result) []error {
	var errs []error
	if result.Payload == nil {
		return []error{fmt.Errorf("result carries no payload")}
	}
	payload := result.Payload

	contract, ok := ContractForStage(payload.Stage)
	if !ok {
		errs = append(errs, fmt.Errorf("unknown stage %q", payload.Stage))
	} else {
		if payload.From != contract.From {
			errs = append(errs, fmt.Errorf("%s hands off from %s, got %s", contract.Stage, contract.From, payload.From))
		}
		if payload.To != contract.To {
			errs = append(errs, fmt.Errorf("%s hands off to %s, got %s", contract.Stage, contract.To, payload.To))
		}
		if result.Accepted && len(payload.Artifacts) < contract.MinArtifacts {
			errs = append(errs, fmt.Errorf("%s accepted with %d artifacts, contract requires %d",
				contract.Stage, len(payload.Artifacts), contract.MinArtifacts))
		}
	}

	if result.Accepted && len(result.Errors) > 0 {
		errs = append(errs, fmt.Errorf("%s accepted but carries validation errors", payload.Stage))
	}
	if !result.Accepted && len(result.Errors) == 0 {
		errs = append(errs, fmt.Errorf("%s rejected without recorded errors", payload.Stage))
	}
	if result.RecordedAt.IsZero() {
		errs = append(errs, fmt.Errorf("%s result has no timestamp", payload.Stage))
	}
	return errs
}
