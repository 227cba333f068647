package handoff

import (
	"fmt"
	"strings"

	"github.com/foundry-sim/foundry/internal/pipeline"
)

// ValidationError describes one rule violation found in a payload. Field
// is optional and names the offending payload field when known.
type ValidationError struct {
	Message string
	Field   string
}

func (e ValidationError) String() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateFunc checks a payload and returns zero or more violations in a
// deterministic order. Implementations must be pure: no side effects, no
// bus access. The protocol preserves the returned order verbatim.
type ValidateFunc func(Payload) []ValidationError

// ValidatePayload is the default validator. External drivers can layer
// their own business rules by injecting a different ValidateFunc.
func ValidatePayload(p Payload) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(string(p.From)) == "" {
		errs = append(errs, ValidationError{Field: "from", Message: "source role is required"})
	}
	if strings.TrimSpace(string(p.To)) == "" {
		errs = append(errs, ValidationError{Field: "to", Message: "destination role is required"})
	}
	if p.From != "" && p.From == p.To {
		errs = append(errs, ValidationError{Field: "to", Message: "destination must differ from source"})
	}
	if !pipeline.KnownStage(p.Stage) {
		errs = append(errs, ValidationError{Field: "stage", Message: fmt.Sprintf("unknown stage %q", p.Stage)})
	}
	if strings.TrimSpace(p.Context) == "" {
		errs = append(errs, ValidationError{Field: "context", Message: "context is required"})
	}
	if strings.TrimSpace(p.Instructions) == "" {
		errs = append(errs, ValidationError{Field: "instructions", Message: "instructions are required"})
	}
	for i, a := range p.Artifacts {
		if err := a.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("artifacts[%d]", i),
				Message: err.Error(),
			})
		}
	}
	return errs
}
