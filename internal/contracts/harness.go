package contracts

import (
	"fmt"

	"github.com/foundry-sim/foundry/internal/bus"
	"github.com/foundry-sim/foundry/internal/handoff"
)

// Report captures verification results for a completed run.
type Report struct {
	Results int
	Errors  []error
}

// IsValid reports whether the verification passed.
func (r *Report) IsValid() bool {
	return r != nil && len(r.Errors) == 0
}

// VerifyRun checks a run's handoff history against the stage contracts
// and cross-checks it with the bus audit log: every accepted handoff must
// appear as exactly one artifact-handoff message, and every escalation in
// the log must be critical.
func VerifyRun(b *bus.Bus, history []handoff.Result) *Report {
	report := &Report{Results: len(history)}
	accepted := 0
	for _, result := range history {
		report.Errors = append(report.Errors, VerifyResult(result)...)
		if result.Accepted {
			accepted++
		}
	}

	if b == nil {
		return report
	}
	stats := b.Stats()
	if logged := stats.ByType[bus.TypeArtifactHandoff]; logged != accepted {
		report.Errors = append(report.Errors,
			fmt.Errorf("%d accepted handoffs but %d artifact-handoff messages logged", accepted, logged))
	}
	for _, msg := range b.Recent(stats.Total) {
		if msg.Type == bus.TypeEscalation && msg.Priority != bus.PriorityCritical {
			report.Errors = append(report.Errors,
				fmt.Errorf("escalation %s logged at %s priority", msg.ID, msg.Priority))
		}
	}
	return report
}
