package orchestrator

import (
	"context"
	"testing"

	"github.com/foundry-sim/foundry/internal/artifact"
	"github.com/foundry-sim/foundry/internal/bus"
	"github.com/foundry-sim/foundry/internal/contracts"
	"github.com/foundry-sim/foundry/internal/handoff"
	"github.com/foundry-sim/foundry/internal/optimizer"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

func newTestOrchestrator() (*Orchestrator, *bus.Bus, *handoff.Protocol) {
	b := bus.New()
	p := handoff.NewProtocol(b)
	store := artifact.NewStore()
	table := optimizer.NewSliceTable(optimizer.DefaultSlices())
	return New(b, p, store, table, nil), b, p
}

func TestRunCompletesAllStages(t *testing.T) {
	o, _, p := newTestOrchestrator()
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(report.Outcomes) != 5 {
		t.Fatalf("expected 5 stage outcomes, got %d", len(report.Outcomes))
	}
	for _, outcome := range report.Outcomes {
		if !outcome.Handoff.Accepted {
			t.Fatalf("stage %s rejected: %v", outcome.Stage, outcome.Handoff.Errors)
		}
	}
	if !report.Escalated {
		t.Fatalf("the scripted run includes an escalation")
	}
	if len(p.History()) != 5 {
		t.Fatalf("expected 5 handoff results, got %d", len(p.History()))
	}
}

func TestRunLeavesCoherentBusLog(t *testing.T) {
	o, b, _ := newTestOrchestrator()
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	stats := b.Stats()
	if stats.ByType[bus.TypeArtifactHandoff] != 5 {
		t.Fatalf("expected 5 handoff messages, got %d", stats.ByType[bus.TypeArtifactHandoff])
	}
	if stats.ByType[bus.TypeEscalation] != 1 {
		t.Fatalf("expected 1 escalation, got %d", stats.ByType[bus.TypeEscalation])
	}
	escalations := b.MessagesFor(pipeline.RoleProductManager, bus.TypeEscalation)
	if len(escalations) != 1 || escalations[0].Priority != bus.PriorityCritical {
		t.Fatalf("escalation missing or not critical: %v", escalations)
	}
	// The product manager's resolution is an answer threaded under the
	// escalation, not a second escalation.
	answers := b.MessagesFor(pipeline.RoleArchitect, bus.TypeAnswer)
	if len(answers) != 1 || answers[0].ParentID != escalations[0].ID {
		t.Fatalf("escalation answer missing or unthreaded: %v", answers)
	}
	// Broadcasts reach every subscribed role except the sender, and the
	// run opens and closes with one each.
	updates := stats.ByType[bus.TypeStatusUpdate]
	if updates != 8 {
		t.Fatalf("expected 8 broadcast status updates (2 rounds x 4 recipients), got %d", updates)
	}
}

func TestRunSatisfiesStageContracts(t *testing.T) {
	o, b, p := newTestOrchestrator()
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	report := contracts.VerifyRun(b, p.History())
	if !report.IsValid() {
		t.Fatalf("run violates stage contracts: %v", report.Errors)
	}
	if report.Results != 5 {
		t.Fatalf("verification covered %d results, want 5", report.Results)
	}
}

func TestRunPricesEveryStage(t *testing.T) {
	o, _, _ := newTestOrchestrator()
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, outcome := range report.Outcomes {
		if outcome.TokenReport.OptimizedTotal <= 0 {
			t.Fatalf("stage %s has no token estimate", outcome.Stage)
		}
		if outcome.TokenReport.FullTotal < outcome.TokenReport.OptimizedTotal {
			t.Fatalf("stage %s optimized prompt larger than full prompt", outcome.Stage)
		}
	}
}
