// Package orchestrator drives a scripted end-to-end pipeline run over the
// coordination core. No LLM sits behind the roles: each stage follows a
// canned script that exercises handoffs, the review loop, an escalation,
// and the context optimizer, which makes a run both a demo and a live
// check that the core holds together.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/foundry-sim/foundry/internal/artifact"
	"github.com/foundry-sim/foundry/internal/bus"
	"github.com/foundry-sim/foundry/internal/handoff"
	"github.com/foundry-sim/foundry/internal/optimizer"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

// StageOutcome records what one stage produced during a run.
type StageOutcome struct {
	Stage       pipeline.Stage
	Owner       pipeline.Role
	Handoff     handoff.Result
	TokenReport optimizer.TokenReport
	Notes       []string
}

// RunReport summarizes a complete scripted run.
type RunReport struct {
	Outcomes   []StageOutcome
	Escalated  bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Orchestrator wires the core components together for a run.
type Orchestrator struct {
	bus      *bus.Bus
	protocol *handoff.Protocol
	store    *artifact.Store
	table    *optimizer.SliceTable
	logger   bus.Logger

	analysisDoc string
	profileDoc  string
}

// New builds an orchestrator over the given components.
func New(b *bus.Bus, p *handoff.Protocol, store *artifact.Store, table *optimizer.SliceTable, logger bus.Logger) *Orchestrator {
	return &Orchestrator{
		bus:         b,
		protocol:    p,
		store:       store,
		table:       table,
		logger:      logger,
		analysisDoc: defaultAnalysisDoc,
		profileDoc:  defaultProfileDoc,
	}
}

// SetDocuments replaces the shared analysis and style-profile documents.
func (o *Orchestrator) SetDocuments(analysis, profile string) {
	o.analysisDoc = analysis
	o.profileDoc = profile
}

// Run executes the scripted pipeline: requirements through delivery, one
// rejected review that loops feedback into the next attempt, and one
// escalation that the product manager resolves. Every role holds a live
// subscription for the duration so broadcasts reach the whole team.
func (o *Orchestrator) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{StartedAt: time.Now().UTC()}

	subs := o.subscribeRoles()
	defer func() {
		for _, id := range subs {
			o.bus.Unsubscribe(id)
		}
	}()

	o.bus.Broadcast(ctx, pipeline.RoleProductManager, bus.TypeStatusUpdate,
		"Pipeline start", "A new delivery run is starting. Check your inboxes for handoffs.")

	requirements, err := o.runRequirements(ctx, &report)
	if err != nil {
		return report, err
	}
	design, err := o.runDesign(ctx, &report, requirements)
	if err != nil {
		return report, err
	}
	code, err := o.runImplementation(ctx, &report, design)
	if err != nil {
		return report, err
	}
	if err := o.runReview(ctx, &report, code); err != nil {
		return report, err
	}
	if err := o.runDelivery(ctx, &report, code); err != nil {
		return report, err
	}

	report.FinishedAt = time.Now().UTC()
	return report, nil
}

// subscribeRoles gives every canonical role an inbox handler that logs
// receipt. The handlers are deliberately boring: the script below drives
// the actual decisions.
func (o *Orchestrator) subscribeRoles() []bus.SubscriptionID {
	ids := make([]bus.SubscriptionID, 0, len(pipeline.CoreRoles()))
	for _, role := range pipeline.CoreRoles() {
		role := role
		ids = append(ids, o.bus.Subscribe(role, nil, func(_ context.Context, msg bus.Message) error {
			o.logw("inbox", "role", string(role), "type", string(msg.Type), "subject", msg.Subject, "priority", string(msg.Priority))
			return nil
		}))
	}
	return ids
}

func (o *Orchestrator) runRequirements(ctx context.Context, report *RunReport) (artifact.Artifact, error) {
	requirements, err := o.store.Put(artifact.Artifact{
		ID:          "art-requirements",
		Type:        artifact.TypeRequirements,
		Name:        "Checkout Requirements",
		Description: "What the checkout flow must do",
		Content:     requirementsContent,
		CreatedBy:   pipeline.RoleProductManager,
	})
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("orchestrator: seed requirements: %w", err)
	}

	outcome := o.executeStage(ctx, pipeline.StageRequirements, handoff.Payload{
		From:         pipeline.RoleProductManager,
		To:           pipeline.RoleArchitect,
		Stage:        pipeline.StageRequirements,
		Context:      "Product goals are settled; requirements are ready for system design.",
		Instructions: "Produce a design that covers every requirement and names its trade-offs.",
		Artifacts:    []artifact.Artifact{requirements},
		Constraints:  []string{"keep the public API backwards compatible"},
	})
	report.Outcomes = append(report.Outcomes, outcome)
	if !outcome.Handoff.Accepted {
		return artifact.Artifact{}, fmt.Errorf("orchestrator: requirements handoff rejected: %s", strings.Join(outcome.Handoff.Errors, "; "))
	}
	return requirements, nil
}

func (o *Orchestrator) runDesign(ctx context.Context, report *RunReport, requirements artifact.Artifact) (artifact.Artifact, error) {
	design, err := o.store.Put(artifact.Artifact{
		ID:          "art-design",
		Type:        artifact.TypeDesignDoc,
		Name:        "Checkout Design",
		Description: "Component layout for the checkout flow",
		Content:     designContent,
		CreatedBy:   pipeline.RoleArchitect,
	})
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("orchestrator: seed design: %w", err)
	}

	// The architect hits a requirements conflict and escalates before
	// handing off; the product manager answers and the run continues.
	escalation := o.protocol.Escalate(ctx, pipeline.RoleArchitect, pipeline.RoleProductManager,
		pipeline.StageDesign, "Requirement R-3 conflicts with the compatibility constraint.")
	o.bus.Reply(escalation, "Drop R-3 for this iteration; compatibility wins.",
		bus.WithType(bus.TypeAnswer))
	report.Escalated = true

	outcome := o.executeStage(ctx, pipeline.StageDesign, handoff.Payload{
		From:         pipeline.RoleArchitect,
		To:           pipeline.RoleDeveloper,
		Stage:        pipeline.StageDesign,
		Context:      "Design settled after the R-3 escalation was resolved.",
		Instructions: "Implement the storage layer first, then the API surface.",
		Artifacts:    []artifact.Artifact{requirements, design},
		Constraints:  []string{"no new third-party dependencies", "keep handlers context-aware"},
	})
	report.Outcomes = append(report.Outcomes, outcome)
	if !outcome.Handoff.Accepted {
		return artifact.Artifact{}, fmt.Errorf("orchestrator: design handoff rejected: %s", strings.Join(outcome.Handoff.Errors, "; "))
	}
	return design, nil
}

func (o *Orchestrator) runImplementation(ctx context.Context, report *RunReport, design artifact.Artifact) (artifact.Artifact, error) {
	code, err := o.store.Put(artifact.Artifact{
		ID:          "art-code",
		Type:        artifact.TypeCode,
		Name:        "Checkout Implementation",
		Description: "First cut of the checkout service",
		Content:     implementationContent,
		CreatedBy:   pipeline.RoleDeveloper,
	})
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("orchestrator: seed implementation: %w", err)
	}

	outcome := o.executeStage(ctx, pipeline.StageImplementation, handoff.Payload{
		From:         pipeline.RoleDeveloper,
		To:           pipeline.RoleReviewer,
		Stage:        pipeline.StageImplementation,
		Context:      "Implementation complete against the agreed design.",
		Instructions: "Review for correctness first, style second.",
		Artifacts:    []artifact.Artifact{design, code},
	})
	report.Outcomes = append(report.Outcomes, outcome)
	if !outcome.Handoff.Accepted {
		return artifact.Artifact{}, fmt.Errorf("orchestrator: implementation handoff rejected: %s", strings.Join(outcome.Handoff.Errors, "; "))
	}
	return code, nil
}

// runReview walks the scripted review loop: first pass rejected, the
// feedback is folded into a revised payload, second pass approved.
func (o *Orchestrator) runReview(ctx context.Context, report *RunReport, code artifact.Artifact) error {
	o.protocol.RequestReview(ctx, pipeline.RoleDeveloper, pipeline.RoleReviewer,
		pipeline.StageReview, []artifact.Artifact{code}, "Focus on the error paths.")
	o.protocol.SubmitReviewResponse(ctx, pipeline.RoleReviewer, pipeline.RoleDeveloper,
		pipeline.StageReview, false, "Timeouts are swallowed in the retry loop; surface them.")

	revised, err := o.store.Put(artifact.Artifact{
		ID:          code.ID,
		Type:        code.Type,
		Name:        code.Name,
		Description: "Checkout service with reviewer feedback applied",
		Content:     code.Content + "\nRetry timeouts now propagate to callers.",
		CreatedBy:   pipeline.RoleDeveloper,
	})
	if err != nil {
		return fmt.Errorf("orchestrator: revise implementation: %w", err)
	}

	o.protocol.RequestReview(ctx, pipeline.RoleDeveloper, pipeline.RoleReviewer,
		pipeline.StageReview, []artifact.Artifact{revised}, "Second pass; the timeout handling changed.")
	o.protocol.SubmitReviewResponse(ctx, pipeline.RoleReviewer, pipeline.RoleDeveloper,
		pipeline.StageReview, true, "Error paths read cleanly now.")

	outcome := o.executeStage(ctx, pipeline.StageReview, handoff.Payload{
		From:          pipeline.RoleReviewer,
		To:            pipeline.RoleTester,
		Stage:         pipeline.StageReview,
		Context:       "Implementation approved on the second review pass.",
		Instructions:  "Exercise the retry and timeout paths explicitly.",
		Artifacts:     []artifact.Artifact{revised},
		PriorFeedback: []string{"Timeouts are swallowed in the retry loop; surface them."},
	})
	report.Outcomes = append(report.Outcomes, outcome)
	if !outcome.Handoff.Accepted {
		return fmt.Errorf("orchestrator: review handoff rejected: %s", strings.Join(outcome.Handoff.Errors, "; "))
	}
	return nil
}

func (o *Orchestrator) runDelivery(ctx context.Context, report *RunReport, code artifact.Artifact) error {
	plan, err := o.store.Put(artifact.Artifact{
		ID:          "art-testplan",
		Type:        artifact.TypeTestPlan,
		Name:        "Checkout Test Plan",
		Description: "Scenarios covering the review findings",
		Content:     testPlanContent,
		CreatedBy:   pipeline.RoleTester,
	})
	if err != nil {
		return fmt.Errorf("orchestrator: seed test plan: %w", err)
	}

	outcome := o.executeStage(ctx, pipeline.StageDelivery, handoff.Payload{
		From:         pipeline.RoleTester,
		To:           pipeline.RoleProductManager,
		Stage:        pipeline.StageDelivery,
		Context:      "All planned scenarios pass, including the regression for the timeout fix.",
		Instructions: "Sign off on the release notes.",
		Artifacts:    []artifact.Artifact{code, plan},
	})
	report.Outcomes = append(report.Outcomes, outcome)
	if !outcome.Handoff.Accepted {
		return fmt.Errorf("orchestrator: delivery handoff rejected: %s", strings.Join(outcome.Handoff.Errors, "; "))
	}

	o.bus.Broadcast(ctx, pipeline.RoleProductManager, bus.TypeStatusUpdate,
		"Pipeline complete", "The delivery run finished; thanks all.")
	return nil
}

// executeStage builds the destination role's optimized context, prices it,
// and runs the handoff.
func (o *Orchestrator) executeStage(ctx context.Context, stage pipeline.Stage, payload handoff.Payload) StageOutcome {
	analysis := optimizer.OptimizeAnalysisForRole(o.table, o.analysisDoc, payload.To)
	profile := optimizer.OptimizeProfileForRole(o.table, o.profileDoc, payload.To)
	artifacts := optimizer.OptimizeInputArtifacts(o.table, payload.Artifacts, payload.To)

	tokenReport := optimizer.BuildTokenReport(optimizer.PromptParts{
		SystemPrompt:       systemPromptFor(payload.To),
		TaskInstructions:   payload.Instructions,
		OptimizedAnalysis:  analysis,
		OptimizedProfile:   profile,
		OptimizedArtifacts: artifacts,
		OutputFormat:       outputFormatInstructions,
		FullAnalysis:       o.analysisDoc,
		FullProfile:        o.profileDoc,
		FullArtifacts:      fullArtifactText(payload.Artifacts),
	})
	o.logw("context budget", "stage", string(stage), "role", string(payload.To),
		"optimized", tokenReport.OptimizedTotal, "full", tokenReport.FullTotal,
		"saved_percent", tokenReport.SavedPercent)

	result := o.protocol.Execute(ctx, payload)
	owner, _ := pipeline.OwnerRole(stage)
	return StageOutcome{
		Stage:       stage,
		Owner:       owner,
		Handoff:     result,
		TokenReport: tokenReport,
	}
}

func fullArtifactText(artifacts []artifact.Artifact) string {
	var b strings.Builder
	for _, a := range artifacts {
		b.WriteString(a.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func systemPromptFor(role pipeline.Role) string {
	return fmt.Sprintf("You are the %s on a software delivery team. Work only from the context provided.", role)
}

func (o *Orchestrator) logw(event string, keysAndValues ...any) {
	if o.logger != nil {
		o.logger.Infow(event, keysAndValues...)
	}
}
