package handoff

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/foundry-sim/foundry/internal/artifact"
	"github.com/foundry-sim/foundry/internal/bus"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

// Protocol executes handoffs, review traffic, and escalations over the
// message bus. Its history is independent of the bus log: the bus records
// what was said, the history records what was decided.
type Protocol struct {
	bus      *bus.Bus
	validate ValidateFunc
	logger   bus.Logger
	now      func() time.Time

	mu      sync.Mutex
	history []Result
}

// ProtocolOption customizes a Protocol during construction.
type ProtocolOption func(*Protocol)

// WithValidator replaces the default payload validator.
func WithValidator(v ValidateFunc) ProtocolOption {
	return func(p *Protocol) {
		if v != nil {
			p.validate = v
		}
	}
}

// WithProtocolLogger injects a logger for decision diagnostics.
func WithProtocolLogger(logger bus.Logger) ProtocolOption {
	return func(p *Protocol) {
		p.logger = logger
	}
}

// WithProtocolClock overrides the clock used for result timestamps.
func WithProtocolClock(clock func() time.Time) ProtocolOption {
	return func(p *Protocol) {
		if clock != nil {
			p.now = clock
		}
	}
}

// NewProtocol builds a protocol bound to the given bus.
func NewProtocol(b *bus.Bus, opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		bus:      b,
		validate: ValidatePayload,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Execute runs one single-shot handoff transition. Validation failure
// records and returns a rejected result without touching the bus. Success
// publishes exactly one artifact-handoff message at high priority (awaited,
// so the result implies the message is in the log) and records an accepted
// result. Either way exactly one Result joins the history.
func (p *Protocol) Execute(ctx context.Context, payload Payload) Result {
	errs := p.validate(payload)
	if len(errs) > 0 {
		messages := make([]string, 0, len(errs))
		for _, e := range errs {
			messages = append(messages, e.String())
		}
		result := Result{
			Accepted:   false,
			Payload:    &payload,
			RecordedAt: p.now().UTC(),
			Errors:     messages,
		}
		p.record(result)
		p.logw("handoff rejected", "stage", string(payload.Stage), "from", string(payload.From), "to", string(payload.To), "errors", strings.Join(messages, "; "))
		return result
	}

	subject := fmt.Sprintf("Handoff: %s -> %s (%s)", payload.From, payload.To, payload.Stage)
	p.bus.Publish(ctx, bus.Message{
		Type:        bus.TypeArtifactHandoff,
		From:        payload.From,
		To:          payload.To,
		Subject:     subject,
		Body:        payload.Body(),
		Priority:    bus.PriorityHigh,
		ArtifactIDs: payload.ArtifactIDs(),
	})
	result := Result{
		Accepted:   true,
		Payload:    &payload,
		RecordedAt: p.now().UTC(),
	}
	p.record(result)
	p.logw("handoff accepted", "stage", string(payload.Stage), "from", string(payload.From), "to", string(payload.To), "artifacts", len(payload.Artifacts))
	return result
}

// RequestReview asks reviewer to look at the given artifacts. It is not a
// handoff: nothing is validated and nothing joins the history. Protocol
// traffic is always published awaited so the decision record in the bus
// log is ordered the way the decisions were made.
func (p *Protocol) RequestReview(ctx context.Context, from, reviewer pipeline.Role, stage pipeline.Stage, artifacts []artifact.Artifact, instructions string) bus.Message {
	ids := make([]string, 0, len(artifacts))
	var lines []string
	for _, a := range artifacts {
		ids = append(ids, a.ID)
		lines = append(lines, a.Line())
	}
	body := fmt.Sprintf("Please review the following artifacts for the %s stage.\n\n%s", stage, strings.Join(lines, "\n"))
	if strings.TrimSpace(instructions) != "" {
		body += "\n\n## Instructions\n" + strings.TrimSpace(instructions)
	}
	return p.bus.Publish(ctx, bus.Message{
		Type:        bus.TypeReviewRequest,
		From:        from,
		To:          reviewer,
		Subject:     fmt.Sprintf("Review request: %s", stage),
		Body:        body,
		Priority:    bus.PriorityHigh,
		ArtifactIDs: ids,
	})
}

// SubmitReviewResponse sends exactly one message: approval when approved,
// rejection otherwise. The decision is strictly binary.
func (p *Protocol) SubmitReviewResponse(ctx context.Context, reviewer, requester pipeline.Role, stage pipeline.Stage, approved bool, feedback string) bus.Message {
	msgType := bus.TypeRejection
	verdict := "Rejected"
	if approved {
		msgType = bus.TypeApproval
		verdict = "Approved"
	}
	body := fmt.Sprintf("%s: %s stage.", verdict, stage)
	if strings.TrimSpace(feedback) != "" {
		body += "\n\n## Feedback\n" + strings.TrimSpace(feedback)
	}
	return p.bus.Publish(ctx, bus.Message{
		Type:     msgType,
		From:     reviewer,
		To:       requester,
		Subject:  fmt.Sprintf("%s: %s", verdict, stage),
		Body:     body,
		Priority: bus.PriorityHigh,
	})
}

// Escalate raises a situation the approve/reject loop cannot resolve. It
// is the only protocol path that uses critical priority.
func (p *Protocol) Escalate(ctx context.Context, from, to pipeline.Role, stage pipeline.Stage, reason string) bus.Message {
	return p.bus.Publish(ctx, bus.Message{
		Type:     bus.TypeEscalation,
		From:     from,
		To:       to,
		Subject:  fmt.Sprintf("Escalation: %s", stage),
		Body:     fmt.Sprintf("Escalation raised during the %s stage.\n\n## Reason\n%s", stage, strings.TrimSpace(reason)),
		Priority: bus.PriorityCritical,
	})
}

// History returns a defensive copy of every recorded result, oldest first.
func (p *Protocol) History() []Result {
	return p.copyHistory(func(Result) bool { return true })
}

// ForStage returns a defensive copy of the results recorded for one stage.
func (p *Protocol) ForStage(stage pipeline.Stage) []Result {
	return p.copyHistory(func(r Result) bool {
		return r.Payload != nil && r.Payload.Stage == stage
	})
}

func (p *Protocol) copyHistory(keep func(Result) bool) []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, 0, len(p.history))
	for _, r := range p.history {
		if !keep(r) {
			continue
		}
		clone := r
		clone.Errors = append([]string(nil), r.Errors...)
		out = append(out, clone)
	}
	return out
}

func (p *Protocol) record(r Result) {
	p.mu.Lock()
	p.history = append(p.history, r)
	p.mu.Unlock()
}

func (p *Protocol) logw(event string, keysAndValues ...any) {
	if p.logger != nil {
		p.logger.Infow(event, keysAndValues...)
	}
}
