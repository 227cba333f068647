package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foundry-sim/foundry/internal/artifact"
	"github.com/foundry-sim/foundry/internal/bus"
	"github.com/foundry-sim/foundry/internal/handoff"
	"github.com/foundry-sim/foundry/internal/optimizer"
	"github.com/foundry-sim/foundry/internal/orchestrator"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

func newTestMonitor(t *testing.T) *App {
	t.Helper()
	b := bus.New()
	p := handoff.NewProtocol(b)
	table := optimizer.NewSliceTable(optimizer.DefaultSlices())
	runner := orchestrator.New(b, p, artifact.NewStore(), table, nil)
	return NewApp(b, p, runner)
}

func asApp(t *testing.T, model tea.Model) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	return app
}

func TestPaneCycling(t *testing.T) {
	app := newTestMonitor(t)
	if app.active != paneFeed {
		t.Fatalf("monitor must open on the feed pane, got %d", app.active)
	}
	want := []pane{paneStats, paneHandoffs, paneReport, paneFeed}
	for _, next := range want {
		model, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
		app = asApp(t, model)
		if app.active != next {
			t.Fatalf("tab landed on pane %d, want %d", app.active, next)
		}
	}
	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = asApp(t, model)
	if app.active != paneReport {
		t.Fatalf("shift+tab should cycle backwards, got %d", app.active)
	}
}

func TestBusEventsAppendToFeed(t *testing.T) {
	app := newTestMonitor(t)
	msg := bus.Message{
		Type:    bus.TypeStatusUpdate,
		From:    pipeline.RoleProductManager,
		To:      pipeline.RoleDeveloper,
		Subject: "Kickoff",
	}
	model, cmd := app.Update(busEventMsg(msg))
	app = asApp(t, model)
	if cmd == nil {
		t.Fatalf("feed must keep waiting for the next tap event")
	}
	if len(app.feed) != 1 || app.feed[0].Subject != "Kickoff" {
		t.Fatalf("feed did not record the event: %+v", app.feed)
	}
	if !strings.Contains(app.renderFeed(), "Kickoff") {
		t.Fatalf("feed pane should render the event subject")
	}
}

func TestFeedIsBounded(t *testing.T) {
	app := newTestMonitor(t)
	for i := 0; i < feedLimit+25; i++ {
		model, _ := app.Update(busEventMsg(bus.Message{Type: bus.TypeQuestion, Subject: "q"}))
		app = asApp(t, model)
	}
	if len(app.feed) != feedLimit {
		t.Fatalf("feed must stay bounded at %d, got %d", feedLimit, len(app.feed))
	}
}

func TestRunFinishedFillsReportPane(t *testing.T) {
	app := newTestMonitor(t)
	report := orchestrator.RunReport{
		Escalated: true,
		Outcomes: []orchestrator.StageOutcome{
			{
				Stage:   pipeline.StageDesign,
				Owner:   pipeline.RoleArchitect,
				Handoff: handoff.Result{Accepted: true},
				TokenReport: optimizer.TokenReport{
					OptimizedTotal: 120,
					FullTotal:      480,
					Saved:          360,
					SavedPercent:   75,
				},
			},
		},
	}
	model, _ := app.Update(runFinishedMsg{report: report})
	app = asApp(t, model)
	if !app.runFinished {
		t.Fatalf("run must be marked finished")
	}
	rendered := app.renderReport()
	if !strings.Contains(rendered, string(pipeline.StageDesign)) {
		t.Fatalf("report pane missing stage name:\n%s", rendered)
	}
	if !strings.Contains(rendered, "75%") {
		t.Fatalf("report pane missing token savings:\n%s", rendered)
	}
	if !strings.Contains(rendered, "escalation") {
		t.Fatalf("report pane should mention the escalation:\n%s", rendered)
	}
}

func TestHandoffPaneShowsHistory(t *testing.T) {
	b := bus.New()
	p := handoff.NewProtocol(b)
	table := optimizer.NewSliceTable(optimizer.DefaultSlices())
	runner := orchestrator.New(b, p, artifact.NewStore(), table, nil)
	app := NewApp(b, p, runner)

	// An empty payload is rejected and recorded, which is all the pane needs.
	p.Execute(context.Background(), handoff.Payload{})
	rendered := app.renderHandoffs()
	if !strings.Contains(rendered, "rejected") {
		t.Fatalf("handoff pane missing rejection:\n%s", rendered)
	}
}

func TestViewRendersBeforeFirstResize(t *testing.T) {
	app := newTestMonitor(t)
	out := app.View()
	if !strings.Contains(out, "FOUNDRY") {
		t.Fatalf("view missing header:\n%s", out)
	}
	for _, title := range paneTitles {
		if !strings.Contains(out, title) {
			t.Fatalf("view missing %s tab:\n%s", title, out)
		}
	}
}

func TestWindowResizeAdjustsViewport(t *testing.T) {
	app := newTestMonitor(t)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = asApp(t, model)
	if app.body.Width != 114 {
		t.Fatalf("viewport width not derived from window, got %d", app.body.Width)
	}
	if app.body.Height != 32 {
		t.Fatalf("viewport height not derived from window, got %d", app.body.Height)
	}
}
