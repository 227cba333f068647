// internal/tui/app.go
//
// Terminal monitor for a pipeline run. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The scripted run executes inside a bubbletea command; the monitor
// watches it live through a bus tap and switches between a message feed,
// bus statistics, the handoff history, and the final run report.

package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foundry-sim/foundry/internal/bus"
	"github.com/foundry-sim/foundry/internal/handoff"
	"github.com/foundry-sim/foundry/internal/orchestrator"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

// pane represents which tab of the monitor is showing.
type pane int

const (
	paneFeed pane = iota // Live message feed from the bus tap
	paneStats
	paneHandoffs
	paneReport
)

var paneTitles = []string{"Feed", "Stats", "Handoffs", "Report"}

const feedLimit = 200

type busEventMsg bus.Message

type runFinishedMsg struct {
	report orchestrator.RunReport
	err    error
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			Underline(true)
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	acceptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7CC97C"))
	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// App is the monitor model. It holds everything the four panes render.
type App struct {
	bus      *bus.Bus
	protocol *handoff.Protocol
	runner   *orchestrator.Orchestrator

	events <-chan bus.Message
	feed   []bus.Message

	report      orchestrator.RunReport
	runErr      error
	runFinished bool

	active pane
	body   viewport.Model
	width  int
	height int
}

// NewApp builds the monitor around an already-wired core. The bus tap is
// opened here so the feed catches every message the run publishes.
func NewApp(b *bus.Bus, p *handoff.Protocol, runner *orchestrator.Orchestrator) *App {
	app := &App{
		bus:      b,
		protocol: p,
		runner:   runner,
		events:   b.Tap("monitor"),
		body:     viewport.New(96, 24),
	}
	app.refreshBody()
	return app
}

// Init kicks off the scripted run and starts draining the bus tap.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.startRun(), a.waitForEvent())
}

// startRun executes the pipeline inside a command so the UI stays live
// while the run progresses.
func (a *App) startRun() tea.Cmd {
	return func() tea.Msg {
		report, err := a.runner.Run(context.Background())
		return runFinishedMsg{report: report, err: err}
	}
}

// waitForEvent blocks on the tap for the next bus message. A closed tap
// ends the feed quietly.
func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-a.events
		if !ok {
			return nil
		}
		return busEventMsg(msg)
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.body.Width = max(20, msg.Width-6)
		a.body.Height = max(5, msg.Height-8)
		a.refreshBody()
		return a, nil

	case busEventMsg:
		a.feed = append(a.feed, bus.Message(msg))
		if len(a.feed) > feedLimit {
			a.feed = a.feed[len(a.feed)-feedLimit:]
		}
		if a.active == paneFeed || a.active == paneStats {
			a.refreshBody()
		}
		return a, a.waitForEvent()

	case runFinishedMsg:
		a.runFinished = true
		a.report = msg.report
		a.runErr = msg.err
		a.refreshBody()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab", "right", "l":
			a.active = (a.active + 1) % pane(len(paneTitles))
			a.refreshBody()
			return a, nil
		case "shift+tab", "left", "h":
			a.active = (a.active + pane(len(paneTitles)) - 1) % pane(len(paneTitles))
			a.refreshBody()
			return a, nil
		case "g":
			a.body.GotoTop()
			return a, nil
		case "G":
			a.body.GotoBottom()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.body, cmd = a.body.Update(msg)
	return a, cmd
}

// refreshBody re-renders the active pane into the viewport. The feed
// sticks to the bottom so new traffic stays in view.
func (a *App) refreshBody() {
	atBottom := a.body.AtBottom()
	switch a.active {
	case paneFeed:
		a.body.SetContent(a.renderFeed())
		if atBottom {
			a.body.GotoBottom()
		}
	case paneStats:
		a.body.SetContent(a.renderStats())
	case paneHandoffs:
		a.body.SetContent(a.renderHandoffs())
	case paneReport:
		a.body.SetContent(a.renderReport())
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	header := headerStyle.Render("⬡ FOUNDRY")
	status := "running..."
	if a.runFinished {
		status = "run complete"
		if a.runErr != nil {
			status = fmt.Sprintf("run failed: %v", a.runErr)
		}
	}
	tabs := make([]string, 0, len(paneTitles))
	for i, title := range paneTitles {
		if pane(i) == a.active {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, tabStyle.Render(title))
		}
	}
	tabBar := strings.Join(tabs, "  ")
	help := dimStyle.Render("tab/←/→ switch panes · ↑/↓ scroll · g/G top/bottom · q quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		tabBar+"  "+dimStyle.Render("· "+status),
		boxStyle.Render(a.body.View()),
		help,
	)
}

func (a *App) renderFeed() string {
	if len(a.feed) == 0 {
		return dimStyle.Render("Waiting for bus traffic...")
	}
	lines := make([]string, 0, len(a.feed))
	for _, m := range a.feed {
		stamp := m.CreatedAt.Local().Format("15:04:05")
		line := fmt.Sprintf("%s %-9s %s → %s  %s: %s",
			dimStyle.Render(stamp), badge(m.Priority), m.From, m.To, m.Type, m.Subject)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func badge(p bus.Priority) string {
	label := fmt.Sprintf("[%s]", p)
	if p == bus.PriorityCritical {
		return rejectStyle.Render(label)
	}
	return label
}

func (a *App) renderStats() string {
	stats := a.bus.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "Messages logged: %d\n\n", stats.Total)

	b.WriteString("By type:\n")
	types := make([]bus.MessageType, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Fprintf(&b, "  %-18s %d\n", t, stats.ByType[t])
	}

	b.WriteString("\nBy role:\n")
	roles := make([]pipeline.Role, 0, len(stats.ByRole))
	for r := range stats.ByRole {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	for _, r := range roles {
		rs := stats.ByRole[r]
		fmt.Fprintf(&b, "  %-16s sent %-3d received %d\n", r, rs.Sent, rs.Received)
	}
	return b.String()
}

func (a *App) renderHandoffs() string {
	history := a.protocol.History()
	if len(history) == 0 {
		return dimStyle.Render("No handoffs recorded yet.")
	}
	var b strings.Builder
	for i, result := range history {
		verdict := acceptStyle.Render("accepted")
		if !result.Accepted {
			verdict = rejectStyle.Render("rejected")
		}
		stage, route := "-", "-"
		if result.Payload != nil {
			stage = string(result.Payload.Stage)
			route = fmt.Sprintf("%s → %s", result.Payload.From, result.Payload.To)
		}
		fmt.Fprintf(&b, "%2d. %-16s %-24s %s  %s\n",
			i+1, stage, route, verdict,
			dimStyle.Render(result.RecordedAt.Local().Format("15:04:05")))
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "      %s\n", rejectStyle.Render(e))
		}
	}
	return b.String()
}

func (a *App) renderReport() string {
	if !a.runFinished {
		return dimStyle.Render("The run is still in progress.")
	}
	if a.runErr != nil {
		return rejectStyle.Render(fmt.Sprintf("Run failed: %v", a.runErr))
	}
	var b strings.Builder
	elapsed := a.report.FinishedAt.Sub(a.report.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(&b, "Run finished in %s across %d stages.\n", elapsed, len(a.report.Outcomes))
	if a.report.Escalated {
		b.WriteString("One escalation was raised and resolved during the run.\n")
	}
	b.WriteString("\n")
	for _, outcome := range a.report.Outcomes {
		verdict := acceptStyle.Render("accepted")
		if !outcome.Handoff.Accepted {
			verdict = rejectStyle.Render("rejected")
		}
		fmt.Fprintf(&b, "%-16s owner %-16s %s\n", outcome.Stage, outcome.Owner, verdict)
		tr := outcome.TokenReport
		fmt.Fprintf(&b, "    prompt tokens %d (unoptimized %d, saved %d / %d%%)\n",
			tr.OptimizedTotal, tr.FullTotal, tr.Saved, tr.SavedPercent)
		for _, note := range outcome.Notes {
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render(note))
		}
	}
	return b.String()
}
