// cmd/foundry/main.go
//
// Entry point for the pipeline simulator. Two modes:
//
// 1. Headless: run the scripted pipeline once and print the run report.
// 2. Monitor (default): launch the bubbletea TUI and watch the run live.
//
// Configuration comes from the embedded defaults, an optional YAML file
// named by FOUNDRY_CONFIG, and FOUNDRY_* environment overrides.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foundry-sim/foundry/internal/artifact"
	"github.com/foundry-sim/foundry/internal/bus"
	"github.com/foundry-sim/foundry/internal/config"
	"github.com/foundry-sim/foundry/internal/contracts"
	"github.com/foundry-sim/foundry/internal/handoff"
	"github.com/foundry-sim/foundry/internal/journal"
	"github.com/foundry-sim/foundry/internal/logging"
	"github.com/foundry-sim/foundry/internal/orchestrator"
	"github.com/foundry-sim/foundry/internal/tui"
)

func main() {
	headless := flag.Bool("headless", false, "run the scripted pipeline without the TUI")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		die("load config: %v", err)
	}
	runHeadless := *headless || cfg.Env.Headless

	// The TUI owns the terminal, so it gets a silent logger; headless runs
	// log to stderr at the configured level.
	logger := logging.Nop()
	if runHeadless {
		logger, err = logging.New(cfg.Env.LogLevel)
		if err != nil {
			die("build logger: %v", err)
		}
	}
	defer logger.Sync()

	b := bus.New(
		bus.WithLogger(logger),
		bus.WithLogCapacity(cfg.File.Bus.LogCapacity),
		bus.WithHandlerTimeout(cfg.File.HandlerTimeout()),
	)
	protocol := handoff.NewProtocol(b, handoff.WithProtocolLogger(logger))
	store := artifact.NewStore()
	runner := orchestrator.New(b, protocol, store, cfg.File.SliceTable(), logger)

	if path := cfg.Env.JournalPath; path != "" {
		j, err := journal.New(path)
		if err != nil {
			die("open journal %s: %v", path, err)
		}
		go j.Follow(b.Tap("journal"))
	}

	if runHeadless {
		report, err := runner.Run(context.Background())
		if err != nil {
			die("pipeline run: %v", err)
		}
		printReport(report, b, protocol)
		verification := contracts.VerifyRun(b, protocol.History())
		if !verification.IsValid() {
			for _, e := range verification.Errors {
				fmt.Fprintf(os.Stderr, "foundry: contract violation: %v\n", e)
			}
			os.Exit(1)
		}
		fmt.Printf("Contract verification passed for %d handoffs.\n", verification.Results)
		return
	}

	p := tea.NewProgram(
		tui.NewApp(b, protocol, runner),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		die("run monitor: %v", err)
	}
}

func printReport(report orchestrator.RunReport, b *bus.Bus, protocol *handoff.Protocol) {
	elapsed := report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)
	fmt.Printf("Pipeline run finished in %s.\n\n", elapsed)
	for _, outcome := range report.Outcomes {
		verdict := "accepted"
		if !outcome.Handoff.Accepted {
			verdict = "rejected"
		}
		tr := outcome.TokenReport
		fmt.Printf("%-16s %-16s %-8s tokens %d/%d (saved %d%%)\n",
			outcome.Stage, outcome.Owner, verdict, tr.OptimizedTotal, tr.FullTotal, tr.SavedPercent)
	}
	stats := b.Stats()
	fmt.Printf("\nBus traffic: %d messages, %d handoffs recorded", stats.Total, len(protocol.History()))
	if report.Escalated {
		fmt.Printf(", 1 escalation resolved")
	}
	fmt.Println(".")
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "foundry: "+format+"\n", args...)
	os.Exit(1)
}
