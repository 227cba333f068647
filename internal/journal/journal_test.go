package journal

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/foundry-sim/foundry/internal/bus"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

func TestTailReturnsRecentLines(t *testing.T) {
	dir := t.TempDir()
	j, err := New(filepath.Join(dir, "run.log"))
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	for i := 0; i < 5; i++ {
		j.Note("entry-%d", i)
	}
	lines := j.Tail(3)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestRecordFormatsBusMessages(t *testing.T) {
	dir := t.TempDir()
	j, err := New(filepath.Join(dir, "run.log"))
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	j.Record(bus.Message{
		Type:     bus.TypeEscalation,
		From:     pipeline.RoleArchitect,
		To:       pipeline.RoleProductManager,
		Subject:  "Escalation: design",
		Priority: bus.PriorityCritical,
	})
	lines := j.Tail(1)
	if len(lines) != 1 {
		t.Fatalf("expected one journal line, got %d", len(lines))
	}
	for _, want := range []string{"critical", "architect", "product-manager", "escalation", "Escalation: design"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("journal line %q missing %s", lines[0], want)
		}
	}
}

func TestFollowDrainsATap(t *testing.T) {
	dir := t.TempDir()
	j, err := New(filepath.Join(dir, "run.log"))
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	events := make(chan bus.Message, 2)
	events <- bus.Message{Type: bus.TypeQuestion, Subject: "first"}
	events <- bus.Message{Type: bus.TypeAnswer, Subject: "second"}
	close(events)
	j.Follow(events)
	lines := j.Tail(10)
	if len(lines) != 2 {
		t.Fatalf("expected two journal lines, got %d", len(lines))
	}
}

func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	j.Note("ignored")
	j.Record(bus.Message{})
	if j.Path() != "" {
		t.Fatalf("nil journal path must be empty")
	}
	if lines := j.Tail(5); lines != nil {
		t.Fatalf("nil journal tail must be nil, got %v", lines)
	}
}
