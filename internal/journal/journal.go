// Package journal persists a plain-text transcript of a pipeline run.
// zap carries structured diagnostics; the journal is the run's own
// artifact, one greppable line per bus message, kept on disk after the
// process exits.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/foundry-sim/foundry/internal/bus"
)

// Journal appends run events to a text file.
type Journal struct {
	path string
	mu   sync.Mutex
}

// New creates a journal that writes to the provided path.
func New(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Journal{path: path}, nil
}

// Path returns the file backing this journal.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Record writes one line for a bus message.
func (j *Journal) Record(msg bus.Message) {
	j.append(fmt.Sprintf("[%s] %s -> %s  %s: %s",
		msg.Priority, msg.From, msg.To, msg.Type, msg.Subject))
}

// Note writes a free-form line, for run milestones that are not bus
// traffic.
func (j *Journal) Note(format string, args ...any) {
	j.append(fmt.Sprintf(format, args...))
}

func (j *Journal) append(message string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	line := fmt.Sprintf("%s %s\n",
		time.Now().UTC().Format(time.RFC3339),
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Follow drains a bus tap into the journal until the tap closes. Run it
// in its own goroutine.
func (j *Journal) Follow(events <-chan bus.Message) {
	for msg := range events {
		j.Record(msg)
	}
}

// Tail returns up to maxLines of the most recent journal entries.
func (j *Journal) Tail(maxLines int) []string {
	if j == nil || maxLines <= 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.Open(j.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) == 0 {
		return nil
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}
