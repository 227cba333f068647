package optimizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/foundry-sim/foundry/internal/artifact"
)

const (
	// DefaultSummaryLines is the verbatim threshold for SummarizeArtifact.
	DefaultSummaryLines = 15

	maxKeyPoints   = 8
	maxMetricLines = 4
	keyPointMaxLen = 120
)

var (
	// Requirement/user-story/acceptance-criteria style tags, e.g.
	// "REQ-12:", "US-3", "AC 4:".
	tagPattern = regexp.MustCompile(`^\s*(REQ|US|AC|FR|NFR)[- ]?\d+`)

	// A number immediately followed by a unit token from the fixed set of
	// time, rate, percentage, and size units.
	metricPattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s?(ms|s|min|h|%|kb|mb|gb|tb|req/s|rps|qps|x)(\s|[.,;:)]|$)`)

	emphasisPattern = regexp.MustCompile(`(\*\*[^*]+\*\*|__[^_]+__|\*[^*\s][^*]*\*)`)
)

// SummarizeArtifact compacts an artifact for prompt inclusion. Content at
// or under maxLines non-blank lines comes back verbatim; anything larger
// becomes a structured digest: header, section titles, key points, metric
// lines, and a note telling the reader where the full artifact lives.
func SummarizeArtifact(a artifact.Artifact, maxLines int) string {
	if maxLines <= 0 {
		maxLines = DefaultSummaryLines
	}
	lines := strings.Split(a.Content, "\n")
	nonBlank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonBlank++
		}
	}
	if nonBlank <= maxLines {
		return a.Content
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %s (%s, v%d)\n", a.Name, a.Type, a.Version)

	if headings := headingTitles(lines); len(headings) > 0 {
		fmt.Fprintf(&b, "Sections: %s\n", strings.Join(headings, ", "))
	}

	if points := keyPoints(lines); len(points) > 0 {
		b.WriteString("Key points:\n")
		for _, p := range points {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	if metrics := metricLines(lines); len(metrics) > 0 {
		b.WriteString("Metrics:\n")
		for _, m := range metrics {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}

	fmt.Fprintf(&b, "[Summary only: full artifact is %d lines. Fetch artifact %s from the artifact store for complete content.]",
		len(lines), a.ID)
	return b.String()
}

func headingTitles(lines []string) []string {
	var out []string
	for _, line := range lines {
		if depth, heading := headingOf(line); depth > 0 && heading != "" {
			out = append(out, heading)
		}
	}
	return out
}

// keyPoints picks decision-relevant lines: bullets, requirement-style
// tags, and emphasized statements, truncated for prompt hygiene.
func keyPoints(lines []string) []string {
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if depth, _ := headingOf(trimmed); depth > 0 {
			continue
		}
		isBullet := strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ")
		if !isBullet && !tagPattern.MatchString(trimmed) && !emphasisPattern.MatchString(trimmed) {
			continue
		}
		trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "- "), "* ")
		trimmed = truncate(trimmed, keyPointMaxLen)
		out = append(out, trimmed)
		if len(out) == maxKeyPoints {
			break
		}
	}
	return out
}

// truncate shortens s to at most max bytes without splitting a rune,
// appending an ellipsis when anything was cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func metricLines(lines []string) []string {
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !metricPattern.MatchString(trimmed) {
			continue
		}
		out = append(out, trimmed)
		if len(out) == maxMetricLines {
			break
		}
	}
	return out
}
