package optimizer

import (
	"strings"
)

// ExtractSections pulls the requested sections out of a headed document.
// A heading at depth 2 or 3 matches a requested name when it is equal to
// the name (case-insensitively) or begins with the name followed by a
// space: "Testing" matches "Testing Conventions" but never "Module
// Dependencies". Capture runs until a heading at the same or shallower
// depth closes it. The document's top-level title, when present, appears
// once ahead of the first matched section. Returns "" when nothing is
// requested or nothing matches.
func ExtractSections(document string, sectionNames []string) string {
	if strings.TrimSpace(document) == "" || len(sectionNames) == 0 {
		return ""
	}

	lines := strings.Split(document, "\n")
	var title string
	var out []string
	capturing := false
	captureDepth := 0

	for _, line := range lines {
		depth, heading := headingOf(line)
		if depth == 1 && title == "" && !capturing {
			title = line
			continue
		}
		if depth > 0 && capturing && depth <= captureDepth {
			capturing = false
		}
		if !capturing && (depth == 2 || depth == 3) && nameMatches(heading, sectionNames) {
			capturing = true
			captureDepth = depth
			out = append(out, line)
			continue
		}
		if capturing {
			out = append(out, line)
		}
	}

	if len(out) == 0 {
		return ""
	}
	if title != "" {
		out = append([]string{title, ""}, out...)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

// headingOf returns the heading depth and title text, or (0, "") for a
// non-heading line.
func headingOf(line string) (int, string) {
	trimmed := strings.TrimSpace(line)
	depth := 0
	for depth < len(trimmed) && trimmed[depth] == '#' {
		depth++
	}
	if depth == 0 || depth >= len(trimmed) || trimmed[depth] != ' ' {
		return 0, ""
	}
	return depth, strings.TrimSpace(trimmed[depth:])
}

func nameMatches(heading string, names []string) bool {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.EqualFold(heading, name) {
			return true
		}
		if len(heading) > len(name) && strings.EqualFold(heading[:len(name)], name) && heading[len(name)] == ' ' {
			return true
		}
	}
	return false
}
