package optimizer

import "math"

// EstimateTokens approximates the token cost of a text as ceil(len/4).
// Deliberately tokenizer-free: the pipeline needs consistent relative
// numbers for budgeting, not exact billing figures.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / 4))
}

// PromptParts carries the six fixed components of a role prompt plus the
// unoptimized originals of the three optimized slots.
type PromptParts struct {
	SystemPrompt       string
	TaskInstructions   string
	OptimizedAnalysis  string
	OptimizedProfile   string
	OptimizedArtifacts string
	OutputFormat       string

	FullAnalysis  string
	FullProfile   string
	FullArtifacts string
}

// TokenReport states what the optimized prompt costs and what the same
// prompt would have cost unoptimized.
type TokenReport struct {
	SystemPrompt       int
	TaskInstructions   int
	OptimizedAnalysis  int
	OptimizedProfile   int
	OptimizedArtifacts int
	OutputFormat       int

	OptimizedTotal int
	FullTotal      int
	Saved          int
	SavedPercent   int
}

// BuildTokenReport estimates each prompt component, totals the optimized
// prompt, totals the equivalent unoptimized prompt, and reports absolute
// and percentage savings. The percentage rounds to the nearest integer
// and is zero when the full total is zero.
func BuildTokenReport(parts PromptParts) TokenReport {
	report := TokenReport{
		SystemPrompt:       EstimateTokens(parts.SystemPrompt),
		TaskInstructions:   EstimateTokens(parts.TaskInstructions),
		OptimizedAnalysis:  EstimateTokens(parts.OptimizedAnalysis),
		OptimizedProfile:   EstimateTokens(parts.OptimizedProfile),
		OptimizedArtifacts: EstimateTokens(parts.OptimizedArtifacts),
		OutputFormat:       EstimateTokens(parts.OutputFormat),
	}
	report.OptimizedTotal = report.SystemPrompt + report.TaskInstructions +
		report.OptimizedAnalysis + report.OptimizedProfile +
		report.OptimizedArtifacts + report.OutputFormat
	report.FullTotal = report.SystemPrompt + report.TaskInstructions +
		EstimateTokens(parts.FullAnalysis) + EstimateTokens(parts.FullProfile) +
		EstimateTokens(parts.FullArtifacts) + report.OutputFormat

	report.Saved = report.FullTotal - report.OptimizedTotal
	if report.FullTotal > 0 {
		report.SavedPercent = int(math.Round(float64(report.Saved) / float64(report.FullTotal) * 100))
	}
	return report
}
