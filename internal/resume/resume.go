// Package resume defines the domain types the pipeline produces:
// competency scores and STAR-format work examples.
package resume

import (
	"fmt"
	"strings"
)

// Scores use a fixed 1..7 ordinal scale.
const (
	ScoreMin = 1
	ScoreMax = 7
	// ScoreDefault is the neutral fallback assigned when no score can be
	// recovered from reviewer output. Reads as "needs review".
	ScoreDefault = 3
	// ScoreTarget is the lowest score that meets the competency standard.
	ScoreTarget = 4
)

// ScoreInRange reports whether n lies on the documented ordinal scale.
func ScoreInRange(n int) bool {
	return n >= ScoreMin && n <= ScoreMax
}

// DimensionScore is one scored competency dimension with reviewer notes.
type DimensionScore struct {
	Score       int      `json:"score"`
	Feedback    []string `json:"feedback,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ScoringResult holds the three dimension scores for one work example.
type ScoringResult struct {
	Context    DimensionScore `json:"context"`
	Complexity DimensionScore `json:"complexity"`
	Initiative DimensionScore `json:"initiative"`
}

// Min returns the lowest of the three dimension scores.
func (s ScoringResult) Min() int {
	min := s.Context.Score
	if s.Complexity.Score < min {
		min = s.Complexity.Score
	}
	if s.Initiative.Score < min {
		min = s.Initiative.Score
	}
	return min
}

// MeetsTarget reports whether every dimension reaches ScoreTarget.
func (s ScoringResult) MeetsTarget() bool {
	return s.Min() >= ScoreTarget
}

// Category is one of the fixed competency classification buckets.
type Category string

// The closed category set.
const (
	CategoryVision         Category = "Vision"
	CategoryResults        Category = "Results"
	CategoryAccountability Category = "Accountability"
)

// Valid reports whether c is one of the three known buckets.
func (c Category) Valid() bool {
	switch c {
	case CategoryVision, CategoryResults, CategoryAccountability:
		return true
	default:
		return false
	}
}

// STARExample is a structured work example: a year/rank/location header,
// the four STAR narrative sections, a competency category and reviewer
// improvement notes.
type STARExample struct {
	Header       string   `json:"header"`
	Situation    string   `json:"situation"`
	Task         string   `json:"task"`
	Action       string   `json:"action"`
	Result       string   `json:"result"`
	Category     Category `json:"category,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

// Complete reports whether all five narrative fields are filled in.
// Incomplete examples must be flagged to callers, never passed on silently.
func (e STARExample) Complete() bool {
	return len(e.EmptyFields()) == 0
}

// EmptyFields lists the narrative fields that are still blank.
func (e STARExample) EmptyFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"header", e.Header},
		{"situation", e.Situation},
		{"task", e.Task},
		{"action", e.Action},
		{"result", e.Result},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Markdown renders the example as a small markdown document.
func (e STARExample) Markdown() string {
	var b strings.Builder
	b.WriteString("# STAR Work Example\n\n")
	if h := strings.TrimSpace(e.Header); h != "" {
		b.WriteString(fmt.Sprintf("**%s**\n\n", h))
	}
	if e.Category.Valid() {
		b.WriteString(fmt.Sprintf("Competency: %s\n\n", e.Category))
	}
	for _, sec := range []struct {
		title string
		text  string
	}{
		{"Situation", e.Situation},
		{"Task", e.Task},
		{"Action", e.Action},
		{"Result", e.Result},
	} {
		b.WriteString("## " + sec.title + "\n\n")
		b.WriteString(strings.TrimSpace(sec.text))
		b.WriteString("\n\n")
	}
	if len(e.Improvements) > 0 {
		b.WriteString("## Improvement Notes\n\n")
		for _, note := range e.Improvements {
			b.WriteString("- " + note + "\n")
		}
	}
	return b.String()
}
