package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/metalagman/starsmith/internal/resume"
)

// Annotations attached to a dimension when its score falls back to the
// neutral default.
const defaultScoreFeedback = "Score could not be read from the reviewer output; defaulted for manual review."

var defaultScoreSuggestions = map[string]string{
	"context":    "Add more detail about where, when and under what conditions the example took place.",
	"complexity": "Describe what made the situation difficult, novel or high-stakes.",
	"initiative": "Call out the actions you took beyond your normal duties.",
}

var scoreDimensions = []string{"context", "complexity", "initiative"}

// scorePattern matches a bare integer directly after the word "score", or
// an integer followed by "/7" or "out of 7".
var scorePattern = regexp.MustCompile(`(?i)score\D{0,3}?(-?\d+)|(-?\d+)\s*(?:/\s*7|out\s+of\s+7)`)

// Scores recovers a ScoringResult from free-form reviewer output. Each
// dimension is filled independently: a strict in-range value from an
// embedded JSON object, else the first in-range heuristic match, else the
// neutral default. Out-of-range values are rejected, never clamped. The
// returned tier is the worst tier any dimension needed.
func Scores(text string) (resume.ScoringResult, Tier) {
	candidates := recognizedScoreObjects(text)

	var result resume.ScoringResult
	dims := map[string]*resume.DimensionScore{
		"context":    &result.Context,
		"complexity": &result.Complexity,
		"initiative": &result.Initiative,
	}

	tier := TierStrict
	for _, name := range scoreDimensions {
		tier = worse(tier, fillDimension(dims[name], candidates, text, name))
	}
	return result, tier
}

// recognizedScoreObjects keeps only decoded objects that carry at least one
// of the three score fields.
func recognizedScoreObjects(text string) []map[string]any {
	var out []map[string]any
	for _, obj := range decodeObjects(text) {
		for _, name := range scoreDimensions {
			if _, ok := obj[name+"_score"]; ok {
				out = append(out, obj)
				break
			}
		}
	}
	return out
}

func fillDimension(out *resume.DimensionScore, candidates []map[string]any, text, name string) Tier {
	out.Feedback = strictList(candidates, name+"_feedback")
	out.Suggestions = strictList(candidates, name+"_suggestions")

	if n, ok := strictScore(candidates, name+"_score"); ok {
		out.Score = n
		return TierStrict
	}
	if n, ok := heuristicScore(text, name); ok {
		out.Score = n
		return TierHeuristic
	}
	out.Score = resume.ScoreDefault
	out.Feedback = append(out.Feedback, defaultScoreFeedback)
	out.Suggestions = append(out.Suggestions, defaultScoreSuggestions[name])
	return TierDefault
}

// strictScore returns the first in-range value for key across the
// candidates. Out-of-range values are rejected and the scan continues with
// the remaining candidates.
func strictScore(candidates []map[string]any, key string) (int, bool) {
	for _, obj := range candidates {
		v, ok := obj[key]
		if !ok {
			continue
		}
		n, ok := asInt(v)
		if !ok || !resume.ScoreInRange(n) {
			continue
		}
		return n, true
	}
	return 0, false
}

// strictList returns the first non-empty string list for key across the
// candidates.
func strictList(candidates []map[string]any, key string) []string {
	for _, obj := range candidates {
		if items := asStringList(obj[key]); len(items) > 0 {
			return items
		}
	}
	return nil
}

// heuristicScore scans the dimension's zone of the text for score-like
// numeric patterns and returns the first in-range match.
func heuristicScore(text, name string) (int, bool) {
	zone := dimensionZone(text, name)
	if zone == "" {
		return 0, false
	}
	for _, m := range scorePattern.FindAllStringSubmatch(zone, -1) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if resume.ScoreInRange(n) {
			return n, true
		}
	}
	return 0, false
}

// dimensionZone slices the text from the first mention of the dimension to
// the next mention of a sibling dimension, so a "complexity: 4/7" line does
// not feed the context score.
func dimensionZone(text, name string) string {
	lower := strings.ToLower(text)
	start := strings.Index(lower, name)
	if start < 0 {
		return ""
	}
	end := len(text)
	tail := lower[start+len(name):]
	for _, other := range scoreDimensions {
		if other == name {
			continue
		}
		if idx := strings.Index(tail, other); idx >= 0 {
			if pos := start + len(name) + idx; pos < end {
				end = pos
			}
		}
	}
	return text[start:end]
}
