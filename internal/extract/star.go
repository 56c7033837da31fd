package extract

import (
	"regexp"
	"strings"

	"github.com/metalagman/starsmith/internal/resume"
)

// defaultSTARNote annotates examples synthesized by the default tier.
const defaultSTARNote = "STAR structure could not be recovered; sections were assigned from sentence order and need review."

// sectionLabelPattern matches a STAR section label anywhere in a line, so
// both one-label-per-line and inline "Situation: A. Task: B." output parse.
var sectionLabelPattern = regexp.MustCompile(`(?i)\b(situation|task|action|result)\b\s*:`)

// headerLabelPattern matches an explicit composite header label.
var headerLabelPattern = regexp.MustCompile(`(?i)^(?:year\s*/\s*rank\s*/\s*location|header)\s*:\s*(.+)$`)

// headerShapePattern matches a bare "2019 / Sergeant / Brisbane" style line.
var headerShapePattern = regexp.MustCompile(`^(?:19|20)\d{2}\s*/[^/\n]+/.+$`)

// STAR recovers a STARExample from free-form writer output: an embedded
// JSON object if one parses, else section-label scanning, else sentence
// groups assigned positionally. The category always comes from the keyword
// classifier over the extracted text.
func STAR(text string) (resume.STARExample, Tier) {
	if e, ok := strictSTAR(text); ok {
		e.Category = Classify(exampleText(e))
		return e, TierStrict
	}
	if e, ok := heuristicSTAR(text); ok {
		e.Category = Classify(exampleText(e))
		return e, TierHeuristic
	}
	e := defaultSTAR(text)
	e.Category = Classify(text)
	return e, TierDefault
}

func exampleText(e resume.STARExample) string {
	return strings.Join([]string{e.Header, e.Situation, e.Task, e.Action, e.Result}, "\n")
}

// strictSTAR accepts the first embedded object that carries all four
// narrative sections as strings.
func strictSTAR(text string) (resume.STARExample, bool) {
	for _, obj := range decodeObjects(text) {
		if e, ok := starFromObject(obj); ok {
			return e, true
		}
	}
	return resume.STARExample{}, false
}

func starFromObject(obj map[string]any) (resume.STARExample, bool) {
	var e resume.STARExample
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"situation", &e.Situation},
		{"task", &e.Task},
		{"action", &e.Action},
		{"result", &e.Result},
	} {
		v, ok := obj[f.key].(string)
		if !ok {
			return resume.STARExample{}, false
		}
		*f.dst = strings.TrimSpace(v)
	}
	if h, ok := obj["header"].(string); ok {
		e.Header = strings.TrimSpace(h)
	}
	e.Improvements = asStringList(obj["improvements"])
	return e, true
}

// heuristicSTAR scans line by line. Every label opens its section; text up
// to the next label (on the same line or following lines) accumulates into
// the open section. A composite year/rank/location line becomes the header.
func heuristicSTAR(text string) (resume.STARExample, bool) {
	var e resume.STARExample
	parts := map[string][]string{}
	open := ""

	for _, line := range strings.Split(text, "\n") {
		if e.Header == "" && !sectionLabelPattern.MatchString(line) {
			if h, ok := headerValue(line); ok {
				e.Header = h
				continue
			}
		}

		locs := sectionLabelPattern.FindAllStringSubmatchIndex(line, -1)
		if len(locs) == 0 {
			if open != "" {
				if s := cleanSegment(line); s != "" {
					parts[open] = append(parts[open], s)
				}
			}
			continue
		}

		if open != "" {
			if s := cleanSegment(line[:locs[0][0]]); s != "" {
				parts[open] = append(parts[open], s)
			}
		}
		for i, loc := range locs {
			name := strings.ToLower(line[loc[2]:loc[3]])
			end := len(line)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			open = name
			if s := cleanSegment(line[loc[1]:end]); s != "" {
				parts[name] = append(parts[name], s)
			}
		}
	}

	if len(parts) == 0 {
		return resume.STARExample{}, false
	}
	e.Situation = strings.Join(parts["situation"], "\n")
	e.Task = strings.Join(parts["task"], "\n")
	e.Action = strings.Join(parts["action"], "\n")
	e.Result = strings.Join(parts["result"], "\n")
	return e, true
}

func headerValue(line string) (string, bool) {
	h := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "*#>-• "))
	if m := headerLabelPattern.FindStringSubmatch(h); m != nil {
		return cleanSegment(m[1]), true
	}
	if headerShapePattern.MatchString(h) {
		return strings.Trim(h, "*_ "), true
	}
	return "", false
}

// cleanSegment strips bullet and emphasis decoration around a section
// fragment.
func cleanSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-•> ")
	s = strings.Trim(s, "*_")
	return strings.TrimSpace(s)
}

// defaultSTAR synthesizes a skeleton from unstructured text: naive
// sentences, split into four positional groups. The header is left empty;
// the result always reads as needing review.
func defaultSTAR(text string) resume.STARExample {
	groups := groupSentences(splitSentences(text), 4)
	return resume.STARExample{
		Situation:    groups[0],
		Task:         groups[1],
		Action:       groups[2],
		Result:       groups[3],
		Improvements: []string{defaultSTARNote},
	}
}

// splitSentences splits on ./!/? boundaries, keeping the delimiter.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// groupSentences joins sentences into n contiguous groups, front-loading
// the remainder so early groups are never emptier than later ones.
func groupSentences(sentences []string, n int) []string {
	out := make([]string, n)
	if len(sentences) == 0 {
		return out
	}
	base := len(sentences) / n
	rem := len(sentences) % n
	idx := 0
	for g := 0; g < n; g++ {
		size := base
		if g < rem {
			size++
		}
		if size == 0 {
			continue
		}
		out[g] = strings.Join(sentences[idx:idx+size], " ")
		idx += size
	}
	return out
}
