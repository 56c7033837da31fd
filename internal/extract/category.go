package extract

import (
	"strings"

	"github.com/metalagman/starsmith/internal/resume"
)

// Keyword stems per category. Stems keep the match stable across word forms
// ("innovat" covers innovation, innovative, innovated).
var (
	visionKeywords = []string{
		"vision", "strateg", "innovat", "future", "direction", "long-term", "big picture",
	}
	accountabilityKeywords = []string{
		"accountab", "integrity", "ethic", "responsib", "transparen", "compliance", "oversight",
	}
)

// Classify assigns a competency category by keyword presence,
// case-insensitive. The check order is fixed: Vision first, then
// Accountability, then the Results default. The order is the documented
// tie-break policy when a text matches more than one category.
func Classify(text string) resume.Category {
	lower := strings.ToLower(text)
	for _, kw := range visionKeywords {
		if strings.Contains(lower, kw) {
			return resume.CategoryVision
		}
	}
	for _, kw := range accountabilityKeywords {
		if strings.Contains(lower, kw) {
			return resume.CategoryAccountability
		}
	}
	return resume.CategoryResults
}
