package roles

import (
	"strings"
	"testing"
)

func TestGet_ReturnsEveryCatalogueRole(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		CareerCoach, STARWriter, LanguagePolisher, QualityReviewer,
		ContextScorer, ComplexityScorer, InitiativeScorer, FeedbackEditor,
	} {
		r := Get(name)
		if r == nil {
			t.Fatalf("Get(%q) = nil, want role", name)
		}
		if r.Name() != name {
			t.Fatalf("Name() = %q, want %q", r.Name(), name)
		}
		if r.Description() == "" {
			t.Fatalf("role %q has no description", name)
		}
	}
}

func TestGet_ReturnsNilOutsideCatalogue(t *testing.T) {
	t.Parallel()

	if r := Get("shift_supervisor"); r != nil {
		t.Fatalf("Get returned %v for unknown role, want nil", r)
	}
}

func TestNames_CoversExactlyTheCatalogue(t *testing.T) {
	t.Parallel()

	names := Names()
	if len(names) != 8 {
		t.Fatalf("len(Names()) = %d, want 8", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names() not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestNegotiators_ExcludesScorersAndEditor(t *testing.T) {
	t.Parallel()

	got := Negotiators()
	want := []string{CareerCoach, STARWriter, LanguagePolisher, QualityReviewer}
	if len(got) != len(want) {
		t.Fatalf("Negotiators() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Negotiators()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInstructions_RendersPromptData(t *testing.T) {
	t.Parallel()

	coach := Get(CareerCoach)
	out, err := coach.Instructions(PromptData{
		Position:    "Senior Sergeant",
		Category:    "Vision",
		TargetScore: 4,
		DoneMarker:  "RESUME_COMPLETE",
	})
	if err != nil {
		t.Fatalf("Instructions returned error: %v", err)
	}
	for _, want := range []string{"Senior Sergeant", "Vision", "4 or higher", "RESUME_COMPLETE", "career coach"} {
		if !strings.Contains(out, want) {
			t.Fatalf("instructions missing %q:\n%s", want, out)
		}
	}
}

func TestInstructions_OmitsUnsetOptionalLines(t *testing.T) {
	t.Parallel()

	writer := Get(STARWriter)
	out, err := writer.Instructions(PromptData{})
	if err != nil {
		t.Fatalf("Instructions returned error: %v", err)
	}
	if strings.Contains(out, "applying for the position") {
		t.Fatalf("instructions mention a position with none set:\n%s", out)
	}
	if strings.Contains(out, "Target competency") {
		t.Fatalf("instructions mention a competency with none set:\n%s", out)
	}
	if strings.Contains(out, "RESUME_COMPLETE") {
		t.Fatalf("instructions mention a done marker with none set:\n%s", out)
	}
}

func TestInstructions_ScorersDemandTheirOwnJSONKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role string
		key  string
	}{
		{ContextScorer, "context_score"},
		{ComplexityScorer, "complexity_score"},
		{InitiativeScorer, "initiative_score"},
	}

	for _, tt := range tests {
		out, err := Get(tt.role).Instructions(PromptData{TargetScore: 4})
		if err != nil {
			t.Fatalf("Instructions(%s) returned error: %v", tt.role, err)
		}
		if !strings.Contains(out, tt.key) {
			t.Fatalf("%s instructions missing %q:\n%s", tt.role, tt.key, out)
		}
	}
}
