package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/metalagman/starsmith/internal/backend"
	"github.com/metalagman/starsmith/internal/extract"
	"github.com/metalagman/starsmith/internal/resume"
	"github.com/metalagman/starsmith/internal/roles"
)

const officerExample = "During the 2021 floods I coordinated the evacuation of two retirement villages in Gympie and kept all 180 residents safe."

func starJSON(action string) string {
	return `{"header": "2021 / Sergeant / Gympie",` +
		` "situation": "The Mary River broke its banks overnight.",` +
		` "task": "I had to evacuate two retirement villages before dawn.",` +
		` "action": "` + action + `",` +
		` "result": "All 180 residents were relocated with no injuries."}`
}

func TestScoreExample_ExtractsStrictScoresFromScorerTurns(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{script: []string{
		`{"context_score": 6, "context_feedback": ["Setting is clear"], "context_suggestions": []}`,
		`{"complexity_score": 5, "complexity_feedback": [], "complexity_suggestions": ["Name the competing demands"]}`,
		`{"initiative_score": 7, "initiative_feedback": [], "initiative_suggestions": []}`,
	}}
	c := NewCoordinator(gen, 10)

	out, err := c.ScoreExample(context.Background(), officerExample, "Sergeant")
	if err != nil {
		t.Fatalf("ScoreExample returned error: %v", err)
	}

	if out.Result.Context.Score != 6 || out.Result.Complexity.Score != 5 || out.Result.Initiative.Score != 7 {
		t.Fatalf("scores = %d/%d/%d, want 6/5/7",
			out.Result.Context.Score, out.Result.Complexity.Score, out.Result.Initiative.Score)
	}
	if out.Tier != extract.TierStrict {
		t.Fatalf("tier = %v, want TierStrict", out.Tier)
	}
	if len(out.Run.Turns) != 3 {
		t.Fatalf("len(Turns) = %d, want 3", len(out.Run.Turns))
	}

	wantSpeakers := []string{roles.ContextScorer, roles.ComplexityScorer, roles.InitiativeScorer}
	for i, want := range wantSpeakers {
		if out.Run.Turns[i].Speaker != want {
			t.Fatalf("turn %d speaker = %q, want %q", i+1, out.Run.Turns[i].Speaker, want)
		}
	}
}

func TestScoreExample_RejectsOutOfRangePerDimension(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{script: []string{
		`{"context_score": 9, "complexity_score": -1, "initiative_score": 4}`,
		`No further comment from me.`,
		`No further comment from me.`,
	}}
	c := NewCoordinator(gen, 10)

	out, err := c.ScoreExample(context.Background(), officerExample, "Sergeant")
	if err != nil {
		t.Fatalf("ScoreExample returned error: %v", err)
	}

	if out.Result.Context.Score != resume.ScoreDefault {
		t.Fatalf("context = %d, want default %d after rejecting 9", out.Result.Context.Score, resume.ScoreDefault)
	}
	if out.Result.Complexity.Score != resume.ScoreDefault {
		t.Fatalf("complexity = %d, want default %d after rejecting -1", out.Result.Complexity.Score, resume.ScoreDefault)
	}
	if out.Result.Initiative.Score != 4 {
		t.Fatalf("initiative = %d, want 4 kept", out.Result.Initiative.Score)
	}
	if !out.Tier.Degraded() {
		t.Fatalf("tier = %v, want degraded", out.Tier)
	}
	if out.Result.MeetsTarget() {
		t.Fatal("MeetsTarget() = true with defaulted dimensions")
	}
}

func TestScoreExample_StopsOnBackendFailure(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{script: []string{
		`{"context_score": 6}`,
		"ERR:backend",
	}}
	c := NewCoordinator(gen, 10)

	out, err := c.ScoreExample(context.Background(), officerExample, "Sergeant")
	if !errors.Is(err, backend.ErrBackend) {
		t.Fatalf("err = %v, want backend.ErrBackend", err)
	}
	if len(out.Run.Turns) != 1 {
		t.Fatalf("len(Turns) = %d, want the 1 turn completed before the failure", len(out.Run.Turns))
	}
	if gen.callCount() != 2 {
		t.Fatalf("backend called %d times, want 2 (no retry)", gen.callCount())
	}
}

func TestEnhanceExample_RunsWriterReviewerWriter(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{script: []string{
		starJSON("I doorknocked both villages myself."),
		"- The action section needs the staffing detail.",
		starJSON("I doorknocked both villages and rostered 12 SES volunteers in relays."),
	}}
	c := NewCoordinator(gen, 10)

	scores := resume.ScoringResult{
		Context:    resume.DimensionScore{Score: 3, Suggestions: []string{"Name the suburb and the year."}},
		Complexity: resume.DimensionScore{Score: 4},
		Initiative: resume.DimensionScore{Score: 4},
	}

	out, err := c.EnhanceExample(context.Background(), officerExample, "Sergeant", scores)
	if err != nil {
		t.Fatalf("EnhanceExample returned error: %v", err)
	}

	wantSpeakers := []string{roles.STARWriter, roles.QualityReviewer, roles.STARWriter}
	for i, want := range wantSpeakers {
		if out.Run.Turns[i].Speaker != want {
			t.Fatalf("turn %d speaker = %q, want %q", i+1, out.Run.Turns[i].Speaker, want)
		}
	}

	if !strings.Contains(out.Example.Action, "12 SES volunteers") {
		t.Fatalf("example built from wrong draft: %+v", out.Example)
	}
	if out.Tier != extract.TierStrict {
		t.Fatalf("tier = %v, want TierStrict", out.Tier)
	}
	if !out.Example.Complete() {
		t.Fatalf("example incomplete: missing %v", out.Example.EmptyFields())
	}

	seedInput := gen.call(0).Input
	if !strings.Contains(seedInput, "Scoring notes") || !strings.Contains(seedInput, "Name the suburb and the year.") {
		t.Fatalf("writer seed missing scoring notes:\n%s", seedInput)
	}
}

func TestApplyFeedback_EmptyFeedbackIsNoOp(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	c := NewCoordinator(gen, 10)

	example := resume.STARExample{
		Header:    "2021 / Sergeant / Gympie",
		Situation: "Flood",
		Task:      "Evacuate",
		Action:    "Coordinated",
		Result:    "Safe",
		Category:  resume.CategoryResults,
	}

	for _, feedback := range [][]string{nil, {}, {"", "   ", "\t"}} {
		out, err := c.ApplyFeedback(context.Background(), example, feedback)
		if err != nil {
			t.Fatalf("ApplyFeedback(%v) returned error: %v", feedback, err)
		}
		if !out.Skipped {
			t.Fatalf("ApplyFeedback(%v) not skipped", feedback)
		}
		if !reflect.DeepEqual(out.Example, example) {
			t.Fatalf("example changed on no-op:\n got %+v\nwant %+v", out.Example, example)
		}
	}

	if gen.callCount() != 0 {
		t.Fatalf("backend called %d times for empty feedback, want 0", gen.callCount())
	}
}

func TestApplyFeedback_RevisesThroughEditor(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{script: []string{
		starJSON("I doorknocked both villages and briefed the mayor hourly."),
	}}
	c := NewCoordinator(gen, 10)

	example := resume.STARExample{
		Header:    "2021 / Sergeant / Gympie",
		Situation: "Flood",
		Task:      "Evacuate",
		Action:    "Coordinated",
		Result:    "Safe",
		Category:  resume.CategoryResults,
	}

	out, err := c.ApplyFeedback(context.Background(), example, []string{"Mention the council briefings."})
	if err != nil {
		t.Fatalf("ApplyFeedback returned error: %v", err)
	}
	if out.Skipped {
		t.Fatal("ApplyFeedback skipped with real feedback")
	}
	if len(out.Run.Turns) != 1 || out.Run.Turns[0].Speaker != roles.FeedbackEditor {
		t.Fatalf("turns = %+v, want one feedback_editor turn", out.Run.Turns)
	}
	if !strings.Contains(out.Example.Action, "briefed the mayor") {
		t.Fatalf("revision not applied: %+v", out.Example)
	}

	seed := gen.call(0).Input
	if !strings.Contains(seed, "Mention the council briefings.") {
		t.Fatalf("editor seed missing the feedback point:\n%s", seed)
	}
}

func TestFinalizeResume_KeepsPolishWhenReviewFails(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{script: []string{
		starJSON("I led the evacuation personally."),
		"ERR:backend",
	}}
	c := NewCoordinator(gen, 10)

	example := resume.STARExample{
		Header:    "2021 / Sergeant / Gympie",
		Situation: "Flood",
		Task:      "Evacuate",
		Action:    "Coordinated",
		Result:    "Safe",
		Category:  resume.CategoryResults,
	}

	out, err := c.FinalizeResume(context.Background(), example, "Sergeant")
	if !errors.Is(err, backend.ErrBackend) {
		t.Fatalf("err = %v, want backend.ErrBackend", err)
	}
	if out.Narrative == "" {
		t.Fatal("polished narrative lost on review failure")
	}
	if !out.Example.Complete() {
		t.Fatalf("polished example incomplete: missing %v", out.Example.EmptyFields())
	}
}

func TestFinalizeResume_CollectsReviewAndKeepsCategory(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{script: []string{
		starJSON("I set the long-term vision for flood planning."),
		"- Quantify the dollar value of prevented damage.\n- Name the council partners.",
	}}
	c := NewCoordinator(gen, 10)

	example := resume.STARExample{
		Header:    "2021 / Sergeant / Gympie",
		Situation: "Flood",
		Task:      "Evacuate",
		Action:    "Coordinated",
		Result:    "Safe",
		Category:  resume.CategoryResults,
	}

	out, err := c.FinalizeResume(context.Background(), example, "Sergeant")
	if err != nil {
		t.Fatalf("FinalizeResume returned error: %v", err)
	}

	if len(out.Review) != 2 {
		t.Fatalf("Review = %v, want 2 items", out.Review)
	}
	if out.Review[0] != "Quantify the dollar value of prevented damage." {
		t.Fatalf("Review[0] = %q", out.Review[0])
	}
	if !reflect.DeepEqual(out.Example.Improvements, out.Review) {
		t.Fatalf("Improvements = %v, want %v", out.Example.Improvements, out.Review)
	}
	// The polished text now talks about vision, but polishing must not
	// flip the negotiated competency.
	if out.Example.Category != resume.CategoryResults {
		t.Fatalf("category = %q, want Results preserved", out.Example.Category)
	}
}

func TestReviewItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "dashed bullets",
			text: "- First point\n- Second point",
			want: []string{"First point", "Second point"},
		},
		{
			name: "numbered list",
			text: "1. Add numbers\n2) Cut jargon",
			want: []string{"Add numbers", "Cut jargon"},
		},
		{
			name: "prose falls back to one item",
			text: "The result section needs a measurable outcome.",
			want: []string{"The result section needs a measurable outcome."},
		},
		{
			name: "empty text yields nothing",
			text: "   \n  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := reviewItems(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("reviewItems(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
