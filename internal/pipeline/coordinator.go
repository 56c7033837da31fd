package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/metalagman/starsmith/internal/backend"
	"github.com/metalagman/starsmith/internal/extract"
	"github.com/metalagman/starsmith/internal/logging"
	"github.com/metalagman/starsmith/internal/resume"
	"github.com/metalagman/starsmith/internal/roles"
	"github.com/rs/zerolog"
)

var scoringRoles = []string{roles.ContextScorer, roles.ComplexityScorer, roles.InitiativeScorer}

// Coordinator sequences stage invocations into the fixed pipeline steps
// and the open-ended negotiation. One coordinator serves many runs.
type Coordinator struct {
	stage  *Stage
	gen    backend.Generator
	budget int
	logger zerolog.Logger

	// OnTurn, when set, observes every appended turn. Interactive
	// frontends use it for progress display.
	OnTurn func(Turn)
}

// NewCoordinator builds a coordinator over one shared generator.
// turnBudget caps negotiation runs; fixed steps size their own budgets.
func NewCoordinator(gen backend.Generator, turnBudget int) *Coordinator {
	return &Coordinator{
		stage:  NewStage(gen),
		gen:    gen,
		budget: turnBudget,
		logger: logging.Component("coordinator"),
	}
}

func (c *Coordinator) invoke(ctx context.Context, role string, run *Run, data roles.PromptData) (Turn, error) {
	turn, err := c.stage.Invoke(ctx, role, run, data)
	if err != nil {
		return Turn{}, err
	}
	if c.OnTurn != nil {
		c.OnTurn(turn)
	}
	return turn, nil
}

// ScoreOutcome couples extracted scores with the run that produced them.
type ScoreOutcome struct {
	Result resume.ScoringResult
	Tier   extract.Tier
	Run    *Run
}

// ScoreExample asks the three dimension scorers for their read on the
// officer's example against the target position. Extraction keeps every
// score in range; unreadable scorer output degrades per dimension
// instead of failing the step.
func (c *Coordinator) ScoreExample(ctx context.Context, example, position string) (ScoreOutcome, error) {
	run := NewRun(example, len(scoringRoles))
	data := roles.PromptData{Position: position, TargetScore: resume.ScoreTarget}

	var combined strings.Builder
	for _, role := range scoringRoles {
		turn, err := c.invoke(ctx, role, run, data)
		if err != nil {
			return ScoreOutcome{Run: run}, err
		}
		combined.WriteString(turn.Text)
		combined.WriteString("\n")
	}

	result, tier := extract.Scores(combined.String())
	c.logger.Info().
		Int("context", result.Context.Score).
		Int("complexity", result.Complexity.Score).
		Int("initiative", result.Initiative.Score).
		Str("extraction", tier.String()).
		Msg("example scored")

	return ScoreOutcome{Result: result, Tier: tier, Run: run}, nil
}

// DraftOutcome is the product of a drafting step.
type DraftOutcome struct {
	Example resume.STARExample
	Tier    extract.Tier
	Skipped bool
	Run     *Run
}

// EnhanceExample turns the example into a STAR draft: the writer drafts,
// the reviewer critiques, the writer revises with the critique in view.
// Scoring feedback, when present, rides along as notes on the seed.
func (c *Coordinator) EnhanceExample(ctx context.Context, example, position string, scores resume.ScoringResult) (DraftOutcome, error) {
	seed := example
	if advice := scoreAdvice(scores); advice != "" {
		seed += "\n\nScoring notes:\n" + advice
	}

	run := NewRun(seed, 3)
	category := extract.Classify(example)
	data := roles.PromptData{
		Position:    position,
		Category:    string(category),
		TargetScore: resume.ScoreTarget,
	}

	if _, err := c.invoke(ctx, roles.STARWriter, run, data); err != nil {
		return DraftOutcome{Run: run}, err
	}
	if _, err := c.invoke(ctx, roles.QualityReviewer, run, data); err != nil {
		return DraftOutcome{Run: run}, err
	}
	final, err := c.invoke(ctx, roles.STARWriter, run, data)
	if err != nil {
		return DraftOutcome{Run: run}, err
	}

	ex, tier := extract.STAR(final.Text)
	return DraftOutcome{Example: ex, Tier: tier, Run: run}, nil
}

// ApplyFeedback revises the example to address the officer's feedback.
// Feedback with no content is a no-op: the example comes back unchanged
// and no backend call is made.
func (c *Coordinator) ApplyFeedback(ctx context.Context, example resume.STARExample, feedback []string) (DraftOutcome, error) {
	points := make([]string, 0, len(feedback))
	for _, f := range feedback {
		if s := strings.TrimSpace(f); s != "" {
			points = append(points, s)
		}
	}
	if len(points) == 0 {
		return DraftOutcome{Example: example, Skipped: true}, nil
	}

	var seed strings.Builder
	seed.WriteString(example.Markdown())
	seed.WriteString("\n\nOfficer feedback:\n")
	for _, p := range points {
		seed.WriteString("- ")
		seed.WriteString(p)
		seed.WriteString("\n")
	}

	run := NewRun(seed.String(), 1)
	data := roles.PromptData{Category: string(example.Category), TargetScore: resume.ScoreTarget}
	turn, err := c.invoke(ctx, roles.FeedbackEditor, run, data)
	if err != nil {
		return DraftOutcome{Run: run}, err
	}

	revised, tier := extract.STAR(turn.Text)
	if revised.Header == "" {
		revised.Header = example.Header
	}
	return DraftOutcome{Example: revised, Tier: tier, Run: run}, nil
}

// FinalOutcome is the finalization product: the polished narrative plus
// the reviewer's closing assessment.
type FinalOutcome struct {
	Narrative string
	Example   resume.STARExample
	Tier      extract.Tier
	Review    []string
	Run       *Run
}

// FinalizeResume polishes the narrative and collects a closing review.
// When the review call fails the polished outcome still comes back
// alongside the error, so completed work survives a late failure.
func (c *Coordinator) FinalizeResume(ctx context.Context, example resume.STARExample, position string) (FinalOutcome, error) {
	run := NewRun(example.Markdown(), 2)
	data := roles.PromptData{
		Position:    position,
		Category:    string(example.Category),
		TargetScore: resume.ScoreTarget,
	}

	polish, err := c.invoke(ctx, roles.LanguagePolisher, run, data)
	if err != nil {
		return FinalOutcome{Run: run}, err
	}

	polished, tier := extract.STAR(polish.Text)
	if polished.Header == "" {
		polished.Header = example.Header
	}
	// The draft's category survives polishing; classification only
	// fills a missing one.
	if example.Category.Valid() {
		polished.Category = example.Category
	}
	out := FinalOutcome{Narrative: polish.Text, Example: polished, Tier: tier, Run: run}

	review, err := c.invoke(ctx, roles.QualityReviewer, run, data)
	if err != nil {
		return out, err
	}
	out.Review = reviewItems(review.Text)
	out.Example.Improvements = out.Review

	return out, nil
}

// scoreAdvice renders per-dimension feedback and suggestions as notes
// for the writer. Dimensions with nothing to say contribute nothing.
func scoreAdvice(s resume.ScoringResult) string {
	var b strings.Builder
	dims := []struct {
		name string
		d    resume.DimensionScore
	}{
		{"context", s.Context},
		{"complexity", s.Complexity},
		{"initiative", s.Initiative},
	}
	for _, dim := range dims {
		for _, f := range dim.d.Feedback {
			fmt.Fprintf(&b, "- %s (%s %d/%d)\n", f, dim.name, dim.d.Score, resume.ScoreMax)
		}
		for _, sg := range dim.d.Suggestions {
			fmt.Fprintf(&b, "- %s\n", sg)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// reviewItems pulls list items from reviewer prose. Text with no list
// markers becomes a single item so the review is never dropped.
func reviewItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		cut := strings.TrimLeft(trimmed, "-*•")
		if cut == trimmed {
			rest := strings.TrimLeft(trimmed, "0123456789")
			if rest == trimmed || (!strings.HasPrefix(rest, ".") && !strings.HasPrefix(rest, ")")) {
				continue
			}
			cut = rest[1:]
		}
		if item := strings.TrimSpace(cut); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}
	return items
}
