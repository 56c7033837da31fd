// Package roles defines the closed catalogue of agent roles that take part
// in resume pipelines. The catalogue is fixed at init; roles carry prompt
// templates and descriptions, never mutable state, so a *Role is safe to
// share across concurrent runs.
package roles

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"text/template"
)

// Role names. These are wire-stable: they appear as conversation turn
// speakers in stored sessions.
const (
	CareerCoach      = "career_coach"
	STARWriter       = "star_writer"
	LanguagePolisher = "language_polisher"
	QualityReviewer  = "quality_reviewer"
	ContextScorer    = "context_scorer"
	ComplexityScorer = "complexity_scorer"
	InitiativeScorer = "initiative_scorer"
	FeedbackEditor   = "feedback_editor"
)

var (
	registry = make(map[string]*Role)
	initOnce sync.Once
)

func initializeRoles() {
	initOnce.Do(registerDefaultRoles)
}

func mustRegister(r *Role) {
	if _, dup := registry[r.name]; dup {
		panic("roles: duplicate role " + r.name)
	}
	registry[r.name] = r
}

func registerDefaultRoles() {
	mustRegister(newRole(CareerCoach, "career coach",
		"leads the conversation, draws out missing facts and decides when the example is ready",
		careerCoachTemplate))
	mustRegister(newRole(STARWriter, "resume writer",
		"drafts and redrafts the STAR narrative from facts in the conversation",
		starWriterTemplate))
	mustRegister(newRole(LanguagePolisher, "language editor",
		"tightens wording and fixes grammar without changing facts",
		languagePolisherTemplate))
	mustRegister(newRole(QualityReviewer, "quality reviewer",
		"critiques drafts against the competency framework and lists improvements",
		qualityReviewerTemplate))
	mustRegister(newRole(ContextScorer, "context scorer",
		"scores how clearly the example establishes setting, stakeholders and the officer's part",
		contextScorerTemplate))
	mustRegister(newRole(ComplexityScorer, "complexity scorer",
		"scores the difficulty and ambiguity of the situation handled",
		complexityScorerTemplate))
	mustRegister(newRole(InitiativeScorer, "initiative scorer",
		"scores how much the officer acted beyond direction",
		initiativeScorerTemplate))
	mustRegister(newRole(FeedbackEditor, "feedback editor",
		"revises the narrative to address reviewer and officer feedback",
		feedbackEditorTemplate))
}

// Role is one named participant in the pipeline.
type Role struct {
	name        string
	title       string
	description string
	baseTmpl    *template.Template
	roleTmpl    *template.Template
}

func newRole(name, title, description, roleTmplStr string) *Role {
	baseTmpl := template.Must(template.New(name + "-base").Parse(commonPromptTemplate))
	roleTmpl := template.Must(template.New(name).Parse(roleTmplStr))
	return &Role{
		name:        name,
		title:       title,
		description: description,
		baseTmpl:    baseTmpl,
		roleTmpl:    roleTmpl,
	}
}

// Name returns the stable role name.
func (r *Role) Name() string { return r.name }

// Description returns a one-line summary used in speaker rosters.
func (r *Role) Description() string { return r.description }

// PromptData feeds role prompt templates. Zero-value fields render as
// absent lines, so callers set only what the call needs.
type PromptData struct {
	// Position is the role the officer is applying for.
	Position string
	// Category is the target competency, when already classified.
	Category string
	// TargetScore is the minimum acceptable dimension score.
	TargetScore int
	// DoneMarker, when set, tells conversational roles how to signal
	// that the negotiation is finished.
	DoneMarker string
}

// Instructions renders the role's system prompt.
func (r *Role) Instructions(d PromptData) (string, error) {
	var baseBuf bytes.Buffer
	if err := r.baseTmpl.Execute(&baseBuf, struct {
		PromptData
		Title string
	}{d, r.title}); err != nil {
		return "", fmt.Errorf("execute base prompt template: %w", err)
	}

	data := struct {
		PromptData
		CommonPrompt string
	}{d, baseBuf.String()}

	var buf bytes.Buffer
	if err := r.roleTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// Get returns the role by name, or nil for names outside the catalogue.
func Get(name string) *Role {
	initializeRoles()
	return registry[name]
}

// Names returns all role names, sorted.
func Names() []string {
	initializeRoles()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Negotiators returns the conversational roles eligible to speak during
// open-ended negotiation, in round-robin fallback order. Scorers and the
// feedback editor only speak in fixed pipeline steps.
func Negotiators() []string {
	return []string{CareerCoach, STARWriter, LanguagePolisher, QualityReviewer}
}
