package roles

import _ "embed"

//go:embed prompts/common.gotmpl
var commonPromptTemplate string

//go:embed prompts/career_coach.gotmpl
var careerCoachTemplate string

//go:embed prompts/star_writer.gotmpl
var starWriterTemplate string

//go:embed prompts/language_polisher.gotmpl
var languagePolisherTemplate string

//go:embed prompts/quality_reviewer.gotmpl
var qualityReviewerTemplate string

//go:embed prompts/context_scorer.gotmpl
var contextScorerTemplate string

//go:embed prompts/complexity_scorer.gotmpl
var complexityScorerTemplate string

//go:embed prompts/initiative_scorer.gotmpl
var initiativeScorerTemplate string

//go:embed prompts/feedback_editor.gotmpl
var feedbackEditorTemplate string
