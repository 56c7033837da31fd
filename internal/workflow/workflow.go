package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/metalagman/starsmith/internal/extract"
	"github.com/metalagman/starsmith/internal/logging"
	"github.com/metalagman/starsmith/internal/pipeline"
	"github.com/rs/zerolog"
)

// Step names runs are archived under.
const (
	StepScore     = "score"
	StepEnhance   = "enhance"
	StepFeedback  = "feedback"
	StepFinalize  = "finalize"
	StepNegotiate = "negotiate"
)

// Store persists sessions and the pipeline runs their steps produce.
type Store interface {
	SaveSession(ctx context.Context, s *Session) error
	SaveRun(ctx context.Context, sessionID, step string, run *pipeline.Run) error
}

// Workflow drives sessions through the lifecycle one step at a time.
// Every step validates the session state before spending backend calls,
// archives the run it produced even when the step fails, and persists
// the session only after the step succeeds. Steps are independently
// retryable: a failed step leaves the session state untouched.
type Workflow struct {
	coord  *pipeline.Coordinator
	store  Store
	logger zerolog.Logger
}

// New builds a workflow over a coordinator and a store.
func New(coord *pipeline.Coordinator, store Store) *Workflow {
	return &Workflow{
		coord:  coord,
		store:  store,
		logger: logging.Component("workflow"),
	}
}

// Open creates and persists a fresh session for an officer's example.
func (w *Workflow) Open(ctx context.Context, example, position string) (*Session, error) {
	s, err := NewSession(example, position)
	if err != nil {
		return nil, err
	}
	if err := w.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	w.logger.Info().Str("session_id", s.ID).Msg("session opened")
	return s, nil
}

// Score runs baseline scoring and moves the session to StateScored.
func (w *Workflow) Score(ctx context.Context, s *Session) error {
	if err := stepGuard(s, StateInput, StepScore); err != nil {
		return err
	}
	out, err := w.coord.ScoreExample(ctx, s.Example, s.Position)
	w.archiveRun(ctx, s.ID, StepScore, out.Run)
	if err != nil {
		return err
	}
	s.Scores = out.Result
	s.ScoreTier = out.Tier
	return w.advanceAndSave(ctx, s, StateScored)
}

// Enhance drafts the STAR narrative and moves the session to
// StateEnhanced.
func (w *Workflow) Enhance(ctx context.Context, s *Session) error {
	if err := stepGuard(s, StateScored, StepEnhance); err != nil {
		return err
	}
	out, err := w.coord.EnhanceExample(ctx, s.Example, s.Position, s.Scores)
	w.archiveRun(ctx, s.ID, StepEnhance, out.Run)
	if err != nil {
		return err
	}
	s.Draft = out.Example
	s.DraftTier = out.Tier
	w.warnDegraded(s, out.Tier)
	return w.advanceAndSave(ctx, s, StateEnhanced)
}

// CollectFeedback records the officer's feedback lines and moves the
// session to StateFeedbackCollected. Blank lines are dropped, so the
// recorded feedback may end up empty; ApplyFeedback then becomes a pure
// state move.
func (w *Workflow) CollectFeedback(ctx context.Context, s *Session, feedback []string) error {
	if err := stepGuard(s, StateEnhanced, StepFeedback); err != nil {
		return err
	}
	s.Feedback = nil
	for _, f := range feedback {
		if t := strings.TrimSpace(f); t != "" {
			s.Feedback = append(s.Feedback, t)
		}
	}
	return w.advanceAndSave(ctx, s, StateFeedbackCollected)
}

// ApplyFeedback revises the draft to address the collected feedback and
// loops the session back to StateEnhanced. With no feedback on file the
// draft stays untouched and no backend call is made. Feedback is
// consumed either way.
func (w *Workflow) ApplyFeedback(ctx context.Context, s *Session) error {
	if err := stepGuard(s, StateFeedbackCollected, StepFeedback); err != nil {
		return err
	}
	out, err := w.coord.ApplyFeedback(ctx, s.Draft, s.Feedback)
	w.archiveRun(ctx, s.ID, StepFeedback, out.Run)
	if err != nil {
		return err
	}
	if !out.Skipped {
		s.Draft = out.Example
		s.DraftTier = out.Tier
		w.warnDegraded(s, out.Tier)
	}
	s.Feedback = nil
	return w.advanceAndSave(ctx, s, StateEnhanced)
}

// Finalize polishes the draft, collects the closing review and moves
// the session to its terminal state.
func (w *Workflow) Finalize(ctx context.Context, s *Session) error {
	if err := stepGuard(s, StateFeedbackCollected, StepFinalize); err != nil {
		return err
	}
	out, err := w.coord.FinalizeResume(ctx, s.Draft, s.Position)
	w.archiveRun(ctx, s.ID, StepFinalize, out.Run)
	if err != nil {
		return err
	}
	s.Narrative = out.Narrative
	s.Draft = out.Example
	s.DraftTier = out.Tier
	s.Review = out.Review
	w.warnDegraded(s, out.Tier)
	return w.advanceAndSave(ctx, s, StateFinalized)
}

// Negotiate runs the open-ended resume team conversation over the
// session's example. The run is archived but the session state does not
// move: negotiation explores the example, the fixed steps remain the
// path to a finalized narrative.
func (w *Workflow) Negotiate(ctx context.Context, s *Session, team []string, turnBudget int) (*pipeline.Run, error) {
	task := s.Example
	if s.Position != "" {
		task = "Position applied for: " + s.Position + "\n\n" + task
	}
	run, err := w.coord.RunNegotiation(ctx, task, team, turnBudget)
	w.archiveRun(ctx, s.ID, StepNegotiate, run)
	return run, err
}

func stepGuard(s *Session, from State, step string) error {
	if s.State != from {
		return fmt.Errorf("%w: %s needs a session in state %s, got %s",
			ErrInvalidTransition, step, from, s.State)
	}
	return nil
}

func (w *Workflow) advanceAndSave(ctx context.Context, s *Session, to State) error {
	if err := s.advance(to); err != nil {
		return err
	}
	if err := w.store.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	w.logger.Info().
		Str("session_id", s.ID).
		Str("state", s.State.String()).
		Msg("session advanced")
	return nil
}

// archiveRun stores a step's run for later inspection. Archiving is
// secondary to the step result, so failures are logged, not returned.
func (w *Workflow) archiveRun(ctx context.Context, sessionID, step string, run *pipeline.Run) {
	if run == nil {
		return
	}
	if err := w.store.SaveRun(ctx, sessionID, step, run); err != nil {
		w.logger.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("step", step).
			Msg("run not archived")
	}
}

func (w *Workflow) warnDegraded(s *Session, tier extract.Tier) {
	if tier.Degraded() {
		w.logger.Warn().
			Str("session_id", s.ID).
			Str("extraction", tier.String()).
			Msg("extraction degraded, review the draft before relying on it")
	}
}
