package pipeline

import (
	"context"
	"fmt"

	"github.com/metalagman/starsmith/internal/backend"
	"github.com/metalagman/starsmith/internal/logging"
	"github.com/metalagman/starsmith/internal/roles"
	"github.com/rs/zerolog"
)

// Stage sends one role invocation to the backend. It never retries: a
// failed call leaves the run untouched and surfaces the failure class,
// so retry policy stays with the caller.
type Stage struct {
	gen    backend.Generator
	logger zerolog.Logger
}

// NewStage wraps a generator for single-turn invocations.
func NewStage(gen backend.Generator) *Stage {
	return &Stage{gen: gen, logger: logging.Component("pipeline")}
}

// Invoke asks role to speak next in run. On success exactly one turn is
// appended and returned. On backend failure nothing is appended and the
// error matches backend.ErrBackend or backend.ErrTimeout. A terminated
// run fails with ErrTerminated before any backend call is made.
func (s *Stage) Invoke(ctx context.Context, role string, run *Run, data roles.PromptData) (Turn, error) {
	r := roles.Get(role)
	if r == nil {
		return Turn{}, fmt.Errorf("unknown role %q", role)
	}
	if run.State != Running {
		return Turn{}, fmt.Errorf("invoke %s: %w", role, ErrTerminated)
	}

	instructions, err := r.Instructions(data)
	if err != nil {
		return Turn{}, fmt.Errorf("render %s instructions: %w", role, err)
	}

	out, err := s.gen.Generate(ctx, backend.Request{
		Instructions: instructions,
		Input:        run.Transcript(),
	})
	if err != nil {
		return Turn{}, fmt.Errorf("invoke %s: %w", role, backend.Classify(err))
	}

	turn, err := run.Append(role, out)
	if err != nil {
		return Turn{}, fmt.Errorf("append %s turn: %w", role, err)
	}

	s.logger.Debug().
		Str("role", role).
		Int("ordinal", turn.Ordinal).
		Int("chars", len(turn.Text)).
		Msg("turn appended")

	return turn, nil
}
