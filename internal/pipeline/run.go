// Package pipeline coordinates agent calls over a shared conversation
// transcript. A Run collects turns append-only; a Stage produces exactly
// one turn per successful backend call; the Coordinator sequences stages
// into the scoring, enhancement and feedback steps.
package pipeline

import (
	"errors"
	"strings"
)

// Termination is the lifecycle state of a run.
type Termination int

const (
	// Running accepts appends.
	Running Termination = iota
	// CompletedBySignal means a role emitted the completion marker.
	CompletedBySignal
	// TurnBudgetExhausted means the turn budget was consumed first.
	TurnBudgetExhausted
)

// String returns the wire-stable state label.
func (t Termination) String() string {
	switch t {
	case Running:
		return "running"
	case CompletedBySignal:
		return "completed_by_signal"
	case TurnBudgetExhausted:
		return "turn_budget_exhausted"
	default:
		return "unknown"
	}
}

// ParseTermination maps a stored label back to its state. Unknown labels
// come back as Running so a damaged row is visible rather than silently
// terminal.
func ParseTermination(label string) Termination {
	switch label {
	case "completed_by_signal":
		return CompletedBySignal
	case "turn_budget_exhausted":
		return TurnBudgetExhausted
	default:
		return Running
	}
}

// SpeakerUser labels the officer's seed input when a transcript is
// rendered. It is reserved: agent turns never use it.
const SpeakerUser = "user"

// ErrTerminated is returned by Append once a run has terminated.
var ErrTerminated = errors.New("pipeline run already terminated")

// Turn is one utterance. Ordinal is 1-based and assigned on append.
type Turn struct {
	Speaker string
	Text    string
	Ordinal int
}

// Run is an append-only transcript with a turn budget. The zero budget
// means unlimited; fixed-step runs size the budget to their step count.
type Run struct {
	Seed   string
	Budget int
	Turns  []Turn
	State  Termination
}

// NewRun starts a run over the officer's seed input.
func NewRun(seed string, budget int) *Run {
	return &Run{Seed: seed, Budget: budget}
}

// Append adds one turn and assigns its ordinal. Reaching the budget
// terminates the run; further appends fail with ErrTerminated.
func (r *Run) Append(speaker, text string) (Turn, error) {
	if r.State != Running {
		return Turn{}, ErrTerminated
	}
	turn := Turn{Speaker: speaker, Text: text, Ordinal: len(r.Turns) + 1}
	r.Turns = append(r.Turns, turn)
	if r.Budget > 0 && len(r.Turns) >= r.Budget {
		r.State = TurnBudgetExhausted
	}
	return turn, nil
}

// Complete moves a running run into a terminal state. Calls on an
// already-terminated run are no-ops so the first termination wins.
func (r *Run) Complete(t Termination) {
	if r.State == Running && t != Running {
		r.State = t
	}
}

// CompleteBySignal records that a role signalled completion. It also
// supersedes TurnBudgetExhausted, since a closing signal can land on the
// final budgeted turn and the signal is the stronger statement.
func (r *Run) CompleteBySignal() {
	if r.State == Running || r.State == TurnBudgetExhausted {
		r.State = CompletedBySignal
	}
}

// LastTurn returns the newest turn, or false when none exist yet.
func (r *Run) LastTurn() (Turn, bool) {
	if len(r.Turns) == 0 {
		return Turn{}, false
	}
	return r.Turns[len(r.Turns)-1], true
}

// Transcript renders the run for model input. The seed appears as the
// opening user line; agent turns follow in append order.
func (r *Run) Transcript() string {
	var b strings.Builder
	if strings.TrimSpace(r.Seed) != "" {
		b.WriteString(SpeakerUser)
		b.WriteString(": ")
		b.WriteString(r.Seed)
		b.WriteString("\n\n")
	}
	for _, t := range r.Turns {
		b.WriteString(t.Speaker)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
