// Package workflow tracks a resume session through its lifecycle and
// drives the pipeline steps that move it forward.
package workflow

import (
	"errors"
	"fmt"
)

// State is a session lifecycle stage.
type State int

const (
	// StateInput holds the officer's raw example, nothing run yet.
	StateInput State = iota
	// StateScored has baseline dimension scores.
	StateScored
	// StateEnhanced has a STAR draft ready for feedback.
	StateEnhanced
	// StateFeedbackCollected holds officer feedback awaiting application.
	StateFeedbackCollected
	// StateFinalized is terminal: the narrative is polished and reviewed.
	StateFinalized
)

// String returns the wire-stable state label.
func (s State) String() string {
	switch s {
	case StateInput:
		return "input"
	case StateScored:
		return "scored"
	case StateEnhanced:
		return "enhanced"
	case StateFeedbackCollected:
		return "feedback_collected"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// ParseState maps a stored label back to its state.
func ParseState(label string) (State, error) {
	switch label {
	case "input":
		return StateInput, nil
	case "scored":
		return StateScored, nil
	case "enhanced":
		return StateEnhanced, nil
	case "feedback_collected":
		return StateFeedbackCollected, nil
	case "finalized":
		return StateFinalized, nil
	default:
		return StateInput, fmt.Errorf("unknown workflow state %q", label)
	}
}

// ErrInvalidTransition marks a lifecycle move the state machine forbids.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// transitions is the whole lifecycle. Feedback application re-enters
// StateEnhanced, which is the one permitted loop.
var transitions = map[State][]State{
	StateInput:             {StateScored},
	StateScored:            {StateEnhanced},
	StateEnhanced:          {StateFeedbackCollected},
	StateFeedbackCollected: {StateEnhanced, StateFinalized},
	StateFinalized:         nil,
}

// CanTransition reports whether moving from one state to another is valid.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
