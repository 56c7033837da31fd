package workflow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/metalagman/starsmith/internal/extract"
	"github.com/metalagman/starsmith/internal/resume"
)

// Session is one officer example moving through the lifecycle. Fields
// fill in as steps complete; every field stays valid for its state.
type Session struct {
	ID       string `json:"id"`
	Example  string `json:"example"`
	Position string `json:"position,omitempty"`
	State    State  `json:"state"`

	Scores    resume.ScoringResult `json:"scores"`
	ScoreTier extract.Tier         `json:"score_tier"`

	Draft     resume.STARExample `json:"draft"`
	DraftTier extract.Tier       `json:"draft_tier"`

	Feedback []string `json:"feedback,omitempty"`

	Narrative string   `json:"narrative,omitempty"`
	Review    []string `json:"review,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession opens a session around the officer's raw example text and
// the position they are applying for.
func NewSession(example, position string) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Example:   example,
		Position:  position,
		State:     StateInput,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// advance moves the session to the next state after validating the
// transition. The caller persists the session afterwards.
func (s *Session) advance(to State) error {
	if !CanTransition(s.State, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.State, to)
	}
	s.State = to
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func newSessionID() (string, error) {
	suffix, err := randomHex(3)
	if err != nil {
		return "", err
	}
	ts := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%s-%s", ts, suffix), nil
}

func randomHex(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
