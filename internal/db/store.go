// Package db provides sqlite connectivity, migrations and the session
// archive for starsmith.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/metalagman/starsmith/internal/extract"
	"github.com/metalagman/starsmith/internal/pipeline"
	"github.com/metalagman/starsmith/internal/workflow"
)

// Store persists workflow sessions and the runs their steps produce.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an opened archive.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

const sessionColumns = `session_id, created_at, updated_at, state, example, position,
	scores_json, score_tier, draft_json, draft_tier, feedback_json, narrative, review_json`

// SaveSession upserts the session row. Timestamps come from the session
// itself, so a reload sees exactly what the workflow recorded.
func (s *Store) SaveSession(ctx context.Context, sess *workflow.Session) error {
	scoresJSON, err := json.Marshal(sess.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	draftJSON, err := json.Marshal(sess.Draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	feedbackJSON, err := marshalLines(sess.Feedback)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	reviewJSON, err := marshalLines(sess.Review)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions(`+sessionColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			updated_at=excluded.updated_at,
			state=excluded.state,
			example=excluded.example,
			position=excluded.position,
			scores_json=excluded.scores_json,
			score_tier=excluded.score_tier,
			draft_json=excluded.draft_json,
			draft_tier=excluded.draft_tier,
			feedback_json=excluded.feedback_json,
			narrative=excluded.narrative,
			review_json=excluded.review_json`,
		sess.ID,
		sess.CreatedAt.UTC().Format(time.RFC3339),
		sess.UpdatedAt.UTC().Format(time.RFC3339),
		sess.State.String(),
		sess.Example,
		sess.Position,
		string(scoresJSON),
		sess.ScoreTier.String(),
		string(draftJSON),
		sess.DraftTier.String(),
		feedbackJSON,
		nullableString(sess.Narrative),
		reviewJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// GetSession loads one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*workflow.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id=?`, id)
	sess, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, err
	}
	return sess, nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*workflow.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, session_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// DeleteSession removes a session; its runs and turns cascade.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id=?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*workflow.Session, error) {
	var (
		sess                        workflow.Session
		createdAt, updatedAt, state string
		scoreTier, draftTier        string
		scoresJSON, draftJSON       string
		feedbackJSON, reviewJSON    sql.NullString
		narrative                   sql.NullString
	)
	err := row.Scan(&sess.ID, &createdAt, &updatedAt, &state, &sess.Example, &sess.Position,
		&scoresJSON, &scoreTier, &draftJSON, &draftTier, &feedbackJSON, &narrative, &reviewJSON)
	if err != nil {
		return nil, err
	}

	if sess.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if sess.State, err = workflow.ParseState(state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	sess.ScoreTier = extract.ParseTier(scoreTier)
	sess.DraftTier = extract.ParseTier(draftTier)
	if err := json.Unmarshal([]byte(scoresJSON), &sess.Scores); err != nil {
		return nil, fmt.Errorf("parse scores: %w", err)
	}
	if err := json.Unmarshal([]byte(draftJSON), &sess.Draft); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	if sess.Feedback, err = unmarshalLines(feedbackJSON); err != nil {
		return nil, fmt.Errorf("parse feedback: %w", err)
	}
	if sess.Review, err = unmarshalLines(reviewJSON); err != nil {
		return nil, fmt.Errorf("parse review: %w", err)
	}
	sess.Narrative = narrative.String
	return &sess, nil
}

// RunRecord is an archived pipeline run with its turns loaded.
type RunRecord struct {
	ID          int64
	SessionID   string
	Step        string
	CreatedAt   string
	Seed        string
	Budget      int
	Termination pipeline.Termination
	Turns       []pipeline.Turn
}

// SaveRun archives a run and its turns in one transaction.
func (s *Store) SaveRun(ctx context.Context, sessionID, step string, run *pipeline.Run) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO runs(session_id, step, created_at, seed, turn_budget, termination)
		VALUES(?, ?, ?, ?, ?, ?)`,
		sessionID, step, createdAt, run.Seed, run.Budget, run.State.String())
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read run id: %w", err)
	}
	for _, turn := range run.Turns {
		if _, err := tx.ExecContext(ctx, `INSERT INTO turns(run_id, ordinal, speaker, content) VALUES(?, ?, ?, ?)`,
			runID, turn.Ordinal, turn.Speaker, turn.Text); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert turn %d: %w", turn.Ordinal, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}
	return nil
}

// ListRuns returns a session's archived runs in the order they happened.
func (s *Store) ListRuns(ctx context.Context, sessionID string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, session_id, step, created_at, seed, turn_budget, termination
		FROM runs WHERE session_id=? ORDER BY run_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	index := map[int64]int{}
	for rows.Next() {
		var rec RunRecord
		var termination string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Step, &rec.CreatedAt, &rec.Seed, &rec.Budget, &termination); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Termination = pipeline.ParseTermination(termination)
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}

	turnRows, err := s.db.QueryContext(ctx, `SELECT t.run_id, t.ordinal, t.speaker, t.content
		FROM turns t JOIN runs r ON r.run_id = t.run_id
		WHERE r.session_id=? ORDER BY t.run_id, t.ordinal`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer turnRows.Close()

	for turnRows.Next() {
		var runID int64
		var turn pipeline.Turn
		if err := turnRows.Scan(&runID, &turn.Ordinal, &turn.Speaker, &turn.Text); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if i, ok := index[runID]; ok {
			out[i].Turns = append(out[i].Turns, turn)
		}
	}
	if err := turnRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}

func marshalLines(lines []string) (any, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalLines(v sql.NullString) ([]string, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var lines []string
	if err := json.Unmarshal([]byte(v.String), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
