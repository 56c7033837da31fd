package db

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/metalagman/starsmith/internal/extract"
	"github.com/metalagman/starsmith/internal/pipeline"
	"github.com/metalagman/starsmith/internal/resume"
	"github.com/metalagman/starsmith/internal/workflow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "starsmith.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return NewStore(database)
}

func testSession(id string, state workflow.State, created time.Time) *workflow.Session {
	return &workflow.Session{
		ID:        id,
		Example:   "I coordinated the evacuation of two retirement villages during the 2021 floods.",
		Position:  "Senior Sergeant",
		State:     state,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestStore_SaveAndGetSession(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 9, 8, 15, 0, 0, time.UTC)

	sess := testSession("20260309-081500-a1b2c3", workflow.StateInput, created)
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}

	// Second save is an update, not a duplicate row.
	sess.State = workflow.StateScored
	sess.UpdatedAt = created.Add(2 * time.Minute)
	sess.Scores = resume.ScoringResult{
		Context:    resume.DimensionScore{Score: 6, Feedback: []string{"Setting is clear"}},
		Complexity: resume.DimensionScore{Score: 5},
		Initiative: resume.DimensionScore{Score: 4, Suggestions: []string{"Name what you did unprompted"}},
	}
	sess.ScoreTier = extract.TierHeuristic
	sess.Draft = resume.STARExample{
		Header:    "2021 / Sergeant / Gympie",
		Situation: "The Mary River broke its banks overnight.",
		Task:      "Evacuate two retirement villages before dawn.",
		Action:    "I coordinated SES crews and provider staff.",
		Result:    "All 180 residents were relocated safely.",
		Category:  resume.CategoryResults,
	}
	sess.Feedback = []string{"Mention the SES by name."}
	sess.Review = []string{"Quantify the door knocks."}
	sess.Narrative = "## Situation\n..."
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatalf("second SaveSession returned error: %v", err)
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if got.State != workflow.StateScored {
		t.Fatalf("state = %v, want StateScored", got.State)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created.Add(2*time.Minute)) {
		t.Fatalf("timestamps not preserved: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
	if got.ScoreTier != extract.TierHeuristic {
		t.Fatalf("score tier = %v, want heuristic", got.ScoreTier)
	}
	if !reflect.DeepEqual(got.Scores, sess.Scores) {
		t.Fatalf("scores = %+v, want %+v", got.Scores, sess.Scores)
	}
	if !reflect.DeepEqual(got.Draft, sess.Draft) {
		t.Fatalf("draft = %+v, want %+v", got.Draft, sess.Draft)
	}
	if !reflect.DeepEqual(got.Feedback, sess.Feedback) || !reflect.DeepEqual(got.Review, sess.Review) {
		t.Fatalf("feedback/review not preserved: %v / %v", got.Feedback, got.Review)
	}
	if got.Narrative != sess.Narrative {
		t.Fatalf("narrative = %q, want %q", got.Narrative, sess.Narrative)
	}

	all, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions returned error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ListSessions returned %d rows, want 1", len(all))
	}
}

func TestStore_GetSessionNotFound(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, err := store.GetSession(context.Background(), "nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestStore_ListSessionsNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"s-old", "s-mid", "s-new"} {
		sess := testSession(id, workflow.StateInput, base.Add(time.Duration(i)*time.Hour))
		if err := store.SaveSession(ctx, sess); err != nil {
			t.Fatalf("SaveSession(%s) returned error: %v", id, err)
		}
	}

	all, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions returned error: %v", err)
	}
	var ids []string
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	want := []string{"s-new", "s-mid", "s-old"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}

func TestStore_SaveRunPersistsTurns(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	sess := testSession("s-1", workflow.StateInput, time.Now().UTC())
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}

	run := pipeline.NewRun("seed text", 2)
	if _, err := run.Append("context_scorer", `{"context_score": 5}`); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if _, err := run.Append("complexity_scorer", `{"complexity_score": 4}`); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if err := store.SaveRun(ctx, sess.ID, workflow.StepScore, run); err != nil {
		t.Fatalf("SaveRun returned error: %v", err)
	}

	recs, err := store.ListRuns(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("ListRuns returned %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Step != workflow.StepScore || rec.Seed != "seed text" || rec.Budget != 2 {
		t.Fatalf("record = %+v, want score step with seed and budget", rec)
	}
	if rec.Termination != pipeline.TurnBudgetExhausted {
		t.Fatalf("termination = %v, want TurnBudgetExhausted", rec.Termination)
	}
	if len(rec.Turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(rec.Turns))
	}
	if rec.Turns[0].Ordinal != 1 || rec.Turns[0].Speaker != "context_scorer" {
		t.Fatalf("first turn = %+v", rec.Turns[0])
	}
	if rec.Turns[1].Ordinal != 2 || rec.Turns[1].Speaker != "complexity_scorer" {
		t.Fatalf("second turn = %+v", rec.Turns[1])
	}
}

func TestStore_DeleteSessionCascades(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	sess := testSession("s-del", workflow.StateInput, time.Now().UTC())
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}
	run := pipeline.NewRun("seed", 1)
	if _, err := run.Append("career_coach", "question"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if err := store.SaveRun(ctx, sess.ID, workflow.StepNegotiate, run); err != nil {
		t.Fatalf("SaveRun returned error: %v", err)
	}

	if err := store.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession returned error: %v", err)
	}
	if _, err := store.GetSession(ctx, sess.ID); err == nil {
		t.Fatal("deleted session still readable")
	}
	recs, err := store.ListRuns(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("runs survived session delete: %d", len(recs))
	}

	var orphans int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM turns`).Scan(&orphans); err != nil {
		t.Fatalf("count turns: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("%d orphaned turns after cascade", orphans)
	}

	if err := store.DeleteSession(ctx, "missing"); err == nil {
		t.Fatal("DeleteSession accepted an unknown id")
	}
}

func TestStore_PruneSessionsKeepLast(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Oldest session is still in progress and must survive any policy.
	inProgress := testSession("s-open", workflow.StateEnhanced, base)
	if err := store.SaveSession(ctx, inProgress); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}
	for i := 1; i <= 4; i++ {
		sess := testSession(fmt.Sprintf("s-done-%d", i), workflow.StateFinalized, base.Add(time.Duration(i)*time.Hour))
		if err := store.SaveSession(ctx, sess); err != nil {
			t.Fatalf("SaveSession returned error: %v", err)
		}
	}

	policy := RetentionPolicy{KeepLast: 2}

	dry, err := store.PruneSessions(ctx, policy, true)
	if err != nil {
		t.Fatalf("dry-run PruneSessions returned error: %v", err)
	}
	if dry.Considered != 5 || dry.Deleted != 2 || dry.Kept != 3 {
		t.Fatalf("dry run = %+v, want considered 5, kept 3, deleted 2", dry)
	}
	if all, _ := store.ListSessions(ctx); len(all) != 5 {
		t.Fatalf("dry run removed rows: %d left", len(all))
	}

	res, err := store.PruneSessions(ctx, policy, false)
	if err != nil {
		t.Fatalf("PruneSessions returned error: %v", err)
	}
	if res.Deleted != 2 {
		t.Fatalf("deleted = %d, want 2", res.Deleted)
	}
	all, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions returned error: %v", err)
	}
	var ids []string
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	want := []string{"s-done-4", "s-done-3", "s-open"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("survivors = %v, want %v", ids, want)
	}
}

func TestStore_PruneSessionsKeepDays(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	recent := testSession("s-recent", workflow.StateFinalized, now.Add(-24*time.Hour))
	stale := testSession("s-stale", workflow.StateFinalized, now.Add(-45*24*time.Hour))
	for _, sess := range []*workflow.Session{recent, stale} {
		if err := store.SaveSession(ctx, sess); err != nil {
			t.Fatalf("SaveSession returned error: %v", err)
		}
	}

	res, err := store.PruneSessions(ctx, RetentionPolicy{KeepDays: 7}, false)
	if err != nil {
		t.Fatalf("PruneSessions returned error: %v", err)
	}
	if res.Deleted != 1 || res.Kept != 1 {
		t.Fatalf("result = %+v, want one kept, one deleted", res)
	}
	if _, err := store.GetSession(ctx, "s-recent"); err != nil {
		t.Fatalf("recent session pruned: %v", err)
	}
	if _, err := store.GetSession(ctx, "s-stale"); err == nil {
		t.Fatal("stale session survived")
	}
}

func TestStore_PruneSessionsZeroPolicyIsNoOp(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	sess := testSession("s-1", workflow.StateFinalized, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}

	res, err := store.PruneSessions(ctx, RetentionPolicy{}, false)
	if err != nil {
		t.Fatalf("PruneSessions returned error: %v", err)
	}
	if res.Considered != 0 || res.Deleted != 0 {
		t.Fatalf("zero policy touched sessions: %+v", res)
	}
	if _, err := store.GetSession(ctx, "s-1"); err != nil {
		t.Fatalf("session pruned under zero policy: %v", err)
	}
}
