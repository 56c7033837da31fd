package db

import (
	"context"
	"fmt"
	"time"

	"github.com/metalagman/starsmith/internal/workflow"
)

// RetentionPolicy controls session cleanup.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
}

// PruneResult summarizes a prune operation.
type PruneResult struct {
	Considered int
	Kept       int
	Deleted    int
}

// PruneSessions deletes old finalized sessions. Sessions still moving
// through the workflow are always kept, as are the KeepLast newest and
// anything touched within KeepDays. A zero policy prunes nothing.
func (s *Store) PruneSessions(ctx context.Context, policy RetentionPolicy, dryRun bool) (PruneResult, error) {
	if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
		return PruneResult{}, nil
	}
	cutoff := time.Time{}
	if policy.KeepDays > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, updated_at, state FROM sessions ORDER BY created_at DESC, session_id DESC`)
	if err != nil {
		return PruneResult{}, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	type sessionRow struct {
		id        string
		updatedAt time.Time
		state     string
		parseErr  error
	}
	var sessions []sessionRow
	for rows.Next() {
		var id, updatedAt, state string
		if err := rows.Scan(&id, &updatedAt, &state); err != nil {
			return PruneResult{}, fmt.Errorf("scan session: %w", err)
		}
		parsed, parseErr := time.Parse(time.RFC3339, updatedAt)
		sessions = append(sessions, sessionRow{id: id, updatedAt: parsed, state: state, parseErr: parseErr})
	}
	if err := rows.Err(); err != nil {
		return PruneResult{}, fmt.Errorf("iterate sessions: %w", err)
	}

	res := PruneResult{Considered: len(sessions)}
	for idx, row := range sessions {
		keep := false
		if row.state != workflow.StateFinalized.String() {
			keep = true
		}
		if !keep && policy.KeepLast > 0 && idx < policy.KeepLast {
			keep = true
		}
		if !keep && policy.KeepDays > 0 {
			if row.parseErr != nil {
				keep = true
			} else if row.updatedAt.After(cutoff) {
				keep = true
			}
		}
		if keep {
			res.Kept++
			continue
		}
		if dryRun {
			res.Deleted++
			continue
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id=?`, row.id); err != nil {
			return res, fmt.Errorf("delete session %s: %w", row.id, err)
		}
		res.Deleted++
	}
	return res, nil
}
