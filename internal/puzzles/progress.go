package puzzles

import (
	"context"
	"database/sql"
	"time"
)

// SaveProgress upserts the (user, puzzle) progress row.
func (s *Store) SaveProgress(ctx context.Context, p Progress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now().UTC()
	}
	var bestTime sql.NullInt64
	if p.BestTime != nil {
		bestTime = sql.NullInt64{Int64: int64(*p.BestTime / time.Second), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (user_id, puzzle_id, current_level, levels_unlocked, best_score,
		                      best_time_seconds, in_progress_state, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(user_id, puzzle_id) DO UPDATE SET
			current_level=excluded.current_level, levels_unlocked=excluded.levels_unlocked,
			best_score=excluded.best_score, best_time_seconds=excluded.best_time_seconds,
			in_progress_state=excluded.in_progress_state, updated_at=excluded.updated_at`,
		p.UserID, p.PuzzleID, max(p.CurrentLevel, 1), max(p.LevelsUnlocked, 1), p.BestScore,
		bestTime, nullIfEmpty(p.InProgressState), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// RaiseBestScore records score as the best score when it beats the stored one,
// creating the progress row if needed.
func (s *Store) RaiseBestScore(ctx context.Context, userID, puzzleID string, score int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (user_id, puzzle_id, best_score, updated_at)
		VALUES (?,?,?,?)
		ON CONFLICT(user_id, puzzle_id) DO UPDATE SET
			best_score=MAX(best_score, excluded.best_score), updated_at=excluded.updated_at`,
		userID, puzzleID, score, s.now().UTC().Format(time.RFC3339),
	)
	return err
}

// ProgressForUser returns every progress row of a user keyed by puzzle ID.
func (s *Store) ProgressForUser(ctx context.Context, userID string) (map[string]Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT puzzle_id, current_level, levels_unlocked, best_score, best_time_seconds,
		       COALESCE(in_progress_state,''), updated_at
		FROM progress WHERE user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Progress)
	for rows.Next() {
		var (
			p        Progress
			bestTime sql.NullInt64
			updated  string
		)
		if err := rows.Scan(&p.PuzzleID, &p.CurrentLevel, &p.LevelsUnlocked, &p.BestScore,
			&bestTime, &p.InProgressState, &updated); err != nil {
			return nil, err
		}
		p.UserID = userID
		p.UpdatedAt = mustParse(updated)
		if bestTime.Valid {
			d := time.Duration(bestTime.Int64) * time.Second
			p.BestTime = &d
		}
		out[p.PuzzleID] = p
	}
	return out, rows.Err()
}

// RecordPlayed remembers when a user last played a puzzle.
func (s *Store) RecordPlayed(ctx context.Context, userID, puzzleID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO puzzles_played (user_id, puzzle_id, played_at) VALUES (?,?,?)
		ON CONFLICT(user_id, puzzle_id) DO UPDATE SET played_at=excluded.played_at`,
		userID, puzzleID, at.UTC().Format(time.RFC3339))
	return err
}

// PlayedAt returns puzzle ID → last played time for a user.
func (s *Store) PlayedAt(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT puzzle_id, played_at FROM puzzles_played WHERE user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]time.Time)
	for rows.Next() {
		var id, at string
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		out[id] = mustParse(at)
	}
	return out, rows.Err()
}
