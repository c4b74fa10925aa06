package puzzles

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
)

// DefaultLeaderboardLimit is the number of rows kept per puzzle.
const DefaultLeaderboardLimit = 20

// SubmitScore appends a leaderboard entry.
func (s *Store) SubmitScore(ctx context.Context, e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard (puzzle_id, player_name, user_id, score, recorded_at)
		VALUES (?,?,?,?,?)`,
		e.PuzzleID, e.PlayerName, nullIfEmpty(e.UserID), e.Score, e.RecordedAt.UTC().Format(time.RFC3339))
	return err
}

// Top returns the best entries of one puzzle, highest score first; ties go
// to the earlier entry.
func (s *Store) Top(ctx context.Context, puzzleID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT puzzle_id, player_name, COALESCE(user_id,''), score, recorded_at
		FROM leaderboard WHERE puzzle_id=?
		ORDER BY score DESC, recorded_at ASC, id ASC
		LIMIT ?`, puzzleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows, limit)
}

// Leaderboard returns every puzzle's top entries keyed by puzzle ID.
func (s *Store) Leaderboard(ctx context.Context, limit int) (map[string][]Entry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT puzzle_id, player_name, COALESCE(user_id,''), score, recorded_at
		FROM leaderboard`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	all, err := scanEntries(rows, 0)
	if err != nil {
		return nil, err
	}

	grouped := lo.GroupBy(all, func(e Entry) string { return e.PuzzleID })
	return lo.MapValues(grouped, func(list []Entry, _ string) []Entry {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Score != list[j].Score {
				return list[i].Score > list[j].Score
			}
			return list[i].RecordedAt.Before(list[j].RecordedAt)
		})
		return lo.Subset(list, 0, uint(limit))
	}), nil
}

type rowScanner interface {
	scanner
	Next() bool
	Err() error
}

func scanEntries(rows rowScanner, capHint int) ([]Entry, error) {
	out := make([]Entry, 0, capHint)
	for rows.Next() {
		var (
			e  Entry
			at string
		)
		if err := rows.Scan(&e.PuzzleID, &e.PlayerName, &e.UserID, &e.Score, &at); err != nil {
			return nil, err
		}
		e.RecordedAt = mustParse(at)
		out = append(out, e)
	}
	return out, rows.Err()
}
