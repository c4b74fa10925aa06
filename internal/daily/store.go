package daily

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

// CurrentID is the row ID of the one stored challenge.
const CurrentID = "current"

// Payload is the JSON document a generated challenge consists of.
type Payload struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Mastermind  mastermind.Configuration `json:"mastermindConfig"`
}

// Challenge is a stored, generated daily challenge.
type Challenge struct {
	ID        string
	Prompt    string
	RawJSON   string
	Model     string
	CreatedAt time.Time
	CreatedBy string
	Payload   Payload // decoded and normalised from RawJSON by Latest
}

// PuzzleID is the identifier progress and results use for this challenge.
func (c *Challenge) PuzzleID() string {
	return fmt.Sprintf("%s_%d", c.ID, c.CreatedAt.Unix())
}

// ExpiresAt is CreatedAt plus Lifetime.
func (c *Challenge) ExpiresAt() time.Time { return c.CreatedAt.Add(Lifetime) }

// Result is a finished daily game. Losses are stored so the date stays
// locked, but only wins appear on the leaderboard.
type Result struct {
	UserID    string `json:"-"`
	Date      string `json:"date"`
	PuzzleID  string `json:"puzzleId"`
	Won       bool   `json:"won"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int    `json:"elapsedMs"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Replace deletes every previous challenge and stores c as the current one,
// in a single transaction.
func (s *Store) Replace(ctx context.Context, c Challenge) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_challenges`); err != nil {
		return err
	}
	var createdBy sql.NullString
	if c.CreatedBy != "" {
		createdBy = sql.NullString{String: c.CreatedBy, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO daily_challenges(id, prompt, raw_json, model, created_at, created_by)
VALUES(?,?,?,?,?,?)`,
		CurrentID, c.Prompt, c.RawJSON, c.Model, c.CreatedAt.UTC().Format(time.RFC3339), createdBy,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Latest returns the most recent challenge, or nil when none is stored or its
// payload is unusable (bad JSON, no colors, no code, invalid after Normalize).
func (s *Store) Latest(ctx context.Context) (*Challenge, error) {
	var (
		c         Challenge
		createdAt string
		createdBy sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, prompt, raw_json, model, created_at, created_by
FROM daily_challenges ORDER BY created_at DESC LIMIT 1`,
	).Scan(&c.ID, &c.Prompt, &c.RawJSON, &c.Model, &createdAt, &createdBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.CreatedBy = createdBy.String

	var p Payload
	if err := json.Unmarshal([]byte(c.RawJSON), &p); err != nil {
		return nil, nil
	}
	if len(p.Mastermind.Palette) == 0 || len(p.Mastermind.Code) == 0 {
		return nil, nil
	}
	p.Mastermind = mastermind.Normalize(p.Mastermind)
	if p.Mastermind.Validate() != nil {
		return nil, nil
	}
	if p.Title == "" {
		p.Title = "Daily Mastermind"
	}
	if p.Description == "" {
		p.Description = "AI-generated Mastermind challenge"
	}
	c.Payload = p
	return &c, nil
}

// AlreadyPlayed reports whether the player finished a daily game on date,
// won or lost.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records a finished daily game; a second result for the same
// (user, date) is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, puzzle_id, won, guesses, elapsed_ms)
VALUES(?,?,?,?,?,?)`, r.UserID, r.Date, r.PuzzleID, r.Won, r.Guesses, r.ElapsedMs,
	)
	return err
}

// LBRow is a leaderboard line. Players are shown by username, guests as
// "Guest"; IDs stay server side.
type LBRow struct {
	UserID    string `json:"-"`
	Player    string `json:"player"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard ranks a date's wins by guesses, then time, then arrival.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.user_id, COALESCE(u.username, 'Guest'), r.guesses, r.elapsed_ms
FROM daily_results r
LEFT JOIN users u ON u.id = r.user_id
WHERE r.date=? AND r.won=1
ORDER BY r.guesses ASC, r.elapsed_ms ASC, r.created_at ASC
LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Player, &r.Guesses, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
