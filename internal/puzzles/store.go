// internal/puzzles/store.go
//
// SQLite-backed puzzle library.
// Responsibilities:
//   - Save (upsert), Get, List and Delete puzzle descriptors.
//   - Store Mastermind configurations as JSON next to the descriptor.
//   - Delete also drops the puzzle's progress and leaderboard rows.

package puzzles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

// ErrNotFound is returned when a puzzle does not exist.
var ErrNotFound = errors.New("puzzle not found")

// Store persists the puzzle library, progress and leaderboards.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB) *Store { return &Store{db: db, now: time.Now} }

const puzzleColumns = `id, title, description, type, creator_id, difficulty,
	estimated_duration_seconds, is_user_created, COALESCE(image_url,''),
	COALESCE(mastermind_config,''), COALESCE(last_played,''), created_at`

// Save inserts or replaces d. Missing IDs and timestamps are filled in and
// Mastermind configurations must validate.
func (s *Store) Save(ctx context.Context, d *Descriptor) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}
	if d.EstimatedDuration <= 0 {
		d.EstimatedDuration = 2 * time.Minute
	}

	var cfgJSON sql.NullString
	if d.Mastermind != nil {
		if err := d.Mastermind.Validate(); err != nil {
			return err
		}
		b, err := json.Marshal(d.Mastermind)
		if err != nil {
			return fmt.Errorf("encode mastermind config: %w", err)
		}
		cfgJSON = sql.NullString{String: string(b), Valid: true}
	} else if d.Type == TypeMastermind {
		return fmt.Errorf("%w: mastermind puzzle without configuration", mastermind.ErrInvalidConfiguration)
	}

	var lastPlayed sql.NullString
	if d.LastPlayed != nil {
		lastPlayed = sql.NullString{String: d.LastPlayed.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO puzzles (id, title, description, type, creator_id, difficulty,
		                     estimated_duration_seconds, is_user_created, image_url,
		                     mastermind_config, last_played, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, description=excluded.description, type=excluded.type,
			creator_id=excluded.creator_id, difficulty=excluded.difficulty,
			estimated_duration_seconds=excluded.estimated_duration_seconds,
			is_user_created=excluded.is_user_created, image_url=excluded.image_url,
			mastermind_config=excluded.mastermind_config, last_played=excluded.last_played`,
		d.ID, d.Title, d.Description, string(d.Type), d.CreatorID, string(d.Difficulty),
		int64(d.EstimatedDuration/time.Second), d.UserCreated, nullIfEmpty(d.ImageURL),
		cfgJSON, lastPlayed, d.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Get loads one puzzle.
func (s *Store) Get(ctx context.Context, id string) (*Descriptor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+puzzleColumns+` FROM puzzles WHERE id=?`, id)
	d, err := scanDescriptor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// List returns puzzles newest first, optionally restricted to one creator.
func (s *Store) List(ctx context.Context, creatorID string) ([]Descriptor, error) {
	q := `SELECT ` + puzzleColumns + ` FROM puzzles`
	var args []any
	if creatorID != "" {
		q += ` WHERE creator_id=?`
		args = append(args, creatorID)
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Descriptor{}
	for rows.Next() {
		d, err := scanDescriptor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Delete removes a puzzle with its progress and leaderboard rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM puzzles WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	for _, q := range []string{
		`DELETE FROM progress WHERE puzzle_id=?`,
		`DELETE FROM leaderboard WHERE puzzle_id=?`,
		`DELETE FROM puzzles_played WHERE puzzle_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TouchPlayed sets last_played on the puzzle.
func (s *Store) TouchPlayed(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE puzzles SET last_played=? WHERE id=?`,
		at.UTC().Format(time.RFC3339), id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDescriptor(r scanner) (*Descriptor, error) {
	var (
		d                          Descriptor
		typ, diff, cfg, last, crAt string
		durSeconds                 int64
	)
	if err := r.Scan(&d.ID, &d.Title, &d.Description, &typ, &d.CreatorID, &diff,
		&durSeconds, &d.UserCreated, &d.ImageURL, &cfg, &last, &crAt); err != nil {
		return nil, err
	}
	d.Type = Type(typ)
	d.Difficulty = Difficulty(diff)
	d.EstimatedDuration = time.Duration(durSeconds) * time.Second
	d.CreatedAt = mustParse(crAt)
	if last != "" {
		t := mustParse(last)
		d.LastPlayed = &t
	}
	if cfg != "" {
		var c mastermind.Configuration
		if err := json.Unmarshal([]byte(cfg), &c); err != nil {
			return nil, fmt.Errorf("decode mastermind config for %s: %w", d.ID, err)
		}
		d.Mastermind = &c
	}
	return &d, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
