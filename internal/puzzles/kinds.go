package puzzles

import (
	"context"
	"regexp"
	"strings"
)

// DefaultTypeNames seed the puzzle_types table on first start.
var DefaultTypeNames = []string{"Mastermind", "Color Match", "Jigsaw"}

var spaceRun = regexp.MustCompile(`\s+`)

// TypeNames lists the names in puzzle_types, ordered by name.
func (s *Store) TypeNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM puzzle_types WHERE name <> '' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SeedTypes inserts any of names not yet present. Document IDs are the
// lowercased name with whitespace runs replaced by underscores.
func (s *Store) SeedTypes(ctx context.Context, names []string) error {
	for _, name := range names {
		id := spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
		if id == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO puzzle_types (id, name) VALUES (?, ?)`, id, name); err != nil {
			return err
		}
	}
	return nil
}
