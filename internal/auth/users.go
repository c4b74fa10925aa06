// internal/auth/users.go
//
// Account storage on the users table.
// Responsibilities:
//   - Signup validation, bcrypt hashing, username uniqueness.
//   - Lookup by ID / username, profile updates, account deletion.
//   - Per-user game stats (played, wins, streak) and claiming guest games.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken = errors.New("username taken")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidLogin  = errors.New("invalid username or password")
)

// User matches the users table shape.
type User struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	PasswordHash        string    `json:"-"`
	DisplayName         string    `json:"displayName"`
	Bio                 string    `json:"bio"`
	PreferredDifficulty string    `json:"preferredDifficulty"`
	CreatedAt           time.Time `json:"createdAt"`
	GamesPlayed         int       `json:"gamesPlayed"`
	Wins                int       `json:"wins"`
	Streak              int       `json:"streak"`
}

// Profile holds the editable part of a user. Nil fields are left unchanged.
type Profile struct {
	DisplayName         *string `json:"displayName"`
	Bio                 *string `json:"bio"`
	PreferredDifficulty *string `json:"preferredDifficulty"`
}

type Users struct{ db *sql.DB }

func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

const userColumns = `id, username, password_hash, COALESCE(display_name,''), COALESCE(bio,''),
COALESCE(preferred_difficulty,''), created_at, games_played, wins, streak`

// Create validates input, checks uniqueness, hashes password, and inserts a new user.
func (u *Users) Create(ctx context.Context, username, pw string) (*User, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = u.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, ErrUsernameTaken
	}
	h, err := hashPassword(pw)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           genID(),
		Username:     username,
		PasswordHash: h,
		DisplayName:  username,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = u.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, display_name, created_at) VALUES (?,?,?,?,?)`,
		user.ID, user.Username, user.PasswordHash, user.DisplayName, user.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user when username and password match.
func (u *Users) Authenticate(ctx context.Context, username, pw string) (*User, error) {
	user, err := u.FindByUsername(ctx, normalizeUsername(username))
	if err != nil || !checkPassword(user.PasswordHash, pw) {
		return nil, ErrInvalidLogin
	}
	return user, nil
}

func (u *Users) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

func (u *Users) FindByID(ctx context.Context, id string) (*User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

// UpdateProfile applies the non-nil fields of p and returns the updated user.
func (u *Users) UpdateProfile(ctx context.Context, id string, p Profile) (*User, error) {
	_, err := u.db.ExecContext(ctx, `UPDATE users SET
  display_name = COALESCE(?, display_name),
  bio = COALESCE(?, bio),
  preferred_difficulty = COALESCE(?, preferred_difficulty)
WHERE id=?`, trimmedOrNil(p.DisplayName), trimmedOrNil(p.Bio), trimmedOrNil(p.PreferredDifficulty), id)
	if err != nil {
		return nil, err
	}
	return u.FindByID(ctx, id)
}

// Delete removes the account and its per-user rows.
func (u *Users) Delete(ctx context.Context, id string) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	for _, q := range []string{
		`DELETE FROM progress WHERE user_id=?`,
		`DELETE FROM puzzles_played WHERE user_id=?`,
		`DELETE FROM games WHERE user_id=?`,
		`DELETE FROM daily_results WHERE user_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// BumpStats increments games played; updates wins and streak based on result (within tx).
func BumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// ClaimAnonGames transfers any anonymous games to a user account after auth.
func (u *Users) ClaimAnonGames(ctx context.Context, anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := u.db.ExecContext(ctx, `UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon games")
	}
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Bio,
		&u.PreferredDifficulty, &created, &u.GamesPlayed, &u.Wins, &u.Streak)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

func trimmedOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return strings.TrimSpace(*s)
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}
