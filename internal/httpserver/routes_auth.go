// internal/httpserver/routes_auth.go
//
// Account endpoints.
//   - POST /auth/signup, /auth/login (rate limited), /auth/logout
//   - GET|PUT|DELETE /auth/me (require auth)
//   - GET /stats/me, /games/mine (require auth)
//
// Signup and login set the auth cookie and claim the caller's anonymous games.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/mindmatch/internal/auth"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) mountAuth(r chi.Router) {
	r.With(s.limiter.Middleware).Post("/auth/signup", s.handleSignup)
	r.With(s.limiter.Middleware).Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Require)
		r.Get("/auth/me", s.handleMe)
		r.Put("/auth/me", s.handleUpdateMe)
		r.Delete("/auth/me", s.handleDeleteMe)
		r.Get("/stats/me", s.handleStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

// handleSignup creates a new user, signs a JWT, sets auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if !decodeJSON(w, r, &body) {
		return
	}
	u, err := s.auth.Users.Create(r.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "username_taken", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_signup", err)
		return
	}
	tok, ok := s.issueToken(w, r, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, sessionRes{User: u, Token: tok})
}

// handleLogin authenticates user, sets cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if !decodeJSON(w, r, &body) {
		return
	}
	u, err := s.auth.Users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	tok, ok := s.issueToken(w, r, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionRes{User: u, Token: tok})
}

// sessionRes is the signup/login response; the token is also set as a cookie.
type sessionRes struct {
	*auth.User
	Token string `json:"token"`
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, u *auth.User) (string, bool) {
	tok, exp, err := s.auth.Signer.Sign(u.ID, u.Username)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed", nil)
		return "", false
	}
	s.auth.SetAuthCookie(w, tok, exp)
	s.auth.Users.ClaimAnonGames(r.Context(), s.auth.AnonID(r), u.ID)
	return tok, true
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Users.FindByID(r.Context(), auth.FromContext(r.Context()).ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var p auth.Profile
	if !decodeJSON(w, r, &p) {
		return
	}
	u, err := s.auth.Users.UpdateProfile(r.Context(), auth.FromContext(r.Context()).ID, p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleDeleteMe removes the account and logs the caller out.
func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Users.Delete(r.Context(), auth.FromContext(r.Context()).ID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.auth.ClearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Users.FindByID(r.Context(), auth.FromContext(r.Context()).ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          u.ID,
		"gamesPlayed": u.GamesPlayed,
		"wins":        u.Wins,
		"streak":      u.Streak,
	})
}

// handleMyGames lists the caller's 50 most recent games.
func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(),
		`SELECT id, COALESCE(puzzle_id,''), status, guesses, started_at, COALESCE(finished_at,'')
		 FROM games WHERE user_id=? ORDER BY started_at DESC LIMIT 50`, auth.FromContext(r.Context()).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	defer rows.Close()

	type gameRow struct {
		ID         string `json:"id"`
		PuzzleID   string `json:"puzzleId,omitempty"`
		Status     string `json:"status"`
		Guesses    int    `json:"guesses"`
		StartedAt  string `json:"startedAt"`
		FinishedAt string `json:"finishedAt,omitempty"`
	}
	out := []gameRow{}
	for rows.Next() {
		var gr gameRow
		if err := rows.Scan(&gr.ID, &gr.PuzzleID, &gr.Status, &gr.Guesses, &gr.StartedAt, &gr.FinishedAt); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("scan game row")
			writeError(w, http.StatusInternalServerError, "db_error", nil)
			return
		}
		out = append(out, gr)
	}
	if err := rows.Err(); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list games")
		writeError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
