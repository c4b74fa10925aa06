// internal/httpserver/routes_game.go
//
// Mastermind game endpoints (optional auth, guests can play).
//   - POST /game/new          start from a library puzzle, a custom config, or at random
//   - POST /game/guess        submit a guess
//   - POST /game/reset        play again with the same code
//   - GET  /game/{id}         current state and history
//   - POST /game/{id}/forfeit countdown expired on the client
//   - GET  /game/{id}/hint    solver suggestion
//
// Sessions live in the in-memory store. A games row per session records the
// owner and outcome; finished games bump user stats, and won library puzzles
// post to the leaderboard. Those writes are best effort and only logged.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/mindmatch/internal/auth"
	"github.com/robalobadob/mindmatch/internal/mastermind"
	"github.com/robalobadob/mindmatch/internal/palette"
	"github.com/robalobadob/mindmatch/internal/puzzles"
	"github.com/robalobadob/mindmatch/internal/solver"
	"github.com/robalobadob/mindmatch/internal/store"
)

// Random games use this many catalogue colors, slots and guesses.
const (
	randomPaletteSize = 6
	randomSlots       = 4
	randomGuesses     = 10
)

var errNotOwner = errors.New("session belongs to another player")

func (s *Server) mountGame(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Optional)
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/guess", s.handleGuess)
		r.Post("/game/reset", s.handleReset)
		r.Get("/game/{id}", s.handleGetGame)
		r.Post("/game/{id}/forfeit", s.handleForfeit)
		r.Get("/game/{id}/hint", s.handleHint)
	})
}

// configReq is a client-supplied configuration; code is optional and drawn
// at random when omitted.
type configReq struct {
	Colors  []string `json:"colors"`
	Slots   int      `json:"slots"`
	Guesses int      `json:"guesses"`
	Levels  int      `json:"levels"`
	Code    []string `json:"code"`
}

func (c configReq) configuration() mastermind.Configuration {
	cfg := mastermind.Configuration{
		Palette: palette.CanonicalAll(c.Colors),
		Slots:   c.Slots,
		Guesses: c.Guesses,
		Levels:  c.Levels,
		Code:    palette.CanonicalAll(c.Code),
	}
	if cfg.Levels == 0 {
		cfg.Levels = 1
	}
	if len(c.Code) == 0 {
		cfg.Code = palette.RandomCode(cfg.Palette, cfg.Slots)
	}
	return cfg
}

type newGameReq struct {
	PuzzleID string     `json:"puzzleId"`
	Config   *configReq `json:"config"`
}

// gameView is the client-facing session state. The code is only revealed
// once the game is over.
type gameView struct {
	GameID    string               `json:"gameId"`
	PuzzleID  string               `json:"puzzleId,omitempty"`
	Daily     string               `json:"daily,omitempty"`
	Palette   []mastermind.Token   `json:"palette"`
	Slots     int                  `json:"slots"`
	Guesses   int                  `json:"guesses"`
	Levels    int                  `json:"levels"`
	Status    mastermind.Status    `json:"status"`
	Remaining int                  `json:"remaining"`
	History   []mastermind.Attempt `json:"history"`
	Score     int                  `json:"score,omitempty"`
	Code      []mastermind.Token   `json:"code,omitempty"`
}

func viewOf(sess *mastermind.Session, meta store.Meta) gameView {
	v := gameView{
		GameID:    sess.ID,
		PuzzleID:  meta.PuzzleID,
		Daily:     meta.Daily,
		Palette:   sess.Config.Palette,
		Slots:     sess.Config.Slots,
		Guesses:   sess.Config.Guesses,
		Levels:    sess.Config.Levels,
		Status:    sess.Status(),
		Remaining: sess.Remaining(),
		History:   sess.History,
		Score:     mastermind.Score(sess),
	}
	if v.Status.Terminal() {
		v.Code = sess.Config.Code
	}
	return v
}

// handleNewGame starts a session and records its owner row.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	var cfg mastermind.Configuration
	switch {
	case req.PuzzleID != "":
		d, err := s.puzzles.Get(r.Context(), req.PuzzleID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if d.Type != puzzles.TypeMastermind || d.Mastermind == nil {
			writeError(w, http.StatusBadRequest, "not_mastermind", nil)
			return
		}
		cfg = *d.Mastermind
	case req.Config != nil:
		cfg = req.Config.configuration()
	default:
		colors := palette.Tokens()
		colors = colors[:min(randomPaletteSize, len(colors))]
		cfg = mastermind.Configuration{
			Palette: colors,
			Slots:   randomSlots,
			Guesses: randomGuesses,
			Levels:  1,
			Code:    palette.RandomCode(colors, randomSlots),
		}
	}

	owner, signedIn := s.auth.PlayerID(w, r)
	sess, err := s.startSession(r.Context(), cfg, store.Meta{PuzzleID: req.PuzzleID, Owner: owner, Anonymous: !signedIn})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.recordGameStart(r, sess.ID, owner, signedIn, req.PuzzleID)
	if signedIn && req.PuzzleID != "" {
		now := s.now()
		if err := s.puzzles.RecordPlayed(r.Context(), owner, req.PuzzleID, now); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("record played")
		}
		if err := s.puzzles.TouchPlayed(r.Context(), req.PuzzleID, now); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("touch puzzle")
		}
	}

	writeJSON(w, http.StatusOK, viewOf(sess, store.Meta{PuzzleID: req.PuzzleID}))
}

func (s *Server) startSession(ctx context.Context, cfg mastermind.Configuration, meta store.Meta) (*mastermind.Session, error) {
	sess, err := mastermind.StartSession(cfg)
	if err != nil {
		return nil, err
	}
	meta.Started = s.now()
	if err := s.sessions.Save(ctx, sess, meta); err != nil {
		return nil, err
	}
	return sess, nil
}

// ownedSession loads a session and checks it belongs to the caller: the
// signed-in user for user sessions, the signed anonymous cookie for guest ones.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request, id string) (*mastermind.Session, store.Meta, bool) {
	sess, meta, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, meta, false
	}
	if !s.auth.Owns(r, meta.Owner, meta.Anonymous) {
		hlog.FromRequest(r).Warn().Err(errNotOwner).Str("gameId", id).Msg("foreign session")
		writeError(w, http.StatusNotFound, "not_found", nil)
		return nil, meta, false
	}
	return sess, meta, true
}

type guessReq struct {
	GameID string   `json:"gameId"`
	Values []string `json:"values"`
}

type guessRes struct {
	Feedback  mastermind.Feedback `json:"feedback"`
	State     mastermind.Status   `json:"state"`
	Remaining int                 `json:"remaining"`
	Score     int                 `json:"score,omitempty"`
	Code      []mastermind.Token  `json:"code,omitempty"`
}

// handleGuess applies a guess under the store lock, then persists counters
// and, when the game ended, the outcome.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, _, ok := s.ownedSession(w, r, req.GameID); !ok {
		return
	}

	values := palette.CanonicalAll(req.Values)
	var attempt mastermind.Attempt
	sess, meta, err := s.sessions.Update(r.Context(), req.GameID, func(sess *mastermind.Session, _ *store.Meta) error {
		a, err := sess.Submit(values)
		attempt = a
		return err
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordGuess(r, sess.ID)
	state := sess.Status()
	if state.Terminal() {
		s.finishGame(r, sess, meta)
	}

	res := guessRes{Feedback: attempt.Feedback, State: state, Remaining: sess.Remaining()}
	if state.Terminal() {
		res.Score = mastermind.Score(sess)
		res.Code = sess.Config.Code
	}
	writeJSON(w, http.StatusOK, res)
}

type gameIDReq struct {
	GameID string `json:"gameId"`
}

// handleReset restarts a regular game with the same ID and code. The code is
// already known to the player, so the session becomes a replay: it keeps its
// games row but no longer counts towards stats or the leaderboard.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if !decodeJSON(w, r, &req) {
		return
	}
	_, meta, ok := s.ownedSession(w, r, req.GameID)
	if !ok {
		return
	}
	if meta.Daily != "" {
		writeError(w, http.StatusConflict, "daily_no_reset", nil)
		return
	}
	sess, meta, err := s.sessions.Update(r.Context(), req.GameID, func(sess *mastermind.Session, m *store.Meta) error {
		m.Replay = true
		*sess = *sess.Reset()
		return nil
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if _, err := s.db.ExecContext(r.Context(),
		`UPDATE games SET status=?, guesses=0, finished_at=NULL, started_at=? WHERE id=?`,
		string(mastermind.StatusInProgress), s.now().UTC().Format(time.RFC3339), sess.ID); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("gameId", sess.ID).Msg("reset game row")
	}
	writeJSON(w, http.StatusOK, viewOf(sess, meta))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, meta, ok := s.ownedSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess, meta))
}

// handleForfeit ends the game as lost when the client's countdown runs out.
func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, _, ok := s.ownedSession(w, r, id); !ok {
		return
	}
	sess, meta, err := s.sessions.Update(r.Context(), id, func(sess *mastermind.Session, _ *store.Meta) error {
		return sess.Forfeit()
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.finishGame(r, sess, meta)
	writeJSON(w, http.StatusOK, viewOf(sess, meta))
}

type hintRes struct {
	Guess     []mastermind.Token `json:"guess"`
	Remaining int                `json:"remaining"`
}

// handleHint suggests the minimax next guess for an in-progress game.
func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.ownedSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if sess.Status().Terminal() {
		writeDomainError(w, r, mastermind.ErrSessionOver)
		return
	}
	guess, remaining, err := solver.Suggest(r.Context(), sess, nil)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hintRes{Guess: guess, Remaining: remaining})
}

// --------------------------- persistence ------------------------------------

// recordGameStart inserts the owner row for a new session.
func (s *Server) recordGameStart(r *http.Request, id, owner string, signedIn bool, puzzleID string) {
	col := "anonymous_id"
	if signedIn {
		col = "user_id"
	}
	_, err := s.db.ExecContext(r.Context(),
		`INSERT INTO games (id, `+col+`, puzzle_id, started_at, status, guesses) VALUES (?,?,?,?,?,0)`,
		id, owner, nullable(puzzleID), s.now().UTC().Format(time.RFC3339), string(mastermind.StatusInProgress))
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("gameId", id).Msg("insert game row")
	}
}

func (s *Server) recordGuess(r *http.Request, id string) {
	if _, err := s.db.ExecContext(r.Context(), `UPDATE games SET guesses = guesses + 1 WHERE id=?`, id); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("gameId", id).Msg("update guesses")
	}
}

// finishGame stores the outcome, bumps stats and posts scores. Replays only
// store the outcome.
func (s *Server) finishGame(r *http.Request, sess *mastermind.Session, meta store.Meta) {
	ctx := r.Context()
	l := hlog.FromRequest(r)
	state := sess.Status()
	me := auth.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Warn().Err(err).Msg("begin finish tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE games SET status=?, guesses=?, finished_at=? WHERE id=?`,
		string(state), len(sess.History), s.now().UTC().Format(time.RFC3339), sess.ID); err != nil {
		l.Warn().Err(err).Str("gameId", sess.ID).Msg("finish game")
	}
	if me != nil && !meta.Replay {
		if err := auth.BumpStats(ctx, tx, me.ID, state == mastermind.StatusWon); err != nil {
			l.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}
	if err := tx.Commit(); err != nil {
		l.Warn().Err(err).Msg("commit finish tx")
	}

	if meta.Daily != "" {
		s.daily.recordResult(r, sess, meta)
		return
	}
	if me == nil || meta.Replay || meta.PuzzleID == "" || state != mastermind.StatusWon {
		return
	}
	score := mastermind.Score(sess)
	if err := s.puzzles.SubmitScore(ctx, puzzles.Entry{
		PuzzleID: meta.PuzzleID, PlayerName: me.Username, UserID: me.ID, Score: score,
	}); err != nil {
		l.Warn().Err(err).Msg("submit score")
	}
	if err := s.puzzles.RaiseBestScore(ctx, me.ID, meta.PuzzleID, score); err != nil {
		l.Warn().Err(err).Msg("raise best score")
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
