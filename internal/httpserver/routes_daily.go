// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge.
//   - GET  /daily/current      today's challenge (generated, or the date-derived fallback)
//   - POST /daily/generate     ask the model for a new challenge (require auth, rate limited)
//   - POST /daily/new          start or resume today's game
//   - POST /daily/guess        submit a guess for today's game
//   - GET  /daily/leaderboard  results for today (or ?date=YYYY-MM-DD)
//
// Each player (user or anonymous cookie) plays once per UTC date: a finished
// result in the DB locks the date, and an open session is resumed instead of
// restarted. Sessions are held in memory for active play; the result is
// persisted when the game ends, and only wins are ranked.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/mindmatch/internal/auth"
	"github.com/robalobadob/mindmatch/internal/daily"
	"github.com/robalobadob/mindmatch/internal/generator"
	"github.com/robalobadob/mindmatch/internal/mastermind"
	"github.com/robalobadob/mindmatch/internal/palette"
	"github.com/robalobadob/mindmatch/internal/store"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]string // kind|player|date → game ID
	mu       sync.Mutex        // guards sessions
}

func newDailyServer(s *Server) *dailyServer {
	return &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]string),
	}
}

// mount registers the /daily routes that run under the handler timeout.
func (d *dailyServer) mount(r chi.Router) {
	r.Get("/daily/current", d.handleCurrent)
	r.Get("/daily/leaderboard", d.handleLeaderboard)
	r.With(d.srv.auth.Optional).Post("/daily/new", d.handleNew)
	r.With(d.srv.auth.Optional).Post("/daily/guess", d.srv.handleGuess)
}

// today describes the challenge in force right now.
type today struct {
	Date        string                   `json:"date"`
	Source      string                   `json:"source"` // "generated" | "fallback"
	PuzzleID    string                   `json:"puzzleId"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	ExpiresAt   time.Time                `json:"expiresAt"`
	Config      mastermind.Configuration `json:"-"`
}

// current returns the generated challenge while it is unexpired, otherwise
// the deterministic fallback for the UTC date.
func (d *dailyServer) current(ctx context.Context) (today, error) {
	now := d.srv.now().UTC()
	date := daily.DateKey(now)

	c, err := d.store.Latest(ctx)
	if err != nil {
		return today{}, err
	}
	if c != nil && now.Before(c.ExpiresAt()) {
		return today{
			Date:        date,
			Source:      "generated",
			PuzzleID:    c.PuzzleID(),
			Title:       c.Payload.Title,
			Description: c.Payload.Description,
			ExpiresAt:   c.ExpiresAt(),
			Config:      c.Payload.Mastermind,
		}, nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today{
		Date:        date,
		Source:      "fallback",
		PuzzleID:    "daily_" + date,
		Title:       "Daily Mastermind",
		Description: "Crack today's four-color code.",
		ExpiresAt:   midnight.Add(daily.Lifetime),
		Config:      daily.Fallback(now, d.salt, palette.Tokens()),
	}, nil
}

type currentRes struct {
	today
	Colors  []mastermind.Token `json:"colors"`
	Slots   int                `json:"slots"`
	Guesses int                `json:"guesses"`
	Levels  int                `json:"levels"`
}

func (d *dailyServer) handleCurrent(w http.ResponseWriter, r *http.Request) {
	t, err := d.current(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currentRes{
		today: t, Colors: t.Config.Palette, Slots: t.Config.Slots, Guesses: t.Config.Guesses, Levels: t.Config.Levels,
	})
}

// -----------------------------------------------------------------------------
// /daily/generate

type generateReq struct {
	Prompt string `json:"prompt"`
}

// handleGenerate replaces the current challenge with a freshly generated one.
func (d *dailyServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := d.srv.gen.Generate(r.Context(), req.Prompt)
	if err != nil {
		d.writeGenerateError(w, r, err)
		return
	}

	me := auth.FromContext(r.Context())
	c := daily.Challenge{
		Prompt:    req.Prompt,
		RawJSON:   res.RawJSON,
		Model:     res.Model,
		CreatedAt: d.srv.now().UTC(),
		CreatedBy: me.ID,
	}
	if err := d.store.Replace(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("user", me.ID).Str("title", res.Payload.Title).Msg("daily challenge generated")

	t, err := d.current(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, currentRes{
		today: t, Colors: t.Config.Palette, Slots: t.Config.Slots, Guesses: t.Config.Guesses, Levels: t.Config.Levels,
	})
}

func (d *dailyServer) writeGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *generator.APIError
	switch {
	case errors.Is(err, generator.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, "invalid_prompt", err)
	case errors.Is(err, generator.ErrMissingAPIKey):
		writeError(w, http.StatusServiceUnavailable, "generator_disabled", nil)
	case errors.Is(err, mastermind.ErrInvalidConfiguration):
		hlog.FromRequest(r).Warn().Err(err).Msg("generated puzzle rejected")
		writeError(w, http.StatusBadGateway, "invalid_generated_puzzle", err)
	case errors.As(err, &apiErr), errors.Is(err, generator.ErrNoContent):
		hlog.FromRequest(r).Warn().Err(err).Msg("generator upstream failure")
		writeError(w, http.StatusBadGateway, "upstream_error", nil)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("generate")
		writeError(w, http.StatusBadGateway, "upstream_error", nil)
	}
}

// -----------------------------------------------------------------------------
// /daily/new

// newRes is returned by /daily/new.
type newRes struct {
	Date   string    `json:"date"`
	Played bool      `json:"played"`
	Game   *gameView `json:"game,omitempty"`
}

// handleNew creates or resumes the caller's daily session.
//   - An in-memory session for today → that session (Played once it ended).
//   - A stored result for today → Played=true.
//   - Otherwise a new session on today's configuration.
//
// The lock covers map access only; sessions are created outside it and a
// racing duplicate is discarded in favour of the one registered first.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, signedIn := d.srv.auth.PlayerID(w, r)
	t, err := d.current(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	key := playerDayKey(uid, signedIn, t.Date)

	if id, ok := d.lookup(key); ok {
		if d.resume(w, r, t.Date, id) {
			return
		}
		d.forget(key, id)
	}

	played, err := d.store.AlreadyPlayed(ctx, uid, t.Date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if played {
		writeJSON(w, http.StatusOK, newRes{Date: t.Date, Played: true})
		return
	}

	meta := store.Meta{PuzzleID: t.PuzzleID, Owner: uid, Anonymous: !signedIn, Daily: t.Date}
	sess, err := d.srv.startSession(ctx, t.Config, meta)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	d.mu.Lock()
	prev, raced := d.sessions[key]
	if !raced {
		d.sessions[key] = sess.ID
	}
	d.mu.Unlock()
	if raced {
		_ = d.srv.sessions.Delete(ctx, sess.ID)
		if !d.resume(w, r, t.Date, prev) {
			writeDomainError(w, r, store.ErrNotFound)
		}
		return
	}
	d.srv.recordGameStart(r, sess.ID, uid, signedIn, t.PuzzleID)

	v := viewOf(sess, meta)
	writeJSON(w, http.StatusOK, newRes{Date: t.Date, Played: false, Game: &v})
}

// playerDayKey keys daily sessions by player kind, player and UTC date, so a
// replacement challenge on the same date does not grant another attempt.
func playerDayKey(id string, signedIn bool, date string) string {
	kind := "anon"
	if signedIn {
		kind = "user"
	}
	return kind + "|" + id + "|" + date
}

func (d *dailyServer) lookup(key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.sessions[key]
	return id, ok
}

// forget drops key if it still points at id.
func (d *dailyServer) forget(key, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sessions[key] == id {
		delete(d.sessions, key)
	}
}

// resume writes the stored session id and reports whether it still exists.
func (d *dailyServer) resume(w http.ResponseWriter, r *http.Request, date, id string) bool {
	sess, meta, err := d.srv.sessions.Get(r.Context(), id)
	if err != nil {
		return false
	}
	v := viewOf(sess, meta)
	writeJSON(w, http.StatusOK, newRes{Date: date, Played: sess.Status().Terminal(), Game: &v})
	return true
}

// recordResult persists a finished daily game, won or lost.
func (d *dailyServer) recordResult(r *http.Request, sess *mastermind.Session, meta store.Meta) {
	elapsed := int(d.srv.now().Sub(meta.Started).Milliseconds())
	err := d.store.InsertResult(r.Context(), daily.Result{
		UserID:    meta.Owner,
		Date:      meta.Daily,
		PuzzleID:  meta.PuzzleID,
		Won:       sess.Status() == mastermind.StatusWon,
		Guesses:   len(sess.History),
		ElapsedMs: elapsed,
	})
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("gameId", sess.ID).Msg("insert daily result")
	}
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
