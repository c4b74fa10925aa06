// internal/httpserver/routes_puzzles.go
//
// Puzzle library, progress and leaderboard endpoints.
//   - GET  /puzzles[?creator=me]        list (optional auth for creator=me)
//   - POST /puzzles                     create (require auth)
//   - GET  /puzzles/{id}                read; Mastermind puzzles expose their
//                                       shape but never the code
//   - DELETE /puzzles/{id}              creator only
//   - GET  /puzzle-types
//   - GET  /progress, PUT /progress/{puzzleId} (require auth)
//   - GET  /leaderboard[?puzzleId=&limit=], POST /leaderboard (require auth)

package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/mindmatch/internal/auth"
	"github.com/robalobadob/mindmatch/internal/mastermind"
	"github.com/robalobadob/mindmatch/internal/palette"
	"github.com/robalobadob/mindmatch/internal/puzzles"
)

func (s *Server) mountLibrary(r chi.Router) {
	r.Get("/puzzle-types", s.handlePuzzleTypes)
	r.Get("/leaderboard", s.handleLeaderboard)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Optional)
		r.Get("/puzzles", s.handleListPuzzles)
		r.Get("/puzzles/{id}", s.handleGetPuzzle)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Require)
		r.Post("/puzzles", s.handleCreatePuzzle)
		r.Delete("/puzzles/{id}", s.handleDeletePuzzle)
		r.Get("/progress", s.handleGetProgress)
		r.Put("/progress/{puzzleId}", s.handlePutProgress)
		r.Post("/leaderboard", s.handleSubmitScore)
	})
}

// mastermindShape is a puzzle's configuration without its code.
type mastermindShape struct {
	Colors  []mastermind.Token `json:"colors"`
	Slots   int                `json:"slots"`
	Guesses int                `json:"guesses"`
	Levels  int                `json:"levels"`
}

type puzzleView struct {
	puzzles.Descriptor
	TypeName                 string           `json:"typeName"`
	EstimatedDurationSeconds int64            `json:"estimatedDurationSeconds"`
	Mastermind               *mastermindShape `json:"mastermind,omitempty"`
	Mine                     bool             `json:"mine"`
}

// puzzleViewOf renders d for the caller; creator IDs are never exposed.
func puzzleViewOf(r *http.Request, d puzzles.Descriptor) puzzleView {
	me := auth.FromContext(r.Context())
	v := puzzleView{
		Descriptor:               d,
		Mine:                     me != nil && d.CreatorID != "" && d.CreatorID == me.ID,
		TypeName:                 d.Type.DisplayName(),
		EstimatedDurationSeconds: int64(d.EstimatedDuration / time.Second),
	}
	if c := d.Mastermind; c != nil {
		v.Mastermind = &mastermindShape{Colors: c.Palette, Slots: c.Slots, Guesses: c.Guesses, Levels: c.Levels}
	}
	return v
}

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	creator := r.URL.Query().Get("creator")
	if creator == "me" {
		me := auth.FromContext(r.Context())
		if me == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		creator = me.ID
	}
	list, err := s.puzzles.List(r.Context(), creator)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]puzzleView, 0, len(list))
	for _, d := range list {
		out = append(out, puzzleViewOf(r, d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	d, err := s.puzzles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, puzzleViewOf(r, *d))
}

type createPuzzleReq struct {
	Title                    string     `json:"title"`
	Description              string     `json:"description"`
	Type                     string     `json:"type"`
	Difficulty               string     `json:"difficulty"`
	EstimatedDurationSeconds int        `json:"estimatedDurationSeconds"`
	ImageURL                 string     `json:"imageUrl"`
	Mastermind               *configReq `json:"mastermind"`
}

// handleCreatePuzzle stores a user-created puzzle. Mastermind configurations
// are repaired the way the builder does it before validation.
func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	var req createPuzzleReq
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title_required", nil)
		return
	}
	d := &puzzles.Descriptor{
		Title:             req.Title,
		Description:       strings.TrimSpace(req.Description),
		Type:              puzzles.ParseType(req.Type),
		CreatorID:         auth.FromContext(r.Context()).ID,
		Difficulty:        puzzles.ParseDifficulty(req.Difficulty),
		EstimatedDuration: time.Duration(req.EstimatedDurationSeconds) * time.Second,
		UserCreated:       true,
		ImageURL:          strings.TrimSpace(req.ImageURL),
	}
	if req.Mastermind != nil {
		cfg := mastermind.Normalize(mastermind.Configuration{
			Palette: palette.CanonicalAll(req.Mastermind.Colors),
			Slots:   req.Mastermind.Slots,
			Guesses: req.Mastermind.Guesses,
			Levels:  req.Mastermind.Levels,
			Code:    palette.CanonicalAll(req.Mastermind.Code),
		})
		d.Mastermind = &cfg
	}
	if err := s.puzzles.Save(r.Context(), d); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, puzzleViewOf(r, *d))
}

func (s *Server) handleDeletePuzzle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.puzzles.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if d.CreatorID != auth.FromContext(r.Context()).ID {
		writeError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := s.puzzles.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handlePuzzleTypes(w http.ResponseWriter, r *http.Request) {
	names, err := s.puzzles.TypeNames(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// progressView adds the best time in seconds, which Progress keeps as a Duration.
type progressView struct {
	puzzles.Progress
	BestTimeSeconds *int64 `json:"bestTimeSeconds,omitempty"`
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	all, err := s.puzzles.ProgressForUser(r.Context(), auth.FromContext(r.Context()).ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make(map[string]progressView, len(all))
	for id, p := range all {
		v := progressView{Progress: p}
		if p.BestTime != nil {
			secs := int64(*p.BestTime / time.Second)
			v.BestTimeSeconds = &secs
		}
		out[id] = v
	}
	writeJSON(w, http.StatusOK, out)
}

type progressReq struct {
	CurrentLevel    int    `json:"currentLevel"`
	LevelsUnlocked  int    `json:"levelsUnlocked"`
	BestScore       int    `json:"bestScore"`
	BestTimeSeconds *int64 `json:"bestTimeSeconds"`
	InProgressState string `json:"inProgressState"`
}

func (s *Server) handlePutProgress(w http.ResponseWriter, r *http.Request) {
	var req progressReq
	if !decodeJSON(w, r, &req) {
		return
	}
	p := puzzles.Progress{
		UserID:          auth.FromContext(r.Context()).ID,
		PuzzleID:        chi.URLParam(r, "puzzleId"),
		CurrentLevel:    req.CurrentLevel,
		LevelsUnlocked:  req.LevelsUnlocked,
		BestScore:       req.BestScore,
		InProgressState: req.InProgressState,
	}
	if req.BestTimeSeconds != nil {
		d := time.Duration(*req.BestTimeSeconds) * time.Second
		p.BestTime = &d
	}
	if err := s.puzzles.SaveProgress(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleLeaderboard returns one puzzle's top scores, or every puzzle's
// grouped when no puzzleId is given.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if id := r.URL.Query().Get("puzzleId"); id != "" {
		top, err := s.puzzles.Top(r.Context(), id, limit)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, top)
		return
	}
	board, err := s.puzzles.Leaderboard(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

type scoreReq struct {
	PuzzleID   string `json:"puzzleId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

// handleSubmitScore records a client-scored result, e.g. jigsaw times.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req scoreReq
	if !decodeJSON(w, r, &req) {
		return
	}
	req.PuzzleID = strings.TrimSpace(req.PuzzleID)
	if req.PuzzleID == "" || req.Score < 0 {
		writeError(w, http.StatusBadRequest, "invalid_score", nil)
		return
	}
	me := auth.FromContext(r.Context())
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		name = me.Username
	}
	e := puzzles.Entry{PuzzleID: req.PuzzleID, PlayerName: name, UserID: me.ID, Score: req.Score}
	if err := s.puzzles.SubmitScore(r.Context(), e); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.puzzles.RaiseBestScore(r.Context(), me.ID, req.PuzzleID, req.Score); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}
