package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/mindmatch/internal/config"
	"github.com/robalobadob/mindmatch/internal/daily"
	"github.com/robalobadob/mindmatch/internal/mastermind"
	"github.com/robalobadob/mindmatch/internal/palette"
)

func tokensToStrings(ts []mastermind.Token) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

func TestDailyFallback(t *testing.T) {
	c := newClient(t, newTestServer(t, nil))

	rec := c.do(http.MethodGet, "/daily/current", nil)
	expectStatus(t, rec, http.StatusOK)
	cur := decodeBody[currentRes](t, rec)
	want := daily.Fallback(testNow, "salt", palette.Tokens())
	if cur.Source != "fallback" || cur.Date != "2026-03-14" || cur.PuzzleID != "daily_2026-03-14" {
		t.Fatalf("current = %+v", cur)
	}
	if cur.Slots != 4 || cur.Guesses != 8 || len(cur.Colors) != 4 || cur.Colors[0] != want.Palette[0] {
		t.Fatalf("shape = %+v", cur)
	}
	if !cur.ExpiresAt.Equal(testNow.Truncate(24 * time.Hour).Add(daily.Lifetime)) {
		t.Errorf("expiresAt = %v", cur.ExpiresAt)
	}
}

func TestDailyOncePerDay(t *testing.T) {
	s := newTestServer(t, nil)
	c := newClient(t, s)
	code := tokensToStrings(daily.Fallback(testNow, "salt", palette.Tokens()).Code)

	rec := c.do(http.MethodPost, "/daily/new", nil)
	expectStatus(t, rec, http.StatusOK)
	first := decodeBody[newRes](t, rec)
	if first.Played || first.Game == nil || first.Game.Daily != "2026-03-14" || first.Game.Code != nil {
		t.Fatalf("new = %+v", first)
	}

	again := decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil))
	if again.Game == nil || again.Game.GameID != first.Game.GameID {
		t.Fatalf("daily session not resumed: %+v", again)
	}

	expectError(t, c.do(http.MethodPost, "/game/reset", gameIDReq{GameID: first.Game.GameID}), http.StatusConflict, "daily_no_reset")

	rec = c.do(http.MethodPost, "/daily/guess", guessReq{GameID: first.Game.GameID, Values: code})
	expectStatus(t, rec, http.StatusOK)
	if res := decodeBody[guessRes](t, rec); res.State != mastermind.StatusWon {
		t.Fatalf("guess = %+v", res)
	}

	done := decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil))
	if !done.Played || done.Game == nil || done.Game.Status != mastermind.StatusWon {
		t.Fatalf("after win = %+v", done)
	}

	rec = c.do(http.MethodGet, "/daily/leaderboard", nil)
	if strings.Contains(rec.Body.String(), "userId") {
		t.Fatalf("leaderboard exposes ids: %s", rec.Body.String())
	}
	board := decodeBody[lbRes](t, rec)
	if board.Date != "2026-03-14" || len(board.Top) != 1 || board.Top[0].Guesses != 1 || board.Top[0].Player != "Guest" {
		t.Fatalf("board = %+v", board)
	}
	empty := decodeBody[lbRes](t, c.do(http.MethodGet, "/daily/leaderboard?date=2026-03-13", nil))
	if len(empty.Top) != 0 {
		t.Fatalf("yesterday = %+v", empty)
	}

	// Another player still gets a fresh game.
	other := decodeBody[newRes](t, newClient(t, s).do(http.MethodPost, "/daily/new", nil))
	if other.Played || other.Game == nil || other.Game.GameID == first.Game.GameID {
		t.Fatalf("other player = %+v", other)
	}
}

func TestDailyLossIsTerminalButUnranked(t *testing.T) {
	c := newClient(t, newTestServer(t, nil))
	g := decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil)).Game

	expectStatus(t, c.do(http.MethodPost, "/game/"+g.GameID+"/forfeit", nil), http.StatusOK)

	res := decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil))
	if !res.Played || res.Game == nil || res.Game.Status != mastermind.StatusLost || res.Game.Code == nil {
		t.Fatalf("after loss = %+v", res)
	}
	if board := decodeBody[lbRes](t, c.do(http.MethodGet, "/daily/leaderboard", nil)); len(board.Top) != 0 {
		t.Fatalf("board = %+v", board)
	}
}

func TestDailyLossLocksTheDate(t *testing.T) {
	s := generatingServer(t, http.StatusOK, generatedPuzzle)
	c := newClient(t, s)
	signup(t, c, "nina")

	g := decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil)).Game
	expectStatus(t, c.do(http.MethodPost, "/game/"+g.GameID+"/forfeit", nil), http.StatusOK)

	// A new challenge on the same date is not a second attempt.
	expectStatus(t, c.do(http.MethodPost, "/daily/generate", generateReq{Prompt: "forest"}), http.StatusCreated)
	res := decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil))
	if !res.Played || res.Game == nil || res.Game.GameID != g.GameID || res.Game.Status != mastermind.StatusLost {
		t.Fatalf("after regenerate = %+v", res)
	}

	// The stored loss still holds once the session is gone.
	if err := s.sessions.Delete(context.Background(), g.GameID); err != nil {
		t.Fatal(err)
	}
	res = decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil))
	if !res.Played || res.Game != nil {
		t.Fatalf("after session expiry = %+v", res)
	}
	if board := decodeBody[lbRes](t, c.do(http.MethodGet, "/daily/leaderboard", nil)); len(board.Top) != 0 {
		t.Fatalf("loss ranked: %+v", board)
	}
}

func TestDailyPlayerNamesOnLeaderboard(t *testing.T) {
	c := newClient(t, newTestServer(t, nil))
	signup(t, c, "oscar")
	code := tokensToStrings(daily.Fallback(testNow, "salt", palette.Tokens()).Code)

	g := decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil)).Game
	c.do(http.MethodPost, "/daily/guess", guessReq{GameID: g.GameID, Values: code})

	board := decodeBody[lbRes](t, c.do(http.MethodGet, "/daily/leaderboard", nil))
	if len(board.Top) != 1 || board.Top[0].Player != "oscar" {
		t.Fatalf("board = %+v", board)
	}
}

func TestDailyForgedGuestCookieCannotTakeOverUser(t *testing.T) {
	s := newTestServer(t, nil)
	victim := newClient(t, s)
	signup(t, victim, "paula")
	victimID := decodeBody[map[string]any](t, victim.do(http.MethodGet, "/auth/me", nil))["id"].(string)
	mine := decodeBody[newRes](t, victim.do(http.MethodPost, "/daily/new", nil)).Game

	attacker := newClient(t, s)
	attacker.cookies[anonCookie] = &http.Cookie{Name: anonCookie, Value: victimID}
	got := decodeBody[newRes](t, attacker.do(http.MethodPost, "/daily/new", nil))
	if got.Game == nil || got.Game.GameID == mine.GameID {
		t.Fatalf("attacker resumed the victim's daily game: %+v", got)
	}
	expectError(t, attacker.do(http.MethodGet, "/game/"+mine.GameID, nil), http.StatusNotFound, "not_found")
}

// fakeGemini answers generateContent with text, or with status and no body.
func fakeGemini(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/test-model:generateContent" || r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func generatingServer(t *testing.T, status int, text string) *Server {
	model := fakeGemini(t, status, text)
	return newTestServer(t, func(cfg *config.Config) {
		cfg.GeminiAPIKey = "test-key"
		cfg.GeminiURL = model.URL
	})
}

const generatedPuzzle = "```json\n" + `{"title":"Forest","description":"Greens and browns","mastermindConfig":{"colors":["red","blue","green"],"slots":3,"guesses":5,"levels":1,"code":["green","green","red"]}}` + "\n```"

func TestDailyGenerate(t *testing.T) {
	s := generatingServer(t, http.StatusOK, generatedPuzzle)
	c := newClient(t, s)

	expectStatus(t, c.do(http.MethodPost, "/daily/generate", generateReq{Prompt: "forest"}), http.StatusUnauthorized)
	signup(t, c, "kate")

	rec := c.do(http.MethodPost, "/daily/generate", generateReq{Prompt: "forest"})
	expectStatus(t, rec, http.StatusCreated)
	gen := decodeBody[currentRes](t, rec)
	if gen.Source != "generated" || gen.Title != "Forest" || gen.Slots != 3 || gen.Guesses != 5 {
		t.Fatalf("generated = %+v", gen)
	}
	if gen.PuzzleID == "" || gen.PuzzleID == "daily_2026-03-14" || !gen.ExpiresAt.Equal(testNow.Add(daily.Lifetime)) {
		t.Fatalf("id/expiry = %s %v", gen.PuzzleID, gen.ExpiresAt)
	}

	cur := decodeBody[currentRes](t, newClient(t, s).do(http.MethodGet, "/daily/current", nil))
	if cur.Source != "generated" || cur.PuzzleID != gen.PuzzleID || cur.Colors[2] != "Green" {
		t.Fatalf("current = %+v", cur)
	}

	g := decodeBody[newRes](t, c.do(http.MethodPost, "/daily/new", nil)).Game
	if g == nil || g.PuzzleID != gen.PuzzleID {
		t.Fatalf("daily game = %+v", g)
	}
	res := decodeBody[guessRes](t, c.do(http.MethodPost, "/daily/guess", guessReq{GameID: g.GameID, Values: []string{"Green", "Green", "Red"}}))
	if res.State != mastermind.StatusWon {
		t.Fatalf("guess = %+v", res)
	}
}

func TestDailyGenerateExpires(t *testing.T) {
	s := generatingServer(t, http.StatusOK, generatedPuzzle)
	c := newClient(t, s)
	signup(t, c, "liam")
	expectStatus(t, c.do(http.MethodPost, "/daily/generate", generateReq{Prompt: "forest"}), http.StatusCreated)

	s.now = func() time.Time { return testNow.Add(daily.Lifetime) }
	cur := decodeBody[currentRes](t, c.do(http.MethodGet, "/daily/current", nil))
	if cur.Source != "fallback" || cur.Date != "2026-03-15" {
		t.Fatalf("current after expiry = %+v", cur)
	}
}

func TestDailyGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		srv    func(t *testing.T) *Server
		prompt string
		status int
		code   string
	}{
		{"disabled", func(t *testing.T) *Server { return newTestServer(t, nil) }, "x", http.StatusServiceUnavailable, "generator_disabled"},
		{"empty prompt", func(t *testing.T) *Server { return generatingServer(t, http.StatusOK, generatedPuzzle) }, "   ", http.StatusBadRequest, "invalid_prompt"},
		{"upstream", func(t *testing.T) *Server { return generatingServer(t, http.StatusInternalServerError, "") }, "x", http.StatusBadGateway, "upstream_error"},
		{"bad puzzle", func(t *testing.T) *Server {
			return generatingServer(t, http.StatusOK, `{"title":"x","mastermindConfig":{"colors":[],"slots":3,"guesses":5,"code":[]}}`)
		}, "x", http.StatusBadGateway, "invalid_generated_puzzle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, tt.srv(t))
			signup(t, c, "mona")
			expectError(t, c.do(http.MethodPost, "/daily/generate", generateReq{Prompt: tt.prompt}), tt.status, tt.code)
			if cur := decodeBody[currentRes](t, c.do(http.MethodGet, "/daily/current", nil)); cur.Source != "fallback" {
				t.Fatalf("current = %+v", cur)
			}
		})
	}
}
