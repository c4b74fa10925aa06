package mastermind

import (
	"errors"
	"testing"
)

func rgbConfig() Configuration {
	return Configuration{
		Palette: codes("Red", "Blue", "Green"),
		Slots:   3,
		Guesses: 5,
		Levels:  1,
		Code:    codes("Red", "Green", "Blue"),
	}
}

func TestStartSessionRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Configuration)
	}{
		{"empty palette", func(c *Configuration) { c.Palette = nil }},
		{"too many colors", func(c *Configuration) {
			c.Palette = codes("a", "b", "c", "d", "e", "f", "g", "h", "i")
		}},
		{"duplicate color", func(c *Configuration) { c.Palette = codes("Red", "Red", "Blue", "Green") }},
		{"blank color", func(c *Configuration) { c.Palette = codes("Red", " ", "Blue", "Green") }},
		{"zero slots", func(c *Configuration) { c.Slots = 0; c.Code = nil }},
		{"nine slots", func(c *Configuration) {
			c.Slots = 9
			c.Code = codes("Red", "Red", "Red", "Red", "Red", "Red", "Red", "Red", "Red")
		}},
		{"zero guesses", func(c *Configuration) { c.Guesses = 0 }},
		{"zero levels", func(c *Configuration) { c.Levels = 0 }},
		{"short code", func(c *Configuration) { c.Code = codes("Red", "Green") }},
		{"foreign code token", func(c *Configuration) { c.Code = codes("Red", "Green", "Pink") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := rgbConfig()
			tt.mutate(&cfg)
			s, err := StartSession(cfg)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
			if s != nil {
				t.Errorf("expected nil session on error")
			}
		})
	}
}

func TestStartSessionCopiesConfiguration(t *testing.T) {
	cfg := rgbConfig()
	s, err := StartSession(cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Code[0] = "Blue"
	if s.Config.Code[0] != "Red" {
		t.Errorf("session shares the caller's code slice")
	}
	if s.Status() != StatusInProgress || len(s.History) != 0 || s.ID == "" {
		t.Errorf("unexpected fresh session: %+v", s)
	}
}

func TestEndToEndWin(t *testing.T) {
	s, err := StartSession(rgbConfig())
	if err != nil {
		t.Fatal(err)
	}

	a, err := s.Submit(codes("Red", "Blue", "Green"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Feedback != (Feedback{Exact: 1, ColorOnly: 2}) {
		t.Errorf("guess 1 feedback = %+v", a.Feedback)
	}
	if s.Status() != StatusInProgress {
		t.Errorf("after guess 1 status = %s", s.Status())
	}

	a, err = s.Submit(codes("Red", "Green", "Blue"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Feedback != (Feedback{Exact: 3}) {
		t.Errorf("guess 2 feedback = %+v", a.Feedback)
	}
	if s.Status() != StatusWon {
		t.Errorf("after guess 2 status = %s", s.Status())
	}
	if got := Score(s); got != 100*3+50*3 {
		t.Errorf("Score() = %d", got)
	}
}

func TestLossOnlyAfterBudgetExhausted(t *testing.T) {
	cfg := rgbConfig()
	cfg.Guesses = 3
	s, _ := StartSession(cfg)
	wrong := codes("Blue", "Blue", "Blue")

	for i := 1; i <= 3; i++ {
		if _, err := s.Submit(wrong); err != nil {
			t.Fatalf("guess %d: %v", i, err)
		}
		want := StatusInProgress
		if i == 3 {
			want = StatusLost
		}
		if s.Status() != want {
			t.Fatalf("after guess %d status = %s, want %s", i, s.Status(), want)
		}
	}
	if s.Remaining() != 0 || Score(s) != 0 {
		t.Errorf("lost session: remaining=%d score=%d", s.Remaining(), Score(s))
	}
}

func TestWinOnFinalGuess(t *testing.T) {
	cfg := rgbConfig()
	cfg.Guesses = 2
	s, _ := StartSession(cfg)
	_, _ = s.Submit(codes("Blue", "Blue", "Blue"))
	if _, err := s.Submit(cfg.Code); err != nil {
		t.Fatal(err)
	}
	if s.Status() != StatusWon {
		t.Fatalf("status = %s, want won", s.Status())
	}
}

func TestSubmitRejectsWithoutMutation(t *testing.T) {
	s, _ := StartSession(rgbConfig())
	_, _ = s.Submit(codes("Green", "Green", "Green"))

	tests := []struct {
		name   string
		values []Token
	}{
		{"too short", codes("Red", "Blue")},
		{"too long", codes("Red", "Blue", "Green", "Red")},
		{"blank slot", codes("Red", "", "Green")},
		{"not in palette", codes("Red", "Pink", "Green")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Submit(tt.values)
			if !errors.Is(err, ErrInvalidGuess) {
				t.Fatalf("expected ErrInvalidGuess, got %v", err)
			}
			if len(s.History) != 1 {
				t.Fatalf("history mutated: %d attempts", len(s.History))
			}
		})
	}
}

func TestSubmitOnTerminalSession(t *testing.T) {
	s, _ := StartSession(rgbConfig())
	_, _ = s.Submit(s.Config.Code)

	_, err := s.Submit(codes("Red", "Red", "Red"))
	if !errors.Is(err, ErrSessionOver) || !errors.Is(err, ErrInvalidGuess) {
		t.Fatalf("expected ErrSessionOver matching ErrInvalidGuess, got %v", err)
	}
	if len(s.History) != 1 {
		t.Fatalf("history mutated on terminal session")
	}
}

func TestUnusedPaletteColorScoresNothing(t *testing.T) {
	cfg := Configuration{
		Palette: codes("Red", "Blue", "Pink"),
		Slots:   2,
		Guesses: 3,
		Levels:  1,
		Code:    codes("Red", "Blue"),
	}
	s, err := StartSession(cfg)
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Submit(codes("Pink", "Pink"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Feedback != (Feedback{}) {
		t.Errorf("feedback = %+v, want zero", a.Feedback)
	}
}

func TestResetAlwaysFresh(t *testing.T) {
	for _, finish := range []string{"won", "lost", "in_progress"} {
		t.Run(finish, func(t *testing.T) {
			cfg := rgbConfig()
			cfg.Guesses = 1
			s, _ := StartSession(cfg)
			switch finish {
			case "won":
				_, _ = s.Submit(cfg.Code)
			case "lost":
				_, _ = s.Submit(codes("Blue", "Blue", "Blue"))
			}
			r := s.Reset()
			if r.Status() != StatusInProgress || len(r.History) != 0 {
				t.Fatalf("reset session: status=%s history=%d", r.Status(), len(r.History))
			}
			if r.ID != s.ID || r.Config.Slots != s.Config.Slots {
				t.Errorf("reset changed identity or configuration")
			}
		})
	}
}

func TestForfeit(t *testing.T) {
	s, _ := StartSession(rgbConfig())
	if err := s.Forfeit(); err != nil {
		t.Fatal(err)
	}
	if s.Status() != StatusLost || len(s.History) != 0 {
		t.Fatalf("forfeit: status=%s history=%d", s.Status(), len(s.History))
	}
	if err := s.Forfeit(); !errors.Is(err, ErrSessionOver) {
		t.Errorf("second forfeit: %v", err)
	}
	if _, err := s.Submit(s.Config.Code); !errors.Is(err, ErrSessionOver) {
		t.Errorf("submit after forfeit: %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s, _ := StartSession(rgbConfig())
	_, _ = s.Submit(codes("Red", "Blue", "Green"))
	c := s.Clone()
	c.History[0].Values[0] = "Green"
	_, _ = c.Submit(c.Config.Code)
	if s.History[0].Values[0] != "Red" || len(s.History) != 1 {
		t.Errorf("clone aliases original history")
	}
}
