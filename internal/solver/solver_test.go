package solver

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

var six = []mastermind.Token{"A", "B", "C", "D", "E", "F"}

func TestCandidates(t *testing.T) {
	got, err := Candidates([]mastermind.Token{"R", "B"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []Code{{"R", "R"}, {"R", "B"}, {"B", "R"}, {"B", "B"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates() = %v", got)
	}

	all, _ := Candidates(six, 4)
	if len(all) != 1296 {
		t.Errorf("6^4 = %d", len(all))
	}

	if _, err := Candidates(make([]mastermind.Token, 8), 8); !errors.Is(err, ErrSpaceTooLarge) {
		t.Errorf("8^8 err = %v", err)
	}
	if Size(4, 8) != MaxCandidates {
		t.Errorf("Size(4,8) = %d", Size(4, 8))
	}
}

func TestConsistentKeepsSecret(t *testing.T) {
	secret := Code{"C", "A", "F", "A"}
	all, _ := Candidates(six, 4)

	var history []mastermind.Attempt
	for _, g := range []Code{{"A", "A", "B", "B"}, {"C", "D", "E", "F"}} {
		fb, _ := mastermind.Evaluate(secret, g)
		history = append(history, mastermind.Attempt{Values: g, Feedback: fb})
	}
	left := Consistent(all, history)
	if len(left) == 0 || len(left) >= len(all) {
		t.Fatalf("Consistent left %d", len(left))
	}
	found := false
	for _, c := range left {
		if reflect.DeepEqual(c, secret) {
			found = true
		}
	}
	if !found {
		t.Errorf("secret filtered out")
	}
}

func TestBestGuessKnuthOpening(t *testing.T) {
	all, _ := Candidates(six, 4)
	var calls atomic.Int64
	guess, err := BestGuess(context.Background(), all, all, func(done, total int) {
		calls.Add(1)
		if total != len(all) || done < 1 || done > total {
			t.Errorf("progress(%d, %d)", done, total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := (Code{"A", "A", "B", "B"}); !reflect.DeepEqual(guess, want) {
		t.Errorf("opening = %v, want %v", guess, want)
	}
	if calls.Load() != int64(len(all)) {
		t.Errorf("progress called %d times", calls.Load())
	}
}

func TestSuggestSolvesWithinFiveGuesses(t *testing.T) {
	secrets := []Code{{"F", "E", "D", "C"}, {"A", "A", "A", "A"}, {"B", "F", "B", "E"}}
	for _, secret := range secrets {
		cfg := mastermind.Configuration{Palette: six, Slots: 4, Guesses: 5, Levels: 1, Code: secret}
		s, err := mastermind.StartSession(cfg)
		if err != nil {
			t.Fatal(err)
		}
		for s.Status() == mastermind.StatusInProgress {
			g, _, err := Suggest(context.Background(), s, nil)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := s.Submit(g); err != nil {
				t.Fatal(err)
			}
		}
		if s.Status() != mastermind.StatusWon {
			t.Errorf("secret %v not solved in 5: %+v", secret, s.History)
		}
	}
}

func TestBestGuessEdges(t *testing.T) {
	if _, err := BestGuess(context.Background(), nil, nil, nil); err == nil {
		t.Error("expected error with nothing remaining")
	}
	only := []Code{{"A", "B"}}
	g, err := BestGuess(context.Background(), nil, only, nil)
	if err != nil || !reflect.DeepEqual(g, only[0]) {
		t.Errorf("single remaining = %v, %v", g, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	all, _ := Candidates(six, 3)
	if _, err := BestGuess(ctx, all, all, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: %v", err)
	}
}
