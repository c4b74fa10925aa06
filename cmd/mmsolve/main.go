// cmd/mmsolve/main.go
//
// Command-line Mastermind solver.
//
//	mmsolve -colors Red,Blue,Green,Yellow,Orange,Purple -slots 4
//	mmsolve -colors Red,Blue,Green -slots 3 -secret Blue,Blue,Red
//
// Without -secret it prints the minimax opening guess. With -secret it plays
// a full game against that code and prints every guess and its feedback.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/robalobadob/mindmatch/internal/mastermind"
	"github.com/robalobadob/mindmatch/internal/palette"
	"github.com/robalobadob/mindmatch/internal/solver"
)

func main() {
	colorsFlag := flag.String("colors", "", "comma-separated palette (default: the built-in catalogue)")
	slots := flag.Int("slots", 4, "code length")
	secretFlag := flag.String("secret", "", "comma-separated secret code to solve")
	guesses := flag.Int("guesses", 10, "guess budget when solving -secret")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *colorsFlag, *slots, *secretFlag, *guesses); err != nil {
		fmt.Fprintln(os.Stderr, "mmsolve:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, colorsArg string, slots int, secretArg string, guesses int) error {
	var colors []mastermind.Token
	if colorsArg == "" {
		if err := palette.Init(); err != nil {
			return err
		}
		colors = palette.Tokens()
	} else {
		colors = palette.CanonicalAll(split(colorsArg))
	}

	cfg := mastermind.Configuration{Palette: colors, Slots: slots, Guesses: guesses, Levels: 1}
	if secretArg != "" {
		cfg.Code = palette.CanonicalAll(split(secretArg))
	} else {
		cfg.Code = palette.RandomCode(colors, slots)
	}
	s, err := mastermind.StartSession(cfg)
	if err != nil {
		return err
	}

	all, err := solver.Candidates(cfg.Palette, cfg.Slots)
	if err != nil {
		return err
	}
	fmt.Printf("%d colors, %d slots: %d possible codes\n", len(cfg.Palette), cfg.Slots, len(all))

	for s.Status() == mastermind.StatusInProgress {
		bar := progressbar.Default(-1, fmt.Sprintf("guess %d", len(s.History)+1))
		g, remaining, err := solver.Suggest(ctx, s, func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		})
		_ = bar.Finish()
		if err != nil {
			return err
		}
		if secretArg == "" {
			fmt.Println("best opening guess:", join(g))
			return nil
		}
		a, err := s.Submit(g)
		if err != nil {
			return err
		}
		fmt.Printf("%-40s exact=%d color=%d (of %d candidates)\n", join(a.Values), a.Feedback.Exact, a.Feedback.ColorOnly, remaining)
	}
	fmt.Printf("%s after %d guesses\n", s.Status(), len(s.History))
	return nil
}

func split(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func join(code []mastermind.Token) string {
	parts := make([]string, len(code))
	for i, t := range code {
		parts[i] = string(t)
	}
	return strings.Join(parts, " ")
}
