// internal/solver/solver.go
//
// Code-breaking helper for Mastermind sessions.
// Responsibilities:
//   - Enumerate the code space for a palette and slot count.
//   - Filter candidates against the feedback already received.
//   - Pick the next guess with Knuth's minimax rule.
//
// Notes:
//   - The space grows as colors^slots; anything above MaxCandidates is refused.
//   - BestGuess scores guesses on a small worker pool and reports progress
//     through an optional callback (used by cmd/mmsolve for its bar).

package solver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

// MaxCandidates bounds the enumerated code space.
const MaxCandidates = 65536

// MaxWork bounds the feedback evaluations Suggest performs (guesses x remaining).
const MaxWork = 4_000_000

var ErrSpaceTooLarge = errors.New("solver: code space too large")

type Code = []mastermind.Token

// Size returns colors^slots, or -1 once it passes MaxCandidates.
func Size(colors, slots int) int {
	n := 1
	for i := 0; i < slots; i++ {
		n *= colors
		if n > MaxCandidates {
			return -1
		}
	}
	return n
}

// Candidates lists every code over palette in lexical palette order.
func Candidates(palette []mastermind.Token, slots int) ([]Code, error) {
	if len(palette) == 0 || slots <= 0 {
		return nil, nil
	}
	size := Size(len(palette), slots)
	if size < 0 {
		return nil, fmt.Errorf("%w: %d colors over %d slots", ErrSpaceTooLarge, len(palette), slots)
	}
	out := make([]Code, 0, size)
	idx := make([]int, slots)
	for {
		code := make(Code, slots)
		for i, j := range idx {
			code[i] = palette[j]
		}
		out = append(out, code)

		// odometer increment, last slot fastest
		k := slots - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < len(palette) {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			return out, nil
		}
	}
}

// Consistent keeps the candidates that would have produced every recorded
// feedback had they been the secret.
func Consistent(candidates []Code, history []mastermind.Attempt) []Code {
	return lo.Filter(candidates, func(c Code, _ int) bool {
		for _, a := range history {
			fb, err := mastermind.Evaluate(c, a.Values)
			if err != nil || fb != a.Feedback {
				return false
			}
		}
		return true
	})
}

// Remaining enumerates the codes still possible for a session.
func Remaining(s *mastermind.Session) ([]Code, error) {
	all, err := Candidates(s.Config.Palette, s.Config.Slots)
	if err != nil {
		return nil, err
	}
	return Consistent(all, s.History), nil
}

// Progress is called after each guess is scored with (done, total). It may
// be called from several goroutines at once.
type Progress func(done, total int)

type scored struct {
	index      int
	worst      int
	consistent bool
}

// BestGuess returns the guess from guesses that minimises the largest
// feedback partition of remaining. Ties prefer a guess that is itself still
// possible, then the earlier guess. With one remaining code that code is
// returned directly.
func BestGuess(ctx context.Context, guesses, remaining []Code, onProgress Progress) (Code, error) {
	switch {
	case len(remaining) == 0:
		return nil, errors.New("solver: no consistent codes remain")
	case len(remaining) == 1:
		if onProgress != nil {
			onProgress(1, 1)
		}
		return remaining[0], nil
	case len(guesses) == 0:
		guesses = remaining
	}

	possible := make(map[string]struct{}, len(remaining))
	for _, r := range remaining {
		possible[key(r)] = struct{}{}
	}

	jobs := make(chan int)
	results := make([]scored, len(guesses))
	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	workers := min(runtime.NumCPU(), len(guesses))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				_, ok := possible[key(guesses[i])]
				results[i] = scored{index: i, worst: worstPartition(guesses[i], remaining), consistent: ok}
				n := done.Add(1)
				if onProgress != nil {
					onProgress(int(n), len(guesses))
				}
			}
		}()
	}

feed:
	for i := range guesses {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.worst < best.worst || (r.worst == best.worst && r.consistent && !best.consistent) {
			best = r
		}
	}
	return guesses[best.index], nil
}

// Suggest picks the next guess for s and reports how many codes remain.
// Large spaces score only (a prefix of) the remaining codes.
func Suggest(ctx context.Context, s *mastermind.Session, onProgress Progress) (Code, int, error) {
	all, err := Candidates(s.Config.Palette, s.Config.Slots)
	if err != nil {
		return nil, 0, err
	}
	remaining := Consistent(all, s.History)
	guesses := all
	if len(remaining) > 0 && len(guesses)*len(remaining) > MaxWork {
		guesses = remaining
		if n := max(1, MaxWork/len(remaining)); len(guesses) > n {
			guesses = guesses[:n]
		}
	}
	guess, err := BestGuess(ctx, guesses, remaining, onProgress)
	return guess, len(remaining), err
}

func worstPartition(guess Code, remaining []Code) int {
	counts := make(map[mastermind.Feedback]int)
	worst := 0
	for _, secret := range remaining {
		fb, _ := mastermind.Evaluate(secret, guess)
		counts[fb]++
		if counts[fb] > worst {
			worst = counts[fb]
		}
	}
	return worst
}

func key(c Code) string {
	b := make([]byte, 0, len(c)*8)
	for _, t := range c {
		b = append(b, t...)
		b = append(b, 0)
	}
	return string(b)
}
