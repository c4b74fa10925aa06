// internal/palette/palette.go
//
// Provides the color catalogue used by puzzles, the generator and the daily
// fallback.
//
// Responsibilities:
//   - Load the known colors from an environment-provided file or fall back to
//     the embedded default list.
//   - Maintain a case-insensitive lookup (lowercase name → catalogue spelling).
//   - Supply helpers like Canonical, IsKnown, RandomCode and Stats.
//
// Initialization behavior (Init):
//   1. If PALETTE_FILE is set, load one color per line from it.
//   2. Otherwise use the embedded assets/colors.txt.
//
// Constraints:
//   • Blank lines and lines starting with '#' are ignored.
//   • Duplicates (case-insensitive) keep the first spelling.
//   • Initialization is run once (sync.Once).

package palette

import (
	"bufio"
	"errors"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/robalobadob/mindmatch/assets"
	"github.com/robalobadob/mindmatch/internal/mastermind"
)

var (
	initOnce   sync.Once
	colors     []string          // catalogue order
	byLower    map[string]string // lowercase → catalogue spelling
	initialErr error
)

// Init loads the catalogue exactly once.
// Returns an error if the catalogue ends up empty.
func Init() error {
	initOnce.Do(func() {
		var list []string
		if path := os.Getenv("PALETTE_FILE"); path != "" {
			list, initialErr = readColorFile(path)
			if initialErr != nil {
				return
			}
		} else {
			list, initialErr = assets.ColorList()
			if initialErr != nil {
				return
			}
		}
		load(list)
		if len(colors) == 0 {
			initialErr = errors.New("palette: color list is empty")
		}
	})
	return initialErr
}

// load replaces the catalogue; callers hold initOnce.
func load(list []string) {
	list = lo.UniqBy(lo.Filter(lo.Map(list, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}), func(s string, _ int) bool {
		return s != "" && !strings.HasPrefix(s, "#")
	}), strings.ToLower)

	colors = list
	byLower = lo.KeyBy(list, strings.ToLower)
}

// readColorFile loads one color per line from a file.
func readColorFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// Colors returns a copy of the catalogue.
func Colors() []string {
	_ = Init()
	return append([]string(nil), colors...)
}

// Tokens returns the catalogue as mastermind tokens.
func Tokens() []mastermind.Token {
	return lo.Map(Colors(), func(c string, _ int) mastermind.Token { return mastermind.Token(c) })
}

// IsKnown reports whether name is in the catalogue (case-insensitive).
func IsKnown(name string) bool {
	_ = Init()
	_, ok := byLower[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Stats returns the number of loaded colors.
func Stats() int {
	_ = Init()
	return len(colors)
}

// RandomCode returns a random code of the given length drawn from from.
// An empty from yields nil.
func RandomCode(from []mastermind.Token, slots int) []mastermind.Token {
	if len(from) == 0 || slots <= 0 {
		return nil
	}
	out := make([]mastermind.Token, slots)
	for i := range out {
		out[i] = from[rand.IntN(len(from))]
	}
	return out
}
