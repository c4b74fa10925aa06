// internal/mastermind/types.go
//
// Core type definitions for the Mastermind puzzle engine.
// Defines:
//   - Token: a single color in a palette, code or guess.
//   - Configuration: the immutable puzzle being played.
//   - Feedback / Attempt: the scored result of one submitted guess.
//   - Status: derived session state (in_progress / won / lost).
//   - Session: one player's attempt at one secret code.

package mastermind

// Bounds enforced by Validate and Normalize.
const (
	MaxColors = 8
	MaxSlots  = 8
	MinSlots  = 1
)

// Token is a color name such as "Red". Comparison is exact; callers that
// accept user input canonicalise spelling before building a Configuration.
type Token string

// Feedback is the peg result for one guess.
//   - Exact:     right color in the right slot.
//   - ColorOnly: right color in a different slot, counted up to the
//     leftover multiplicity of that color in both code and guess.
type Feedback struct {
	Exact     int `json:"exact"`
	ColorOnly int `json:"colorOnly"`
}

// Attempt is one submitted guess together with its feedback.
type Attempt struct {
	Values   []Token  `json:"values"`
	Feedback Feedback `json:"feedback"`
}

// Status is the coarse session state. It is always derived from the
// history, never stored.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Terminal reports whether no further guesses are accepted.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// Configuration describes a Mastermind puzzle.
type Configuration struct {
	Palette []Token `json:"colors"`  // distinct tokens, 1..MaxColors
	Slots   int     `json:"slots"`   // code length, 1..MaxSlots
	Guesses int     `json:"guesses"` // guess budget, >= 1
	Levels  int     `json:"levels"`  // opaque progression counter, >= 1
	Code    []Token `json:"code"`    // secret, len == Slots, tokens from Palette
}

// Session holds the state of a single game.
type Session struct {
	ID        string        // random hex identifier
	Config    Configuration // owned copy; never mutated after start
	History   []Attempt     // append-only
	forfeited bool          // set by Forfeit when an external timer expires
}
