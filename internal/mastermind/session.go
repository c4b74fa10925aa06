// internal/mastermind/session.go
//
// Session state machine for a single Mastermind game.
// Responsibilities:
//   - Start sessions from a validated configuration.
//   - Validate and apply guesses (length, blanks, palette membership).
//   - Derive state from the history: in_progress → won/lost.
//   - Reset ("play again") and forfeit (external timer expiry).
//
// Notes:
//   - A Session is not safe for concurrent use; the store serializes mutation.
//   - Win is checked before loss, so a correct final guess wins.
//   - randomID() is a compact hex identifier for correlating server state.
package mastermind

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// StartSession validates cfg and returns a fresh in-progress session.
func StartSession(cfg Configuration) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		ID:      randomID(),
		Config:  cfg.Clone(),
		History: []Attempt{},
	}, nil
}

// Submit validates and scores a guess, appending it to the history.
// Returns the recorded attempt, or an error with the session unchanged.
//
// Validation rules:
//   - Session must not be won or lost (ErrSessionOver).
//   - Guess must have exactly Config.Slots tokens, none blank.
//   - Every token must be in the palette.
func (s *Session) Submit(values []Token) (Attempt, error) {
	if s.Status().Terminal() {
		return Attempt{}, ErrSessionOver
	}
	if len(values) != s.Config.Slots {
		return Attempt{}, fmt.Errorf("%w: got %d colors, want %d", ErrInvalidGuess, len(values), s.Config.Slots)
	}
	for i, v := range values {
		if strings.TrimSpace(string(v)) == "" {
			return Attempt{}, fmt.Errorf("%w: slot %d is empty", ErrInvalidGuess, i)
		}
		if !s.Config.Has(v) {
			return Attempt{}, fmt.Errorf("%w: %q is not in the palette", ErrInvalidGuess, v)
		}
	}

	fb, err := Evaluate(s.Config.Code, values)
	if err != nil {
		return Attempt{}, err
	}
	a := Attempt{Values: append([]Token(nil), values...), Feedback: fb}
	s.History = append(s.History, a)
	return a, nil
}

// Status derives the session state from the history.
func (s *Session) Status() Status {
	for _, a := range s.History {
		if a.Feedback.Solved(s.Config.Slots) {
			return StatusWon
		}
	}
	if s.forfeited || len(s.History) >= s.Config.Guesses {
		return StatusLost
	}
	return StatusInProgress
}

// Remaining is the number of guesses still allowed while in progress.
func (s *Session) Remaining() int {
	if s.Status().Terminal() {
		return 0
	}
	return s.Config.Guesses - len(s.History)
}

// Forfeit ends an in-progress session as lost without consuming a guess.
// It is the hook for countdown timers owned by the caller.
func (s *Session) Forfeit() error {
	if s.Status().Terminal() {
		return ErrSessionOver
	}
	s.forfeited = true
	return nil
}

// Reset returns a fresh in-progress session with the same ID and configuration.
func (s *Session) Reset() *Session {
	return &Session{
		ID:      s.ID,
		Config:  s.Config.Clone(),
		History: []Attempt{},
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	out := &Session{
		ID:        s.ID,
		Config:    s.Config.Clone(),
		History:   make([]Attempt, len(s.History)),
		forfeited: s.forfeited,
	}
	for i, a := range s.History {
		out.History[i] = Attempt{Values: append([]Token(nil), a.Values...), Feedback: a.Feedback}
	}
	return out
}

// Score ranks a finished session for the leaderboard: zero unless won,
// otherwise 100 per slot plus 50 per unused guess.
func Score(s *Session) int {
	if s.Status() != StatusWon {
		return 0
	}
	return 100*s.Config.Slots + 50*(s.Config.Guesses-len(s.History))
}

// randomID returns a compact 16‑hex‑char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
