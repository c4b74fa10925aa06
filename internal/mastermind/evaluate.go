package mastermind

import "fmt"

// Evaluate scores guess against secret using the two-pass Mastermind rule.
//
// Pass 1 counts exact positions. Those tokens are consumed and take no part
// in the second pass. Pass 2 tallies the leftover tokens of both sequences
// per color; each color contributes min(secretLeft, guessLeft) color-only
// pegs, so duplicates are matched at most as often as they appear on both sides.
func Evaluate(secret, guess []Token) (Feedback, error) {
	if len(secret) != len(guess) {
		return Feedback{}, fmt.Errorf("%w: secret has %d slots, guess has %d",
			ErrInvalidArgument, len(secret), len(guess))
	}

	var fb Feedback
	secretLeft := make(map[Token]int, len(secret))
	guessLeft := make(map[Token]int, len(guess))

	for i := range secret {
		if guess[i] == secret[i] {
			fb.Exact++
			continue
		}
		secretLeft[secret[i]]++
		guessLeft[guess[i]]++
	}

	for color, n := range guessLeft {
		fb.ColorOnly += min(n, secretLeft[color])
	}
	return fb, nil
}

// Solved reports whether fb is a full match for a code of the given length.
func (fb Feedback) Solved(slots int) bool { return fb.Exact == slots }
