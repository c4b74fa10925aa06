// internal/mastermind/config.go
//
// Validation and normalisation of puzzle configurations.
//
//   - Validate is the strict gate used by StartSession: it never repairs input.
//   - Normalize repairs builder input the way the puzzle editor does before
//     saving (trim, dedupe, clamp, refill the code) and never fails.

package mastermind

import (
	"fmt"
	"strings"
)

// Validate checks every configuration invariant and reports the first
// violation wrapped in ErrInvalidConfiguration.
func (c Configuration) Validate() error {
	if len(c.Palette) == 0 {
		return fmt.Errorf("%w: palette is empty", ErrInvalidConfiguration)
	}
	if len(c.Palette) > MaxColors {
		return fmt.Errorf("%w: palette has %d colors, max %d", ErrInvalidConfiguration, len(c.Palette), MaxColors)
	}
	seen := make(map[Token]struct{}, len(c.Palette))
	for _, t := range c.Palette {
		if strings.TrimSpace(string(t)) == "" {
			return fmt.Errorf("%w: palette contains a blank color", ErrInvalidConfiguration)
		}
		if _, dup := seen[t]; dup {
			return fmt.Errorf("%w: palette repeats %q", ErrInvalidConfiguration, t)
		}
		seen[t] = struct{}{}
	}
	if c.Slots < MinSlots || c.Slots > MaxSlots {
		return fmt.Errorf("%w: slots must be %d-%d, got %d", ErrInvalidConfiguration, MinSlots, MaxSlots, c.Slots)
	}
	if c.Guesses < 1 {
		return fmt.Errorf("%w: guesses must be at least 1, got %d", ErrInvalidConfiguration, c.Guesses)
	}
	if c.Levels < 1 {
		return fmt.Errorf("%w: levels must be at least 1, got %d", ErrInvalidConfiguration, c.Levels)
	}
	if len(c.Code) != c.Slots {
		return fmt.Errorf("%w: code has %d tokens, want %d", ErrInvalidConfiguration, len(c.Code), c.Slots)
	}
	for i, t := range c.Code {
		if _, ok := seen[t]; !ok {
			return fmt.Errorf("%w: code slot %d uses %q which is not in the palette", ErrInvalidConfiguration, i, t)
		}
	}
	return nil
}

// Has reports whether t belongs to the palette.
func (c Configuration) Has(t Token) bool {
	for _, p := range c.Palette {
		if p == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot alias the palette or code.
func (c Configuration) Clone() Configuration {
	out := c
	out.Palette = append([]Token(nil), c.Palette...)
	out.Code = append([]Token(nil), c.Code...)
	return out
}

// Normalize repairs builder input:
//   - palette tokens are trimmed; blanks and repeats dropped; at most MaxColors kept.
//   - slots clamped to [max(1, len(palette)), MaxSlots].
//   - guesses and levels raised to at least 1.
//   - code resized to slots; blank or foreign tokens become the first palette color.
//
// With an empty palette the code is left blank and Validate will reject it.
func Normalize(raw Configuration) Configuration {
	var palette []Token
	seen := make(map[Token]struct{}, len(raw.Palette))
	for _, t := range raw.Palette {
		t = Token(strings.TrimSpace(string(t)))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		palette = append(palette, t)
		if len(palette) == MaxColors {
			break
		}
	}

	minSlots := max(MinSlots, len(palette))
	slots := min(max(raw.Slots, minSlots), MaxSlots)

	code := make([]Token, slots)
	for i := range code {
		if i < len(raw.Code) {
			t := Token(strings.TrimSpace(string(raw.Code[i])))
			if _, ok := seen[t]; ok {
				code[i] = t
				continue
			}
		}
		if len(palette) > 0 {
			code[i] = palette[0]
		}
	}

	return Configuration{
		Palette: palette,
		Slots:   slots,
		Guesses: max(raw.Guesses, 1),
		Levels:  max(raw.Levels, 1),
		Code:    code,
	}
}
