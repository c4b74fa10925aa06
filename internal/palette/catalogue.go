// internal/palette/catalogue.go
//
// Canonicalisation of user and generator supplied color names.
//
// Notes:
//   • Known colors map to their catalogue spelling ("rEd" → "Red").
//   • Unknown colors are trimmed but otherwise kept: authors may use their own
//     names, and the engine only needs code and guess to agree.

package palette

import (
	"strings"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

// Canonical returns the catalogue spelling of name, or the trimmed input.
func Canonical(name string) mastermind.Token {
	_ = Init()
	name = strings.TrimSpace(name)
	if c, ok := byLower[strings.ToLower(name)]; ok {
		return mastermind.Token(c)
	}
	return mastermind.Token(name)
}

// CanonicalAll maps Canonical over names.
func CanonicalAll(names []string) []mastermind.Token {
	out := make([]mastermind.Token, len(names))
	for i, n := range names {
		out[i] = Canonical(n)
	}
	return out
}

// CanonicalConfig canonicalises palette and code of cfg.
func CanonicalConfig(cfg mastermind.Configuration) mastermind.Configuration {
	out := cfg.Clone()
	for i, t := range out.Palette {
		out.Palette[i] = Canonical(string(t))
	}
	for i, t := range out.Code {
		out.Code[i] = Canonical(string(t))
	}
	return out
}
