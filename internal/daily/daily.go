package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

// Lifetime is how long a generated challenge stays current.
const Lifetime = 24 * time.Hour

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// digest is HMAC-SHA256(salt, YYYY-MM-DD).
func digest(date time.Time, salt string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	return h.Sum(nil)
}

// Index returns a deterministic index in [0, n) for a date.
func Index(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	sum := digest(date, salt)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Fallback derives the day's puzzle when no generated challenge is current:
// four colors from the catalogue, four slots, eight guesses, with palette
// offset and code drawn from successive digest bytes. Every server with the
// same salt serves the same puzzle on the same date.
func Fallback(date time.Time, salt string, colors []mastermind.Token) mastermind.Configuration {
	const (
		paletteSize = 4
		slots       = 4
		guesses     = 8
	)
	n := min(paletteSize, len(colors))
	sum := digest(date, salt)

	start := 0
	if len(colors) > 0 {
		start = Index(date, salt, len(colors))
	}
	palette := make([]mastermind.Token, n)
	for i := range palette {
		palette[i] = colors[(start+i)%len(colors)]
	}

	code := make([]mastermind.Token, slots)
	for i := range code {
		if n > 0 {
			code[i] = palette[int(sum[8+i])%n]
		}
	}
	return mastermind.Configuration{
		Palette: palette,
		Slots:   slots,
		Guesses: guesses,
		Levels:  1,
		Code:    code,
	}
}
