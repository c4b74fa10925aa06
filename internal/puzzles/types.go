// internal/puzzles/types.go
//
// Puzzle library models.
// Defines:
//   - Type / Difficulty: closed enums stored as their upper-case names.
//   - Descriptor: a puzzle in the library (Mastermind puzzles carry a configuration).
//   - Progress: a player's standing on one puzzle.
//   - Entry: one leaderboard row.

package puzzles

import (
	"strings"
	"time"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

// Type is the puzzle kind.
type Type string

const (
	TypeMastermind     Type = "MASTERMIND"
	TypeJigsaw         Type = "JIGSAW"
	TypePatternMemory  Type = "PATTERN_MEMORY"
	TypeLogicGrid      Type = "LOGIC_GRID"
	TypeSequenceRecall Type = "SEQUENCE_RECALL"
	TypeFocusTapper    Type = "FOCUS_TAPPER"
	TypeSpeedMatch     Type = "SPEED_MATCH"
)

var typeDisplay = map[Type]string{
	TypeMastermind:     "Mastermind",
	TypeJigsaw:         "Jigsaw",
	TypePatternMemory:  "Pattern Memory",
	TypeLogicGrid:      "Logic Grid",
	TypeSequenceRecall: "Sequence Recall",
	TypeFocusTapper:    "Focus Tapper",
	TypeSpeedMatch:     "Speed Match",
}

// DisplayName is the human label of t.
func (t Type) DisplayName() string { return typeDisplay[t] }

// ParseType accepts an enum name ("LOGIC_GRID", "logic grid") or a display
// name ("Logic Grid"). Anything else is PATTERN_MEMORY.
func ParseType(s string) Type {
	normalized := strings.ToUpper(strings.Join(strings.Fields(s), "_"))
	for t, display := range typeDisplay {
		if string(t) == normalized || strings.EqualFold(display, strings.TrimSpace(s)) {
			return t
		}
	}
	return TypePatternMemory
}

// Difficulty is the author-chosen difficulty.
type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
	Expert Difficulty = "EXPERT"
)

// ParseDifficulty is case-insensitive; unknown values are MEDIUM.
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard, Expert:
		return d
	}
	return Medium
}

// Descriptor is a puzzle in the library.
type Descriptor struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	Type              Type                      `json:"type"`
	CreatorID         string                    `json:"-"`
	Difficulty        Difficulty                `json:"difficulty"`
	EstimatedDuration time.Duration             `json:"-"`
	UserCreated       bool                      `json:"isUserCreated"`
	ImageURL          string                    `json:"imageUrl,omitempty"`
	Mastermind        *mastermind.Configuration `json:"-"`
	LastPlayed        *time.Time                `json:"lastPlayed,omitempty"`
	CreatedAt         time.Time                 `json:"createdAt"`
}

// Progress is a player's standing on one puzzle.
type Progress struct {
	UserID          string         `json:"-"`
	PuzzleID        string         `json:"puzzleId"`
	CurrentLevel    int            `json:"currentLevel"`
	LevelsUnlocked  int            `json:"levelsUnlocked"`
	BestScore       int            `json:"bestScore"`
	BestTime        *time.Duration `json:"-"`
	InProgressState string         `json:"inProgressState,omitempty"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Entry is one leaderboard row.
type Entry struct {
	PuzzleID   string    `json:"puzzleId"`
	PlayerName string    `json:"playerName"`
	UserID     string    `json:"-"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recordedAt"`
}
