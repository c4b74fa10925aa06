package mastermind

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned by Evaluate when code and guess differ in length.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidConfiguration rejects puzzle authoring input.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidGuess rejects a guess; the session is left untouched.
	ErrInvalidGuess = errors.New("invalid guess")

	// ErrSessionOver is returned when guessing on a won or lost session.
	// It also matches ErrInvalidGuess under errors.Is.
	ErrSessionOver = fmt.Errorf("%w: session is over", ErrInvalidGuess)
)
