package mastermind

import (
	"errors"
	"testing"
)

func codes(s ...string) []Token {
	out := make([]Token, len(s))
	for i, v := range s {
		out[i] = Token(v)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		secret []Token
		guess  []Token
		want   Feedback
	}{
		{
			name:   "duplicates in both",
			secret: codes("Red", "Red", "Blue"),
			guess:  codes("Blue", "Red", "Red"),
			want:   Feedback{Exact: 1, ColorOnly: 2},
		},
		{
			name:   "identical",
			secret: codes("Red", "Green", "Blue"),
			guess:  codes("Red", "Green", "Blue"),
			want:   Feedback{Exact: 3},
		},
		{
			name:   "permutation",
			secret: codes("Red", "Green", "Blue"),
			guess:  codes("Red", "Blue", "Green"),
			want:   Feedback{Exact: 1, ColorOnly: 2},
		},
		{
			name:   "no overlap",
			secret: codes("Red", "Red", "Red", "Red"),
			guess:  codes("Blue", "Green", "Blue", "Green"),
			want:   Feedback{},
		},
		{
			name:   "guess repeats a color the code has once",
			secret: codes("Red", "Blue", "Green", "Yellow"),
			guess:  codes("Blue", "Blue", "Blue", "Blue"),
			want:   Feedback{Exact: 1},
		},
		{
			name:   "code repeats a color the guess has once",
			secret: codes("Blue", "Blue", "Green", "Green"),
			guess:  codes("Green", "Red", "Red", "Blue"),
			want:   Feedback{ColorOnly: 2},
		},
		{
			name:   "exact not double counted",
			secret: codes("Red", "Blue", "Blue"),
			guess:  codes("Red", "Red", "Green"),
			want:   Feedback{Exact: 1},
		},
		{
			name:   "empty",
			secret: nil,
			guess:  nil,
			want:   Feedback{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.secret, tt.guess)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEvaluateLengthMismatch(t *testing.T) {
	_, err := Evaluate(codes("Red", "Blue"), codes("Red"))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

// allCodes enumerates every code of length n over colors.
func allCodes(colors []Token, n int) [][]Token {
	if n == 0 {
		return [][]Token{{}}
	}
	var out [][]Token
	for _, tail := range allCodes(colors, n-1) {
		for _, c := range colors {
			code := append([]Token{c}, tail...)
			out = append(out, code)
		}
	}
	return out
}

func TestEvaluateProperties(t *testing.T) {
	all := allCodes(codes("Red", "Blue", "Green"), 3)
	for _, s := range all {
		self, err := Evaluate(s, s)
		if err != nil {
			t.Fatal(err)
		}
		if self != (Feedback{Exact: len(s)}) {
			t.Fatalf("Evaluate(%v, %v) = %+v, want perfect match", s, s, self)
		}
		for _, g := range all {
			fwd, _ := Evaluate(s, g)
			rev, _ := Evaluate(g, s)
			if fwd != rev {
				t.Fatalf("not symmetric: Evaluate(%v,%v)=%+v, reverse=%+v", s, g, fwd, rev)
			}
			if fwd.Exact < 0 || fwd.ColorOnly < 0 || fwd.Exact+fwd.ColorOnly > len(s) {
				t.Fatalf("out of range: Evaluate(%v,%v)=%+v", s, g, fwd)
			}
		}
	}
}
