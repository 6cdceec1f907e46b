package captcha

import (
	"errors"
	"testing"
)

func TestSolve(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12+7", 19},
		{"9*4", 36},
		{"9x4", 36},
		{"9X4", 36},
		{"-27", 5},
		{"x34", 12},
		{"×34", 12},
		{"3-9", 6},
		{"12.+_7/", 19},
		{"8 * 7", 56},
	}
	for _, c := range cases {
		got, err := Solve(c.in)
		if err != nil {
			t.Fatalf("solve %q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("solve %q: expected %d got %d", c.in, c.want, got)
		}
	}
}

func TestSolveNoParse(t *testing.T) {
	for _, in := range []string{"", "1+2+3", "12", "+", "12+", "1+2-", "X34", "a12", "99999999999999999999+1", "9999999999*9999999999", "9223372036854775807+1"} {
		if v, err := Solve(in); !errors.Is(err, ErrNoParse) {
			t.Fatalf("solve %q: expected ErrNoParse got %d, %v", in, v, err)
		}
	}
}

func TestParseExpression(t *testing.T) {
	e, err := ParseExpression("12+7")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if e.Left != 12 || e.Right != 7 || e.Op != '+' {
		t.Fatalf("unexpected expression %v", e)
	}
	e, err = ParseExpression("-27")
	if err != nil || e.Op != '-' || e.Left != 2 || e.Right != 7 {
		t.Fatalf("unexpected fallback parse %v err=%v", e, err)
	}
}
