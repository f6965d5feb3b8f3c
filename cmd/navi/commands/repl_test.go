package commands

import "testing"

func TestBalanced(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"(+ 1 2)", true},
		{"(+ 1 (* 2 3))", true},
		{"(+ 1 (* 2 3)", false},
		{`(print "(unbalanced in a string")`, true},
		{`"("`, true},
		{"[1 2 {3 4}]", true},
		{"[1 2 {3 4}", false},
	}
	for _, c := range cases {
		if got := balanced(c.src); got != c.want {
			t.Errorf("balanced(%q) = %v, want %v", c.src, got, c.want)
		}
	}
}
