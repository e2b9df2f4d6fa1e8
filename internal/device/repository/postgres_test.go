package repository

import "testing"

func TestLikePattern(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"lab", "%lab%"},
		{"100%", `%100\%%`},
		{"pc_01", `%pc\_01%`},
		{`a\b`, `%a\\b%`},
	}
	for _, tc := range testCases {
		if got := LikePattern(tc.in); got != tc.want {
			t.Errorf("LikePattern(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
