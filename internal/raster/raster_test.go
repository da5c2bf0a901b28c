package raster

import "testing"

func TestTrailingNumber(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"notes_1.pdf", 1},
		{"notes_12.pdf", 12},
		{"chapter-3_7.pdf", 7},
		{"notes.pdf", 0},
		{"page-10.pdf", 10},
	}
	for _, tc := range cases {
		if got := trailingNumber(tc.name); got != tc.want {
			t.Errorf("trailingNumber(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}
