package util

import "testing"

func TestSplitCommaSeparated(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"leaf", 1},
		{"leaf,spine", 2},
		{"leaf, spine, , border", 3},
	}

	for _, tt := range tests {
		got := SplitCommaSeparated(tt.input)
		if len(got) != tt.want {
			t.Errorf("SplitCommaSeparated(%q) = %v (len %d), want len %d", tt.input, got, len(got), tt.want)
		}
	}
}

func TestIntersects(t *testing.T) {
	if !Intersects([]string{"leaf", "dc1"}, []string{"dc1"}) {
		t.Error("Intersects should find dc1")
	}
	if Intersects([]string{"leaf"}, []string{"spine"}) {
		t.Error("Intersects should be false for disjoint lists")
	}
	if Intersects(nil, []string{"spine"}) {
		t.Error("Intersects(nil, ...) should be false")
	}
}
