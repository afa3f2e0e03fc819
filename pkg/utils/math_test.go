package utils

import "testing"

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total int
		want        float64
	}{
		{1, 3, 33.3},
		{2, 3, 66.7},
		{0, 0, 0},
		{4, 4, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}
