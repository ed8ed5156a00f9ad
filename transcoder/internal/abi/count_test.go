package abi

import "testing"

func TestDiscriminantSize(t *testing.T) {
	tests := []struct {
		cases int
		want  uint32
	}{
		{1, 1},
		{2, 1},
		{256, 1},
		{257, 2},
		{65536, 2},
		{65537, 4},
	}
	for _, tt := range tests {
		if got := DiscriminantSize(tt.cases); got != tt.want {
			t.Errorf("DiscriminantSize(%d) = %d, want %d", tt.cases, got, tt.want)
		}
	}
}

func TestFlagsSize(t *testing.T) {
	tests := []struct {
		labels      int
		size, align uint32
		words       uint32
	}{
		{0, 0, 1, 0},
		{1, 1, 1, 1},
		{8, 1, 1, 1},
		{9, 2, 2, 1},
		{16, 2, 2, 1},
		{17, 4, 4, 1},
		{32, 4, 4, 1},
		{33, 8, 4, 2},
		{64, 8, 4, 2},
		{65, 12, 4, 3},
	}
	for _, tt := range tests {
		size, align := FlagsSize(tt.labels)
		if size != tt.size || align != tt.align {
			t.Errorf("FlagsSize(%d) = %d/%d, want %d/%d", tt.labels, size, align, tt.size, tt.align)
		}
		if got := FlagWords(tt.labels); got != tt.words {
			t.Errorf("FlagWords(%d) = %d, want %d", tt.labels, got, tt.words)
		}
	}
}
