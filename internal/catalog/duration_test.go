package catalog

import "testing"

func TestToMillis(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  int64
	}{
		{"zero", 0, 0},
		{"small value passes through", 45_000, 45_000},
		{"below micros threshold passes through", 500_000_000_000, 500_000_000_000},
		{"microseconds", 2_000_000_000_000, 2_000_000_000},
		{"nanoseconds", 1_700_000_000_000_000_000, 1_700_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toMillis(tt.value); got != tt.want {
				t.Errorf("toMillis(%d) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestToSeconds(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  int64
	}{
		{"zero", 0, 0},
		{"negative floors at zero", -500, 0},
		{"milliseconds rounded", 45_400, 45},
		{"milliseconds rounded up", 45_600, 46},
		{"nanosecond duration", 90_000_000_000_000_000, 90_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toSeconds(tt.value); got != tt.want {
				t.Errorf("toSeconds(%d) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestEstimateDurationSeconds(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want int64
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"500KB is 30 seconds", 500 * 1024, 30},
		{"1MB rounds to 61 seconds", 1024 * 1024, 61},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateDurationSeconds(tt.size); got != tt.want {
				t.Errorf("estimateDurationSeconds(%d) = %d, want %d", tt.size, got, tt.want)
			}
		})
	}
}
