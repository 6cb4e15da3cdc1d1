package brick

import (
	"sort"
	"testing"
)

func TestWeightsOf(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name  string
		ratio float64
		want  float64
	}{
		{"panorama", 2.0, 6},
		{"exactly 16:9", 16.0 / 9.0, 3},
		{"between 3:2 and 16:9", 1.6, 3},
		{"exactly 3:2", 1.5, 2.5},
		{"mild landscape", 1.2, 2.5},
		{"square", 1.0, 1},
		{"portrait", 0.8, 1},
		{"tall portrait", 9.0 / 16.0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Of(tt.ratio); got != tt.want {
				t.Errorf("Of(%v) = %v, want %v", tt.ratio, got, tt.want)
			}
		})
	}
}

func TestWeightsMonotonic(t *testing.T) {
	w := DefaultWeights()
	ratios := []float64{0.1, 0.5, 0.99, 1, 1.01, 1.3, 1.5, 1.51, 1.7, 16.0 / 9.0, 1.8, 3, 10}
	sort.Float64s(ratios)
	for i := 1; i < len(ratios); i++ {
		if w.Of(ratios[i-1]) > w.Of(ratios[i]) {
			t.Errorf("Of(%v)=%v > Of(%v)=%v", ratios[i-1], w.Of(ratios[i-1]), ratios[i], w.Of(ratios[i]))
		}
	}
}

func TestWeightsOfSize(t *testing.T) {
	w := DefaultWeights()
	if got := w.OfSize(Size{Width: 1920, Height: 1080}); got != 3 {
		t.Errorf("OfSize(1920x1080) = %v, want 3", got)
	}
	if got := w.OfSize(Size{Width: 1400, Height: 1700}); got != 1 {
		t.Errorf("OfSize(1400x1700) = %v, want 1", got)
	}
}

func TestWeightsIsZero(t *testing.T) {
	if !(Weights{}).IsZero() {
		t.Error("zero Weights should report IsZero")
	}
	if DefaultWeights().IsZero() {
		t.Error("DefaultWeights should not report IsZero")
	}
}
