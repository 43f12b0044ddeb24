package phasevoc

import (
	"math"
	"testing"
)

func TestHopScheduleIntegerRatios(t *testing.T) {
	tests := []struct {
		name    string
		hopIn   int
		stretch float64
		want    int
	}{
		{name: "unity", hopIn: 512, stretch: 1, want: 512},
		{name: "double", hopIn: 512, stretch: 2, want: 1024},
		{name: "quarter", hopIn: 512, stretch: 0.25, want: 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := hopSchedule{hopIn: tt.hopIn}
			for i := 0; i < 100; i++ {
				if got := h.next(tt.stretch); got != tt.want {
					t.Fatalf("hop %d = %d, want %d", i, got, tt.want)
				}
			}
		})
	}
}

func TestHopScheduleNoDrift(t *testing.T) {
	const hops = 10000

	tests := []struct {
		name    string
		hopIn   int
		stretch float64
	}{
		{name: "stretch 1.5", hopIn: 512, stretch: 1.5},
		{name: "stretch 0.7", hopIn: 512, stretch: 0.7},
		{name: "stretch 1.01", hopIn: 256, stretch: 1.01},
		{name: "stretch pi/3", hopIn: 512, stretch: math.Pi / 3},
		{name: "stretch 3.99", hopIn: 1024, stretch: 3.99},
		{name: "stretch 0.26", hopIn: 128, stretch: 0.26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := hopSchedule{hopIn: tt.hopIn}

			total := 0
			for i := 0; i < hops; i++ {
				step := h.next(tt.stretch)
				if step < 1 {
					t.Fatalf("hop %d = %d, want >= 1", i, step)
				}
				total += step
			}

			ideal := float64(tt.hopIn) * tt.stretch
			mean := float64(total) / hops
			if rel := math.Abs(mean-ideal) / ideal; rel > 0.005 {
				t.Fatalf("mean hop %v drifts %.4f%% from ideal %v", mean, rel*100, ideal)
			}
		})
	}
}

func TestHopScheduleResidualBounded(t *testing.T) {
	h := hopSchedule{hopIn: 512}

	for i := 0; i < 1000; i++ {
		h.next(1.3)
		if h.residual < 0 || h.residual >= 1 {
			t.Fatalf("residual = %v after hop %d, want [0, 1)", h.residual, i)
		}
	}
}

func TestHopScheduleReset(t *testing.T) {
	h := hopSchedule{hopIn: 512}

	// 512 * 1.3 = 665.6 leaves a fractional remainder to carry.
	h.next(1.3)
	if h.residual == 0 {
		t.Fatal("expected nonzero residual after fractional hop")
	}

	h.reset()
	if h.residual != 0 {
		t.Fatalf("residual = %v after reset, want 0", h.residual)
	}

	// A reset schedule replays the exact same step sequence.
	a := []int{h.next(1.3), h.next(1.3), h.next(1.3)}
	h.reset()
	b := []int{h.next(1.3), h.next(1.3), h.next(1.3)}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d differs after reset: %d vs %d", i, a[i], b[i])
		}
	}
}
