package measure

import (
	"errors"
	"math"
	"testing"
)

func TestPixelsPerCM(t *testing.T) {
	tests := []struct {
		name    string
		px      int
		cm      float64
		want    float64
		wantErr bool
	}{
		{"marker 50px at 5cm", 50, 5, 10, false},
		{"marker 37px at 5cm", 37, 5, 7.4, false},
		{"zero pixel width", 0, 5, 0, true},
		{"negative pixel width", -3, 5, 0, true},
		{"zero cm", 50, 0, 0, true},
		{"negative cm", 50, -1, 0, true},
		{"infinite cm", 50, math.Inf(1), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PixelsPerCM(tt.px, tt.cm)
			if tt.wantErr {
				if !errors.Is(err, ErrScale) {
					t.Errorf("expected ErrScale, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PixelsPerCM = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeDimensions(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		ppcm float64
		want Dimensions
	}{
		{"square", 100, 100, 10, Dimensions{10, 10, 5}},
		{"landscape", 160, 120, 12, Dimensions{13.3, 10, 5}},
		{"portrait", 45, 130, 10, Dimensions{4.5, 13, 2.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDimensions(tt.w, tt.h, tt.ppcm)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeDimensionsBadScale(t *testing.T) {
	for _, ppcm := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := ComputeDimensions(100, 100, ppcm); !errors.Is(err, ErrScale) {
			t.Errorf("ppcm %v: expected ErrScale, got %v", ppcm, err)
		}
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1.25, 1.3},
		{1.24, 1.2},
		{13.333, 13.3},
		{2.25, 2.3},
		{-1.25, -1.3},
	}

	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
