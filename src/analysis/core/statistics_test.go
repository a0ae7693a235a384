package core

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateMeanStd(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		mean float64
		std  float64
	}{
		{"empty", nil, 0, 0},
		{"single element", []float64{42}, 42, 0},
		{"constant series", []float64{5, 5, 5, 5}, 5, 0},
		{"population std", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 2},
		{"negative values", []float64{-2, 2}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := CalculateMeanStd(tt.data)
			if !almostEqual(mean, tt.mean) {
				t.Errorf("mean = %v, want %v", mean, tt.mean)
			}
			if !almostEqual(std, tt.std) {
				t.Errorf("std = %v, want %v", std, tt.std)
			}
		})
	}
}

func TestCalculateZScore(t *testing.T) {
	if z := CalculateZScore(110, 100, 5); !almostEqual(z, 2) {
		t.Errorf("z = %v, want 2", z)
	}
	if z := CalculateZScore(90, 100, 5); !almostEqual(z, -2) {
		t.Errorf("z = %v, want -2", z)
	}

	// Zero std means no spread to measure against
	if z := CalculateZScore(110, 100, 0); z != 0 {
		t.Errorf("z with zero std = %v, want 0", z)
	}
}

func TestCalculateChangePercent(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"increase", 130, 100, 0.30},
		{"decrease", 70, 100, -0.30},
		{"no change", 100, 100, 0},
		{"zero reference", 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateChangePercent(tt.current, tt.previous)
			if !almostEqual(got, tt.want) {
				t.Errorf("CalculateChangePercent(%v, %v) = %v, want %v",
					tt.current, tt.previous, got, tt.want)
			}
		})
	}
}

func TestCalculateAbsChange(t *testing.T) {
	// Drops and spikes of the same magnitude look identical
	up := CalculateAbsChange(130, 100)
	down := CalculateAbsChange(70, 100)
	if !almostEqual(up, 0.30) || !almostEqual(down, 0.30) {
		t.Errorf("abs change = %v / %v, want 0.30 both ways", up, down)
	}

	if got := CalculateAbsChange(50, 0); got != 0 {
		t.Errorf("abs change with zero reference = %v, want 0", got)
	}
}
