package domain

import (
	"math"
	"testing"
)

func TestComputeRate_Examples(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		term   int
		want   float64
	}{
		{"minimums", 10_000, 1, 5.04},                // 5 + 0.5/12 + 0.002
		{"one year, one million", 1_000_000, 12, 5.7}, // 5 + 0.5 + 0.2
		{"five years, five million", 5_000_000, 60, 8.5},
		{"cap reached", 30_000_000, 60, 12.0},
		{"cap exactly not reached", 10_000_000, 60, 9.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeRate(tc.amount, tc.term)
			if got != tc.want {
				t.Errorf("ComputeRate(%d, %d) = %v, want %v", tc.amount, tc.term, got, tc.want)
			}
		})
	}
}

func TestComputeRate_Bounds(t *testing.T) {
	for _, amount := range []int64{10_000, 500_000, 1_000_000, 50_000_000, 1_000_000_000} {
		for _, term := range []int{1, 6, 12, 36, 60} {
			got := ComputeRate(amount, term)
			if got < BaseRate || got > MaxRate {
				t.Errorf("ComputeRate(%d, %d) = %v, outside [%v, %v]", amount, term, got, BaseRate, MaxRate)
			}
		}
	}
}

func TestComputeRate_MonotonicInTerm(t *testing.T) {
	prev := 0.0
	for term := 1; term <= 60; term++ {
		got := ComputeRate(100_000, term)
		if got < prev {
			t.Fatalf("rate decreased at term %d: %v < %v", term, got, prev)
		}
		prev = got
	}
}

func TestComputeRate_TwoDecimals(t *testing.T) {
	got := ComputeRate(123_456, 7)
	rounded := math.Round(got*100) / 100
	if got != rounded {
		t.Errorf("rate %v has more than two decimal places", got)
	}
}
