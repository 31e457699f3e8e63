package domain

import "math"

// Rate engine bounds. The base rate grows with term and amount and is
// capped at MaxRate.
const (
	BaseRate = 5.0
	MaxRate  = 12.0
)

// ComputeRate derives the interest rate for a CDT from its amount and term:
//
//	rate = min(5 + (term/12)*0.5 + (amount/1_000_000)*0.2, 12)
//
// rounded to two decimal places. Pure and total; recomputed on creation and
// on every draft edit that touches amount or term.
func ComputeRate(amount int64, termMonths int) float64 {
	rate := BaseRate + (float64(termMonths)/12)*0.5 + (float64(amount)/1_000_000)*0.2
	if rate > MaxRate {
		rate = MaxRate
	}
	return math.Round(rate*100) / 100
}
