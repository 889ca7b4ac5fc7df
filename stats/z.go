package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	return dist.Quantile(area)
}

// EloDifference converts a match score between 0 and 1 into the rating
// difference that predicts it. A score of 0 or 1 is clamped to +-800.
func EloDifference(score float64) float64 {
	switch {
	case score <= 0:
		return -800
	case score >= 1:
		return 800
	}
	return math.Max(-800, math.Min(800, 400*math.Log10(score/(1-score))))
}
