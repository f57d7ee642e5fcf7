package tools

import (
	"math"
)

// safeRatio divides numerator by denominator, returning nil when the
// denominator is zero so missing data never produces NaN or Inf.
func safeRatio(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	value := round2(numerator / denominator)
	return &value
}

// pctChange returns the percentage change from previous to current, or nil
// when the previous value is zero.
func pctChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	value := round2((current - previous) / math.Abs(previous) * 100)
	return &value
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
