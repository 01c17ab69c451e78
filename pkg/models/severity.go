package models

import "math"

// Ratio-band severity thresholds shared by the threshold-based workflows.
const (
	ratioCritical = 2.0
	ratioHigh     = 1.5
	ratioMedium   = 1.0
)

// Ratio computes value/threshold rounded to two decimals, the precision
// recorded in alert metadata. Returns 0 for a non-positive threshold.
func Ratio(value, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}

	return math.Round(value/threshold*100) / 100
}

// ClassifySeverity maps a value-to-threshold ratio to a severity tier. The
// mapping is a non-decreasing step function of the ratio.
func ClassifySeverity(value, threshold float64) Severity {
	ratio := Ratio(value, threshold)

	switch {
	case ratio > ratioCritical:
		return SeverityCritical
	case ratio > ratioHigh:
		return SeverityHigh
	case ratio > ratioMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// HourlyBand classifies an hourly visitor count against absolute peak/low
// thresholds rather than ratio bands.
type HourlyBand string

const (
	BandPeak   HourlyBand = "peak"
	BandLow    HourlyBand = "low"
	BandNormal HourlyBand = "normal"
)

// ClassifyHourly buckets an hourly count. Exactly one band holds for any
// count: above the peak threshold, below the low threshold, or normal in
// between. The returned severity is meaningful only for peak and low bands.
func ClassifyHourly(count, peakThreshold, lowThreshold int) (HourlyBand, Severity) {
	switch {
	case count > peakThreshold:
		if float64(count) > float64(peakThreshold)*ratioHigh {
			return BandPeak, SeverityHigh
		}

		return BandPeak, SeverityMedium
	case count < lowThreshold:
		if count < lowThreshold/2 {
			return BandLow, SeverityLow
		}

		return BandLow, SeverityMedium
	default:
		return BandNormal, SeverityLow
	}
}
