package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		threshold float64
		expected  Severity
	}{
		{"well below threshold", 10, 150, SeverityLow},
		{"exactly at threshold", 150, 150, SeverityLow},
		{"just above threshold", 151, 150, SeverityMedium},
		{"mid medium band", 200, 150, SeverityMedium},
		{"upper medium boundary", 225, 150, SeverityMedium},
		{"high band", 250, 150, SeverityHigh},
		{"upper high boundary", 300, 150, SeverityHigh},
		{"critical band", 320, 150, SeverityCritical},
		{"zero threshold defaults low", 100, 0, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifySeverity(tt.value, tt.threshold))
		})
	}
}

func TestClassifySeverityNonDecreasing(t *testing.T) {
	rank := map[Severity]int{
		SeverityLow:      0,
		SeverityMedium:   1,
		SeverityHigh:     2,
		SeverityCritical: 3,
	}

	previous := SeverityLow
	for value := 0; value <= 500; value++ {
		current := ClassifySeverity(float64(value), 150)
		assert.GreaterOrEqual(t, rank[current], rank[previous],
			"severity regressed at value %d", value)
		previous = current
	}
}

func TestRatioRounding(t *testing.T) {
	assert.InDelta(t, 2.13, Ratio(320, 150), 0.0001)
	assert.InDelta(t, 1.0, Ratio(150, 150), 0.0001)
	assert.Zero(t, Ratio(100, 0))
}

func TestClassifyHourly(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		band     HourlyBand
		severity Severity
	}{
		{"strong peak", 180, BandPeak, SeverityHigh},
		{"moderate peak", 120, BandPeak, SeverityMedium},
		{"boundary peak threshold is normal", 100, BandNormal, SeverityLow},
		{"boundary low threshold is normal", 20, BandNormal, SeverityLow},
		{"quiet hour", 8, BandLow, SeverityLow},
		{"slightly low hour", 15, BandLow, SeverityMedium},
		{"typical hour", 60, BandNormal, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band, severity := ClassifyHourly(tt.count, 100, 20)
			assert.Equal(t, tt.band, band)
			assert.Equal(t, tt.severity, severity)
		})
	}
}

func TestClassifyHourlyExactlyOneBand(t *testing.T) {
	for count := 0; count <= 300; count++ {
		band, _ := ClassifyHourly(count, 100, 20)

		switch {
		case count > 100:
			assert.Equal(t, BandPeak, band, "count %d", count)
		case count < 20:
			assert.Equal(t, BandLow, band, "count %d", count)
		default:
			assert.Equal(t, BandNormal, band, "count %d", count)
		}
	}
}
