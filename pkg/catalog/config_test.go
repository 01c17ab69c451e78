package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
zones:
  entrance: 120
  atrium: 400
peak_threshold: 90
queue:
  buildup_threshold: 25
  critical_threshold: 40
  wait_time_high_seconds: 240
  service_seconds_per_person: 10
  throughput_low_per_minute: 4
  meters_per_person: 0.8
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 120, config.Zones["entrance"])
	assert.Equal(t, 400, config.Zones["atrium"])
	assert.Equal(t, 90, config.PeakThreshold)
	assert.Equal(t, 25, config.Queue.BuildupThreshold)
	assert.Equal(t, 0.8, config.Queue.MetersPerPerson)

	// Untouched fields keep their defaults.
	assert.Equal(t, 20, config.LowThreshold)
	assert.Equal(t, 3, config.DedupDivisor)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := writeConfigFile(t, `
zones:
  entrance: -5
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigOrDefaultFallsBack(t *testing.T) {
	config := LoadConfigOrDefault("")
	assert.Equal(t, DefaultConfig(), config)

	config = LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, DefaultConfig(), config)
}
