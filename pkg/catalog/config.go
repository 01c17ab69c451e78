package catalog

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the analytics thresholds. All values are per-deployment
// tuning; the defaults match a mid-size mall floor.
type Config struct {
	// Zones maps entity ID to its occupancy capacity threshold.
	Zones map[string]int `yaml:"zones"     validate:"required,dive,gt=0"`

	// PeakThreshold and LowThreshold band hourly visitor counts.
	PeakThreshold int `yaml:"peak_threshold" validate:"gt=0"`
	LowThreshold  int `yaml:"low_threshold"  validate:"gte=0"`

	// DedupDivisor estimates unique visitors from untracked detections.
	DedupDivisor int `yaml:"dedup_divisor" validate:"gte=1"`

	Queue QueueConfig `yaml:"queue"`
}

// QueueConfig tunes the queue monitoring workflow.
type QueueConfig struct {
	// BuildupThreshold and CriticalThreshold are people-in-queue counts.
	BuildupThreshold  int `yaml:"buildup_threshold"  validate:"gt=0"`
	CriticalThreshold int `yaml:"critical_threshold" validate:"gt=0"`

	// WaitTimeHighSeconds flags estimated waits above this as alerts.
	WaitTimeHighSeconds int `yaml:"wait_time_high_seconds" validate:"gt=0"`

	// ServiceSecondsPerPerson drives the wait estimate.
	ServiceSecondsPerPerson int `yaml:"service_seconds_per_person" validate:"gt=0"`

	// ThroughputLowPerMinute flags a slow-moving queue.
	ThroughputLowPerMinute int `yaml:"throughput_low_per_minute" validate:"gt=0"`

	// MetersPerPerson converts queue headcount to physical length.
	MetersPerPerson float64 `yaml:"meters_per_person" validate:"gt=0"`
}

// DefaultConfig returns the shipped thresholds.
func DefaultConfig() Config {
	return Config{
		Zones: map[string]int{
			"entrance":   150,
			"food-court": 200,
			"checkout":   50,
			"main-hall":  300,
		},
		PeakThreshold: 100,
		LowThreshold:  20,
		DedupDivisor:  3,
		Queue: QueueConfig{
			BuildupThreshold:        30,
			CriticalThreshold:       50,
			WaitTimeHighSeconds:     300,
			ServiceSecondsPerPerson: 12,
			ThroughputLowPerMinute:  5,
			MetersPerPerson:         0.75,
		},
	}
}

// ZoneThreshold returns the occupancy threshold for an entity, falling back
// to the most permissive configured zone when the entity is unknown.
func (c Config) ZoneThreshold(entityID string) int {
	if threshold, ok := c.Zones[entityID]; ok {
		return threshold
	}

	maxThreshold := 0
	for _, threshold := range c.Zones {
		if threshold > maxThreshold {
			maxThreshold = threshold
		}
	}

	return maxThreshold
}

// LoadConfig reads and validates a YAML thresholds file. Fields absent from
// the file keep their defaults.
func LoadConfig(filepath string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filepath)
	if err != nil {
		return config, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return config, fmt.Errorf("invalid config %s: %w", filepath, err)
	}

	return config, nil
}

// LoadConfigOrDefault loads a thresholds file, falling back to the defaults
// when no path is given or the file does not exist.
func LoadConfigOrDefault(filepath string) Config {
	if filepath == "" {
		return DefaultConfig()
	}

	config, err := LoadConfig(filepath)
	if err != nil {
		return DefaultConfig()
	}

	return config
}
