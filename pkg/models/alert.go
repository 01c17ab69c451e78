package models

import "time"

// Severity tiers an alert by urgency.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is an operational alert decided by a workflow node. It is committed
// to the durable store before the owning node is considered complete;
// outbound dispatch happens afterwards and is best effort.
type Alert struct {
	AlertType    string         `json:"alert_type"`
	Severity     Severity       `json:"severity"`
	EntityID     string         `json:"entity_id"`
	Timestamp    time.Time      `json:"timestamp"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Acknowledged bool           `json:"acknowledged"`
}

// AnalyticsRow is one aggregated reporting record (hourly occupancy,
// demographics distribution, zone popularity).
type AnalyticsRow struct {
	Kind      string         `json:"kind"`
	EntityID  string         `json:"entity_id"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields"`
}
