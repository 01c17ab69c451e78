// Package dispatch publishes decided alerts to outbound channels. Dispatch is
// fire-and-forget: an alert is already committed to the durable store before
// it is published here, so a publish failure never rolls back or blocks a
// workflow run.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// Topic carries alert messages to downstream notifiers.
const Topic = "mallcctv.alerts"

// Message metadata keys.
const (
	AlertTypeMetadataKey = "alert_type"
	EntityMetadataKey    = "entity_id"
	SeverityMetadataKey  = "severity"
)

// Dispatcher publishes alerts best effort.
type Dispatcher interface {
	Publish(ctx context.Context, alert *models.Alert) error
	Close() error
}

// WatermillDispatcher publishes alerts through a watermill publisher
// (Kafka in production, GoChannel in tests).
type WatermillDispatcher struct {
	publisher message.Publisher
}

func NewWatermillDispatcher(publisher message.Publisher) *WatermillDispatcher {
	return &WatermillDispatcher{publisher: publisher}
}

func (d *WatermillDispatcher) Publish(_ context.Context, alert *models.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(AlertTypeMetadataKey, alert.AlertType)
	msg.Metadata.Set(EntityMetadataKey, alert.EntityID)
	msg.Metadata.Set(SeverityMetadataKey, string(alert.Severity))

	return d.publisher.Publish(Topic, msg)
}

func (d *WatermillDispatcher) Close() error {
	return d.publisher.Close()
}

// NopDispatcher drops every alert. Used when no outbound channel is
// configured.
type NopDispatcher struct{}

func (NopDispatcher) Publish(_ context.Context, _ *models.Alert) error {
	return nil
}

func (NopDispatcher) Close() error {
	return nil
}
