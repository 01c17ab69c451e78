package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vallabhn1/MallCCTV/pkg/channels/gochannel"
	"github.com/vallabhn1/MallCCTV/pkg/models"
)

func TestWatermillDispatcherPublishesAlert(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	messages, err := sub.Subscribe(ctx, Topic)
	require.NoError(t, err)

	dispatcher := NewWatermillDispatcher(pub)

	alert := &models.Alert{
		AlertType: "overcrowding",
		Severity:  models.SeverityCritical,
		EntityID:  "entrance",
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]any{"person_count": 320},
	}

	require.NoError(t, dispatcher.Publish(ctx, alert))

	select {
	case msg := <-messages:
		msg.Ack()

		assert.Equal(t, "overcrowding", msg.Metadata.Get(AlertTypeMetadataKey))
		assert.Equal(t, "entrance", msg.Metadata.Get(EntityMetadataKey))
		assert.Equal(t, "critical", msg.Metadata.Get(SeverityMetadataKey))

		var decoded models.Alert

		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, alert.AlertType, decoded.AlertType)
		assert.Equal(t, float64(320), decoded.Metadata["person_count"])
	case <-time.After(2 * time.Second):
		t.Fatal("no alert message received")
	}
}

func TestNopDispatcher(t *testing.T) {
	dispatcher := NopDispatcher{}

	assert.NoError(t, dispatcher.Publish(context.Background(), &models.Alert{}))
	assert.NoError(t, dispatcher.Close())
}
