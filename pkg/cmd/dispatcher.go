package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/vallabhn1/MallCCTV/pkg/channels/gochannel"
	"github.com/vallabhn1/MallCCTV/pkg/channels/kafka"
	"github.com/vallabhn1/MallCCTV/pkg/dispatch"
)

// NewDispatcher creates the outbound alert channel. Alerts are already
// durable by the time they reach the dispatcher, so "none" is a valid
// production choice.
func NewDispatcher(provider string, logger *slog.Logger) (dispatch.Dispatcher, error) {
	switch provider {
	case "kafka":
		publisher, _, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "mallcctv")
		if err != nil {
			return nil, fmt.Errorf("create kafka channel: %w", err)
		}

		return dispatch.NewWatermillDispatcher(publisher), nil
	case "gochannel":
		publisher, _, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create gochannel: %w", err)
		}

		return dispatch.NewWatermillDispatcher(publisher), nil
	case "", "none":
		return dispatch.NopDispatcher{}, nil
	default:
		return nil, fmt.Errorf("unsupported dispatcher provider: %s", provider)
	}
}
