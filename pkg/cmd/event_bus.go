// Package cmd holds the shared wiring used by the voxflow binaries.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/voxflow/voxflow/pkg/channels/kafka"
	"github.com/voxflow/voxflow/pkg/eventbus"
)

// NewEventBus creates an event bus for the given provider. "kafka" needs
// KAFKA_BROKERS set; "gochannel" is in-process and suited to single-binary
// deployments.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "voxflow")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel", "":
		channel := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))

		return eventbus.NewWatermillEventBus(channel, channel)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
