// Package cmd holds the factories the binaries share.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/observe2agent/observe2agent/pkg/channels/gochannel"
	"github.com/observe2agent/observe2agent/pkg/channels/kafka"
	"github.com/observe2agent/observe2agent/pkg/eventbus"
)

const serviceName = "observe2agent"

// NewEventBus creates the event bus for provider: "gochannel" (in-process)
// or "kafka". brokers is a comma-separated list used by kafka only.
func NewEventBus(provider, brokers string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "gochannel", "":
		pubSub, _, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gochannel pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pubSub, pubSub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(brokers), serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
