package sentinelservice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/monadarb/go_monad_discovery/common/models"
)

type kafkaClientConfig struct {
	KafkaServer string
	KafkaTopic  string
}

type kafkaClient struct {
	swapEventsWriter *kafka.Writer
}

func newKafkaClient(config kafkaClientConfig) (kafkaClient, error) {
	writer := kafka.Writer{
		Addr:         kafka.TCP(config.KafkaServer),
		Topic:        config.KafkaTopic,
		BatchTimeout: 1 * time.Millisecond,
		Async:        false,
	}

	return kafkaClient{
		swapEventsWriter: &writer,
	}, nil
}

func (c *kafkaClient) sendSwapEvent(ctx context.Context, event models.SwapEvent) error {
	eventJSON, err := json.Marshal(&event)
	if err != nil {
		return err
	}

	return c.swapEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.PoolAddress),
		Value: eventJSON,
	})
}

func (c *kafkaClient) close() error {
	return c.swapEventsWriter.Close()
}
