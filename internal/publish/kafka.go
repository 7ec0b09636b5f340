// Package publish streams persisted telemetry readings to Kafka for
// downstream consumers. Optional: the server runs without it when no
// brokers are configured.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"energy_manager/internal/model"
)

// readingMessage is the wire form of one telemetry reading.
type readingMessage struct {
	DeviceID   string      `json:"deviceId"`
	Timestamp  time.Time   `json:"timestamp"`
	PowerWatts float64     `json:"powerWatts"`
	ChargeWh   *float64    `json:"chargeWh,omitempty"`
	State      model.State `json:"state"`
}

// KafkaPublisher writes readings to a single topic, keyed by device ID
// so a device's readings land on one partition in order.
type KafkaPublisher struct {
	w   *kafka.Writer
	log *slog.Logger
}

func NewKafka(brokers []string, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		log: log,
	}
}

// Publish writes the batch in one call.
func (p *KafkaPublisher) Publish(ctx context.Context, readings []model.Reading) error {
	msgs := make([]kafka.Message, 0, len(readings))
	for _, r := range readings {
		b, err := json.Marshal(readingMessage{
			DeviceID:   r.DeviceID.String(),
			Timestamp:  r.Timestamp,
			PowerWatts: r.PowerWatts,
			ChargeWh:   r.ChargeWh,
			State:      r.StateSnapshot,
		})
		if err != nil {
			return fmt.Errorf("marshal reading: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(r.DeviceID.String()),
			Value: b,
			Time:  r.Timestamp,
		})
	}

	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	p.log.Debug("published readings", "count", len(msgs))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
