package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/warehouse-directory/internal/config"
	"github.com/couchcryptid/warehouse-directory/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes directory snapshots to a Kafka topic.
// It implements directory.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot writes one message per warehouse in a single WriteMessages
// call. Messages are keyed by the lower-cased id so a compacted topic keeps
// the latest record per warehouse.
func (w *Writer) PublishSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Warehouses) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Warehouses))
	for i := range snap.Warehouses {
		msg, err := serializeToMessage(snap.Warehouses[i], snap)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.logger.Info("snapshot published",
		"topic", w.writer.Topic,
		"records", len(msgs),
		"source", snap.Source,
		"fingerprint", snap.Fingerprint,
	)
	return nil
}

// Close flushes pending messages and closes the underlying Kafka writer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a warehouse into a Kafka message carrying the
// snapshot metadata as headers.
func serializeToMessage(wh domain.Warehouse, snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(wh)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize warehouse: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(domain.LookupKey(wh.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(snap.Source)},
			{Key: "fingerprint", Value: []byte(snap.Fingerprint)},
			{Key: "loaded_at", Value: []byte(snap.LoadedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
