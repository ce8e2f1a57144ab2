package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/reservoir-levels-service/internal/config"
	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes computed series snapshots to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	loc    *time.Location
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured series topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSeriesTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, loc: cfg.Location, logger: logger}
}

// Publish writes one snapshot message for the series at the given depth.
// Messages are keyed by depth so every snapshot of a depth lands on the same partition.
func (w *Writer) Publish(ctx context.Context, years int, series domain.Series) error {
	msg, err := serializeToMessage(domain.NewSnapshot(years, series, w.loc))
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish series snapshot: %w", err)
	}
	w.logger.Debug("series snapshot published", "years", years, "points", series.Len())
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// snapshotKey is the message key for a depth, e.g. "years-3".
func snapshotKey(years int) string {
	return "years-" + strconv.Itoa(years)
}

// serializeToMessage marshals a Snapshot into a Kafka message.
func serializeToMessage(snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize series snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snapshotKey(snap.Years)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "years", Value: []byte(strconv.Itoa(snap.Years))},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
