// Package kafka publishes reconciled panel rows to a sink topic for
// downstream consumers. Publishing is optional and feature-flagged.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kevinlanning/2019-nCoV/internal/config"
	"github.com/kevinlanning/2019-nCoV/internal/domain"
	"github.com/kevinlanning/2019-nCoV/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces panel rows to a Kafka topic.
// It implements pipeline.PanelPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishPanel serializes and publishes every panel row in a single
// WriteMessages call. Rows for one location share a message key, keeping a
// location's series in partition order.
func (w *Writer) PublishPanel(ctx context.Context, rows []domain.PanelRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write panel rows: %w", err)
	}
	w.logger.Info("panel published", "rows", len(rows), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PanelRow into a Kafka message.
func serializeToMessage(row domain.PanelRow) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize panel row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.LocationKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(row.Region)},
			{Key: "report_date", Value: []byte(row.ReportDate.Format(pipeline.ExportDateFormat))},
		},
	}, nil
}
