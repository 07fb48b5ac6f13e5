package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DLQTopicPrefix prefixes every dead-letter topic.
const DLQTopicPrefix = "elec.dlq"

// Dead-letter header keys.
const (
	HeaderDLQTopic     = "dlq.original_topic"
	HeaderDLQPartition = "dlq.original_partition"
	HeaderDLQOffset    = "dlq.original_offset"
	HeaderDLQGroup     = "dlq.consumer_group"
	HeaderDLQError     = "dlq.error"
	HeaderDLQFailedAt  = "dlq.failed_at"
)

// DLQTopic returns the dead-letter topic for topic.
func DLQTopic(topic string) string {
	return DLQTopicPrefix + "." + topic
}

// DLQProducer republishes messages whose handler kept failing, keeping the
// original key and value and recording where they came from in headers.
type DLQProducer struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewDLQProducer creates a DLQ producer writing one message per batch.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	return &DLQProducer{
		writer: newWriter(brokers, 1, 100*time.Millisecond),
		logger: logger,
		now:    time.Now,
	}
}

func (d *DLQProducer) deadLetter(msg kafka.Message, cause error, group string) kafka.Message {
	h := make(headers, len(msg.Headers), len(msg.Headers)+6)
	copy(h, msg.Headers)
	h.Set(HeaderDLQTopic, msg.Topic)
	h.Set(HeaderDLQPartition, strconv.Itoa(msg.Partition))
	h.Set(HeaderDLQOffset, strconv.FormatInt(msg.Offset, 10))
	h.Set(HeaderDLQGroup, group)
	h.Set(HeaderDLQFailedAt, d.now().UTC().Format(time.RFC3339))
	if cause != nil {
		h.Set(HeaderDLQError, cause.Error())
	}
	return kafka.Message{
		Topic:   DLQTopic(msg.Topic),
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: h,
	}
}

// Publish sends msg to its dead-letter topic.
func (d *DLQProducer) Publish(ctx context.Context, msg kafka.Message, cause error, group string) error {
	dead := d.deadLetter(msg, cause, group)
	attrs := []any{
		slog.String("dlq_topic", dead.Topic),
		slog.String("original_topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.String("consumer_group", group),
	}

	if err := d.writer.WriteMessages(ctx, dead); err != nil {
		d.logger.ErrorContext(ctx, "failed to dead-letter message", append(attrs, slog.String("error", err.Error()))...)
		return fmt.Errorf("publish to DLQ %s: %w", dead.Topic, err)
	}
	d.logger.WarnContext(ctx, "message dead-lettered", attrs...)
	return nil
}

// Close closes the DLQ producer.
func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
