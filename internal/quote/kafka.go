package quote

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	pkgkafka "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/kafka"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
)

// Kafka topic and envelope constants for quote events.
const (
	TopicItemAdded     = "elec.quote.item_added"
	AggregateTypeQuote = "quote_item"
	SourceSearch       = "materials-search"
)

// EventWriter is the subset of the Kafka producer used by KafkaPublisher.
type EventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// KafkaPublisher publishes accepted line items as quote events.
type KafkaPublisher struct {
	writer EventWriter
	logger *slog.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to TopicItemAdded.
func NewKafkaPublisher(writer EventWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger}
}

// AddToQuote publishes an elec.quote.item_added event keyed by material ID.
func (p *KafkaPublisher) AddToQuote(ctx context.Context, item domain.QuoteLineItem) error {
	event, err := pkgkafka.NewEvent(TopicItemAdded, strconv.FormatInt(item.MaterialID, 10), AggregateTypeQuote, SourceSearch, item)
	if err != nil {
		return fmt.Errorf("create quote.item_added event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if id := logger.SessionIDFromContext(ctx); id != "" {
		event.WithMetadata("session_id", id)
	}

	if err := p.writer.Publish(ctx, TopicItemAdded, event); err != nil {
		return fmt.Errorf("publish quote.item_added event: %w", err)
	}

	p.logger.InfoContext(ctx, "material added to quote",
		slog.Int64("material_id", item.MaterialID),
		slog.Int("quantity", item.Quantity),
	)
	return nil
}
