package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/service"
	pkgkafka "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/kafka"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
)

// Kafka topics for catalog change events consumed by the search service.
const (
	TopicMaterialCreated = "elec.material.created"
	TopicMaterialUpdated = "elec.material.updated"
	TopicMaterialDeleted = "elec.material.deleted"
)

// Topics lists every topic the consumer handles.
var Topics = []string{TopicMaterialCreated, TopicMaterialUpdated, TopicMaterialDeleted}

// MaterialEventData is the payload of material created and updated events.
type MaterialEventData struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Supplier    string `json:"supplier"`
	Price       string `json:"price"`
	StockStatus string `json:"stock_status"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	ProductURL  string `json:"product_url"`
}

// MaterialDeletedData is the payload of a material deleted event.
type MaterialDeletedData struct {
	ID int64 `json:"id"`
}

// Indexer is the part of the search service that catalog events drive.
type Indexer interface {
	IndexMaterial(ctx context.Context, input *service.IndexMaterialInput) error
	DeleteMaterial(ctx context.Context, id int64) error
}

// Consumer keeps the search index in step with catalog change events.
type Consumer struct {
	indexer Indexer
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the search service.
func NewConsumer(indexer Indexer, logger *slog.Logger) *Consumer {
	return &Consumer{
		indexer: indexer,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}

	switch event.EventType {
	case TopicMaterialCreated, TopicMaterialUpdated:
		return c.handleUpsert(ctx, event)
	case TopicMaterialDeleted:
		return c.handleDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleUpsert(ctx context.Context, event *pkgkafka.Event) error {
	var data MaterialEventData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	input := &service.IndexMaterialInput{
		ID:          data.ID,
		Name:        data.Name,
		Category:    data.Category,
		Supplier:    data.Supplier,
		Price:       data.Price,
		StockStatus: data.StockStatus,
		Brand:       data.Brand,
		Description: data.Description,
		ProductURL:  data.ProductURL,
	}
	if err := c.indexer.IndexMaterial(ctx, input); err != nil {
		return fmt.Errorf("index material from %s: %w", event.EventType, err)
	}

	logger.WithContext(ctx, c.logger).InfoContext(ctx, "indexed material from catalog event",
		slog.String("event_type", event.EventType),
		slog.Int64("material_id", data.ID),
	)
	return nil
}

func (c *Consumer) handleDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data MaterialDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	if err := c.indexer.DeleteMaterial(ctx, data.ID); err != nil {
		return fmt.Errorf("delete material from %s: %w", event.EventType, err)
	}

	logger.WithContext(ctx, c.logger).InfoContext(ctx, "removed material from catalog event",
		slog.Int64("material_id", data.ID),
	)
	return nil
}
