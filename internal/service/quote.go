package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/highlight"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/quote"
	apperrors "github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/errors"
)

// AddToQuoteInput identifies the accepted material. Query, when set, is the
// search that found it and decides the line item's highlights.
type AddToQuoteInput struct {
	MaterialID int64  `json:"material_id" validate:"required,gt=0"`
	Quantity   int    `json:"quantity"`
	Query      string `json:"query" validate:"max=200"`
}

// AddToQuote turns an indexed material into a quote line item and hands it
// to the quote publisher.
func (s *SearchService) AddToQuote(ctx context.Context, input *AddToQuoteInput) (*domain.QuoteLineItem, error) {
	if input.MaterialID <= 0 {
		return nil, apperrors.InvalidInput("add to quote: material_id is required")
	}

	m, err := s.GetMaterial(ctx, input.MaterialID)
	if err != nil {
		return nil, err
	}

	result := domain.SearchResult{Material: *m}
	if input.Query != "" {
		result.Highlights = highlight.Matched(m.Name, input.Query)
	}
	item := quote.ToLineItem(result, input.Quantity)

	if err := s.quotes.AddToQuote(ctx, item); err != nil {
		return nil, fmt.Errorf("add to quote: %w", err)
	}
	quoteItemsTotal.Inc()

	s.logger.InfoContext(ctx, "line item created",
		slog.Int64("material_id", item.MaterialID),
		slog.Int("quantity", item.Quantity),
	)
	return &item, nil
}
