// Package quote adapts search results into quote line items and hands them to
// the quoting subsystem.
package quote

import (
	"context"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
)

// ToLineItem maps a search result into the shape the quoting subsystem
// accepts. A quantity below one is treated as one.
func ToLineItem(result domain.SearchResult, quantity int) domain.QuoteLineItem {
	if quantity < 1 {
		quantity = 1
	}
	var highlights []string
	if len(result.Highlights) > 0 {
		highlights = append([]string(nil), result.Highlights...)
	}
	return domain.QuoteLineItem{
		MaterialID:  result.ID,
		Name:        result.Name,
		Category:    result.Category,
		Price:       result.Price,
		Supplier:    result.Supplier,
		StockStatus: result.StockStatus,
		ProductURL:  result.ProductURL,
		Highlights:  highlights,
		Quantity:    quantity,
	}
}

// Publisher receives line items accepted into a quote.
type Publisher interface {
	AddToQuote(ctx context.Context, item domain.QuoteLineItem) error
}

// Discard is a Publisher that drops every item. It is used when no quote
// transport is configured.
type Discard struct{}

// AddToQuote implements Publisher.
func (Discard) AddToQuote(context.Context, domain.QuoteLineItem) error { return nil }
