package domain

import (
	"fmt"
	"strings"
)

// UncategorizedLabel is the category assigned to materials indexed without one.
const UncategorizedLabel = "Uncategorized"

// Material is a single catalog record. The catalog is owned by an external
// system; the search core only ever reads it.
type Material struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Supplier    string      `json:"supplier"`
	Price       string      `json:"price"`
	StockStatus StockStatus `json:"stock_status"`
	Brand       string      `json:"brand,omitempty"`
	Description string      `json:"description,omitempty"`
	ProductURL  string      `json:"product_url,omitempty"`
}

// StockStatus is the availability of a material at its supplier.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLowStock   StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// ParseStockStatus converts a wire value into a StockStatus. Unknown values are rejected.
func ParseStockStatus(s string) (StockStatus, error) {
	switch StockStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StockInStock:
		return StockInStock, nil
	case StockLowStock:
		return StockLowStock, nil
	case StockOutOfStock:
		return StockOutOfStock, nil
	}
	return "", fmt.Errorf("unknown stock status %q", s)
}

// ParseStockStatusLenient is used for supplier feeds, which spell stock
// states inconsistently. Anything unrecognised is treated as out of stock.
func ParseStockStatusLenient(s string) StockStatus {
	if st, err := ParseStockStatus(s); err == nil {
		return st
	}
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "in stock", "instock", "available":
		return StockInStock
	case "low stock", "lowstock", "limited":
		return StockLowStock
	}
	return StockOutOfStock
}

// Valid reports whether s is one of the known stock states.
func (s StockStatus) Valid() bool {
	_, err := ParseStockStatus(string(s))
	return err == nil
}

// Normalize fills defaults for fields the catalog may omit.
func (m *Material) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Category = strings.TrimSpace(m.Category)
	if m.Category == "" {
		m.Category = UncategorizedLabel
	}
	if !m.StockStatus.Valid() {
		m.StockStatus = ParseStockStatusLenient(string(m.StockStatus))
	}
}
