package domain

// QuoteLineItem is the shape the quoting subsystem accepts when a material
// is added to a quote.
type QuoteLineItem struct {
	MaterialID  int64       `json:"material_id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Price       string      `json:"price"`
	Supplier    string      `json:"supplier"`
	StockStatus StockStatus `json:"stock_status"`
	ProductURL  string      `json:"product_url,omitempty"`
	Highlights  []string    `json:"highlights,omitempty"`
	Quantity    int         `json:"quantity"`
}
