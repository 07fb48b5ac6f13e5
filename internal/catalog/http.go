package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/httpclient"
)

// Getter issues GET requests. Both *httpclient.Client and
// *httpclient.CircuitBreakerClient satisfy it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// feedPage is one page of the catalog service's material listing.
type feedPage struct {
	Data       []json.RawMessage `json:"data"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

// feedMaterial is a material as the catalog service spells it. Category may
// be a plain string or an object with a name; price may be text or a number.
type feedMaterial struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    json.RawMessage `json:"category"`
	Supplier    string          `json:"supplier"`
	Price       json.RawMessage `json:"price"`
	StockStatus string          `json:"stock_status"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	ProductURL  string          `json:"product_url"`
}

// HTTPSource pages through the catalog service's material listing.
type HTTPSource struct {
	client  Getter
	baseURL string
	perPage int
	logger  *slog.Logger
}

// NewHTTPSource creates a source reading from baseURL. A non-positive page
// size uses DefaultPageSize.
func NewHTTPSource(client Getter, baseURL string, perPage int, logger *slog.Logger) *HTTPSource {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	return &HTTPSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: perPage,
		logger:  logger,
	}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Load fetches pages until the service reports the last page or returns an
// empty one. Entries that do not decode as materials are skipped.
func (s *HTTPSource) Load(ctx context.Context) ([]domain.Material, error) {
	var all []domain.Material
	for page := 1; ; page++ {
		fp, err := s.fetch(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetch materials page %d: %w", page, err)
		}
		if len(fp.Data) == 0 {
			return all, nil
		}

		for i, raw := range fp.Data {
			m, err := decodeMaterial(raw)
			if err != nil {
				s.logger.WarnContext(ctx, "skipping malformed catalog entry",
					slog.Int("page", page),
					slog.Int("index", i),
					slog.String("error", err.Error()),
				)
				continue
			}
			all = append(all, m)
		}

		if fp.TotalPages > 0 && page >= fp.TotalPages {
			return all, nil
		}
	}
}

func (s *HTTPSource) fetch(ctx context.Context, page int) (*feedPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(s.perPage))

	resp, err := s.client.Get(ctx, s.baseURL+"/api/v1/materials?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog-service")
	}
	defer func() { _ = resp.Body.Close() }()

	var fp feedPage
	if err := json.NewDecoder(resp.Body).Decode(&fp); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return &fp, nil
}

func decodeMaterial(raw json.RawMessage) (domain.Material, error) {
	var fm feedMaterial
	if err := json.Unmarshal(raw, &fm); err != nil {
		return domain.Material{}, err
	}
	if fm.ID == 0 {
		return domain.Material{}, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(fm.Name) == "" {
		return domain.Material{}, fmt.Errorf("material %d has no name", fm.ID)
	}

	m := domain.Material{
		ID:          fm.ID,
		Name:        fm.Name,
		Category:    decodeCategory(fm.Category),
		Supplier:    fm.Supplier,
		Price:       decodePrice(fm.Price),
		StockStatus: domain.ParseStockStatusLenient(fm.StockStatus),
		Brand:       fm.Brand,
		Description: fm.Description,
		ProductURL:  fm.ProductURL,
	}
	m.Normalize()
	return m, nil
}

func decodeCategory(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Name
	}
	return ""
}

// decodePrice keeps the catalog's display text. Bare numbers are rendered in
// pounds with two decimals.
func decodePrice(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return "£" + strconv.FormatFloat(f, 'f', 2, 64)
	}
	return ""
}
