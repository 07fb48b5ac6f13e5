package autocomplete

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/httpclient"
)

// Getter issues GET requests. httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// HTTPSuggester asks the materials service's autocomplete endpoint.
type HTTPSuggester struct {
	client  Getter
	baseURL string
}

// NewHTTPSuggester creates a suggester for the service at baseURL.
func NewHTTPSuggester(client Getter, baseURL string) *HTTPSuggester {
	return &HTTPSuggester{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type suggestEnvelope struct {
	Data struct {
		Suggestions []domain.AutocompleteSuggestion `json:"suggestions"`
	} `json:"data"`
}

// Suggest implements Suggester.
func (h *HTTPSuggester) Suggest(ctx context.Context, partial string, limit int) ([]domain.AutocompleteSuggestion, error) {
	q := url.Values{}
	q.Set("q", partial)
	if limit > 0 {
		q.Set("max_suggestions", strconv.Itoa(limit))
	}

	resp, err := h.client.Get(ctx, h.baseURL+"/api/v1/materials/autocomplete?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("autocomplete request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "materials-search")
	}
	defer func() { _ = resp.Body.Close() }()

	var env suggestEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode autocomplete response: %w", err)
	}
	if env.Data.Suggestions == nil {
		return []domain.AutocompleteSuggestion{}, nil
	}
	return env.Data.Suggestions, nil
}
