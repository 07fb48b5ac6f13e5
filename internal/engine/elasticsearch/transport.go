package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
)

type esHit struct {
	Source domain.Material `json:"_source"`
}

type esErrorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// do performs req and decodes a successful body into out when out is not
// nil. Statuses listed in tolerate are returned without error and without
// decoding.
func (e *Engine) do(ctx context.Context, op string, req esapi.Request, out any, tolerate ...int) (int, error) {
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch %s: %w", op, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	if slices.Contains(tolerate, res.StatusCode) {
		return res.StatusCode, nil
	}
	if res.IsError() {
		return res.StatusCode, responseError(op, res)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("elasticsearch %s: decode response: %w", op, err)
		}
	}
	return res.StatusCode, nil
}

func responseError(op string, res *esapi.Response) error {
	var body esErrorBody
	if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Error.Type != "" {
		return fmt.Errorf("elasticsearch %s: %s: %s", op, body.Error.Type, body.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: unexpected status %s", op, res.Status())
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// search runs a query DSL body against the index and returns its hits.
func (e *Engine) search(ctx context.Context, op string, query object) ([]esHit, error) {
	body, err := jsonBody(query)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch %s: encode query: %w", op, err)
	}
	var resp struct {
		Hits struct {
			Hits []esHit `json:"hits"`
		} `json:"hits"`
	}
	if _, err := e.do(ctx, op, esapi.SearchRequest{Index: []string{e.indexName}, Body: body}, &resp); err != nil {
		return nil, err
	}
	return resp.Hits.Hits, nil
}
