package httpclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
)

// CorrelationIDHeader carries the caller's correlation ID to peers.
const CorrelationIDHeader = "X-Correlation-ID"

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
	// UserAgent is sent on every request when set.
	UserAgent string
}

// DefaultConfig returns defaults suited to pulling catalog feeds.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    time.Second,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 16,
		UserAgent:       "materials-search",
	}
}

// Client is an http.Client that retries idempotent GETs and forwards trace
// context and correlation IDs.
type Client struct {
	http *http.Client
	cfg  Config
}

// New creates a client with its own pooled transport.
func New(cfg Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	transport.MaxIdleConnsPerHost = cfg.MaxConnsPerHost
	transport.MaxConnsPerHost = cfg.MaxConnsPerHost
	transport.TLSHandshakeTimeout = 5 * time.Second

	return &Client{
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// Get fetches url. Transport errors and 5xx responses other than 501 are
// retried with jittered exponential backoff; the final response is returned
// as is, so callers still inspect the status.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.get(ctx, url)
		if !c.retryable(resp, err) || attempt >= c.cfg.MaxRetries {
			if err != nil {
				return nil, fmt.Errorf("GET %s failed after %d attempts: %w", url, attempt+1, err)
			}
			return resp, nil
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		if err := c.sleep(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(CorrelationIDHeader, id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return c.http.Do(req)
}

func (c *Client) retryable(resp *http.Response, err error) bool {
	if err != nil {
		var netErr net.Error
		return !errors.Is(err, context.Canceled) && errors.As(err, &netErr)
	}
	return resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented
}

// sleep waits the backoff for retry number attempt (0-indexed).
func (c *Client) sleep(ctx context.Context, attempt int) error {
	wait := min(c.cfg.RetryWaitMin<<attempt, c.cfg.RetryWaitMax)
	t := time.NewTimer(jitter(wait))
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// jitter spreads d uniformly over ±25%.
func jitter(d time.Duration) time.Duration {
	spread := int64(d) / 2
	if spread <= 0 {
		return max(d, 0)
	}
	return time.Duration(int64(d) - spread/2 + rand.Int64N(spread+1)) // #nosec G404 -- jitter only
}
