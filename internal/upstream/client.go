// Package upstream implements thin clients for the third-party REST APIs used to validate
// phone numbers and to look up countries, city coordinates, weather and local time.
//
// Every call is a single GET with the API key in the X-Api-Key header.  A response with a
// non-2xx status results in a *StatusError, any other failure (transport, decoding, missing
// field) in an error wrapping ErrUpstream.  Response bodies of failed calls are logged but
// never included in returned errors.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/andrewwphillips/restaurantql/internal/config"
	"github.com/andrewwphillips/restaurantql/internal/logging"
	"github.com/andrewwphillips/restaurantql/internal/metrics"
)

// Endpoint names (appended to the base URL)
const (
	EndpointPhone     = "validatephone"
	EndpointCountry   = "country"
	EndpointCity      = "city"
	EndpointWeather   = "weather"
	EndpointWorldTime = "worldtime"
)

const (
	apiKeyHeader = "X-Api-Key"
	maxLogBody   = 512
)

var (
	// ErrUpstream is matched (errors.Is) by every failure of an upstream call.
	ErrUpstream = errors.New("upstream request failed")

	// ErrNoResult is returned when a lookup succeeds but returns an empty list.
	ErrNoResult = errors.New("upstream returned no result")
)

// StatusError is returned when an upstream API responds with a non-success status.
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.Status)
}

// Is makes a StatusError match ErrUpstream.
func (e *StatusError) Is(target error) bool {
	return target == ErrUpstream
}

// Client calls the upstream APIs.  It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *retryablehttp.Client
	logger  *zap.Logger
}

// New creates a client from the upstream configuration.
func New(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.RetryMax
	hc.Logger = logging.NewLeveled(logger.Named("http"))
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler // we want the last response, not a generic error
	hc.HTTPClient.Timeout = cfg.Timeout

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		http:    hc,
		logger:  logger,
	}
}

// get performs one GET request and decodes the JSON response into a T
func get[T any](ctx context.Context, c *Client, endpoint string, params url.Values) (T, error) {
	var result T
	start := time.Now()
	defer func() {
		metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return result, errors.Wrapf(ErrUpstream, "%s: %v", endpoint, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Warn("upstream request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return result, errors.Wrapf(ErrUpstream, "%s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxLogBody))
		c.logger.Warn("upstream returned error status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.Truncate(string(body), maxLogBody)),
		)
		return result, &StatusError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Warn("decoding upstream response", zap.String("endpoint", endpoint), zap.Error(err))
		return result, errors.Wrapf(ErrUpstream, "%s: decoding response: %v", endpoint, err)
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return result, nil
}

// missingField reports a successful response that lacks a required field.
func (c *Client) missingField(endpoint, field string) error {
	metrics.UpstreamRequests.WithLabelValues(endpoint, "missing").Inc()
	c.logger.Warn("upstream response missing field", zap.String("endpoint", endpoint), zap.String("field", field))
	return errors.Wrapf(ErrUpstream, "%s: response has no %q", endpoint, field)
}
