// Package boc provides a client for the Bank of Canada Valet rate API
package boc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fundcast/internal/common"
	"github.com/bobmcallan/fundcast/internal/interfaces"
	"github.com/bobmcallan/fundcast/internal/models"
)

const (
	DefaultBaseURL   = "https://www.bankofcanada.ca/valet"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the FXRateClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Valet client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Valet API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// observationsResponse is the wire shape of the observations endpoint.
// Each observation holds the date under "d" and the series value keyed by
// the series name, e.g. {"d":"2024-01-02","FXUSDCAD":{"v":"1.3316"}}.
type observationsResponse struct {
	Observations []map[string]json.RawMessage `json:"observations"`
}

type seriesValue struct {
	V string `json:"v"`
}

// GetObservations retrieves daily noon-rate observations for converting
// currency into base over [from, to]. Weekends and holidays have no
// observations; an empty result is valid.
func (c *Client) GetObservations(ctx context.Context, currency, base string, from, to time.Time) ([]models.FxObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	series := fmt.Sprintf("FX%s%s", currency, base)
	path := fmt.Sprintf("/observations/%s/json?start_date=%s&end_date=%s",
		series, from.Format("2006-01-02"), to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("series", series).Str("url", path).Msg("Valet API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Valet returns 404 for an unknown series; treat as "no data".
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	var parsed observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	observations := make([]models.FxObservation, 0, len(parsed.Observations))
	for _, obs := range parsed.Observations {
		var date string
		if raw, ok := obs["d"]; ok {
			if err := json.Unmarshal(raw, &date); err != nil {
				continue
			}
		}
		raw, ok := obs[series]
		if !ok || date == "" {
			continue
		}
		var sv seriesValue
		if err := json.Unmarshal(raw, &sv); err != nil {
			continue
		}
		rate, err := strconv.ParseFloat(sv.V, 64)
		if err != nil || rate <= 0 {
			c.logger.Warn().Str("series", series).Str("date", date).Str("value", sv.V).Msg("Skipping invalid rate observation")
			continue
		}
		observations = append(observations, models.FxObservation{Date: date, Rate: rate})
	}

	return observations, nil
}

// Ensure Client implements FXRateClient
var _ interfaces.FXRateClient = (*Client)(nil)
