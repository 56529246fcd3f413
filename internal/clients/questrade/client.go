// Package questrade provides a client for the Questrade account API
package questrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fundcast/internal/common"
	"github.com/bobmcallan/fundcast/internal/interfaces"
	"github.com/bobmcallan/fundcast/internal/models"
)

const (
	DefaultBaseURL   = "https://api01.iq.questrade.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second

	// The activities endpoint rejects ranges wider than 31 days, so
	// longer spans are fetched in 30-day pages.
	maxActivityWindow = 30 * 24 * time.Hour
)

// Client implements the BrokerageClient interface
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new Questrade client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
	return fmt.Sprintf("Questrade API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", path).Msg("Questrade API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// activitiesResponse is the wire shape of the activities endpoint.
type activitiesResponse struct {
	Activities []*models.RawActivity `json:"activities"`
}

// balancesResponse is the wire shape of the balances endpoint.
type balancesResponse struct {
	PerCurrencyBalances []struct {
		Currency          string  `json:"currency"`
		Cash              float64 `json:"cash"`
		MarketValue       float64 `json:"marketValue"`
		TotalEquity       float64 `json:"totalEquity"`
		IsRealTime        bool    `json:"isRealTime"`
		MaintenanceExcess float64 `json:"maintenanceExcess"`
	} `json:"perCurrencyBalances"`
}

// GetActivities retrieves raw account activity between from and to,
// paging in 30-day windows to respect the API's range cap.
func (c *Client) GetActivities(ctx context.Context, accountID string, from, to time.Time) ([]*models.RawActivity, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid activity range: %s after %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	var all []*models.RawActivity

	for windowStart := from; !windowStart.After(to); {
		windowEnd := windowStart.Add(maxActivityWindow)
		if windowEnd.After(to) {
			windowEnd = to
		}

		path := fmt.Sprintf("/v1/accounts/%s/activities?startTime=%s&endTime=%s",
			url.PathEscape(accountID),
			url.QueryEscape(windowStart.Format(time.RFC3339)),
			url.QueryEscape(windowEnd.Format(time.RFC3339)))

		var resp activitiesResponse
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("failed to get activities for %s: %w", accountID, err)
		}
		all = append(all, resp.Activities...)

		windowStart = windowEnd.Add(time.Second)
	}

	c.logger.Debug().
		Str("account", accountID).
		Int("activities", len(all)).
		Msg("Fetched account activities")

	return all, nil
}

// GetBalances retrieves per-currency balance snapshots for the account.
func (c *Client) GetBalances(ctx context.Context, accountID string) ([]*models.BalanceSnapshot, error) {
	path := fmt.Sprintf("/v1/accounts/%s/balances", url.PathEscape(accountID))

	var resp balancesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to get balances for %s: %w", accountID, err)
	}

	now := time.Now()
	snapshots := make([]*models.BalanceSnapshot, 0, len(resp.PerCurrencyBalances))
	for _, b := range resp.PerCurrencyBalances {
		snapshots = append(snapshots, &models.BalanceSnapshot{
			Currency:    b.Currency,
			TotalEquity: b.TotalEquity,
			Cash:        b.Cash,
			MarketValue: b.MarketValue,
			AsOf:        now,
		})
	}

	return snapshots, nil
}

// Ensure Client implements BrokerageClient
var _ interfaces.BrokerageClient = (*Client)(nil)
