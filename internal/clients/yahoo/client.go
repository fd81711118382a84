// Package yahoo implements the market-data client against the Yahoo Finance
// chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/models"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 5 // requests per second
)

// historicalDateLayout is the day-first encoding historical samples are
// emitted in. The return-series builder accepts it alongside ISO dates.
const historicalDateLayout = "02/01/2006"

// APIError is returned for non-2xx provider responses.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// Client talks to the Yahoo Finance chart API with client-side rate
// limiting.
type Client struct {
	baseURL    string
	suffix     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *common.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithSuffix sets the exchange suffix appended to bare tickers (".SA" for
// B3). Tickers already carrying a dot are passed through unchanged.
func WithSuffix(suffix string) Option {
	return func(c *Client) { c.suffix = suffix }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithLogger(logger *common.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a Client with the given options applied over defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		suffix:     ".SA",
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Symbol maps a portfolio ticker to the provider's symbol.
func (c *Client) Symbol(ticker string) string {
	ticker = models.NormalizeTicker(ticker)
	// Index symbols (^BVSP) and already-qualified tickers pass through.
	if c.suffix == "" || strings.Contains(ticker, ".") || strings.HasPrefix(ticker, "^") {
		return ticker
	}
	return ticker + c.suffix
}

// chartResponse mirrors the subset of the chart API payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(ctx context.Context, symbol, query string) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, symbol, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "carteira/"+common.GetVersion())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   "/v8/finance/chart/" + symbol,
		}
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}
	return &parsed, nil
}

// GetCurrentPrice returns the latest market price for a ticker.
func (c *Client) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	symbol := c.Symbol(ticker)
	parsed, err := c.fetchChart(ctx, symbol, "range=1d&interval=1d")
	if err != nil {
		return 0, err
	}

	price := parsed.Chart.Result[0].Meta.RegularMarketPrice
	if price == 0 {
		return 0, fmt.Errorf("no price available for %s", symbol)
	}

	c.logger.Debug().Str("symbol", symbol).Float64("price", price).Msg("quote fetched")
	return price, nil
}

// GetHistoricalPrices returns daily closes in [start, end] (ISO dates),
// oldest first. Days without a close (holidays, gaps) are skipped.
func (c *Client) GetHistoricalPrices(ctx context.Context, ticker, start, end string) ([]models.PricePoint, error) {
	startTime, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endTime, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}

	symbol := c.Symbol(ticker)
	query := fmt.Sprintf("period1=%d&period2=%d&interval=1d",
		startTime.Unix(), endTime.Add(24*time.Hour).Unix())
	parsed, err := c.fetchChart(ctx, symbol, query)
	if err != nil {
		return nil, err
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Format(historicalDateLayout),
			Price: *closes[i],
		})
	}

	c.logger.Debug().Str("symbol", symbol).Int("points", len(points)).Msg("history fetched")
	return points, nil
}
