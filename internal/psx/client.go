// Package psx provides a client for the PSX data portal.
package psx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "psx-analyst/internal/errors"
	"psx-analyst/internal/models"
	"psx-analyst/internal/resilience"
	"psx-analyst/pkg/utils"
)

const (
	DefaultBaseURL   = "https://dps.psx.com.pk"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client fetches end-of-day history and company announcements from the
// PSX data portal. All requests share one rate limiter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the request rate limit.
func WithRateLimit(requestsPerSec float64) ClientOption {
	return func(c *Client) {
		burst := int(requestsPerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSec), burst)
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new PSX data portal client.
// No API key is required, these are public endpoints.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		breaker: resilience.New("psx-portal", resilience.DefaultConfig()),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// timeseriesResponse is the EOD timeseries payload. Each row is
// [epoch_seconds, open, high, low, close, volume].
type timeseriesResponse struct {
	Status int         `json:"status"`
	Data   [][]float64 `json:"data"`
}

// FetchHistory retrieves up to maxBars of daily EOD history for symbol,
// chronological ascending.
func (c *Client) FetchHistory(ctx context.Context, symbol string, maxBars int) ([]models.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	reqURL := fmt.Sprintf("%s/timeseries/eod/%s", c.baseURL, symbol)

	start := time.Now()
	resp, err := c.get(ctx, reqURL)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Dur("elapsed", elapsed).Msg("EOD timeseries request failed")
		return nil, apperrors.NewFetchError("timeseries/eod", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("symbol", symbol).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("EOD timeseries non-OK response")
		return nil, apperrors.NewFetchError("timeseries/eod", symbol,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var payload timeseriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewFetchError("timeseries/eod", symbol,
			fmt.Errorf("failed to decode response: %w", err))
	}
	if payload.Status != 1 {
		return nil, apperrors.NewFetchError("timeseries/eod", symbol,
			fmt.Errorf("portal status %d", payload.Status))
	}

	bars := make([]models.Bar, 0, len(payload.Data))
	for _, row := range payload.Data {
		if len(row) < 6 {
			continue
		}
		ts := time.Unix(int64(row[0]), 0).In(utils.KarachiLocation)
		bars = append(bars, models.Bar{
			Symbol: symbol,
			Date:   time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, utils.KarachiLocation),
			Open:   row[1],
			High:   row[2],
			Low:    row[3],
			Close:  row[4],
			Volume: int64(row[5]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if maxBars > 0 && len(bars) > maxBars {
		bars = bars[len(bars)-maxBars:]
	}

	c.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Dur("elapsed", elapsed).Msg("EOD history fetched")
	return bars, nil
}

// FetchAnnouncements scrapes the company page for recent announcements.
// Returned records are unscored; the sentiment oracle fills polarity later.
func (c *Client) FetchAnnouncements(ctx context.Context, symbol string) ([]models.SentimentRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	reqURL := fmt.Sprintf("%s/company/%s", c.baseURL, symbol)

	start := time.Now()
	resp, err := c.get(ctx, reqURL)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Dur("elapsed", elapsed).Msg("Company page request failed")
		return nil, apperrors.NewFetchError("company", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewFetchError("company", symbol,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperrors.NewFetchError("company", symbol,
			fmt.Errorf("failed to parse page: %w", err))
	}

	var records []models.SentimentRecord
	doc.Find("div.announcements table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		dateText := strings.TrimSpace(cells.Eq(0).Text())
		headline := strings.TrimSpace(cells.Eq(1).Text())
		if headline == "" {
			return
		}
		published, err := parseAnnouncementDate(dateText)
		if err != nil {
			c.logger.Debug().Str("symbol", symbol).Str("date", dateText).Msg("Skipping announcement with unparseable date")
			return
		}
		records = append(records, models.SentimentRecord{
			Symbol:      symbol,
			Headline:    headline,
			PublishedAt: published,
		})
	})

	c.logger.Debug().Str("symbol", symbol).Int("announcements", len(records)).Dur("elapsed", elapsed).Msg("Announcements fetched")
	return records, nil
}

// get performs a portal request behind the shared circuit breaker. A
// portal that keeps failing stops receiving requests for the cooldown
// period.
func (c *Client) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html")

	return resilience.DoWithResult(c.breaker, func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("portal status %d", resp.StatusCode)
		}
		return resp, nil
	})
}

// parseAnnouncementDate handles the date formats the portal uses on
// company pages.
func parseAnnouncementDate(s string) (time.Time, error) {
	for _, layout := range []string{"Jan 2, 2006", "2 Jan 2006", "2006-01-02", "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, s, utils.KarachiLocation); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
