// Package forecast fetches current conditions from the Open-Meteo API.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/litescript/ls-sky/internal/sky"
)

const (
	// DefaultForecastURL is the Open-Meteo forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 15 * time.Second

	// DefaultMinInterval is the sustained spacing between requests.
	DefaultMinInterval = 30 * time.Second

	// DefaultBurst is how many requests may go out back to back.
	DefaultBurst = 2

	currentFields = "weather_code,precipitation,cloud_cover,wind_speed_10m"
)

// ErrRateLimited is returned when a request is refused locally or by the server.
var ErrRateLimited = errors.New("forecast rate limited")

// Client fetches current weather.
type Client struct {
	client      *http.Client
	url         string
	timeout     time.Duration
	minInterval time.Duration
	burst       int
	limiter     *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithURL sets a custom forecast endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithRateLimit sets the request pacing. A zero interval disables it.
func WithRateLimit(minInterval time.Duration, burst int) Option {
	return func(c *Client) {
		c.minInterval = minInterval
		c.burst = burst
	}
}

// NewClient creates a forecast client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url:         DefaultForecastURL,
		timeout:     DefaultTimeout,
		minInterval: DefaultMinInterval,
		burst:       DefaultBurst,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.timeout,
		}
	}
	if c.minInterval > 0 {
		if c.burst < 1 {
			c.burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(c.minInterval), c.burst)
	}

	return c
}

// FetchResult contains the result of a fetch operation.
type FetchResult struct {
	Observation sky.Observation
	Condition   sky.Condition
	RawBytes    []byte
	FetchedAt   time.Time
	Duration    time.Duration
	Error       error
}

// Fetch retrieves and classifies current conditions at lat/lon.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) FetchResult {
	start := time.Now()
	result := FetchResult{
		Observation: sky.NewObservation(),
		Condition:   sky.ConditionUnknown,
		FetchedAt:   start,
	}

	raw, err := c.fetchRaw(ctx, lat, lon)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}
	result.RawBytes = raw

	obs, err := Parse(raw)
	if err != nil {
		result.Error = fmt.Errorf("parse forecast: %w", err)
		return result
	}
	result.Observation = obs
	result.Condition = sky.Classify(obs)

	return result
}

// Current returns the current observation at lat/lon.
func (c *Client) Current(ctx context.Context, lat, lon float64) (sky.Observation, error) {
	r := c.Fetch(ctx, lat, lon)
	return r.Observation, r.Error
}

// URL returns the configured endpoint.
func (c *Client) URL() string {
	return c.url
}

// RequestURL builds the query URL for lat/lon.
func (c *Client) RequestURL(lat, lon float64) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("parse forecast url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", currentFields)
	q.Set("wind_speed_unit", "ms")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) fetchRaw(ctx context.Context, lat, lon float64) ([]byte, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	reqURL, err := c.RequestURL(lat, lon)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "ls-sky/1.0 (terminal sky)")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}
