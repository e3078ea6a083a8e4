// Package geo resolves the observer's position for weather lookups.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultLocateURL is a keyless IP geolocation endpoint.
	DefaultLocateURL = "https://ipapi.co/json/"

	// DefaultMaxAge is how long a previous fix may be reused.
	DefaultMaxAge = 5 * time.Minute

	// DefaultTimeout bounds a single position request.
	DefaultTimeout = 6 * time.Second
)

// ErrUnavailable is returned when no position can be determined.
var ErrUnavailable = errors.New("position unavailable")

// Position is a latitude/longitude fix.
type Position struct {
	Latitude  float64
	Longitude float64
	Source    string
	FixedAt   time.Time
}

// Valid reports whether the coordinates are finite and in range.
func (p Position) Valid() bool {
	return !math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude) &&
		p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

func (p Position) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Latitude, p.Longitude)
}

// Options mirror a one-shot position request.
type Options struct {
	HighAccuracy bool
	MaxAge       time.Duration
	Timeout      time.Duration
}

// DefaultOptions returns low accuracy, 5 minute reuse and a 6 second timeout.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: false,
		MaxAge:       DefaultMaxAge,
		Timeout:      DefaultTimeout,
	}
}

// Locator produces a position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// Static always returns the configured coordinates.
type Static struct {
	pos Position
}

// NewStatic returns a locator pinned to lat/lon.
func NewStatic(lat, lon float64) *Static {
	return &Static{pos: Position{Latitude: lat, Longitude: lon, Source: "config"}}
}

// Locate implements Locator.
func (s *Static) Locate(ctx context.Context) (Position, error) {
	if !s.pos.Valid() {
		return Position{}, fmt.Errorf("static %s: %w", s.pos, ErrUnavailable)
	}
	p := s.pos
	p.FixedAt = time.Now()
	return p, nil
}

// IPLocator looks the position up from the public IP address.
type IPLocator struct {
	client *http.Client
	url    string
	opts   Options
}

// IPOption configures an IPLocator.
type IPOption func(*IPLocator)

// WithURL sets the lookup endpoint.
func WithURL(url string) IPOption {
	return func(l *IPLocator) {
		l.url = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) IPOption {
	return func(l *IPLocator) {
		l.client = client
	}
}

// WithOptions sets the request options.
func WithOptions(opts Options) IPOption {
	return func(l *IPLocator) {
		l.opts = opts
	}
}

// NewIPLocator creates an IP-based locator.
func NewIPLocator(opts ...IPOption) *IPLocator {
	l := &IPLocator{
		url:  DefaultLocateURL,
		opts: DefaultOptions(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: l.opts.Timeout}
	}
	return l
}

// ipResponse accepts both latitude/longitude and lat/lon spellings.
type ipResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
}

// Locate implements Locator.
func (l *IPLocator) Locate(ctx context.Context) (Position, error) {
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return Position{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ls-sky/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("locate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("locate: status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Position{}, fmt.Errorf("read response body: %w", err)
	}

	var r ipResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return Position{}, fmt.Errorf("decode position: %w", err)
	}

	lat, lon := r.Latitude, r.Longitude
	if lat == nil {
		lat = r.Lat
	}
	if lon == nil {
		lon = r.Lon
	}
	if lat == nil || lon == nil {
		return Position{}, fmt.Errorf("locate: missing coordinates: %w", ErrUnavailable)
	}

	pos := Position{Latitude: *lat, Longitude: *lon, Source: "ip", FixedAt: time.Now()}
	if !pos.Valid() {
		return Position{}, fmt.Errorf("locate: %s out of range: %w", pos, ErrUnavailable)
	}
	return pos, nil
}

const cacheKey = "position"

// Cached reuses a previous fix for up to MaxAge.
type Cached struct {
	inner Locator
	cache *cache.Cache
	ttl   time.Duration
}

// NewCached wraps inner. A non-positive maxAge disables reuse.
func NewCached(inner Locator, maxAge time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: cache.New(maxAge, 2*maxAge),
		ttl:   maxAge,
	}
}

// Locate implements Locator.
func (c *Cached) Locate(ctx context.Context) (Position, error) {
	if c.ttl > 0 {
		if v, ok := c.cache.Get(cacheKey); ok {
			if pos, ok := v.(Position); ok {
				return pos, nil
			}
		}
	}

	pos, err := c.inner.Locate(ctx)
	if err != nil {
		return Position{}, err
	}
	if c.ttl > 0 {
		c.cache.Set(cacheKey, pos, c.ttl)
	}
	return pos, nil
}
