// Package geocoder resolves place names to ISO country codes through a
// Nominatim-compatible search API.
package geocoder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mrericsingh-eng/normalize/internal/integrations"
	"github.com/mrericsingh-eng/normalize/internal/storage"
)

// ErrNotFound means the search returned no place usable as a city.
var ErrNotFound = errors.New("geocoder: place not found")

// Result is an accepted search hit.
type Result struct {
	Name        string // first component of display_name
	CountryCode string // upper-case ISO alpha-2
}

// place is the subset of a Nominatim search hit we read.
type place struct {
	Class       string `json:"class"`
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
	DisplayName string `json:"display_name"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// acceptable keeps settlements and administrative areas that stand for a
// city; everything else (rivers, shops, streets) is ignored.
func (p place) acceptable() bool {
	switch {
	case p.Class == "place" && (p.Type == "city" || p.Type == "town" || p.Type == "village"):
		return true
	case p.Class == "boundary" && p.Type == "administrative" && (p.AddressType == "city" || p.AddressType == "province"):
		return true
	}
	return false
}

type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RPS caps outgoing searches per second; <= 0 disables the cap.
	RPS        float64
	Cache      storage.Store
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	getter  *integrations.Getter
	limiter *rate.Limiter
	cache   storage.Store
	logger  *zap.Logger
	tracer  trace.Tracer
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		getter: &integrations.Getter{
			HTTP:         hc,
			UserAgent:    opts.UserAgent,
			MaxRetries:   opts.MaxRetries,
			InitialDelay: 200 * time.Millisecond,
		},
		limiter: rate.NewLimiter(limit, 1),
		cache:   opts.Cache,
		logger:  logger.Named("geocoder"),
		tracer:  otel.Tracer("normalize"),
	}
}

// Search runs one uncached lookup.
func (c *Client) Search(ctx context.Context, name string) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "geocoder.Search", trace.WithAttributes(attribute.String("place", name)))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	var hits []place
	if err := c.getter.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), &hits); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return Result{}, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(hits) == 0 || !hits[0].acceptable() || hits[0].Address.CountryCode == "" {
		return Result{}, ErrNotFound
	}

	hit := hits[0]
	res := Result{
		Name:        strings.TrimSpace(strings.Split(hit.DisplayName, ",")[0]),
		CountryCode: strings.ToUpper(hit.Address.CountryCode),
	}
	span.SetAttributes(attribute.String("country_code", res.CountryCode))
	return res, nil
}

// CountryCode resolves name through the cache, then Search. Misses are
// cached too, so an unknown word is only searched once per ttl.
func (c *Client) CountryCode(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", ErrNotFound
	}

	if c.cache != nil {
		code, err := c.cache.GetCountryCode(ctx, key)
		switch {
		case err == nil && code == "":
			return "", ErrNotFound
		case err == nil:
			return code, nil
		case !errors.Is(err, storage.ErrMiss):
			c.logger.Warn("cache read failed", zap.String("city", key), zap.Error(err))
		}
	}

	res, err := c.Search(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		// transport trouble is not a verdict; leave the cache alone
		return "", err
	}

	if c.cache != nil {
		if perr := c.cache.PutCountryCode(ctx, key, res.CountryCode); perr != nil {
			c.logger.Warn("cache write failed", zap.String("city", key), zap.Error(perr))
		}
	}
	if err != nil {
		return "", err
	}
	return res.CountryCode, nil
}
