// Package emergency looks up local emergency numbers by ISO country code.
package emergency

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mrericsingh-eng/normalize/internal/integrations"
	"github.com/mrericsingh-eng/normalize/internal/places"
	"github.com/mrericsingh-eng/normalize/internal/storage"
)

// ErrNotFound means neither the API nor the static table knows the code.
var ErrNotFound = errors.New("emergency: no numbers for country")

type numberGroup struct {
	All []string `json:"all"`
}

type countryResponse struct {
	Data struct {
		Member112 bool        `json:"member_112"`
		Dispatch  numberGroup `json:"dispatch"`
		Police    numberGroup `json:"police"`
	} `json:"data"`
}

// numbers flattens an API answer: 112 for member countries, then dispatch,
// then police, without blanks or repeats.
func (r countryResponse) numbers() []string {
	var out []string
	seen := map[string]bool{}
	add := func(n string) {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
	}
	if r.Data.Member112 {
		add("112")
	}
	for _, n := range r.Data.Dispatch.All {
		add(n)
	}
	for _, n := range r.Data.Police.All {
		add(n)
	}
	return out
}

type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Cache      storage.Store
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	getter  *integrations.Getter
	cache   storage.Store
	logger  *zap.Logger
	tracer  trace.Tracer
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
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
		cache:  opts.Cache,
		logger: logger.Named("emergency"),
		tracer: otel.Tracer("normalize"),
	}
}

// Fetch asks the API for one country, uncached.
func (c *Client) Fetch(ctx context.Context, code string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "emergency.Fetch", trace.WithAttributes(attribute.String("country_code", code)))
	defer span.End()

	var resp countryResponse
	if err := c.getter.GetJSON(ctx, c.baseURL+"/country/"+code, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("emergency numbers for %s: %w", code, err)
	}
	return resp.numbers(), nil
}

// Numbers returns the numbers for code: cache first, then the API, then the
// built-in table when the API fails or answers with nothing.
func (c *Client) Numbers(ctx context.Context, code string) ([]string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrNotFound
	}

	if c.cache != nil {
		nums, err := c.cache.GetEmergencyNumbers(ctx, code)
		if err == nil && len(nums) > 0 {
			return nums, nil
		}
		if err != nil && !errors.Is(err, storage.ErrMiss) {
			c.logger.Warn("cache read failed", zap.String("country_code", code), zap.Error(err))
		}
	}

	nums, err := c.Fetch(ctx, code)
	switch {
	case err == nil:
	case integrations.IsStatus(err, http.StatusNotFound):
		c.logger.Debug("emergency API does not know code", zap.String("country_code", code))
	default:
		c.logger.Warn("emergency API unavailable, using static table",
			zap.String("country_code", code), zap.Error(err))
	}
	if len(nums) == 0 {
		nums = places.EmergencyNumbers(code)
		if len(nums) == 0 {
			return nil, ErrNotFound
		}
		// static answers are not cached; the API may recover
		return nums, nil
	}

	if c.cache != nil {
		if perr := c.cache.PutEmergencyNumbers(ctx, code, nums); perr != nil {
			c.logger.Warn("cache write failed", zap.String("country_code", code), zap.Error(perr))
		}
	}
	return nums, nil
}
