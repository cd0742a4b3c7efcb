// Package rates aggregates fiat exchange rates from the rate provider
// behind the shared TTL cache.
package rates

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finfeed/fxcrypto/internal/cache"
	"github.com/finfeed/fxcrypto/internal/upstream"
	apierrors "github.com/finfeed/fxcrypto/pkg/errors"
	"github.com/finfeed/fxcrypto/pkg/metrics"
	"github.com/finfeed/fxcrypto/pkg/models"
)

// DefaultTTL is the freshness window for fiat rates. They move slowly, so
// half an hour of staleness is a fair trade for the cut in upstream volume.
const DefaultTTL = 30 * time.Minute

const (
	feed     = "fx"
	provider = "rates"
)

// RateService exposes fiat exchange rates and conversions derived from them.
type RateService interface {
	GetFiatRates(ctx context.Context, base string) (*models.FxRatesPayload, error)
	Convert(ctx context.Context, base, to string, amount float64) (*models.Conversion, error)
}

// Config holds the rate aggregator settings.
type Config struct {
	// BaseURL is the provider's latest-rates endpoint; the base currency is
	// appended as a query parameter.
	BaseURL string
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
	// Clock overrides the wall clock, for tests.
	Clock cache.Clock
}

// Service implements RateService on top of the shared cache and fetcher.
type Service struct {
	logger  *zap.Logger
	cache   *cache.TTLCache
	fetcher upstream.Fetcher
	baseURL string
	ttl     time.Duration
	clock   cache.Clock
}

// NewService creates a RateService.
func NewService(logger *zap.Logger, c *cache.TTLCache, fetcher upstream.Fetcher, cfg Config) (RateService, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rates: base URL is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = cache.SystemClock()
	}

	return &Service{
		logger:  logger,
		cache:   c,
		fetcher: fetcher,
		baseURL: cfg.BaseURL,
		ttl:     ttl,
		clock:   clock,
	}, nil
}

// GetFiatRates returns the rate table for base, served from the cache while
// it is fresher than the TTL. The base is uppercased first, so requests for
// "usd" and "USD" share one entry.
func (s *Service) GetFiatRates(ctx context.Context, base string) (*models.FxRatesPayload, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	key := "fx:" + base

	payload, hit, err := s.cache.GetOrLoad(key, s.ttl, func() (any, error) {
		return s.fetchRates(ctx, base)
	})
	if err != nil {
		return nil, err
	}

	if hit {
		metrics.CacheHits.WithLabelValues(feed).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(feed).Inc()
	}

	return payload.(*models.FxRatesPayload), nil
}

func (s *Service) fetchRates(ctx context.Context, base string) (*models.FxRatesPayload, error) {
	metrics.UpstreamRequests.WithLabelValues(provider).Inc()

	endpoint := fmt.Sprintf("%s?base=%s", s.baseURL, url.QueryEscape(base))

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := s.fetcher.FetchJSON(ctx, endpoint, &body); err != nil {
		metrics.UpstreamErrors.WithLabelValues(provider).Inc()
		return nil, err
	}
	if len(body.Rates) == 0 {
		metrics.UpstreamErrors.WithLabelValues(provider).Inc()
		return nil, apierrors.UpstreamData("provider returned no rates for " + base)
	}

	s.logger.Debug("fetched fiat rates",
		zap.String("base", base), zap.Int("currencies", len(body.Rates)))

	return &models.FxRatesPayload{
		Base:  base,
		Rates: body.Rates,
		TS:    s.clock.Now().Unix(),
	}, nil
}

// Convert turns amount units of base into the target currency using the
// cached rate table. The result carries the timestamp of the rates it was
// derived from, not the time of the call.
func (s *Service) Convert(ctx context.Context, base, to string, amount float64) (*models.Conversion, error) {
	payload, err := s.GetFiatRates(ctx, base)
	if err != nil {
		return nil, err
	}

	to = strings.ToUpper(strings.TrimSpace(to))
	rate, ok := payload.Rates[to]
	if !ok {
		return nil, apierrors.UnsupportedTarget("unsupported target currency: " + to)
	}

	return &models.Conversion{
		Base:   payload.Base,
		To:     to,
		Rate:   rate,
		Amount: amount,
		Result: amount * rate,
		TS:     payload.TS,
	}, nil
}
