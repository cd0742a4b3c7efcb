// Package crypto aggregates coin prices from the crypto simple-price
// provider behind the shared TTL cache.
package crypto

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finfeed/fxcrypto/internal/cache"
	"github.com/finfeed/fxcrypto/internal/upstream"
	apierrors "github.com/finfeed/fxcrypto/pkg/errors"
	"github.com/finfeed/fxcrypto/pkg/metrics"
	"github.com/finfeed/fxcrypto/pkg/models"
)

// DefaultTTL is the freshness window for crypto prices. They are volatile,
// so the window stays short.
const DefaultTTL = time.Minute

const (
	feed     = "crypto"
	provider = "prices"
)

// PriceService exposes simple coin prices in one or more quote currencies.
type PriceService interface {
	GetSimplePrices(ctx context.Context, coins, vsCurrencies []string) (*models.CryptoPricesPayload, error)
}

// Config holds the crypto aggregator settings.
type Config struct {
	// BaseURL is the provider's simple-price endpoint; ids and quote
	// currencies are appended as query parameters.
	BaseURL string
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
	// Clock overrides the wall clock, for tests.
	Clock cache.Clock
}

// Service implements PriceService on top of the shared cache and fetcher.
type Service struct {
	logger  *zap.Logger
	cache   *cache.TTLCache
	fetcher upstream.Fetcher
	baseURL string
	ttl     time.Duration
	clock   cache.Clock
}

// NewService creates a PriceService.
func NewService(logger *zap.Logger, c *cache.TTLCache, fetcher upstream.Fetcher, cfg Config) (PriceService, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("crypto: base URL is required")
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

// GetSimplePrices returns prices for the given coin ids in the given quote
// currencies, served from the cache while fresher than the TTL. Both lists
// are lowercased, and the cache key sorts them so two requests differing
// only in ordering or case share one entry.
func (s *Service) GetSimplePrices(ctx context.Context, coins, vsCurrencies []string) (*models.CryptoPricesPayload, error) {
	coins = normalize(coins)
	vsCurrencies = normalize(vsCurrencies)
	key := cacheKey(coins, vsCurrencies)

	payload, hit, err := s.cache.GetOrLoad(key, s.ttl, func() (any, error) {
		return s.fetchPrices(ctx, coins, vsCurrencies)
	})
	if err != nil {
		return nil, err
	}

	if hit {
		metrics.CacheHits.WithLabelValues(feed).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(feed).Inc()
	}

	return payload.(*models.CryptoPricesPayload), nil
}

func (s *Service) fetchPrices(ctx context.Context, coins, vsCurrencies []string) (*models.CryptoPricesPayload, error) {
	metrics.UpstreamRequests.WithLabelValues(provider).Inc()

	// The provider receives the lists in request order; sorting is only for
	// cache-key stability.
	q := url.Values{}
	q.Set("ids", strings.Join(coins, ","))
	q.Set("vs_currencies", strings.Join(vsCurrencies, ","))
	endpoint := s.baseURL + "?" + q.Encode()

	var data map[string]map[string]float64
	if err := s.fetcher.FetchJSON(ctx, endpoint, &data); err != nil {
		metrics.UpstreamErrors.WithLabelValues(provider).Inc()
		return nil, err
	}
	if len(data) == 0 {
		metrics.UpstreamErrors.WithLabelValues(provider).Inc()
		return nil, apierrors.UpstreamData("provider returned no price data")
	}

	s.logger.Debug("fetched crypto prices",
		zap.Int("coins", len(data)), zap.Strings("vs_currencies", vsCurrencies))

	return &models.CryptoPricesPayload{
		Data: data,
		TS:   s.clock.Now().Unix(),
	}, nil
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cacheKey(coins, vsCurrencies []string) string {
	sortedCoins := append([]string(nil), coins...)
	sortedVs := append([]string(nil), vsCurrencies...)
	sort.Strings(sortedCoins)
	sort.Strings(sortedVs)
	return "cg:" + strings.Join(sortedCoins, ",") + "|" + strings.Join(sortedVs, ",")
}
