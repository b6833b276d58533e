package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/internal/config"
	"github.com/rajiknows/dcex-project/internal/network"
	"github.com/rajiknows/dcex-project/pkg/logger"
)

// PriceService is a process-wide, time-gated read-through cache over the
// aggregator's price feed. Refreshes happen at most once per interval under
// a single-writer lock; the core only ever sees the pure Price lookup.
// When the feed is down or an entry is missing, the catalog's static default
// price is served instead.
type PriceService struct {
	priceURL string
	http     *http.Client
	cache    *gocache.Cache
	interval time.Duration
	defaults map[string]string

	refreshMu   sync.Mutex
	lastRefresh time.Time
}

// NewPriceService builds the price cache over the configured feed endpoint.
func NewPriceService(cfg *config.JupiterConfig, prices *config.PricesConfig) *PriceService {
	defaults := make(map[string]string, len(network.SupportedTokens))
	for _, tok := range network.SupportedTokens {
		defaults[tok.Symbol] = tok.DefaultPrice
	}

	return &PriceService{
		priceURL: cfg.PriceURL,
		http:     &http.Client{Timeout: prices.RequestTimeout},
		cache:    gocache.New(2*prices.RefreshInterval, 10*prices.RefreshInterval),
		interval: prices.RefreshInterval,
		defaults: defaults,
	}
}

// Price returns the current price for a symbol as a string-encoded decimal,
// refreshing the cache first if the refresh interval has elapsed.
func (s *PriceService) Price(symbol string) string {
	s.maybeRefresh()

	if v, ok := s.cache.Get(symbol); ok {
		return v.(string)
	}
	if def, ok := s.defaults[symbol]; ok {
		return def
	}
	return "0"
}

// maybeRefresh fetches fresh prices when the interval has elapsed. The gate
// is claimed under the lock but the fetch runs outside it, so concurrent
// lookups serve cached or default prices instead of queueing behind a slow
// feed. The gate advances even when the fetch fails so a dead feed is not
// hammered on every request.
func (s *PriceService) maybeRefresh() {
	s.refreshMu.Lock()
	if time.Since(s.lastRefresh) < s.interval {
		s.refreshMu.Unlock()
		return
	}
	s.lastRefresh = time.Now()
	s.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.http.Timeout)
	defer cancel()

	if err := s.fetch(ctx); err != nil {
		logger.GetLogger().Warn("Price feed refresh failed, serving cached or default prices",
			zap.Error(err),
		)
	}
}

func (s *PriceService) fetch(ctx context.Context) error {
	q := url.Values{}
	q.Set("ids", strings.Join(network.TokenSymbols(), ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.priceURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &priceFeedError{status: resp.StatusCode}
	}

	var out struct {
		Data map[string]struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}

	for symbol, entry := range out.Data {
		if entry.Price != "" {
			s.cache.SetDefault(symbol, entry.Price)
		}
	}
	return nil
}

type priceFeedError struct {
	status int
}

func (e *priceFeedError) Error() string {
	return fmt.Sprintf("price feed returned status %d", e.status)
}
