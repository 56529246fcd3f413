// Package fxrate resolves historical FX conversion rates with caching
package fxrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/fundcast/internal/common"
	"github.com/bobmcallan/fundcast/internal/interfaces"
)

const (
	// Daily rate feeds have gaps on non-business days, so lookups query a
	// trailing calendar window rather than a single date.
	windowDays = 7

	DefaultLookbackDays = 365
)

// ErrRateUnavailable is returned when no rate exists within the lookback
// bound. Callers must treat the affected cash flow as unconverted; the
// resolver never substitutes a fabricated rate.
var ErrRateUnavailable = fmt.Errorf("fx rate unavailable")

// Cache is a process-lifetime store of (pair, date) -> rate. It grows
// monotonically and is never evicted; keys are bounded by the calendar
// days actually queried.
type Cache struct {
	mu    sync.RWMutex
	rates map[string]float64
}

// NewCache creates an empty rate cache.
func NewCache() *Cache {
	return &Cache{rates: make(map[string]float64)}
}

func cacheKey(currency, base, date string) string {
	return currency + base + "|" + date
}

// Get returns the cached rate for the pair on the exact date.
func (c *Cache) Get(currency, base string, date time.Time) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rates[cacheKey(currency, base, date.Format("2006-01-02"))]
	return r, ok
}

// put stores a rate under its own observation date.
func (c *Cache) put(currency, base, date string, rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[cacheKey(currency, base, date)] = rate
}

// Len returns the number of cached observations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rates)
}

// Service implements FXRateService
type Service struct {
	client       interfaces.FXRateClient
	cache        *Cache
	group        singleflight.Group
	logger       *common.Logger
	lookbackDays int
}

// NewService creates a new FX rate service. The cache is owned by the
// service and shared across all computations for the process lifetime.
func NewService(client interfaces.FXRateClient, cache *Cache, logger *common.Logger) *Service {
	if cache == nil {
		cache = NewCache()
	}
	return &Service{
		client:       client,
		cache:        cache,
		logger:       logger,
		lookbackDays: DefaultLookbackDays,
	}
}

// SetLookbackDays overrides the maximum backwards search bound.
func (s *Service) SetLookbackDays(days int) {
	if days > 0 {
		s.lookbackDays = days
	}
}

// GetRate returns the best-known rate converting one unit of currency into
// base on the given date: the most recent observation on or before the date,
// searched in trailing 7-day windows up to the lookback bound.
func (s *Service) GetRate(ctx context.Context, currency, base string, date time.Time) (float64, error) {
	if currency == base {
		return 1.0, nil
	}
	if s.client == nil {
		return 0, fmt.Errorf("%w: no rate provider configured for %s/%s", ErrRateUnavailable, currency, base)
	}

	// Calendar-day truncation in the timestamp's own zone; truncating on
	// the UTC timeline would push evening flows onto the next day.
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	if rate, ok := s.cache.Get(currency, base, date); ok {
		return rate, nil
	}

	earliest := date.AddDate(0, 0, -s.lookbackDays)

	for windowEnd := date; !windowEnd.Before(earliest); windowEnd = windowEnd.AddDate(0, 0, -windowDays) {
		windowStart := windowEnd.AddDate(0, 0, -(windowDays - 1))

		rate, found, err := s.fetchWindow(ctx, currency, base, windowStart, windowEnd, date)
		if err != nil {
			return 0, err
		}
		if found {
			return rate, nil
		}
	}

	return 0, fmt.Errorf("%w: no %s/%s observation within %d days of %s",
		ErrRateUnavailable, currency, base, s.lookbackDays, date.Format("2006-01-02"))
}

// fetchWindow fetches one calendar window, caching every observation under
// its own date, and returns the latest observation at or before target.
// Concurrent callers for the same window share a single provider request.
func (s *Service) fetchWindow(ctx context.Context, currency, base string, windowStart, windowEnd, target time.Time) (float64, bool, error) {
	key := cacheKey(currency, base, windowEnd.Format("2006-01-02"))

	_, err, _ := s.group.Do(key, func() (interface{}, error) {
		observations, err := s.client.GetObservations(ctx, currency, base, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("fx provider query %s/%s [%s..%s]: %w",
				currency, base, windowStart.Format("2006-01-02"), windowEnd.Format("2006-01-02"), err)
		}
		for _, obs := range observations {
			s.cache.put(currency, base, obs.Date, obs.Rate)
		}
		s.logger.Debug().
			Str("pair", currency+base).
			Str("window_end", windowEnd.Format("2006-01-02")).
			Int("observations", len(observations)).
			Msg("FX window fetched")
		return len(observations), nil
	})
	if err != nil {
		return 0, false, err
	}

	// Walk back from target through the window looking for the most
	// recent cached observation.
	for d := target; !d.Before(windowStart); d = d.AddDate(0, 0, -1) {
		if rate, ok := s.cache.Get(currency, base, d); ok {
			// Cache the resolved rate under the target date as well so
			// repeat lookups for the same date short-circuit.
			if !d.Equal(target) {
				s.cache.put(currency, base, target.Format("2006-01-02"), rate)
			}
			return rate, true, nil
		}
	}

	return 0, false, nil
}

// Ensure Service implements FXRateService
var _ interfaces.FXRateService = (*Service)(nil)
