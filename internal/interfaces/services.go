// Package interfaces defines service contracts for Fundcast
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/fundcast/internal/models"
)

// ComputeOptions configures a funding series computation.
type ComputeOptions struct {
	StartDate  time.Time // earliest day to fetch and walk; zero = earliest activity
	EndDate    time.Time // last day of the series; zero = now
	AnchorDate time.Time // display-start date for the re-based series; zero = none
	Now        time.Time // reference "now"; zero = time.Now()
}

// FundingService reconstructs the day-by-day funding ledger for an account.
type FundingService interface {
	// ComputeSeries produces the gap-free daily series plus summary.
	ComputeSeries(ctx context.Context, accountID string, opts ComputeOptions) (*models.SeriesResult, error)

	// ComputeSummary produces the funding summary without the daily walk.
	ComputeSummary(ctx context.Context, accountID string, opts ComputeOptions) (*models.FundingSummary, error)
}

// FXRateService resolves historical conversion rates into the base currency.
type FXRateService interface {
	// GetRate returns the best-known rate converting one unit of currency
	// into base on the given date. Fails when no rate exists within the
	// provider's lookback bound; it never fabricates a rate.
	GetRate(ctx context.Context, currency, base string, date time.Time) (float64, error)
}
