// Package interfaces defines service contracts for Fundcast
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/fundcast/internal/models"
)

// BrokerageClient provides access to the upstream brokerage API.
type BrokerageClient interface {
	// GetActivities retrieves raw account activity between two dates.
	// Activities carry at least one resolvable timestamp field and a
	// currency or symbol from which currency can be inferred.
	GetActivities(ctx context.Context, accountID string, from, to time.Time) ([]*models.RawActivity, error)

	// GetBalances retrieves per-currency balance snapshots as of now.
	GetBalances(ctx context.Context, accountID string) ([]*models.BalanceSnapshot, error)
}

// FXRateClient provides access to the historical FX rate provider.
type FXRateClient interface {
	// GetObservations retrieves (date, rate) observations for converting
	// currency into base over a date range. An empty result is a valid
	// "no data for this range" response, not an error.
	GetObservations(ctx context.Context, currency, base string, from, to time.Time) ([]models.FxObservation, error)
}
