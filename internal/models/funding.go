package models

import "time"

// Annualized-return failure reasons.
const (
	ReasonInsufficientData = "insufficient_data"
	ReasonNoConvergence    = "no_convergence"
)

// DailyPoint is one calendar day of the reconstructed funding series.
// Invariant: TotalPnl == Equity - NetDeposits for every point.
type DailyPoint struct {
	Date        time.Time `json:"date"`
	NetDeposits float64   `json:"net_deposits"` // cumulative, base currency
	Equity      float64   `json:"equity"`
	TotalPnl    float64   `json:"total_pnl"`

	// Re-based values relative to the anchor date; zero unless an anchor
	// was requested and this point is on or after it.
	NetDepositsSinceAnchor float64 `json:"net_deposits_since_anchor,omitempty"`
	EquitySinceAnchor      float64 `json:"equity_since_anchor,omitempty"`
	PnlSinceAnchor         float64 `json:"pnl_since_anchor,omitempty"`
}

// ScheduleEntry is one dated, signed base-currency cash flow.
type ScheduleEntry struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// CurrencyTotal aggregates funding flows for a single currency, in that
// currency (unconverted).
type CurrencyTotal struct {
	Currency       string  `json:"currency"`
	NetDeposits    float64 `json:"net_deposits"`
	FlowCount      int     `json:"flow_count"`
	ConversionGaps int     `json:"conversion_gaps,omitempty"` // flows excluded from base totals
}

// AnnualizedReturn is the result of the money-weighted return solve.
// When Converged is false, Rate is meaningless and Reason explains why;
// callers must not present it as a zero return.
type AnnualizedReturn struct {
	Rate       float64   `json:"rate"` // decimal, e.g. 0.12 for 12%
	Converged  bool      `json:"converged"`
	Reason     string    `json:"reason,omitempty"`
	StartDate  time.Time `json:"start_date"`
	AsOf       time.Time `json:"as_of"`
	FlowCount  int       `json:"flow_count"`
	HasInflow  bool      `json:"has_inflow"`
	HasOutflow bool      `json:"has_outflow"`
}

// FundingSummary aggregates the funding ledger for an account.
type FundingSummary struct {
	BaseCurrency    string            `json:"base_currency"`
	ByCurrency      []CurrencyTotal   `json:"by_currency"`
	NetDeposits     float64           `json:"net_deposits"` // base currency, converted flows only
	Equity          float64           `json:"equity"`
	TotalPnl        float64           `json:"total_pnl"`
	SimpleReturnPct float64           `json:"simple_return_pct"`
	Annualized      *AnnualizedReturn `json:"annualized,omitempty"`
	Schedule        []ScheduleEntry   `json:"schedule,omitempty"`
	Incomplete      bool              `json:"incomplete"` // true when any flow failed conversion
	Issues          []string          `json:"issues,omitempty"`
}

// SeriesResult is the full output of a funding series computation.
type SeriesResult struct {
	Points  []DailyPoint   `json:"points"`
	Summary FundingSummary `json:"summary"`
	Issues  []string       `json:"issues,omitempty"`
}
