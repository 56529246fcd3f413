package models

import (
	"strings"
	"time"
)

// FlowDirection indicates whether capital moved into or out of the account.
type FlowDirection string

const (
	FlowIn  FlowDirection = "in"
	FlowOut FlowDirection = "out"
)

// ResolutionSource records how a cash flow's amount was resolved.
type ResolutionSource string

const (
	ResolutionDirect    ResolutionSource = "direct"    // taken from a numeric amount field
	ResolutionEstimated ResolutionSource = "estimated" // book-value text or quantity x price
	ResolutionPaired    ResolutionSource = "paired"    // inherited from a paired transfer leg
)

// RawActivity is a single activity record as returned by the brokerage.
// Every field is optional; no two records are guaranteed to populate the
// same set of fields or to be internally consistent.
type RawActivity struct {
	Symbol      string `json:"symbol,omitempty"`
	SymbolID    string `json:"symbolId,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Type        string `json:"type,omitempty"`
	Action      string `json:"action,omitempty"`
	Description string `json:"description,omitempty"`

	Quantity   float64 `json:"quantity,omitempty"`
	Price      float64 `json:"price,omitempty"`
	Commission float64 `json:"commission,omitempty"`

	// Monetary amounts are pointers so a missing field is distinguishable
	// from an explicit zero.
	NetAmount        *float64 `json:"netAmount,omitempty"`
	GrossAmount      *float64 `json:"grossAmount,omitempty"`
	SettlementAmount *float64 `json:"settlementAmount,omitempty"`

	// Candidate timestamps; any subset may be present.
	TransactionDate string `json:"transactionDate,omitempty"`
	TradeDate       string `json:"tradeDate,omitempty"`
	SettlementDate  string `json:"settlementDate,omitempty"`
	Date            string `json:"date,omitempty"`

	// Upstream transaction identifier when the brokerage supplies one.
	ExternalID string `json:"externalId,omitempty"`
}

// activityDateLayouts lists accepted timestamp formats, tried in order.
var activityDateLayouts = []string{
	"2006-01-02T15:04:05.000000-07:00",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseActivityDate parses a raw activity timestamp string.
// Returns the zero time when the string is empty or unparseable.
func ParseActivityDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range activityDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// BestTimestamp returns the first parseable timestamp in priority order:
// transaction date, trade date, settlement date, generic date.
func (a *RawActivity) BestTimestamp() time.Time {
	for _, s := range []string{a.TransactionDate, a.TradeDate, a.SettlementDate, a.Date} {
		if t := ParseActivityDate(s); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// DirectAmount returns the first populated monetary field in priority order
// (net, gross, settlement). A populated zero does not count as an amount.
func (a *RawActivity) DirectAmount() (float64, bool) {
	for _, p := range []*float64{a.NetAmount, a.GrossAmount, a.SettlementAmount} {
		if p != nil && *p != 0 {
			return *p, true
		}
	}
	return 0, false
}

// ClassifiedCashFlow is a raw activity resolved into a typed, signed,
// currency-tagged capital movement. Produced per computation request and
// never persisted.
type ClassifiedCashFlow struct {
	Timestamp time.Time        `json:"timestamp"`
	Currency  string           `json:"currency"`
	Amount    float64          `json:"amount"` // signed: positive in, negative out
	Direction FlowDirection    `json:"direction"`
	Source    ResolutionSource `json:"source"`
	Activity  *RawActivity     `json:"-"`
}

// BalanceSnapshot is a point-in-time per-currency balance for an account.
type BalanceSnapshot struct {
	Currency    string    `json:"currency"`
	TotalEquity float64   `json:"total_equity"`
	Cash        float64   `json:"cash,omitempty"`
	MarketValue float64   `json:"market_value,omitempty"`
	AsOf        time.Time `json:"as_of"`
}

// FxObservation is one (date, rate) pair from the historical rate provider.
type FxObservation struct {
	Date string  `json:"d"`
	Rate float64 `json:"rate"`
}
