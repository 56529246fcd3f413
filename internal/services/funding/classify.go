// Package funding reconstructs an account's cost basis and money-weighted
// return from raw brokerage activity.
package funding

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/bobmcallan/fundcast/internal/models"
)

// Keyword sets matched against type, action and description text.
// Matching is case-insensitive substring containment.
var inflowKeywords = []string{
	"deposit",
	"transfer in",
	"transfer-in",
	"journal in",
	"journal-in",
	"contribution",
	"eft in",
	"transfer in kind",
}

var outflowKeywords = []string{
	"withdrawal",
	"withdraw",
	"transfer out",
	"transfer-out",
	"journal out",
	"journal-out",
	"eft out",
	"transfer out kind",
}

// Known brokerage action codes consulted when text matching is ambiguous.
var actionCodes = map[string]models.FlowDirection{
	"DEP": models.FlowIn,
	"CON": models.FlowIn,
	"TFI": models.FlowIn,
	"TF6": models.FlowIn,
	"EFT": models.FlowIn,
	"WDR": models.FlowOut,
	"WDL": models.FlowOut,
	"TFO": models.FlowOut,
	"BRW": models.FlowOut,
}

// Activity types that look funding-like even when no keyword or action code
// matched; direction falls back to amount or quantity sign for these.
var fundingLikeTypes = map[string]bool{
	"deposits":    true,
	"withdrawals": true,
	"transfers":   true,
	"journals":    true,
}

// bookValueRe locates a dollar amount embedded in free text, e.g.
// "TRANSFER IN KIND 100 SHARES BOOK VALUE $12,345.67".
var bookValueRe = regexp.MustCompile(`(?i)book\s+value[^0-9$\-]*\$?\s*(-?[0-9][0-9,]*(?:\.[0-9]+)?)`)

// descCurrencyRe finds an explicit currency token in free text.
var descCurrencyRe = regexp.MustCompile(`\b(USD|CAD|EUR|GBP|AUD|JPY)\b`)

// Exchange suffixes that pin a listing's trading currency.
var exchangeSuffixCurrency = map[string]string{
	".US": "USD",
	".TO": "CAD",
	".VN": "CAD",
	".CN": "CAD",
}

// ClassifyActivities turns raw activity records into classified funding cash
// flows. Records that do not represent capital movement are excluded; records
// whose amount or currency cannot be resolved are skipped with an issue.
// Classification never fails: callers always get a best-effort result.
func ClassifyActivities(activities []*models.RawActivity, baseCurrency string) ([]models.ClassifiedCashFlow, []string) {
	var flows []models.ClassifiedCashFlow
	var issues []string

	// Pass 1: classify each record, deferring unresolved transfer legs.
	type pending struct {
		activity  *models.RawActivity
		direction models.FlowDirection
		timestamp string // group key date
	}
	groups := make(map[string][]int)      // pair key -> indexes into flows
	var unresolved []pending              // legs with no resolvable amount
	unresolvedKeys := make(map[int]string) // unresolved index -> pair key

	for _, a := range activities {
		direction, ok := classifyDirection(a)
		if !ok {
			continue // not a funding movement
		}

		ts := a.BestTimestamp()
		if ts.IsZero() {
			issues = append(issues, fmt.Sprintf("activity skipped: no resolvable timestamp (%s)", describeActivity(a)))
			continue
		}

		currency := resolveCurrency(a, baseCurrency)

		amount, source, ok := resolveAmount(a)
		key := pairKey(a, ts.Format("2006-01-02"))
		if !ok {
			unresolvedKeys[len(unresolved)] = key
			unresolved = append(unresolved, pending{activity: a, direction: direction, timestamp: ts.Format("2006-01-02")})
			continue
		}

		signed := math.Abs(amount)
		if direction == models.FlowOut {
			signed = -signed
		}

		groups[key] = append(groups[key], len(flows))
		flows = append(flows, models.ClassifiedCashFlow{
			Timestamp: ts,
			Currency:  currency,
			Amount:    signed,
			Direction: direction,
			Source:    source,
			Activity:  a,
		})
	}

	// Pass 2: paired-transfer resolution. A leg with no amount inherits the
	// average resolved magnitude of its group peers.
	for i, p := range unresolved {
		key := unresolvedKeys[i]
		peers := groups[key]
		if len(peers) == 0 {
			issues = append(issues, fmt.Sprintf("activity skipped: unresolvable amount (%s)", describeActivity(p.activity)))
			continue
		}

		var sum float64
		for _, idx := range peers {
			sum += math.Abs(flows[idx].Amount)
		}
		magnitude := sum / float64(len(peers))

		signed := magnitude
		if p.direction == models.FlowOut {
			signed = -signed
		}

		flows = append(flows, models.ClassifiedCashFlow{
			Timestamp: p.activity.BestTimestamp(),
			Currency:  resolveCurrency(p.activity, baseCurrency),
			Amount:    signed,
			Direction: p.direction,
			Source:    models.ResolutionPaired,
			Activity:  p.activity,
		})
	}

	return flows, issues
}

// classifyDirection decides whether an activity is a funding movement and,
// if so, in which direction. Fallback order: keyword text match, action-code
// table, then amount/quantity sign for funding-like types.
func classifyDirection(a *models.RawActivity) (models.FlowDirection, bool) {
	text := strings.ToLower(a.Type + " " + a.Action + " " + a.Description)

	// Outflow keywords first: "transfer out" contains no inflow keyword,
	// but generic text like "transfer" alone must not match either set.
	for _, kw := range outflowKeywords {
		if strings.Contains(text, kw) {
			return models.FlowOut, true
		}
	}
	for _, kw := range inflowKeywords {
		if strings.Contains(text, kw) {
			return models.FlowIn, true
		}
	}

	if dir, ok := actionCodes[strings.ToUpper(strings.TrimSpace(a.Action))]; ok {
		return dir, true
	}

	if fundingLikeTypes[strings.ToLower(strings.TrimSpace(a.Type))] {
		if amount, ok := a.DirectAmount(); ok {
			if amount < 0 {
				return models.FlowOut, true
			}
			return models.FlowIn, true
		}
		if a.Quantity != 0 {
			if a.Quantity < 0 {
				return models.FlowOut, true
			}
			return models.FlowIn, true
		}
	}

	return "", false
}

// resolveAmount resolves the monetary magnitude of an activity through an
// ordered chain: direct numeric fields, book-value text, quantity x price.
func resolveAmount(a *models.RawActivity) (float64, models.ResolutionSource, bool) {
	resolvers := []func(*models.RawActivity) (float64, models.ResolutionSource, bool){
		resolveDirectAmount,
		resolveBookValueAmount,
		resolveEstimatedAmount,
	}
	for _, resolve := range resolvers {
		if amount, source, ok := resolve(a); ok {
			return amount, source, true
		}
	}
	return 0, "", false
}

func resolveDirectAmount(a *models.RawActivity) (float64, models.ResolutionSource, bool) {
	if amount, ok := a.DirectAmount(); ok {
		return amount, models.ResolutionDirect, true
	}
	return 0, "", false
}

func resolveBookValueAmount(a *models.RawActivity) (float64, models.ResolutionSource, bool) {
	m := bookValueRe.FindStringSubmatch(a.Description)
	if m == nil {
		return 0, "", false
	}
	cleaned := strings.ReplaceAll(m[1], ",", "")
	var amount float64
	if _, err := fmt.Sscanf(cleaned, "%f", &amount); err != nil || amount == 0 {
		return 0, "", false
	}
	return amount, models.ResolutionEstimated, true
}

func resolveEstimatedAmount(a *models.RawActivity) (float64, models.ResolutionSource, bool) {
	if a.Quantity != 0 && a.Price != 0 {
		return a.Quantity * a.Price, models.ResolutionEstimated, true
	}
	return 0, "", false
}

// resolveCurrency resolves an activity's currency: explicit field, exchange
// suffix, description token, then the account base currency.
func resolveCurrency(a *models.RawActivity, baseCurrency string) string {
	if c := strings.ToUpper(strings.TrimSpace(a.Currency)); c != "" {
		return c
	}

	symbol := strings.ToUpper(strings.TrimSpace(a.Symbol))
	for suffix, currency := range exchangeSuffixCurrency {
		if strings.HasSuffix(symbol, suffix) {
			return currency
		}
	}

	if m := descCurrencyRe.FindStringSubmatch(strings.ToUpper(a.Description)); m != nil {
		return m[1]
	}

	return baseCurrency
}

// pairKey builds the heuristic composite key used to group transfer legs:
// date, symbol-or-id, absolute quantity, normalized description, and the
// external transaction id when present. Same-day transfers with identical
// quantities can mis-pair; no better upstream identifier exists.
func pairKey(a *models.RawActivity, date string) string {
	symbolOrID := a.Symbol
	if symbolOrID == "" {
		symbolOrID = a.SymbolID
	}
	return strings.Join([]string{
		date,
		strings.ToUpper(strings.TrimSpace(symbolOrID)),
		fmt.Sprintf("%.4f", math.Abs(a.Quantity)),
		normalizeDescription(a.Description),
		a.ExternalID,
	}, "|")
}

// normalizeDescription collapses a description to a fuzzy-match token:
// lowercase, directional words removed, whitespace collapsed.
func normalizeDescription(desc string) string {
	s := strings.ToLower(desc)
	for _, word := range []string{"in kind", "out kind", " in ", " out ", " to ", " from "} {
		s = strings.ReplaceAll(s, word, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

// describeActivity renders a short identifier for issue messages.
func describeActivity(a *models.RawActivity) string {
	parts := []string{}
	if a.Type != "" {
		parts = append(parts, a.Type)
	}
	if a.Action != "" {
		parts = append(parts, a.Action)
	}
	if a.Symbol != "" {
		parts = append(parts, a.Symbol)
	}
	if len(parts) == 0 {
		desc := a.Description
		if len(desc) > 40 {
			desc = desc[:40]
		}
		parts = append(parts, desc)
	}
	return strings.Join(parts, " ")
}
