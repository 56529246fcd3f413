package funding

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bobmcallan/fundcast/internal/interfaces"
	"github.com/bobmcallan/fundcast/internal/models"
)

// Ledger accumulates classified funding flows into per-currency and
// base-currency running totals. The Schedule is the ordered base-currency
// cash-flow list fed to the annualized-return solver.
type Ledger struct {
	BaseCurrency string
	ByCurrency   []models.CurrencyTotal
	NetDeposits  float64 // base currency; converted flows only
	Schedule     []models.ScheduleEntry
	Incomplete   bool // true when any flow failed conversion
	Issues       []string
}

// BuildLedger converts each classified flow into the base currency using the
// flow's own timestamp and accumulates totals. Flows that fail conversion are
// retained in the per-currency breakdown, flagged, and excluded from the
// combined base totals; the ledger is then marked incomplete.
func BuildLedger(ctx context.Context, flows []models.ClassifiedCashFlow, baseCurrency string, fx interfaces.FXRateService, now time.Time) *Ledger {
	ledger := &Ledger{BaseCurrency: baseCurrency}

	byCurrency := make(map[string]*models.CurrencyTotal)

	for _, flow := range flows {
		total, ok := byCurrency[flow.Currency]
		if !ok {
			total = &models.CurrencyTotal{Currency: flow.Currency}
			byCurrency[flow.Currency] = total
		}
		total.NetDeposits += flow.Amount
		total.FlowCount++

		converted, err := convertToBase(ctx, fx, flow, baseCurrency, now)
		if err != nil {
			total.ConversionGaps++
			ledger.Incomplete = true
			ledger.Issues = append(ledger.Issues, fmt.Sprintf(
				"conversion gap: %s %.2f on %s: %v",
				flow.Currency, flow.Amount, flow.Timestamp.Format("2006-01-02"), err))
			continue
		}

		ledger.NetDeposits += converted
		ledger.Schedule = append(ledger.Schedule, models.ScheduleEntry{
			Date:   flow.Timestamp,
			Amount: converted,
		})
	}

	sort.Slice(ledger.Schedule, func(i, j int) bool {
		return ledger.Schedule[i].Date.Before(ledger.Schedule[j].Date)
	})

	ledger.ByCurrency = make([]models.CurrencyTotal, 0, len(byCurrency))
	for _, total := range byCurrency {
		ledger.ByCurrency = append(ledger.ByCurrency, *total)
	}
	sort.Slice(ledger.ByCurrency, func(i, j int) bool {
		return ledger.ByCurrency[i].Currency < ledger.ByCurrency[j].Currency
	})

	return ledger
}

// ConvertFlows converts a set of classified flows to base-currency schedule
// entries, dropping (and reporting) flows that fail conversion.
func ConvertFlows(ctx context.Context, flows []models.ClassifiedCashFlow, baseCurrency string, fx interfaces.FXRateService, now time.Time) ([]models.ScheduleEntry, []string) {
	var entries []models.ScheduleEntry
	var issues []string

	for _, flow := range flows {
		converted, err := convertToBase(ctx, fx, flow, baseCurrency, now)
		if err != nil {
			issues = append(issues, fmt.Sprintf(
				"conversion gap: %s %.2f on %s: %v",
				flow.Currency, flow.Amount, flow.Timestamp.Format("2006-01-02"), err))
			continue
		}
		entries = append(entries, models.ScheduleEntry{Date: flow.Timestamp, Amount: converted})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	return entries, issues
}

// convertToBase resolves a single flow into base currency using the flow's
// own timestamp, falling back to now only when the timestamp is unusable.
func convertToBase(ctx context.Context, fx interfaces.FXRateService, flow models.ClassifiedCashFlow, baseCurrency string, now time.Time) (float64, error) {
	if flow.Currency == baseCurrency {
		return flow.Amount, nil
	}
	if fx == nil {
		return 0, fmt.Errorf("no fx resolver for %s", flow.Currency)
	}

	date := flow.Timestamp
	if date.IsZero() {
		date = now
	}

	rate, err := fx.GetRate(ctx, flow.Currency, baseCurrency, date)
	if err != nil {
		return 0, err
	}
	return flow.Amount * rate, nil
}
