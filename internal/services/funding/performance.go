package funding

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/fundcast/internal/models"
)

// Market cash events that move P&L without moving cost basis: dividend and
// interest income, fees and withholding taxes. Trades are deliberately
// excluded; a fill swaps cash for an asset of equal value.
var performanceKeywords = []string{
	"dividend",
	"interest",
	"fee",
	"rebate",
	"withholding",
	"tax",
}

// ExtractPerformanceFlows pulls the non-funding cash events out of raw
// activity. These drive the day-to-day movement of Total P&L between the
// start of the series and the terminal balance reconciliation. Amounts keep
// the sign the brokerage reported (income positive, fees negative).
func ExtractPerformanceFlows(activities []*models.RawActivity, baseCurrency string) ([]models.ClassifiedCashFlow, []string) {
	var flows []models.ClassifiedCashFlow
	var issues []string

	for _, a := range activities {
		if _, isFunding := classifyDirection(a); isFunding {
			continue
		}
		if !isPerformanceEvent(a) {
			continue
		}

		ts := a.BestTimestamp()
		if ts.IsZero() {
			continue
		}

		amount, ok := a.DirectAmount()
		if !ok {
			issues = append(issues, fmt.Sprintf("market cash event skipped: no amount (%s)", describeActivity(a)))
			continue
		}

		direction := models.FlowIn
		if amount < 0 {
			direction = models.FlowOut
		}

		flows = append(flows, models.ClassifiedCashFlow{
			Timestamp: ts,
			Currency:  resolveCurrency(a, baseCurrency),
			Amount:    amount,
			Direction: direction,
			Source:    models.ResolutionDirect,
			Activity:  a,
		})
	}

	return flows, issues
}

func isPerformanceEvent(a *models.RawActivity) bool {
	text := strings.ToLower(a.Type + " " + a.Description)
	for _, kw := range performanceKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
