package funding

import (
	"time"

	"github.com/bobmcallan/fundcast/internal/models"
)

// SeriesOptions configures the daily walk.
type SeriesOptions struct {
	StartDate  time.Time // zero = first funding flow date
	EndDate    time.Time // zero = now
	AnchorDate time.Time // zero = no re-based series
	Now        time.Time
}

// BuildDailySeries walks the calendar day by day from the earliest funding
// date to the end date, producing one gap-free DailyPoint per day.
//
// Equity is not independently known for historical days, so each day's
// equity is projected as net-deposits-to-date plus P&L-to-date, where P&L
// moves only on days with market cash activity. The final day is reconciled
// against the terminal equity when one is known, which fixes TotalPnl =
// Equity - NetDeposits there and leaves the decomposition invariant holding
// on every point. A nil terminalEquity means the closing balance is unknown;
// zero is a valid known balance for an emptied account. Funding movements
// never change Total P&L on the day they occur.
func BuildDailySeries(fundingSchedule, performanceSchedule []models.ScheduleEntry, terminalEquity *float64, opts SeriesOptions) []models.DailyPoint {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	start := opts.StartDate
	if start.IsZero() {
		if len(fundingSchedule) == 0 {
			return nil
		}
		start = fundingSchedule[0].Date
	}
	start = truncateDay(start)

	end := opts.EndDate
	if end.IsZero() || end.After(now) {
		end = now
	}
	end = truncateDay(end)

	if end.Before(start) {
		return nil
	}

	days := int(end.Sub(start).Hours()/24) + 1
	points := make([]models.DailyPoint, 0, days)

	fundingCursor, perfCursor := 0, 0
	var netDeposits, pnl float64

	// Funding flows dated before the walk start still count toward the
	// opening cumulative position.
	for fundingCursor < len(fundingSchedule) && truncateDay(fundingSchedule[fundingCursor].Date).Before(start) {
		netDeposits += fundingSchedule[fundingCursor].Amount
		fundingCursor++
	}
	for perfCursor < len(performanceSchedule) && truncateDay(performanceSchedule[perfCursor].Date).Before(start) {
		pnl += performanceSchedule[perfCursor].Amount
		perfCursor++
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for fundingCursor < len(fundingSchedule) && !truncateDay(fundingSchedule[fundingCursor].Date).After(d) {
			netDeposits += fundingSchedule[fundingCursor].Amount
			fundingCursor++
		}
		for perfCursor < len(performanceSchedule) && !truncateDay(performanceSchedule[perfCursor].Date).After(d) {
			pnl += performanceSchedule[perfCursor].Amount
			perfCursor++
		}

		points = append(points, models.DailyPoint{
			Date:        d,
			NetDeposits: netDeposits,
			Equity:      netDeposits + pnl,
			TotalPnl:    pnl,
		})
	}

	// Terminal reconciliation: the last day carries the known equity, and
	// its P&L absorbs whatever the cash events did not explain.
	if len(points) > 0 && terminalEquity != nil {
		last := &points[len(points)-1]
		last.Equity = *terminalEquity
		last.TotalPnl = *terminalEquity - last.NetDeposits
	}

	if !opts.AnchorDate.IsZero() {
		rebaseSinceAnchor(points, truncateDay(opts.AnchorDate))
	}

	return points
}

// rebaseSinceAnchor fills the *SinceAnchor fields. The anchor day itself is
// hard-anchored at zero; every later day is the delta from the last point
// strictly before the anchor (or the anchor itself when it is the first
// point). A move on the anchor day is therefore not zeroed out of history:
// it reappears in every subsequent day's delta.
func rebaseSinceAnchor(points []models.DailyPoint, anchor time.Time) {
	if len(points) == 0 {
		return
	}
	// An anchor predating the series snaps to the first point; there is no
	// earlier history to baseline against.
	if anchor.Before(points[0].Date) {
		anchor = points[0].Date
	}

	anchorIdx := -1
	for i, p := range points {
		if !p.Date.Before(anchor) {
			anchorIdx = i
			break
		}
	}
	if anchorIdx < 0 {
		return // anchor beyond the series; nothing to re-base
	}

	baseIdx := anchorIdx - 1
	if baseIdx < 0 {
		baseIdx = anchorIdx
	}
	base := points[baseIdx]

	for i := anchorIdx; i < len(points); i++ {
		if i == anchorIdx {
			points[i].NetDepositsSinceAnchor = 0
			points[i].EquitySinceAnchor = 0
			points[i].PnlSinceAnchor = 0
			continue
		}
		points[i].NetDepositsSinceAnchor = points[i].NetDeposits - base.NetDeposits
		points[i].EquitySinceAnchor = points[i].Equity - base.Equity
		points[i].PnlSinceAnchor = points[i].TotalPnl - base.TotalPnl
	}
}

// DownsampleToWeekly keeps the last data point per ISO week.
func DownsampleToWeekly(points []models.DailyPoint) []models.DailyPoint {
	if len(points) == 0 {
		return nil
	}

	weekly := make([]models.DailyPoint, 0)
	for i, p := range points {
		if i == len(points)-1 {
			weekly = append(weekly, p)
			continue
		}
		y1, w1 := p.Date.ISOWeek()
		y2, w2 := points[i+1].Date.ISOWeek()
		if w1 != w2 || y1 != y2 {
			weekly = append(weekly, p)
		}
	}

	return weekly
}

// DownsampleToMonthly keeps the last data point per calendar month.
func DownsampleToMonthly(points []models.DailyPoint) []models.DailyPoint {
	if len(points) == 0 {
		return nil
	}

	monthly := make([]models.DailyPoint, 0)
	for i, p := range points {
		if i == len(points)-1 || points[i+1].Date.Month() != p.Date.Month() || points[i+1].Date.Year() != p.Date.Year() {
			monthly = append(monthly, p)
		}
	}

	return monthly
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
