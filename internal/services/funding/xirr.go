package funding

import (
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/fundcast/internal/models"
)

// cashFlow is a local type for the annualized-return solve.
type cashFlow struct {
	date   time.Time
	amount float64
}

const (
	// Flows below this magnitude are rounding noise and must not count
	// toward the sign-diversity precondition.
	flowEpsilon = 1e-9

	newtonMaxIter = 100
	newtonTol     = 1e-10
	minRate       = -0.999999
)

// SolveAnnualizedReturn computes the money-weighted annualized rate of
// return (XIRR) for the funding schedule, with the terminal equity appended
// as a final inflow at asOf. Day counts use actual/365.
//
// The result is never silently defaulted: when the schedule lacks sign
// diversity or has fewer than two flows, Reason is insufficient_data; when
// the root find does not converge, Reason is no_convergence. Rate is only
// meaningful when Converged is true.
func SolveAnnualizedReturn(schedule []models.ScheduleEntry, terminalEquity float64, asOf time.Time) *models.AnnualizedReturn {
	var flows []cashFlow
	for _, entry := range schedule {
		if entry.Date.IsZero() || math.Abs(entry.Amount) < flowEpsilon {
			continue
		}
		// The solver's sign convention is inverted from the ledger's:
		// capital contributed is money out of the investor's pocket.
		flows = append(flows, cashFlow{date: entry.Date, amount: -entry.Amount})
	}

	if terminalEquity > flowEpsilon {
		flows = append(flows, cashFlow{date: asOf, amount: terminalEquity})
	}

	sort.Slice(flows, func(i, j int) bool {
		return flows[i].date.Before(flows[j].date)
	})

	result := &models.AnnualizedReturn{
		AsOf:      asOf,
		FlowCount: len(flows),
	}
	for _, f := range flows {
		if f.amount > 0 {
			result.HasInflow = true
		}
		if f.amount < 0 {
			result.HasOutflow = true
		}
	}

	if len(flows) < 2 || !result.HasInflow || !result.HasOutflow {
		result.Reason = models.ReasonInsufficientData
		return result
	}

	result.StartDate = flows[0].date

	// Actual/365 year fractions from the first flow.
	years := make([]float64, len(flows))
	for i, f := range flows {
		years[i] = f.date.Sub(flows[0].date).Hours() / 24 / 365.0
	}

	rate, ok := solveNewton(flows, years)
	if !ok {
		rate, ok = solveBisect(flows, years)
	}
	if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) {
		result.Reason = models.ReasonNoConvergence
		return result
	}

	result.Rate = rate
	result.Converged = true
	return result
}

// npv evaluates sum(amount_i / (1+rate)^years_i), with its derivative.
func npv(flows []cashFlow, years []float64, rate float64) (value, derivative float64) {
	for i, f := range flows {
		base := 1 + rate
		discount := math.Pow(base, years[i])
		if discount == 0 || math.IsInf(discount, 0) {
			continue
		}
		value += f.amount / discount
		if years[i] != 0 {
			derivative -= years[i] * f.amount / (discount * base)
		}
	}
	return value, derivative
}

// solveNewton runs Newton-Raphson from a simple-return initial guess.
func solveNewton(flows []cashFlow, years []float64) (float64, bool) {
	totalInvested := 0.0
	totalReceived := 0.0
	for _, f := range flows {
		if f.amount < 0 {
			totalInvested -= f.amount
		} else {
			totalReceived += f.amount
		}
	}

	guess := 0.1
	if totalInvested > 0 {
		simpleReturn := totalReceived/totalInvested - 1
		if simpleReturn > -0.9 && simpleReturn < 10 {
			guess = simpleReturn
		}
	}

	rate := guess
	for iter := 0; iter < newtonMaxIter; iter++ {
		if 1+rate <= 0 {
			rate = minRate
		}

		value, derivative := npv(flows, years, rate)
		if math.Abs(value) < newtonTol {
			return rate, true
		}
		if derivative == 0 || math.IsNaN(derivative) {
			return 0, false
		}

		next := rate - value/derivative
		if next < minRate {
			next = minRate
		}
		if next > 1e6 {
			// Diverging step; hand off to bisection.
			return 0, false
		}
		rate = next
	}

	return 0, false
}

// solveBisect brackets the root and bisects. The upper bound is expanded
// adaptively so convergence is not limited to near-zero rates, and the lower
// bound creeps toward -100% for deep losses.
func solveBisect(flows []cashFlow, years []float64) (float64, bool) {
	const (
		maxIter = 300
		tol     = 1e-10
	)

	valueAt := func(rate float64) float64 {
		v, _ := npv(flows, years, rate)
		return v
	}

	lo, hi := -0.99, 10.0
	vLo, vHi := valueAt(lo), valueAt(hi)

	// Expand the bracket until the NPV changes sign or the bounds are
	// exhausted.
	for expand := 0; vLo*vHi > 0 && expand < 20; expand++ {
		hi *= 4
		vHi = valueAt(hi)
		if vLo*vHi <= 0 {
			break
		}
		lo = -1 + (1+lo)/10
		vLo = valueAt(lo)
	}

	if math.IsNaN(vLo) || math.IsNaN(vHi) || vLo*vHi > 0 {
		return 0, false
	}

	for iter := 0; iter < maxIter; iter++ {
		mid := (lo + hi) / 2
		vMid := valueAt(mid)
		if math.IsNaN(vMid) {
			return 0, false
		}
		if math.Abs(vMid) < tol || (hi-lo)/2 < 1e-12 {
			return mid, true
		}
		if vMid*vLo < 0 {
			hi = mid
		} else {
			lo = mid
			vLo = vMid
		}
	}

	return (lo + hi) / 2, true
}
