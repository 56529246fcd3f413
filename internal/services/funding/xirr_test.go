package funding

import (
	"math"
	"testing"
	"time"

	"github.com/bobmcallan/fundcast/internal/models"
)

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSolveAnnualizedReturn_Textbook(t *testing.T) {
	// Classic spreadsheet XIRR example: one investment, four returns,
	// expected rate roughly 37.34% annualized.
	schedule := []models.ScheduleEntry{
		{Date: day(2008, 1, 1), Amount: 10000},
		{Date: day(2008, 3, 1), Amount: -2750},
		{Date: day(2008, 10, 30), Amount: -4250},
		{Date: day(2009, 2, 15), Amount: -3250},
		{Date: day(2009, 4, 1), Amount: -2750},
	}

	result := SolveAnnualizedReturn(schedule, 0, day(2009, 4, 1))

	if !result.Converged {
		t.Fatalf("expected convergence, got reason %q", result.Reason)
	}
	if !approxEqual(result.Rate, 0.3734, 1e-3) {
		t.Errorf("expected rate ~0.3734, got %.6f", result.Rate)
	}
	if result.FlowCount != 5 {
		t.Errorf("expected 5 flows, got %d", result.FlowCount)
	}

	// The solved rate must actually zero the NPV.
	npv := 0.0
	flows := []float64{-10000, 2750, 4250, 3250, 2750}
	dates := []time.Time{day(2008, 1, 1), day(2008, 3, 1), day(2008, 10, 30), day(2009, 2, 15), day(2009, 4, 1)}
	for i, amount := range flows {
		years := dates[i].Sub(dates[0]).Hours() / 24 / 365.0
		npv += amount / math.Pow(1+result.Rate, years)
	}
	if !approxEqual(npv, 0, 1e-4) {
		t.Errorf("NPV at solved rate should be ~0, got %.8f", npv)
	}
}

func TestSolveAnnualizedReturn_SimpleGain(t *testing.T) {
	// 10k in, worth 11k exactly 365 days later: rate is exactly 10%.
	schedule := []models.ScheduleEntry{
		{Date: day(2020, 1, 1), Amount: 10000},
	}

	result := SolveAnnualizedReturn(schedule, 11000, day(2020, 12, 31))

	if !result.Converged {
		t.Fatalf("expected convergence, got reason %q", result.Reason)
	}
	if !approxEqual(result.Rate, 0.10, 1e-6) {
		t.Errorf("expected rate 0.10, got %.8f", result.Rate)
	}
}

func TestSolveAnnualizedReturn_Loss(t *testing.T) {
	// 10k in, worth 5k a year later: close to -50% annualized (the 2020
	// leap day stretches the period slightly past one year).
	schedule := []models.ScheduleEntry{
		{Date: day(2020, 1, 1), Amount: 10000},
	}

	result := SolveAnnualizedReturn(schedule, 5000, day(2021, 1, 1))

	if !result.Converged {
		t.Fatalf("expected convergence, got reason %q", result.Reason)
	}
	if !approxEqual(result.Rate, -0.49905, 1e-3) {
		t.Errorf("expected rate ~-0.499, got %.6f", result.Rate)
	}
}

func TestSolveAnnualizedReturn_InsufficientData(t *testing.T) {
	tests := []struct {
		name     string
		schedule []models.ScheduleEntry
		equity   float64
	}{
		{
			name:     "empty schedule no equity",
			schedule: nil,
			equity:   0,
		},
		{
			name: "single flow",
			schedule: []models.ScheduleEntry{
				{Date: day(2024, 1, 1), Amount: 1000},
			},
			equity: 0,
		},
		{
			name: "all same sign",
			schedule: []models.ScheduleEntry{
				{Date: day(2024, 1, 1), Amount: 1000},
				{Date: day(2024, 2, 1), Amount: 2000},
			},
			equity: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SolveAnnualizedReturn(tt.schedule, tt.equity, day(2024, 6, 1))
			if result.Converged {
				t.Fatal("expected no convergence")
			}
			if result.Reason != models.ReasonInsufficientData {
				t.Errorf("expected reason %q, got %q", models.ReasonInsufficientData, result.Reason)
			}
		})
	}
}

func TestSolveAnnualizedReturn_IgnoresNoiseFlows(t *testing.T) {
	// Sub-epsilon residue must not satisfy the sign-diversity check.
	schedule := []models.ScheduleEntry{
		{Date: day(2024, 1, 1), Amount: 1000},
		{Date: day(2024, 2, 1), Amount: -1e-12},
	}

	result := SolveAnnualizedReturn(schedule, 0, day(2024, 6, 1))

	if result.Converged {
		t.Fatal("expected no convergence")
	}
	if result.Reason != models.ReasonInsufficientData {
		t.Errorf("expected reason %q, got %q", models.ReasonInsufficientData, result.Reason)
	}
	if result.FlowCount != 1 {
		t.Errorf("expected noise flow excluded, FlowCount = %d", result.FlowCount)
	}
}

func TestSolveAnnualizedReturn_WithdrawalsProvideSignDiversity(t *testing.T) {
	// A fully withdrawn account has no terminal equity but still solves:
	// in 10k, out 12k six months later.
	schedule := []models.ScheduleEntry{
		{Date: day(2023, 1, 1), Amount: 10000},
		{Date: day(2023, 7, 1), Amount: -12000},
	}

	result := SolveAnnualizedReturn(schedule, 0, day(2023, 7, 1))

	if !result.Converged {
		t.Fatalf("expected convergence, got reason %q", result.Reason)
	}
	if result.Rate <= 0 {
		t.Errorf("expected positive rate, got %.6f", result.Rate)
	}
	if result.StartDate != day(2023, 1, 1) {
		t.Errorf("unexpected start date %v", result.StartDate)
	}
}
