package funding

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bobmcallan/fundcast/internal/models"
)

// stubFX returns fixed rates per currency and fails for anything else.
type stubFX struct {
	rates map[string]float64
	calls int
}

func (s *stubFX) GetRate(_ context.Context, currency, base string, _ time.Time) (float64, error) {
	s.calls++
	if currency == base {
		return 1.0, nil
	}
	if rate, ok := s.rates[currency]; ok {
		return rate, nil
	}
	return 0, fmt.Errorf("fx rate unavailable for %s/%s", currency, base)
}

func TestBuildLedger_MultiCurrency(t *testing.T) {
	fx := &stubFX{rates: map[string]float64{"USD": 1.35}}
	flows := []models.ClassifiedCashFlow{
		{Timestamp: day(2024, 1, 10), Currency: "USD", Amount: 1000, Direction: models.FlowIn},
		{Timestamp: day(2024, 1, 5), Currency: "CAD", Amount: 2000, Direction: models.FlowIn},
		{Timestamp: day(2024, 2, 1), Currency: "CAD", Amount: -500, Direction: models.FlowOut},
	}

	ledger := BuildLedger(context.Background(), flows, "CAD", fx, day(2024, 3, 1))

	if ledger.Incomplete {
		t.Fatal("expected complete ledger")
	}
	if !approxEqual(ledger.NetDeposits, 2000-500+1350, 1e-9) {
		t.Errorf("expected net deposits 2850, got %.2f", ledger.NetDeposits)
	}

	if len(ledger.ByCurrency) != 2 {
		t.Fatalf("expected 2 currency totals, got %d", len(ledger.ByCurrency))
	}
	// Sorted by currency code.
	cad, usd := ledger.ByCurrency[0], ledger.ByCurrency[1]
	if cad.Currency != "CAD" || usd.Currency != "USD" {
		t.Fatalf("unexpected currency order: %s, %s", cad.Currency, usd.Currency)
	}
	if !approxEqual(cad.NetDeposits, 1500, 1e-9) || cad.FlowCount != 2 {
		t.Errorf("CAD totals wrong: %+v", cad)
	}
	if !approxEqual(usd.NetDeposits, 1000, 1e-9) || usd.FlowCount != 1 {
		t.Errorf("USD totals wrong: %+v", usd)
	}

	// Schedule is date-ordered and converted.
	if len(ledger.Schedule) != 3 {
		t.Fatalf("expected 3 schedule entries, got %d", len(ledger.Schedule))
	}
	if !ledger.Schedule[0].Date.Equal(day(2024, 1, 5)) {
		t.Errorf("schedule not sorted: first entry %v", ledger.Schedule[0].Date)
	}
	if !approxEqual(ledger.Schedule[1].Amount, 1350, 1e-9) {
		t.Errorf("expected converted USD entry 1350, got %.2f", ledger.Schedule[1].Amount)
	}
}

func TestBuildLedger_ConversionGap(t *testing.T) {
	fx := &stubFX{rates: map[string]float64{}}
	flows := []models.ClassifiedCashFlow{
		{Timestamp: day(2024, 1, 5), Currency: "CAD", Amount: 2000, Direction: models.FlowIn},
		{Timestamp: day(2024, 1, 10), Currency: "EUR", Amount: 1000, Direction: models.FlowIn},
	}

	ledger := BuildLedger(context.Background(), flows, "CAD", fx, day(2024, 3, 1))

	if !ledger.Incomplete {
		t.Fatal("expected incomplete ledger")
	}
	if len(ledger.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(ledger.Issues), ledger.Issues)
	}
	// The unconverted flow is excluded from base totals but kept in its
	// native currency breakdown.
	if !approxEqual(ledger.NetDeposits, 2000, 1e-9) {
		t.Errorf("expected net deposits 2000, got %.2f", ledger.NetDeposits)
	}
	if len(ledger.Schedule) != 1 {
		t.Errorf("expected 1 schedule entry, got %d", len(ledger.Schedule))
	}

	var eur *models.CurrencyTotal
	for i := range ledger.ByCurrency {
		if ledger.ByCurrency[i].Currency == "EUR" {
			eur = &ledger.ByCurrency[i]
		}
	}
	if eur == nil {
		t.Fatal("EUR breakdown missing")
	}
	if eur.ConversionGaps != 1 || !approxEqual(eur.NetDeposits, 1000, 1e-9) {
		t.Errorf("EUR breakdown wrong: %+v", eur)
	}
}

func TestBuildLedger_BaseCurrencySkipsFX(t *testing.T) {
	fx := &stubFX{}
	flows := []models.ClassifiedCashFlow{
		{Timestamp: day(2024, 1, 5), Currency: "CAD", Amount: 1000, Direction: models.FlowIn},
	}

	BuildLedger(context.Background(), flows, "CAD", fx, day(2024, 3, 1))

	if fx.calls != 0 {
		t.Errorf("base currency flows should not hit the FX resolver, got %d calls", fx.calls)
	}
}

func TestConvertFlows(t *testing.T) {
	fx := &stubFX{rates: map[string]float64{"USD": 1.40}}
	flows := []models.ClassifiedCashFlow{
		{Timestamp: day(2024, 2, 1), Currency: "USD", Amount: 100, Direction: models.FlowIn},
		{Timestamp: day(2024, 1, 1), Currency: "CAD", Amount: -50, Direction: models.FlowOut},
		{Timestamp: day(2024, 3, 1), Currency: "EUR", Amount: 75, Direction: models.FlowIn},
	}

	entries, issues := ConvertFlows(context.Background(), flows, "CAD", fx, day(2024, 4, 1))

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue for EUR, got %d", len(issues))
	}
	if !entries[0].Date.Equal(day(2024, 1, 1)) {
		t.Errorf("entries not sorted: first %v", entries[0].Date)
	}
	if !approxEqual(entries[1].Amount, 140, 1e-9) {
		t.Errorf("expected converted 140, got %.2f", entries[1].Amount)
	}
}
