package funding

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/fundcast/internal/common"
	"github.com/bobmcallan/fundcast/internal/interfaces"
	"github.com/bobmcallan/fundcast/internal/models"
)

// Compile-time interface check
var _ interfaces.FundingService = (*Service)(nil)

// Default activity fetch horizon when no start date is supplied; the
// brokerage keeps roughly this much history.
const defaultFetchYears = 10

// Service implements FundingService
type Service struct {
	brokerage    interfaces.BrokerageClient
	fx           interfaces.FXRateService
	logger       *common.Logger
	baseCurrency string
}

// NewService creates a new funding service
func NewService(brokerage interfaces.BrokerageClient, fx interfaces.FXRateService, baseCurrency string, logger *common.Logger) *Service {
	return &Service{
		brokerage:    brokerage,
		fx:           fx,
		logger:       logger,
		baseCurrency: baseCurrency,
	}
}

// ComputeSeries fetches activities and balances, classifies the activity,
// builds the funding ledger, and walks the daily series. All inputs are
// taken per call and all outputs are ephemeral; re-running with identical
// inputs and the same "now" yields identical output.
func (s *Service) ComputeSeries(ctx context.Context, accountID string, opts interfaces.ComputeOptions) (*models.SeriesResult, error) {
	funcStart := time.Now()

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	fetchFrom := opts.StartDate
	if fetchFrom.IsZero() {
		fetchFrom = now.AddDate(-defaultFetchYears, 0, 0)
	}
	fetchTo := opts.EndDate
	if fetchTo.IsZero() || fetchTo.After(now) {
		fetchTo = now
	}

	activities, err := s.brokerage.GetActivities(ctx, accountID, fetchFrom, fetchTo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities for %s: %w", accountID, err)
	}

	balances, err := s.brokerage.GetBalances(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balances for %s: %w", accountID, err)
	}
	equity, equityKnown := baseEquity(balances, s.baseCurrency)

	s.logger.Info().
		Str("account", accountID).
		Int("activities", len(activities)).
		Float64("equity", equity).
		Bool("equity_known", equityKnown).
		Dur("elapsed", time.Since(funcStart)).
		Msg("ComputeSeries: inputs loaded")

	var issues []string
	if !equityKnown {
		issues = append(issues, fmt.Sprintf("no %s balance snapshot; terminal equity unknown", s.baseCurrency))
	}

	fundingFlows, classifyIssues := ClassifyActivities(activities, s.baseCurrency)
	issues = append(issues, classifyIssues...)

	perfFlows, perfIssues := ExtractPerformanceFlows(activities, s.baseCurrency)
	issues = append(issues, perfIssues...)

	ledger := BuildLedger(ctx, fundingFlows, s.baseCurrency, s.fx, now)
	issues = append(issues, ledger.Issues...)

	perfSchedule, convertIssues := ConvertFlows(ctx, perfFlows, s.baseCurrency, s.fx, now)
	issues = append(issues, convertIssues...)

	var terminalEquity *float64
	if equityKnown {
		terminalEquity = &equity
	}

	points := BuildDailySeries(ledger.Schedule, perfSchedule, terminalEquity, SeriesOptions{
		StartDate:  opts.StartDate,
		EndDate:    opts.EndDate,
		AnchorDate: opts.AnchorDate,
		Now:        now,
	})

	summary := s.summarize(ledger, equity, now)

	s.logger.Info().
		Str("account", accountID).
		Int("points", len(points)).
		Int("flows", len(fundingFlows)).
		Int("issues", len(issues)).
		Dur("elapsed", time.Since(funcStart)).
		Msg("ComputeSeries: complete")

	return &models.SeriesResult{
		Points:  points,
		Summary: *summary,
		Issues:  issues,
	}, nil
}

// ComputeSummary builds the funding summary without the daily walk.
func (s *Service) ComputeSummary(ctx context.Context, accountID string, opts interfaces.ComputeOptions) (*models.FundingSummary, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	fetchFrom := opts.StartDate
	if fetchFrom.IsZero() {
		fetchFrom = now.AddDate(-defaultFetchYears, 0, 0)
	}
	fetchTo := opts.EndDate
	if fetchTo.IsZero() || fetchTo.After(now) {
		fetchTo = now
	}

	activities, err := s.brokerage.GetActivities(ctx, accountID, fetchFrom, fetchTo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities for %s: %w", accountID, err)
	}

	balances, err := s.brokerage.GetBalances(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balances for %s: %w", accountID, err)
	}
	equity, equityKnown := baseEquity(balances, s.baseCurrency)

	fundingFlows, classifyIssues := ClassifyActivities(activities, s.baseCurrency)
	ledger := BuildLedger(ctx, fundingFlows, s.baseCurrency, s.fx, now)

	summary := s.summarize(ledger, equity, now)
	summary.Issues = append(classifyIssues, ledger.Issues...)
	if !equityKnown {
		summary.Issues = append(summary.Issues, fmt.Sprintf("no %s balance snapshot; terminal equity unknown", s.baseCurrency))
	}

	return summary, nil
}

// summarize assembles the FundingSummary from a built ledger and the
// terminal equity.
func (s *Service) summarize(ledger *Ledger, equity float64, now time.Time) *models.FundingSummary {
	summary := &models.FundingSummary{
		BaseCurrency: ledger.BaseCurrency,
		ByCurrency:   ledger.ByCurrency,
		NetDeposits:  ledger.NetDeposits,
		Equity:       equity,
		TotalPnl:     equity - ledger.NetDeposits,
		Schedule:     ledger.Schedule,
		Incomplete:   ledger.Incomplete,
	}

	if ledger.NetDeposits > 0 {
		summary.SimpleReturnPct = (equity - ledger.NetDeposits) / ledger.NetDeposits * 100
	}

	summary.Annualized = SolveAnnualizedReturn(ledger.Schedule, equity, now)

	return summary
}

// baseEquity extracts the base-currency total equity from the balance
// snapshots. The second return distinguishes a missing snapshot from an
// account whose balance is genuinely zero.
func baseEquity(balances []*models.BalanceSnapshot, baseCurrency string) (float64, bool) {
	for _, b := range balances {
		if b.Currency == baseCurrency {
			return b.TotalEquity, true
		}
	}
	return 0, false
}
