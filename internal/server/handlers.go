package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/fundcast/internal/common"
	"github.com/bobmcallan/fundcast/internal/interfaces"
	"github.com/bobmcallan/fundcast/internal/models"
	"github.com/bobmcallan/fundcast/internal/services/funding"
)

// handleHealth returns service health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleVersion returns build metadata.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// parseComputeOptions reads the shared query parameters for funding
// endpoints. Dates are ISO (2006-01-02).
func parseComputeOptions(r *http.Request) (interfaces.ComputeOptions, error) {
	var opts interfaces.ComputeOptions

	parse := func(name string) (time.Time, error) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", name, raw)
		}
		return t, nil
	}

	var err error
	if opts.StartDate, err = parse("start"); err != nil {
		return opts, err
	}
	if opts.EndDate, err = parse("end"); err != nil {
		return opts, err
	}
	if opts.AnchorDate, err = parse("anchor"); err != nil {
		return opts, err
	}
	return opts, nil
}

// handleFundingSummary returns the funding summary for an account.
// GET /api/funding/summary?account=<id>&start=&end=
func (s *Server) handleFundingSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	accountID := r.URL.Query().Get("account")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "account parameter is required")
		return
	}

	opts, err := parseComputeOptions(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.funding.ComputeSummary(r.Context(), accountID, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("account", accountID).Msg("Funding summary failed")
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Failed to compute summary: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}

// handleFundingSeries returns the daily funding series for an account.
// GET /api/funding/series?account=<id>&start=&end=&anchor=&downsample=weekly|monthly
func (s *Server) handleFundingSeries(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	accountID := r.URL.Query().Get("account")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "account parameter is required")
		return
	}

	opts, err := parseComputeOptions(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	downsample := r.URL.Query().Get("downsample")
	switch downsample {
	case "", "none", "weekly", "monthly":
	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid downsample %q, expected weekly or monthly", downsample))
		return
	}

	result, err := s.funding.ComputeSeries(r.Context(), accountID, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("account", accountID).Msg("Funding series failed")
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Failed to compute series: %v", err))
		return
	}

	switch downsample {
	case "weekly":
		result.Points = funding.DownsampleToWeekly(result.Points)
	case "monthly":
		result.Points = funding.DownsampleToMonthly(result.Points)
	}
	if result.Points == nil {
		result.Points = []models.DailyPoint{}
	}

	WriteJSON(w, http.StatusOK, result)
}

// handleFundingChart renders the daily series as a PNG chart.
// GET /api/funding/chart?account=<id>&start=&end=
func (s *Server) handleFundingChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	accountID := r.URL.Query().Get("account")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "account parameter is required")
		return
	}

	opts, err := parseComputeOptions(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.funding.ComputeSeries(r.Context(), accountID, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("account", accountID).Msg("Funding chart failed")
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Failed to compute series: %v", err))
		return
	}

	png, err := funding.RenderSeriesChart(result.Points)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
