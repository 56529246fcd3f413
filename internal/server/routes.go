package server

import "net/http"

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health and version
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Funding endpoints
	mux.HandleFunc("/api/funding/summary", s.handleFundingSummary)
	mux.HandleFunc("/api/funding/series", s.handleFundingSeries)
	mux.HandleFunc("/api/funding/chart", s.handleFundingChart)
}
