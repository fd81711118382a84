package server

import "net/http"

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Assets
	mux.HandleFunc("/api/assets/", s.routeAssets)
	mux.HandleFunc("/api/assets", s.handleAssets)

	// Portfolio
	mux.HandleFunc("/api/portfolio/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/portfolio/positions/", s.handlePosition)
	mux.HandleFunc("/api/portfolio/trades", s.handleTrades)
	mux.HandleFunc("/api/portfolio/refresh", s.handleRefresh)

	// Risk
	mux.HandleFunc("/api/risk/", s.routeRisk)

	// Projections
	mux.HandleFunc("/api/projection/montecarlo", s.handleMonteCarlo)
	mux.HandleFunc("/api/projection/linear", s.handleLinear)

	// Alerts
	mux.HandleFunc("/api/alerts/check", s.handleAlertCheck)
	mux.HandleFunc("/api/alerts/", s.handleAlertByID)
	mux.HandleFunc("/api/alerts", s.handleAlerts)

	// Calendar
	mux.HandleFunc("/api/events", s.handleEvents)

	// Export / import
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)
}
