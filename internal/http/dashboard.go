package httpserver

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.deps.Reports.Dashboard(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("dashboard failed")
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch dashboard data")
		return
	}
	s.respondJSON(w, http.StatusOK, dash)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Reports.Report(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("analytics failed")
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch analytics data")
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}
