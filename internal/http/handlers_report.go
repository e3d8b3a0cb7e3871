package http

import (
	"net/http"

	"finwell/internal/log"
	authmw "finwell/internal/middleware/auth"
)

// handleSummary serves the spend-vs-budget breakdown. start_date, end_date,
// month and year narrow the transactions together.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.ComponentReport, log.OpReport)
		return
	}
	f.CategoryID = 0

	summary, err := s.deps.Reports.BuildSummary(r.Context(), authmw.GetOwnerID(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err, log.ComponentReport, log.OpReport)
		return
	}
	OK(presentSummary(summary)).Write(w)
}

func (s *Server) handleHealthScore(w http.ResponseWriter, r *http.Request) {
	score, err := s.deps.Health.HealthScore(r.Context(), authmw.GetOwnerID(r.Context()), s.now())
	if err != nil {
		s.writeError(w, r, err, log.ComponentReport, log.OpReport)
		return
	}
	s.deps.Metrics.ObserveHealthScore(score.Score)
	OK(presentHealth(score)).Write(w)
}
