package http

import (
	"net/http"

	"pocketwatcher/internal/core"
	"pocketwatcher/internal/log"
)

func (s *Server) monthParams(w http.ResponseWriter, r *http.Request) (MonthParams, bool) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, log.OpStats, err)
		return MonthParams{}, false
	}
	return p, true
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	stats, err := s.stats.Monthly(r.Context(), ownerOf(r), p.Year, p.Month)
	if err != nil {
		s.fail(w, r, log.OpStats, err)
		return
	}
	s.respond(w, r, NewJSONResponse().Body(stats))
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	breakdown, err := s.stats.Breakdown(r.Context(), ownerOf(r), p.Year, p.Month)
	if err != nil {
		s.fail(w, r, log.OpStats, err)
		return
	}

	var total core.Money
	for _, c := range breakdown {
		if total, err = total.Add(c.Amount); err != nil {
			s.fail(w, r, log.OpStats, err)
			return
		}
	}
	s.respond(w, r, NewJSONResponse().
		Field("year", p.Year).
		Field("month", p.Month).
		Field("total", total).
		Field("categories", categoryViews(breakdown)))
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	months, err := ParseMonthCount(r.URL.Query(), "months", s.trendMonths, maxTrendMonths)
	if err != nil {
		s.fail(w, r, log.OpStats, err)
		return
	}
	trend, err := s.stats.Trend(r.Context(), ownerOf(r), p.Year, p.Month, months)
	if err != nil {
		s.fail(w, r, log.OpStats, err)
		return
	}
	s.respond(w, r, NewJSONResponse().Field("trend", trend))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := s.monthParams(w, r)
	if !ok {
		return
	}
	dash, err := s.stats.Dashboard(r.Context(), ownerOf(r), p.Year, p.Month, s.trendMonths)
	if err != nil {
		s.fail(w, r, log.OpStats, err)
		return
	}
	s.respond(w, r, NewJSONResponse().Body(dash))
}
