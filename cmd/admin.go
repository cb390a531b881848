package cmd

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"skillarena/models"
	"skillarena/service"

	log "github.com/sirupsen/logrus"
)

// adminHandler serves the read-only revenue query surface for operational
// tooling. Access control sits in front of it.
type adminHandler struct {
	stats service.RevenueStatsService
}

func registerAdminRoutes(mux *http.ServeMux, stats service.RevenueStatsService) {
	h := &adminHandler{stats: stats}
	mux.HandleFunc("/admin/revenue/stats", h.revenueStats)
	mux.HandleFunc("/admin/revenue/history", h.revenueHistory)
	mux.HandleFunc("/admin/revenue/daily", h.dailyRevenue)
	mux.HandleFunc("/admin/revenue/top-players", h.topPlayers)
}

func (h *adminHandler) revenueStats(w http.ResponseWriter, r *http.Request) {
	from, to := timeRange(r)
	stats, err := h.stats.GetRevenueStats(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stats)
}

func (h *adminHandler) revenueHistory(w http.ResponseWriter, r *http.Request) {
	var filter models.RevenueFilter
	if s := r.URL.Query().Get("source"); s != "" {
		source := models.RevenueSource(s)
		filter.Source = &source
	}
	if from, ok := parseTime(r.URL.Query().Get("from")); ok {
		filter.From = &from
	}
	if to, ok := parseTime(r.URL.Query().Get("to")); ok {
		filter.To = &to
	}
	limit := intParam(r, "limit", 50)
	offset := intParam(r, "offset", 0)

	records, total, err := h.stats.GetRevenueHistory(r.Context(), filter, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"records": records,
		"total":   total,
	})
}

func (h *adminHandler) dailyRevenue(w http.ResponseWriter, r *http.Request) {
	from, to := timeRange(r)
	points, err := h.stats.GetDailyRevenue(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, points)
}

func (h *adminHandler) topPlayers(w http.ResponseWriter, r *http.Request) {
	from, to := timeRange(r)
	limit := intParam(r, "limit", 10)
	entries, err := h.stats.GetTopPlayers(r.Context(), from, to, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, entries)
}

// timeRange defaults to the last 30 days.
func timeRange(r *http.Request) (time.Time, time.Time) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if parsed, ok := parseTime(r.URL.Query().Get("from")); ok {
		from = parsed
	}
	if parsed, ok := parseTime(r.URL.Query().Get("to")); ok {
		to = parsed
	}
	return from, to
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func intParam(r *http.Request, name string, fallback int) int {
	if value := r.URL.Query().Get(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithField("error", err).Error("Failed to encode admin response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	log.WithField("error", err).Error("Admin query failed")
	http.Error(w, "query failed", http.StatusInternalServerError)
}
