package handler

import (
	"net/http"
	"time"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/infra/observability"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard
// ============================================================

func dashboardStatsHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/stats")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		stats, err := ws.Dashboard.Stats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func dashboardChartHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/chart")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		now := time.Now()
		sel := domain.ChartSelection{
			Period: domain.ChartPeriod(r.URL.Query().Get("period")),
			Year:   queryInt(r, "year", now.Year()),
			Month:  queryInt(r, "month", int(now.Month())),
			Week:   queryInt(r, "week", 1),
		}
		if sel.Period == "" {
			sel.Period = domain.PeriodMonth
		}

		buckets, err := ws.Dashboard.Chart(ctx, sel)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"period":  sel.Period,
			"year":    sel.Year,
			"month":   sel.Month,
			"week":    sel.Week,
			"buckets": buckets,
		})
	}
}

func dashboardPeriodsHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/periods")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		now := time.Now()
		year := queryInt(r, "year", now.Year())
		month := queryInt(r, "month", int(now.Month()))

		periods, err := ws.Dashboard.Periods(ctx, year, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, periods)
	}
}

// storeMetricsHandler serves the JSON snapshot of store health.
func storeMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/stores")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetStoreSnapshot())
	}
}
