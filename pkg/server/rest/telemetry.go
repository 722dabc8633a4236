package rest

import (
	"net/http"

	"pathsync/pkg/engine/updater"
	"pathsync/pkg/history"
	"pathsync/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const banner = "pathsync backend is running!"

type TelemetryService interface {
	Dashboard() service.Dashboard
	Logs() []string
	Incidents() []history.Entry
	Resolved() []history.Entry
	Latency() (float64, updater.State)
}

type TelemetryHandler struct {
	svc TelemetryService
}

func TelemetryRouter(r *chi.Mux, svc TelemetryService) {
	handler := &TelemetryHandler{svc}

	r.Get("/", handler.index)
	r.Group(func(r chi.Router) {
		r.Get("/api/dashboard", handler.dashboard)
		r.Get("/api/logs", handler.logs)
		r.Get("/api/incidents", handler.incidents)
		r.Get("/api/resolved", handler.resolved)
		r.Get("/api/latency", handler.latency)
	})
}

func (h *TelemetryHandler) index(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.PlainText(w, r, banner)
}

// DashboardResponse model info
//
//	@Description	live map state: incidents, congestion heatmap, traffic lights and counters
type DashboardResponse struct {
	Status string `json:"status"`
	service.Dashboard
}

// dashboard
//
//	@Summary		live map state.
//	@Description	incident markers, congestion heatmap, simplified traffic light states and counters.
//	@Tags			telemetry
//	@Produce		application/json
//	@Router			/api/dashboard [get]
//	@Success		200	{object}	DashboardResponse
func (h *TelemetryHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &DashboardResponse{Status: statusSuccess, Dashboard: h.svc.Dashboard()})
}

// LogsResponse model info
//
//	@Description	most recent server log lines, oldest first
type LogsResponse struct {
	Status string   `json:"status"`
	Logs   []string `json:"logs"`
}

// logs
//
//	@Summary		recent server log lines.
//	@Tags			telemetry
//	@Produce		application/json
//	@Router			/api/logs [get]
//	@Success		200	{object}	LogsResponse
func (h *TelemetryHandler) logs(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &LogsResponse{Status: statusSuccess, Logs: h.svc.Logs()})
}

// HistoryResponse model info
//
//	@Description	incident or resolution history, oldest first
type HistoryResponse struct {
	Status  string          `json:"status"`
	Entries []history.Entry `json:"entries"`
}

// incidents
//
//	@Summary		incident history.
//	@Description	every reported or detected incident, oldest first.
//	@Tags			telemetry
//	@Produce		application/json
//	@Router			/api/incidents [get]
//	@Success		200	{object}	HistoryResponse
func (h *TelemetryHandler) incidents(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &HistoryResponse{Status: statusSuccess, Entries: h.svc.Incidents()})
}

// resolved
//
//	@Summary		resolution history.
//	@Description	every cleared incident, oldest first.
//	@Tags			telemetry
//	@Produce		application/json
//	@Router			/api/resolved [get]
//	@Success		200	{object}	HistoryResponse
func (h *TelemetryHandler) resolved(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &HistoryResponse{Status: statusSuccess, Entries: h.svc.Resolved()})
}

// LatencyResponse model info
//
//	@Description	smoothed simulator round-trip latency
type LatencyResponse struct {
	Status       string  `json:"status"`
	LatencyMs    float64 `json:"latency_ms"`
	UpdaterState string  `json:"updater_state"`
}

// latency
//
//	@Summary		simulator latency.
//	@Tags			telemetry
//	@Produce		application/json
//	@Router			/api/latency [get]
//	@Success		200	{object}	LatencyResponse
func (h *TelemetryHandler) latency(w http.ResponseWriter, r *http.Request) {
	ms, state := h.svc.Latency()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &LatencyResponse{Status: statusSuccess, LatencyMs: ms, UpdaterState: string(state)})
}
