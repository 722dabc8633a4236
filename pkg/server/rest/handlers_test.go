package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/engine/updater"
	"pathsync/pkg/history"
	"pathsync/pkg/server"
	"pathsync/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNavigation struct {
	res service.RouteResult
	err error
}

func (f *fakeNavigation) Route(_ context.Context, start, end string) (service.RouteResult, error) {
	return f.res, f.err
}

type fakeIncidents struct {
	lastLocation, lastType string
	report                 service.IncidentReport
	unblock                service.UnblockResult
	err                    error
}

func (f *fakeIncidents) ReportIncident(_ context.Context, location, typ string) (service.IncidentReport, error) {
	f.lastLocation, f.lastType = location, typ
	return f.report, f.err
}

func (f *fakeIncidents) UnblockEdge(_ context.Context, edgeID string) (service.UnblockResult, error) {
	return f.unblock, f.err
}

type fakeTelemetry struct{}

func (fakeTelemetry) Dashboard() service.Dashboard {
	return service.Dashboard{
		Incidents: []service.IncidentMarker{{EdgeID: "e1", Coordinate: datastructure.NewCoordinate(12.3, 76.6), Reported: true}},
		Counters:  service.Counters{ActiveIncidents: 1, UpdaterState: "running"},
	}
}
func (fakeTelemetry) Logs() []string { return []string{"a", "b"} }
func (fakeTelemetry) Incidents() []history.Entry {
	return []history.Entry{{ID: "1", Timestamp: time.Unix(0, 0), Edges: []string{"e1"}, Source: history.SourceManual}}
}
func (fakeTelemetry) Resolved() []history.Entry { return []history.Entry{} }
func (fakeTelemetry) Latency() (float64, updater.State) { return 1.25, updater.StateRunning }

func newTestRouter(nav *fakeNavigation, inc *fakeIncidents) (*chi.Mux, *metrics) {
	r := chi.NewRouter()
	m := NewMetrics(prometheus.NewRegistry())
	r.Use(PromeHttpMiddleware(m))
	NavigatorRouter(r, nav, inc, m)
	TelemetryRouter(r, fakeTelemetry{})
	return r, m
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRouteHandler(t *testing.T) {
	nav := &fakeNavigation{res: service.RouteResult{
		Coordinates:   []datastructure.Coordinate{{Lat: 12.3, Lon: 76.6}, {Lat: 12.31, Lon: 76.61}},
		TotalTime:     42.123,
		TotalDistance: 300,
		Polyline:      "abc",
		Edges:         []string{"e1"},
	}}
	r, m := newTestRouter(nav, &fakeIncidents{})

	rec, out := do(t, r, http.MethodPost, "/api/route", `{"start_name":"Mysore Palace","end_name":"12.31,76.61"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, 42.12, out["total_time_seconds"])
	assert.Equal(t, []interface{}{[]interface{}{12.3, 76.6}, []interface{}{12.31, 76.61}}, out["route_coords"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteQueryCount.WithLabelValues("true")))
}

func TestRouteHandlerErrors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		r, _ := newTestRouter(&fakeNavigation{}, &fakeIncidents{})
		rec, out := do(t, r, http.MethodPost, "/api/route", `{"start_name":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "error", out["status"])
		assert.Len(t, out["validation"], 2)
	})

	t.Run("malformed body", func(t *testing.T) {
		r, _ := newTestRouter(&fakeNavigation{}, &fakeIncidents{})
		rec, out := do(t, r, http.MethodPost, "/api/route", `{"start_name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "error", out["status"])
	})

	t.Run("no path", func(t *testing.T) {
		nav := &fakeNavigation{err: server.WrapErrorf(service.ErrNoPathFound, server.ErrNotFound, "No valid path found.")}
		r, m := newTestRouter(nav, &fakeIncidents{})
		rec, out := do(t, r, http.MethodPost, "/api/route", `{"start_name":"a","end_name":"b"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "No valid path found.", out["message"])
		assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteQueryCount.WithLabelValues("false")))
	})

	t.Run("unexpected", func(t *testing.T) {
		nav := &fakeNavigation{err: errors.New("boom")}
		r, _ := newTestRouter(nav, &fakeIncidents{})
		rec, out := do(t, r, http.MethodPost, "/api/route", `{"start_name":"a","end_name":"b"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error.", out["message"])
	})
}

func TestReportHandler(t *testing.T) {
	inc := &fakeIncidents{report: service.IncidentReport{
		ID:            "b6a1",
		EdgesAffected: []string{"e1", "-e1"},
		Message:       "Accident reported at KR Circle. Routes will now avoid this road.",
	}}
	r, m := newTestRouter(&fakeNavigation{}, inc)

	rec, out := do(t, r, http.MethodPost, "/api/report", `{"location_name":" KR Circle ","type":"Accident"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Accident reported at KR Circle. Routes will now avoid this road.", out["message"])
	assert.Equal(t, "KR Circle", inc.lastLocation)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IncidentCount.WithLabelValues("report")))

	inc.err = server.WrapErrorf(service.ErrNoRoutableNodeNearby, server.ErrNotFound, "Report location is too far from any mapped road node. Try a more precise street name.")
	rec, out = do(t, r, http.MethodPost, "/api/report", `{"location_name":"nowhere"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "", inc.lastType)
}

func TestUnblockHandler(t *testing.T) {
	inc := &fakeIncidents{unblock: service.UnblockResult{EdgesCleared: []string{"e1", "-e1"}, WasIncident: true, Message: "ok"}}
	r, m := newTestRouter(&fakeNavigation{}, inc)

	rec, out := do(t, r, http.MethodPost, "/api/unblock", `{"edge_id":"e1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["was_incident"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IncidentCount.WithLabelValues("unblock")))

	rec, _ = do(t, r, http.MethodPost, "/api/unblock", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTelemetryHandlers(t *testing.T) {
	r, _ := newTestRouter(&fakeNavigation{}, &fakeIncidents{})

	rec, _ := do(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, banner, rec.Body.String())

	rec, out := do(t, r, http.MethodGet, "/api/dashboard", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", out["status"])
	assert.Len(t, out["incidents"], 1)
	assert.Equal(t, "running", out["counters"].(map[string]interface{})["updater_state"])

	_, out = do(t, r, http.MethodGet, "/api/logs", "")
	assert.Equal(t, []interface{}{"a", "b"}, out["logs"])

	_, out = do(t, r, http.MethodGet, "/api/incidents", "")
	assert.Len(t, out["entries"], 1)

	_, out = do(t, r, http.MethodGet, "/api/resolved", "")
	assert.Len(t, out["entries"], 0)

	_, out = do(t, r, http.MethodGet, "/api/latency", "")
	assert.Equal(t, 1.25, out["latency_ms"])
	assert.Equal(t, "running", out["updater_state"])
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, getStatusCode(nil))
	assert.Equal(t, http.StatusInternalServerError, getStatusCode(errors.New("x")))
	assert.Equal(t, http.StatusNotFound, getStatusCode(server.WrapErrorf(nil, server.ErrNotFound, "x")))
	assert.Equal(t, http.StatusBadRequest, getStatusCode(server.WrapErrorf(nil, server.ErrBadParamInput, "x")))
	assert.Equal(t, http.StatusServiceUnavailable, getStatusCode(server.WrapErrorf(nil, server.ErrUnavailable, "x")))
}
