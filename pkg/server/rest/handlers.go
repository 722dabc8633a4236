package rest

import (
	"context"
	"net/http"
	"strings"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/guidance"
	"pathsync/pkg/server/rest/service"
	"pathsync/pkg/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type NavigationService interface {
	Route(ctx context.Context, start, end string) (service.RouteResult, error)
}

type IncidentService interface {
	ReportIncident(ctx context.Context, location, typ string) (service.IncidentReport, error)
	UnblockEdge(ctx context.Context, edgeID string) (service.UnblockResult, error)
}

type NavigationHandler struct {
	nav          NavigationService
	incidents    IncidentService
	promeMetrics *metrics
}

func NavigatorRouter(r *chi.Mux, nav NavigationService, incidents IncidentService, m *metrics) {
	handler := &NavigationHandler{nav, incidents, m}

	r.Group(func(r chi.Router) {
		r.Post("/api/route", handler.route)
		r.Post("/api/report", handler.reportIncident)
		r.Post("/api/unblock", handler.unblockEdge)
	})
}

// validateRequest returns the translated validation failures of data, or nil.
func validateRequest(data interface{}) ([]error, error) {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		return translateError(err, trans), err
	}
	return nil, nil
}

// RouteRequest model info
//
//	@Description	request body for a route between two places. A place is a name or a "lat,lon" pair.
type RouteRequest struct {
	StartName string `json:"start_name" validate:"required"`
	EndName   string `json:"end_name" validate:"required"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	s.StartName = strings.TrimSpace(s.StartName)
	s.EndName = strings.TrimSpace(s.EndName)
	return nil
}

// RouteResponse model info
//
//	@Description	response body for a route between two places
type RouteResponse struct {
	Status      string                        `json:"status"`
	RouteCoords [][2]float64                  `json:"route_coords"`
	TotalTime   float64                       `json:"total_time_seconds"`
	Distance    float64                       `json:"total_distance_meters"`
	Path        string                        `json:"path"`
	Edges       []string                      `json:"edges"`
	Navigations []guidance.DrivingInstruction `json:"navigations"`
}

func NewRouteResponse(res service.RouteResult) *RouteResponse {
	return &RouteResponse{
		Status:      statusSuccess,
		RouteCoords: routeCoords(res.Coordinates),
		TotalTime:   util.RoundFloat(res.TotalTime, 2),
		Distance:    util.RoundFloat(res.TotalDistance, 2),
		Path:        res.Polyline,
		Edges:       res.Edges,
		Navigations: res.Instructions,
	}
}

func routeCoords(coords []datastructure.Coordinate) [][2]float64 {
	out := make([][2]float64, len(coords))
	for i, c := range coords {
		out[i] = [2]float64{c.Lat, c.Lon}
	}
	return out
}

// route
//
//	@Summary		fastest route between two places over live travel times.
//	@Description	fastest route between two places over live travel times. Roads with an incident are avoided.
//	@Tags			navigations
//	@Param			body	body	RouteRequest	true	"start and end place"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/route [post]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) route(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if vv, err := validateRequest(*data); err != nil {
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	res, err := h.nav.Route(r.Context(), data.StartName, data.EndName)
	if err != nil {
		h.promeMetrics.RouteQueryCount.WithLabelValues("false").Inc()
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.RouteQueryCount.WithLabelValues("true").Inc()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewRouteResponse(res))
}

// ReportRequest model info
//
//	@Description	request body for reporting an incident near a place
type ReportRequest struct {
	LocationName string `json:"location_name" validate:"required"`
	Type         string `json:"type" validate:"omitempty,max=64"`
}

func (s *ReportRequest) Bind(r *http.Request) error {
	s.LocationName = strings.TrimSpace(s.LocationName)
	s.Type = strings.TrimSpace(s.Type)
	return nil
}

// ReportResponse model info
//
//	@Description	response body for a reported incident
type ReportResponse struct {
	Status        string                   `json:"status"`
	Message       string                   `json:"message"`
	ID            string                   `json:"id"`
	EdgesAffected []string                 `json:"edges_affected"`
	Coordinate    datastructure.Coordinate `json:"coordinate"`
}

// reportIncident
//
//	@Summary		report an incident near a place.
//	@Description	report an incident near a place. The nearest drivable road and its opposite direction are blocked for routing.
//	@Tags			incidents
//	@Param			body	body	ReportRequest	true	"incident place and type"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/report [post]
//	@Success		200	{object}	ReportResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) reportIncident(w http.ResponseWriter, r *http.Request) {
	data := &ReportRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if vv, err := validateRequest(*data); err != nil {
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	rep, err := h.incidents.ReportIncident(r.Context(), data.LocationName, data.Type)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.IncidentCount.WithLabelValues("report").Inc()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &ReportResponse{
		Status:        statusSuccess,
		Message:       rep.Message,
		ID:            rep.ID,
		EdgesAffected: rep.EdgesAffected,
		Coordinate:    rep.Coordinate,
	})
}

// UnblockRequest model info
//
//	@Description	request body for clearing an incident on a road
type UnblockRequest struct {
	EdgeID string `json:"edge_id" validate:"required"`
}

func (s *UnblockRequest) Bind(r *http.Request) error {
	s.EdgeID = strings.TrimSpace(s.EdgeID)
	return nil
}

// UnblockResponse model info
//
//	@Description	response body for a cleared road
type UnblockResponse struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	EdgesCleared []string `json:"edges_cleared"`
	WasIncident  bool     `json:"was_incident"`
}

// unblockEdge
//
//	@Summary		clear an incident on a road.
//	@Description	clear an incident on a road and its opposite direction. Clearing a road that is not blocked changes nothing.
//	@Tags			incidents
//	@Param			body	body	UnblockRequest	true	"road id"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/unblock [post]
//	@Success		200	{object}	UnblockResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) unblockEdge(w http.ResponseWriter, r *http.Request) {
	data := &UnblockRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if vv, err := validateRequest(*data); err != nil {
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	res, err := h.incidents.UnblockEdge(r.Context(), data.EdgeID)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	if res.WasIncident {
		h.promeMetrics.IncidentCount.WithLabelValues("unblock").Inc()
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &UnblockResponse{
		Status:       statusSuccess,
		Message:      res.Message,
		EdgesCleared: res.EdgesCleared,
		WasIncident:  res.WasIncident,
	})
}
