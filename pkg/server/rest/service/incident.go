package service

import (
	"context"
	"errors"
	"strings"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/history"
	"pathsync/pkg/roadgraph"
	"pathsync/pkg/server"

	"go.uber.org/zap"
)

const DefaultIncidentType = "Accident"

type IncidentReport struct {
	ID            string
	EdgesAffected []string
	Coordinate    datastructure.Coordinate
	Message       string
}

type UnblockResult struct {
	EdgesCleared []string
	WasIncident  bool
	Message      string
}

type IncidentService struct {
	graph        *roadgraph.RoadGraph
	net          Network
	geo          Geocoder
	ledger       *history.Ledger
	searchRadius float64
	log          *zap.Logger
}

func NewIncidentService(graph *roadgraph.RoadGraph, net Network, geo Geocoder, ledger *history.Ledger,
	searchRadius float64, log *zap.Logger) *IncidentService {
	return &IncidentService{graph: graph, net: net, geo: geo, ledger: ledger, searchRadius: searchRadius, log: log}
}

// ReportIncident blocks the drivable road nearest to location, together with its opposite direction.
func (uc *IncidentService) ReportIncident(ctx context.Context, location, typ string) (IncidentReport, error) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		typ = DefaultIncidentType
	}
	res, p, err := locate(ctx, uc.geo, uc.net, location, "Location name not recognized for reporting.")
	if err != nil {
		return IncidentReport{}, err
	}

	edgeID, ok := uc.nearestRoutableEdge(p)
	if !ok {
		return IncidentReport{}, server.WrapErrorf(ErrNoRoutableNodeNearby, server.ErrNotFound,
			"Report location is too far from any mapped road node. Try a more precise street name.")
	}

	coord := res.Coordinate
	affected, err := uc.graph.MarkIncident(edgeID, &coord)
	if err != nil {
		return IncidentReport{}, server.WrapErrorf(err, server.ErrInternalServerError, "%s", server.MessageInternalServerError)
	}
	entry := uc.ledger.RecordIncident(affected, typ, history.SourceManual)

	uc.log.Info("incident reported",
		zap.String("location", location),
		zap.String("type", typ),
		zap.Strings("edges", affected))

	return IncidentReport{
		ID:            entry.ID,
		EdgesAffected: affected,
		Coordinate:    coord,
		Message:       typ + " reported at " + location + ". Routes will now avoid this road.",
	}, nil
}

func (uc *IncidentService) nearestRoutableEdge(p datastructure.Point) (string, bool) {
	for _, hit := range uc.net.NearestEdges(p, uc.searchRadius) {
		e, ok := uc.graph.Edge(hit.EdgeID)
		if ok && e.Drivable {
			return e.ID, true
		}
	}
	return "", false
}

// UnblockEdge clears an incident on edgeID and its opposite direction. Clearing a road that was
// not blocked changes nothing and records nothing.
func (uc *IncidentService) UnblockEdge(ctx context.Context, edgeID string) (UnblockResult, error) {
	edgeID = strings.TrimSpace(edgeID)
	affected, wasIncident, err := uc.graph.ResolveIncident(edgeID)
	if errors.Is(err, roadgraph.ErrInvalidEdgeReference) {
		return UnblockResult{}, server.WrapErrorf(err, server.ErrNotFound, "Edge %s does not exist in the road network.", edgeID)
	}
	if err != nil {
		return UnblockResult{}, server.WrapErrorf(err, server.ErrInternalServerError, "%s", server.MessageInternalServerError)
	}

	if !wasIncident {
		return UnblockResult{
			EdgesCleared: affected,
			Message:      "Edge " + edgeID + " was not blocked.",
		}, nil
	}

	uc.ledger.RecordResolution(affected, history.SourceManual)
	uc.log.Info("incident resolved", zap.String("edge", edgeID), zap.Strings("edges", affected))
	return UnblockResult{
		EdgesCleared: affected,
		WasIncident:  true,
		Message:      "Edge " + edgeID + " unblocked. Normal travel time restored.",
	}, nil
}
