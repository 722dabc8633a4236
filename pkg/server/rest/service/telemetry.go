package service

import (
	"pathsync/pkg/datastructure"
	"pathsync/pkg/engine/updater"
	"pathsync/pkg/guidance"
	"pathsync/pkg/history"
	"pathsync/pkg/kv"
	"pathsync/pkg/roadgraph"
	"pathsync/pkg/util"

	"github.com/uber/h3-go/v4"
)

// LiveFeed is what the background updater publishes after each reconciliation pass.
type LiveFeed interface {
	Status() updater.Status
	Heatmap() []updater.HeatSample
	TrafficLights() []updater.TrafficLight
}

type LogSource interface {
	Lines() []string
}

type IncidentMarker struct {
	EdgeID     string                   `json:"edge_id"`
	Coordinate datastructure.Coordinate `json:"coordinate"`
	Reported   bool                     `json:"reported"`
}

type HeatPoint struct {
	EdgeID     string                   `json:"edge_id"`
	Coordinate datastructure.Coordinate `json:"coordinate"`
	Ratio      float64                  `json:"ratio"`
	Cell       string                   `json:"cell"`
}

type Counters struct {
	ActiveIncidents int     `json:"active_incidents"`
	TotalReported   int     `json:"total_reported"`
	TotalResolved   int     `json:"total_resolved"`
	SimulationTime  float64 `json:"simulation_time"`
	JammingEdges    int     `json:"jamming_edges"`
	LatencyMs       float64 `json:"latency_ms"`
	UpdaterState    string  `json:"updater_state"`
}

type Dashboard struct {
	Incidents     []IncidentMarker       `json:"incidents"`
	Heatmap       []HeatPoint            `json:"heatmap"`
	TrafficLights []updater.TrafficLight `json:"traffic_lights"`
	Counters      Counters               `json:"counters"`
}

type TelemetryService struct {
	graph  *roadgraph.RoadGraph
	feed   LiveFeed
	ledger *history.Ledger
	logs   LogSource
}

func NewTelemetryService(graph *roadgraph.RoadGraph, feed LiveFeed, ledger *history.Ledger, logs LogSource) *TelemetryService {
	return &TelemetryService{graph: graph, feed: feed, ledger: ledger, logs: logs}
}

func (uc *TelemetryService) Dashboard() Dashboard {
	snap := uc.graph.SnapshotEdges()
	byID := make(map[string]int, len(snap))
	markers := make([]IncidentMarker, 0)
	for i, e := range snap {
		byID[e.ID] = i
		if !e.IsIncident {
			continue
		}
		m := IncidentMarker{EdgeID: e.ID}
		if e.IncidentCoord != nil {
			m.Coordinate = *e.IncidentCoord
			m.Reported = true
		} else {
			m.Coordinate = guidance.Midpoint(e.From.Coordinate(), e.To.Coordinate())
		}
		markers = append(markers, m)
	}

	samples := uc.feed.Heatmap()
	heat := make([]HeatPoint, 0, len(samples))
	for _, s := range samples {
		i, ok := byID[s.EdgeID]
		if !ok {
			continue
		}
		mid := guidance.Midpoint(snap[i].From.Coordinate(), snap[i].To.Coordinate())
		cell := h3.LatLngToCell(h3.NewLatLng(mid.Lat, mid.Lon), kv.CellResolution)
		heat = append(heat, HeatPoint{
			EdgeID:     s.EdgeID,
			Coordinate: mid,
			Ratio:      util.RoundFloat(s.Ratio, 2),
			Cell:       cell.String(),
		})
	}

	st := uc.feed.Status()
	return Dashboard{
		Incidents:     markers,
		Heatmap:       heat,
		TrafficLights: uc.feed.TrafficLights(),
		Counters: Counters{
			ActiveIncidents: len(markers),
			TotalReported:   uc.ledger.Incidents.Len(),
			TotalResolved:   uc.ledger.Resolved.Len(),
			SimulationTime:  st.SimTime,
			JammingEdges:    st.JammingEdges,
			LatencyMs:       util.RoundFloat(st.LatencyMs, 2),
			UpdaterState:    string(st.State),
		},
	}
}

func (uc *TelemetryService) Logs() []string {
	if uc.logs == nil {
		return []string{}
	}
	return uc.logs.Lines()
}

func (uc *TelemetryService) Incidents() []history.Entry {
	return uc.ledger.Incidents.List()
}

func (uc *TelemetryService) Resolved() []history.Entry {
	return uc.ledger.Resolved.List()
}

func (uc *TelemetryService) Latency() (float64, updater.State) {
	st := uc.feed.Status()
	return util.RoundFloat(st.LatencyMs, 2), st.State
}
