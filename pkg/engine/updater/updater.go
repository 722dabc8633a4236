package updater

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/engine/incident"
	"pathsync/pkg/history"
	"pathsync/pkg/roadgraph"

	"go.uber.org/zap"
)

// Bridge is the simulator session the updater drives.
type Bridge interface {
	Step() error
	CurrentTime() (float64, error)
	LatencyMs() float64
	EdgeIDs() ([]string, error)
	TravelTime(edgeID string) (float64, error)
	HaltingCount(edgeID string) (int, error)
	SetSpeedLimit(edgeID string, speed float64) error
	TrafficLightIDs() ([]string, error)
	ControlledLanes(tlsID string) ([]string, error)
	SignalState(tlsID string) (string, error)
	Close() error
}

type Opener func(ctx context.Context) (Bridge, error)

type Recorder interface {
	RecordIncident(edges []string, typ string, src history.Source) history.Entry
}

type Config struct {
	// Horizon stops the loop once simulated time passes it. Zero runs until cancelled.
	Horizon           float64
	ReconcileInterval float64
	// ClampSpeed is imposed in the simulator on edges flagged as incidents.
	ClampSpeed float64
	// Warmup keeps the state at StateStarting for at least this long after Run begins, even once
	// the first pass has landed.
	Warmup   time.Duration
	Detector incident.Config
}

func DefaultConfig() Config {
	return Config{
		Horizon:           3600,
		ReconcileInterval: 10,
		ClampSpeed:        0.1,
		Detector:          incident.DefaultConfig(),
	}
}

type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopped  State = "stopped"
	StateFailed   State = "failed"
)

type HeatSample struct {
	EdgeID string
	// Ratio is current travel time over free-flow travel time.
	Ratio float64
}

type SignalColor string

const (
	SignalGreen  SignalColor = "green"
	SignalYellow SignalColor = "yellow"
	SignalRed    SignalColor = "red"
)

type TrafficLight struct {
	ID         string                   `json:"id"`
	Coordinate datastructure.Coordinate `json:"coordinate"`
	State      SignalColor              `json:"state"`
}

type Status struct {
	State        State
	SimTime      float64
	LatencyMs    float64
	JammingEdges int
	Ticks        int64
	LastError    string
}

// Updater keeps RoadGraph weights in step with the simulator and promotes sustained congestion into
// incidents. Run is meant for a single goroutine; the published telemetry may be read from any.
type Updater struct {
	cfg      Config
	graph    *roadgraph.RoadGraph
	open     Opener
	detector *incident.Detector
	history  Recorder
	metrics  *Metrics
	log      *zap.Logger

	mu     sync.RWMutex
	heat   []HeatSample
	lights []TrafficLight
	status Status
}

func New(cfg Config, graph *roadgraph.RoadGraph, open Opener, rec Recorder, m *Metrics, log *zap.Logger) *Updater {
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = DefaultConfig().ReconcileInterval
	}
	if cfg.Detector.Interval <= 0 {
		cfg.Detector.Interval = cfg.ReconcileInterval
	}
	return &Updater{
		cfg:      cfg,
		graph:    graph,
		open:     open,
		detector: incident.NewDetector(cfg.Detector),
		history:  rec,
		metrics:  m,
		log:      log,
		status:   Status{State: StateStarting},
	}
}

// Run opens the simulator session and loops until the horizon, cancellation or a session error.
// The state stays StateStarting until a reconciliation pass has landed and the warmup has elapsed;
// routing serves base weights meanwhile. On failure routing keeps serving the last weights.
func (u *Updater) Run(ctx context.Context) error {
	started := time.Now()
	bridge, err := u.open(ctx)
	if err != nil {
		u.log.Error("simulator unavailable, serving static weights", zap.Error(err))
		u.fail(err)
		return err
	}
	defer func() {
		if err := bridge.Close(); err != nil {
			u.log.Warn("closing simulator session", zap.Error(err))
		}
	}()

	allIDs, err := bridge.EdgeIDs()
	if err != nil {
		u.log.Error("listing simulator edges", zap.Error(err))
		u.fail(err)
		return err
	}
	edgeIDs := make([]string, 0, len(allIDs))
	for _, id := range allIDs {
		if !datastructure.IsInternalEdgeID(id) && u.graph.HasEdge(id) {
			edgeIDs = append(edgeIDs, id)
		}
	}
	u.log.Info("live weight updater started", zap.Int("sim_edges", len(allIDs)), zap.Int("tracked_edges", len(edgeIDs)))

	readyAt := started.Add(u.cfg.Warmup)
	running := false
	lastBucket := int64(-1)
	for {
		select {
		case <-ctx.Done():
			u.log.Info("live weight updater cancelled")
			u.setState(StateStopped)
			return nil
		default:
		}

		if err := bridge.Step(); err != nil {
			u.log.Error("simulation step failed", zap.Error(err))
			u.fail(err)
			return err
		}
		now, err := bridge.CurrentTime()
		if err != nil {
			u.log.Error("simulation time query failed", zap.Error(err))
			u.fail(err)
			return err
		}
		u.tick(now, bridge.LatencyMs())

		if u.cfg.Horizon > 0 && now > u.cfg.Horizon {
			u.log.Info("simulation horizon reached", zap.Float64("sim_time", now))
			u.setState(StateStopped)
			return nil
		}

		bucket := int64(math.Floor(now / u.cfg.ReconcileInterval))
		if bucket <= lastBucket {
			continue
		}
		lastBucket = bucket
		if err := u.reconcile(bridge, edgeIDs, now); err != nil {
			u.log.Error("reconciliation failed", zap.Error(err))
			u.fail(err)
			return err
		}
		if !running && !time.Now().Before(readyAt) {
			running = true
			u.setState(StateRunning)
			u.log.Info("live weights ready", zap.Float64("sim_time", now))
		}
	}
}

type reading struct {
	edgeID string
	travel float64
	state  incident.State
}

// reconcile runs one pass: simulator I/O first, then every weight change in one critical section.
func (u *Updater) reconcile(bridge Bridge, edgeIDs []string, now float64) error {
	start := time.Now()
	flags := u.graph.IncidentFlags(edgeIDs)

	readings := make([]reading, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		edge, _ := u.graph.Edge(id)
		if flags[id] {
			u.detector.Forget(id)
			if err := bridge.SetSpeedLimit(id, u.cfg.ClampSpeed); err != nil {
				return err
			}
			continue
		}
		if err := bridge.SetSpeedLimit(id, edge.SpeedLimit); err != nil {
			return err
		}
		halting, err := bridge.HaltingCount(id)
		if err != nil {
			return err
		}
		state := u.detector.Observe(id, halting)
		if state == incident.Incident {
			readings = append(readings, reading{edgeID: id, state: state})
			continue
		}
		travel, err := bridge.TravelTime(id)
		if err != nil {
			return err
		}
		if math.IsNaN(travel) || travel < 0 {
			u.log.Debug("ignoring invalid travel time", zap.String("edge", id), zap.Float64("travel_time", travel))
			continue
		}
		readings = append(readings, reading{edgeID: id, travel: travel, state: state})
	}

	var heat []HeatSample
	var promoted [][]string
	err := u.graph.Update(func(tx *roadgraph.Tx) error {
		for _, r := range readings {
			// flagged manually after the read
			if flagged, _ := tx.IsIncident(r.edgeID); flagged {
				continue
			}
			if r.state == incident.Incident {
				affected, err := tx.MarkIncident(r.edgeID, nil)
				if err != nil {
					return err
				}
				promoted = append(promoted, affected)
				continue
			}
			if err := tx.SetLiveWeight(r.edgeID, r.travel); err != nil {
				return err
			}
			base, _ := tx.BaseWeight(r.edgeID)
			current, _ := tx.Weight(r.edgeID)
			ratio := 1.0
			if base > 0 {
				ratio = current / base
			}
			heat = append(heat, HeatSample{EdgeID: r.edgeID, Ratio: ratio})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, affected := range promoted {
		u.history.RecordIncident(affected, "congestion", history.SourceDetector)
		u.metrics.autoIncidents.Inc()
		u.log.Warn("congestion incident detected", zap.Strings("edges", affected), zap.Float64("sim_time", now))
	}

	lights, err := u.readTrafficLights(bridge)
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.heat = heat
	u.lights = lights
	u.status.JammingEdges = u.detector.JammingEdges()
	u.mu.Unlock()

	u.metrics.jammingEdges.Set(float64(u.detector.JammingEdges()))
	u.metrics.reconcileDuration.Observe(time.Since(start).Seconds())
	u.log.Info("heartbeat",
		zap.Float64("sim_time", now),
		zap.Int("edges", len(readings)),
		zap.Int("new_incidents", len(promoted)),
		zap.Int("jamming_edges", u.detector.JammingEdges()))
	return nil
}

func (u *Updater) readTrafficLights(bridge Bridge) ([]TrafficLight, error) {
	ids, err := bridge.TrafficLightIDs()
	if err != nil {
		return nil, err
	}
	lights := make([]TrafficLight, 0, len(ids))
	for _, id := range ids {
		state, err := bridge.SignalState(id)
		if err != nil {
			return nil, err
		}
		lanes, err := bridge.ControlledLanes(id)
		if err != nil {
			return nil, err
		}
		coord, ok := u.lightPosition(lanes)
		if !ok {
			continue
		}
		lights = append(lights, TrafficLight{ID: id, Coordinate: coord, State: SimplifySignal(state)})
	}
	return lights, nil
}

// lightPosition places a signal at the downstream junction of the first controlled lane that
// belongs to a known edge.
func (u *Updater) lightPosition(lanes []string) (datastructure.Coordinate, bool) {
	for _, lane := range lanes {
		edgeID := laneEdgeID(lane)
		edge, ok := u.graph.Edge(edgeID)
		if !ok {
			continue
		}
		if node, ok := u.graph.NodeByID(edge.To); ok {
			return node.Coordinate(), true
		}
	}
	return datastructure.Coordinate{}, false
}

// laneEdgeID strips the "_<index>" suffix SUMO appends to lane ids.
func laneEdgeID(laneID string) string {
	i := strings.LastIndexByte(laneID, '_')
	if i <= 0 {
		return laneID
	}
	return laneID[:i]
}

// SimplifySignal reduces a SUMO red/yellow/green state string to one color: any green phase wins,
// then any yellow, otherwise red.
func SimplifySignal(state string) SignalColor {
	switch {
	case strings.ContainsAny(state, "Gg"):
		return SignalGreen
	case strings.ContainsAny(state, "Yy"):
		return SignalYellow
	default:
		return SignalRed
	}
}

func (u *Updater) tick(now, latency float64) {
	u.metrics.ticks.Inc()
	u.metrics.simTime.Set(now)
	u.metrics.simLatency.Set(latency)
	u.mu.Lock()
	u.status.SimTime = now
	u.status.LatencyMs = latency
	u.status.Ticks++
	u.mu.Unlock()
}

func (u *Updater) setState(s State) {
	u.mu.Lock()
	u.status.State = s
	u.mu.Unlock()
}

func (u *Updater) fail(err error) {
	if errors.Is(err, context.Canceled) {
		u.setState(StateStopped)
		return
	}
	u.mu.Lock()
	u.status.State = StateFailed
	u.status.LastError = err.Error()
	u.mu.Unlock()
}

func (u *Updater) Status() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

// Heatmap returns the samples of the last reconciliation pass.
func (u *Updater) Heatmap() []HeatSample {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]HeatSample, len(u.heat))
	copy(out, u.heat)
	return out
}

func (u *Updater) TrafficLights() []TrafficLight {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]TrafficLight, len(u.lights))
	copy(out, u.lights)
	return out
}
