package incident

import "pathsync/pkg/datastructure"

type State int

const (
	Normal State = iota
	Jamming
	Incident
)

func (s State) String() string {
	switch s {
	case Jamming:
		return "jamming"
	case Incident:
		return "incident"
	default:
		return "normal"
	}
}

type Config struct {
	// HaltingThreshold is the number of halted vehicles above which an edge counts as jammed.
	HaltingThreshold int
	// DurationThreshold is the accumulated jam time (simulated seconds) that promotes an incident.
	DurationThreshold float64
	// Interval is the simulated time between two checks of the same edge.
	Interval float64
}

func DefaultConfig() Config {
	return Config{
		HaltingThreshold:  8,
		DurationThreshold: 60,
		Interval:          10,
	}
}

// Detector tracks how long each edge has been congested. It is not safe for concurrent use; the
// updater goroutine owns it.
type Detector struct {
	cfg Config
	jam map[string]float64
}

func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg, jam: make(map[string]float64)}
}

// Observe folds one halting count for edgeID into the tracker and returns the edge's new state.
// Incident is returned once; the tracker entry is dropped so a manually cleared edge starts over
// from Normal.
func (d *Detector) Observe(edgeID string, halting int) State {
	if datastructure.IsInternalEdgeID(edgeID) {
		return Normal
	}
	if halting <= d.cfg.HaltingThreshold {
		delete(d.jam, edgeID)
		return Normal
	}
	d.jam[edgeID] += d.cfg.Interval
	if d.jam[edgeID] >= d.cfg.DurationThreshold {
		delete(d.jam, edgeID)
		return Incident
	}
	return Jamming
}

// Forget drops the tracker entry of edgeID, e.g. when the edge was flagged by other means.
func (d *Detector) Forget(edgeID string) {
	delete(d.jam, edgeID)
}

func (d *Detector) JamDuration(edgeID string) float64 {
	return d.jam[edgeID]
}

// JammingEdges is the number of edges currently accumulating congestion.
func (d *Detector) JammingEdges() int {
	return len(d.jam)
}
