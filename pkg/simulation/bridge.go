package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"pathsync/pkg/traci"

	"go.uber.org/zap"
)

var (
	ErrSimulatorUnavailable = errors.New("simulator unavailable")
	ErrSimulatorSessionLost = errors.New("simulator session lost")
)

const latencyAlpha = 0.1

// Session is the subset of the TraCI client the bridge drives.
type Session interface {
	SimulationStep(targetTime float64) error
	SimulationTime() (float64, error)
	EdgeIDList() ([]string, error)
	EdgeTravelTime(edgeID string) (float64, error)
	EdgeHaltingNumber(edgeID string) (int, error)
	SetEdgeMaxSpeed(edgeID string, speed float64) error
	TrafficLightIDList() ([]string, error)
	TrafficLightControlledLanes(tlsID string) ([]string, error)
	TrafficLightState(tlsID string) (string, error)
	Close() error
}

type Config struct {
	Binary     string
	ConfigFile string
	Port       int
	// Addr connects to an already running SUMO instead of launching one.
	Addr       string
	End        float64
	ExtraArgs  []string
	Retries    int
	RetryDelay time.Duration
}

// Bridge owns one simulator session. It is driven by a single goroutine; only LatencyMs may be
// called from others.
type Bridge struct {
	session Session
	proc    *traci.Process
	log     *zap.Logger

	closed     bool
	hasLatency bool
	latency    atomic.Uint64
	now        func() time.Time
}

// Open launches SUMO (or dials cfg.Addr) and returns a bridge over the new session.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Bridge, error) {
	if cfg.Addr != "" {
		client, err := traci.DialRetry(ctx, cfg.Addr, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSimulatorUnavailable, err)
		}
		return NewBridge(client, log), nil
	}

	proc, err := traci.Launch(ctx, traci.LaunchConfig{
		Binary:     cfg.Binary,
		ConfigFile: cfg.ConfigFile,
		Port:       cfg.Port,
		End:        cfg.End,
		ExtraArgs:  cfg.ExtraArgs,
		Retries:    cfg.Retries,
		RetryDelay: cfg.RetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSimulatorUnavailable, err)
	}
	b := NewBridge(proc.Client, log)
	b.proc = proc
	if api, version, err := proc.Client.Version(); err == nil {
		log.Info("connected to simulator", zap.Int("api", api), zap.String("version", version))
	}
	return b, nil
}

func NewBridge(session Session, log *zap.Logger) *Bridge {
	return &Bridge{session: session, log: log, now: time.Now}
}

func (b *Bridge) lost(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSimulatorSessionLost, op, err)
}

func (b *Bridge) check() error {
	if b.closed {
		return fmt.Errorf("%w: session closed", ErrSimulatorSessionLost)
	}
	return nil
}

// Step advances the simulation by one tick.
func (b *Bridge) Step() error {
	if err := b.check(); err != nil {
		return err
	}
	if err := b.session.SimulationStep(0); err != nil {
		return b.lost("step", err)
	}
	return nil
}

// CurrentTime returns the simulated time in seconds and folds the query's round trip into the
// latency average.
func (b *Bridge) CurrentTime() (float64, error) {
	if err := b.check(); err != nil {
		return 0, err
	}
	start := b.now()
	t, err := b.session.SimulationTime()
	if err != nil {
		return 0, b.lost("time", err)
	}
	b.observeLatency(float64(b.now().Sub(start).Microseconds()) / 1000)
	return t, nil
}

func (b *Bridge) observeLatency(ms float64) {
	avg := ms
	if b.hasLatency {
		avg = latencyAlpha*ms + (1-latencyAlpha)*b.LatencyMs()
	}
	b.hasLatency = true
	b.latency.Store(math.Float64bits(avg))
}

// LatencyMs is the smoothed round-trip time of the simulator time query.
func (b *Bridge) LatencyMs() float64 {
	return math.Float64frombits(b.latency.Load())
}

func (b *Bridge) EdgeIDs() ([]string, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	ids, err := b.session.EdgeIDList()
	if err != nil {
		return nil, b.lost("edge list", err)
	}
	return ids, nil
}

func (b *Bridge) TravelTime(edgeID string) (float64, error) {
	if err := b.check(); err != nil {
		return 0, err
	}
	tt, err := b.session.EdgeTravelTime(edgeID)
	if err != nil {
		return 0, b.lost("travel time "+edgeID, err)
	}
	return tt, nil
}

func (b *Bridge) HaltingCount(edgeID string) (int, error) {
	if err := b.check(); err != nil {
		return 0, err
	}
	n, err := b.session.EdgeHaltingNumber(edgeID)
	if err != nil {
		return 0, b.lost("halting number "+edgeID, err)
	}
	return n, nil
}

func (b *Bridge) SetSpeedLimit(edgeID string, speed float64) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := b.session.SetEdgeMaxSpeed(edgeID, speed); err != nil {
		return b.lost("set max speed "+edgeID, err)
	}
	return nil
}

func (b *Bridge) TrafficLightIDs() ([]string, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	ids, err := b.session.TrafficLightIDList()
	if err != nil {
		return nil, b.lost("traffic light list", err)
	}
	return ids, nil
}

func (b *Bridge) ControlledLanes(tlsID string) ([]string, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	lanes, err := b.session.TrafficLightControlledLanes(tlsID)
	if err != nil {
		return nil, b.lost("controlled lanes "+tlsID, err)
	}
	return lanes, nil
}

func (b *Bridge) SignalState(tlsID string) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	state, err := b.session.TrafficLightState(tlsID)
	if err != nil {
		return "", b.lost("signal state "+tlsID, err)
	}
	return state, nil
}

// Close ends the session. Closing twice is a no-op.
func (b *Bridge) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.log.Info("closing simulator session")
	if b.proc != nil {
		return b.proc.Close()
	}
	return b.session.Close()
}
