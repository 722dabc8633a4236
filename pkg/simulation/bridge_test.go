package simulation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	time     float64
	stepErr  error
	speeds   map[string]float64
	closed   int
	tlStates map[string]string
}

func (f *fakeSession) SimulationStep(float64) error {
	if f.stepErr != nil {
		return f.stepErr
	}
	f.time++
	return nil
}
func (f *fakeSession) SimulationTime() (float64, error) { return f.time, nil }
func (f *fakeSession) EdgeIDList() ([]string, error) { return []string{"a", "-a"}, nil }
func (f *fakeSession) EdgeTravelTime(string) (float64, error) { return 4.5, nil }
func (f *fakeSession) EdgeHaltingNumber(string) (int, error) { return 3, nil }
func (f *fakeSession) TrafficLightIDList() ([]string, error) { return []string{"J"}, nil }
func (f *fakeSession) TrafficLightControlledLanes(string) ([]string, error) {
	return []string{"a_0"}, nil
}
func (f *fakeSession) TrafficLightState(id string) (string, error) { return f.tlStates[id], nil }
func (f *fakeSession) SetEdgeMaxSpeed(id string, v float64) error {
	f.speeds[id] = v
	return nil
}
func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

func newFake() *fakeSession {
	return &fakeSession{speeds: map[string]float64{}, tlStates: map[string]string{"J": "Gr"}}
}

func TestBridgeDelegates(t *testing.T) {
	s := newFake()
	b := NewBridge(s, zap.NewNop())

	require.NoError(t, b.Step())
	now, err := b.CurrentTime()
	require.NoError(t, err)
	assert.Equal(t, 1.0, now)

	ids, err := b.EdgeIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "-a"}, ids)

	tt, err := b.TravelTime("a")
	require.NoError(t, err)
	assert.Equal(t, 4.5, tt)

	n, err := b.HaltingCount("a")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, b.SetSpeedLimit("a", 0.1))
	assert.Equal(t, 0.1, s.speeds["a"])

	state, err := b.SignalState("J")
	require.NoError(t, err)
	assert.Equal(t, "Gr", state)
}

func TestBridgeStepFailureIsSessionLost(t *testing.T) {
	s := newFake()
	s.stepErr = errors.New("connection reset")
	b := NewBridge(s, zap.NewNop())

	err := b.Step()
	assert.ErrorIs(t, err, ErrSimulatorSessionLost)
}

func TestBridgeClose(t *testing.T) {
	s := newFake()
	b := NewBridge(s, zap.NewNop())

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, s.closed)

	assert.ErrorIs(t, b.Step(), ErrSimulatorSessionLost)
	_, err := b.CurrentTime()
	assert.ErrorIs(t, err, ErrSimulatorSessionLost)
}

func TestBridgeLatencyEMA(t *testing.T) {
	s := newFake()
	b := NewBridge(s, zap.NewNop())

	// each time query takes the next duration from the list
	durations := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	base := time.Unix(0, 0)
	calls := 0
	b.now = func() time.Time {
		i := calls / 2
		calls++
		if calls%2 == 1 {
			return base
		}
		return base.Add(durations[i])
	}

	_, err := b.CurrentTime()
	require.NoError(t, err)
	assert.InDelta(t, 10.0, b.LatencyMs(), 1e-9)

	_, err = b.CurrentTime()
	require.NoError(t, err)
	assert.InDelta(t, 0.1*20+0.9*10, b.LatencyMs(), 1e-9)
}
