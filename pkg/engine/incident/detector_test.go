package incident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectorPromotesSustainedCongestion(t *testing.T) {
	d := NewDetector(DefaultConfig())

	for i := 0; i < 5; i++ {
		assert.Equal(t, Jamming, d.Observe("e1", 9))
	}
	assert.Equal(t, 50.0, d.JamDuration("e1"))
	assert.Equal(t, Incident, d.Observe("e1", 9))
	assert.Equal(t, 0, d.JammingEdges())
}

func TestDetectorResetsBelowThreshold(t *testing.T) {
	d := NewDetector(DefaultConfig())

	for i := 0; i < 5; i++ {
		d.Observe("e1", 20)
	}
	assert.Equal(t, Normal, d.Observe("e1", 8))
	assert.Equal(t, 0.0, d.JamDuration("e1"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, Jamming, d.Observe("e1", 20))
	}
	assert.Equal(t, Incident, d.Observe("e1", 20))
}

func TestDetectorIgnoresInternalEdges(t *testing.T) {
	d := NewDetector(Config{HaltingThreshold: 0, DurationThreshold: 10, Interval: 10})

	assert.Equal(t, Normal, d.Observe(":J1_0", 100))
	assert.Equal(t, 0, d.JammingEdges())
	assert.Equal(t, Incident, d.Observe("e1", 1))
}

func TestDetectorTracksEdgesIndependently(t *testing.T) {
	d := NewDetector(DefaultConfig())

	d.Observe("e1", 10)
	d.Observe("e2", 10)
	d.Observe("e2", 10)
	assert.Equal(t, 2, d.JammingEdges())
	assert.Equal(t, 10.0, d.JamDuration("e1"))
	assert.Equal(t, 20.0, d.JamDuration("e2"))

	d.Forget("e2")
	assert.Equal(t, 1, d.JammingEdges())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "jamming", Jamming.String())
	assert.Equal(t, "incident", Incident.String())
}
