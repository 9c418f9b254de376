package audio

import (
	"math"
	"sync"
	"time"
)

// pushHold is how long a pushed level overrides the envelope.
const pushHold = 500 * time.Millisecond

// Meter reports the current audio level. It plays back a track envelope
// from the moment Use is called, and accepts live levels from an external
// capture source through Push.
type Meter struct {
	now func() time.Time

	mu       sync.Mutex
	track    string
	env      Envelope
	start    time.Time
	pushed   float64
	pushedAt time.Time
}

// NewMeter creates a silent meter.
func NewMeter() *Meter {
	return &Meter{now: time.Now}
}

// Use starts playing env back under the name track.
func (m *Meter) Use(track string, env Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track, m.env, m.start = track, env, m.now()
}

// Clear stops envelope playback.
func (m *Meter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track, m.env = "", Envelope{}
}

// Track returns the name of the track being played back, if any.
func (m *Meter) Track() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.track
}

// Push records a live level in the range 0-1.
func (m *Meter) Push(level float64) {
	if math.IsNaN(level) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushed = math.Min(math.Max(level, 0), 1)
	m.pushedAt = m.now()
}

// Level returns the most recent pushed level, or the envelope level at the
// current playback position.
func (m *Meter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if !m.pushedAt.IsZero() && now.Sub(m.pushedAt) < pushHold {
		return m.pushed
	}
	return m.env.LevelAt(now.Sub(m.start))
}
