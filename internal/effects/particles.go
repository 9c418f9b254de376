package effects

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/jota2rz/led-scroller/internal/scene"
)

// Field bounds in scene units. The preview maps them onto the display box.
const (
	FieldHalfWidth  = 4.0
	FieldHalfHeight = 5.0
)

var particleCounts = map[scene.BackgroundKind]int{
	scene.BackgroundMatrix:  200,
	scene.BackgroundStars:   120,
	scene.BackgroundCircuit: 60,
	scene.BackgroundCyber:   80,
}

// Particle is one element of a particle background.
type Particle struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Speed float64 `json:"speed"` // units per frame
	Angle float64 `json:"angle,omitempty"`
	Char  string  `json:"char,omitempty"`
}

// Snapshot is a copy of the field at one instant.
type Snapshot struct {
	Kind      scene.BackgroundKind `json:"kind"`
	Frame     uint64               `json:"frame"`
	Particles []Particle           `json:"particles"`
}

// Field animates the particles of one background kind.
type Field struct {
	mu    sync.Mutex
	rng   *rand.Rand
	kind  scene.BackgroundKind
	frame uint64
	items []Particle
}

// NewField creates a field seeded for reproducible motion.
func NewField(kind scene.BackgroundKind, seed uint64) *Field {
	f := &Field{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	f.Reset(kind)
	return f
}

// Kind returns the background kind being animated.
func (f *Field) Kind() scene.BackgroundKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kind
}

// Reset repopulates the field for kind. A solid background has no particles.
func (f *Field) Reset(kind scene.BackgroundKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kind = kind
	f.frame = 0
	n := particleCounts[kind]
	f.items = make([]Particle, n)
	for i := range f.items {
		f.items[i] = f.spawn()
	}
}

func (f *Field) spawn() Particle {
	p := Particle{
		X: f.rng.Float64()*2*FieldHalfWidth - FieldHalfWidth,
		Y: f.rng.Float64()*2*FieldHalfHeight - FieldHalfHeight,
	}
	switch f.kind {
	case scene.BackgroundMatrix:
		p.Speed = 0.02 + f.rng.Float64()*0.03
		p.Char = "0"
		if f.rng.Float64() > 0.5 {
			p.Char = "1"
		}
	case scene.BackgroundStars:
		p.Speed = 0.005 + f.rng.Float64()*0.015
	default:
		p.Speed = 0.01 + f.rng.Float64()*0.02
		// Circuit traces run on right angles, cyber particles drift freely.
		if f.kind == scene.BackgroundCircuit {
			p.Angle = float64(f.rng.IntN(4)) * math.Pi / 2
		} else {
			p.Angle = f.rng.Float64() * 2 * math.Pi
		}
	}
	return p
}

// Step advances the field by frames (fractional frames allowed).
func (f *Field) Step(frames float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame++
	for i := range f.items {
		p := &f.items[i]
		switch f.kind {
		case scene.BackgroundMatrix:
			p.Y -= p.Speed * frames
			if p.Y < -FieldHalfHeight {
				p.Y = FieldHalfHeight
				p.X = f.rng.Float64()*2*FieldHalfWidth - FieldHalfWidth
			}
		case scene.BackgroundStars:
			p.X -= p.Speed * frames
			if p.X < -FieldHalfWidth {
				p.X = FieldHalfWidth
				p.Y = f.rng.Float64()*2*FieldHalfHeight - FieldHalfHeight
			}
		default:
			p.X = wrap(p.X+math.Cos(p.Angle)*p.Speed*frames, FieldHalfWidth)
			p.Y = wrap(p.Y+math.Sin(p.Angle)*p.Speed*frames, FieldHalfHeight)
		}
	}
}

// Snapshot copies the current particle positions.
func (f *Field) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{Kind: f.kind, Frame: f.frame, Particles: slices.Clone(f.items)}
}

// wrap folds v into [-half, half).
func wrap(v, half float64) float64 {
	span := 2 * half
	v = math.Mod(v+half, span)
	if v < 0 {
		v += span
	}
	if v >= span {
		v = 0
	}
	return v - half
}
