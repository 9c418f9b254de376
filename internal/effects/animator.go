package effects

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jota2rz/led-scroller/internal/present"
	"github.com/jota2rz/led-scroller/internal/scene"
	"github.com/jota2rz/led-scroller/internal/store"
)

// Source is the read side of the store.
type Source interface {
	Get() scene.Config
	Subscribe(fn func(store.Change)) (cancel func())
}

// LevelSource reports the current audio level in the range 0-1.
type LevelSource interface {
	Level() float64
}

// Option configures an Animator.
type Option func(*Animator)

// WithFrameRate sets the particle frame rate.
func WithFrameRate(fps int) Option {
	return func(a *Animator) {
		if fps > 0 {
			a.fps = fps
		}
	}
}

// WithLevel feeds audio levels into the clock.
func WithLevel(l LevelSource) Option {
	return func(a *Animator) { a.level = l }
}

// WithFrameHandler is called with a freshly derived frame after each
// flicker or RGB color step and on every audio tick. It runs on the effect's
// goroutine and receives the configuration the animator last reconciled, so
// it never needs to read the store.
func WithFrameHandler(fn func(present.Frame)) Option {
	return func(a *Animator) { a.onFrame = fn }
}

// WithSeed seeds the particle field.
func WithSeed(seed uint64) Option {
	return func(a *Animator) { a.seed = seed }
}

// audioTick is the interval at which audio-reactive frames are published.
const audioTick = 50 * time.Millisecond

// Animator keeps the recurring effects in step with the live configuration.
// It starts, restarts and stops the flicker and RGB cyclers when their flags,
// speeds or colors change, accumulates the scroll clock only while playing,
// runs the particle loop only while playing a particle background and
// publishes audio-reactive frames only while playing with an audio source.
//
// reconcile runs inside store observers, so it never waits for an effect
// goroutine to exit: retired effects are cancelled and reaped in the
// background. Close waits for all of them.
type Animator struct {
	ctx    context.Context
	cancel context.CancelFunc
	src    Source
	unsub  func()

	fps     int
	seed    uint64
	level   LevelSource
	onFrame func(present.Frame)
	now     func() time.Time

	reconcileMu sync.Mutex
	reaping     sync.WaitGroup

	mu        sync.Mutex
	cfg       scene.Config // last reconciled configuration
	flicker   *Cycler
	rgb       *Cycler
	playing   bool
	since     time.Time
	elapsed   time.Duration
	field     *Field
	particles *loop
	audio     *loop
	lastSpeed int
	lastDir   scene.Direction
}

// loop is a cancellable ticker goroutine.
type loop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startLoop(parent context.Context, interval time.Duration, tick func()) *loop {
	ctx, cancel := context.WithCancel(parent)
	l := &loop{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(l.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
	return l
}

func (l *loop) stop() {
	l.cancel()
	<-l.done
}

// NewAnimator subscribes to src and brings the effects in line with its
// current configuration. Close releases everything.
func NewAnimator(ctx context.Context, src Source, opts ...Option) *Animator {
	ctx, cancel := context.WithCancel(ctx)
	a := &Animator{
		ctx:    ctx,
		cancel: cancel,
		src:    src,
		fps:    30,
		seed:   1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	cfg := src.Get()
	a.field = NewField(cfg.Background, a.seed)
	a.lastSpeed, a.lastDir = cfg.Speed, cfg.Direction
	a.reconcile(cfg)
	a.unsub = src.Subscribe(func(ch store.Change) {
		if len(ch.Fields) > 0 {
			a.reconcile(ch.Config)
		}
	})
	return a
}

// Clock returns the current temporal input for present.Derive.
func (a *Animator) Clock() present.Clock {
	a.mu.Lock()
	clk := present.Clock{Elapsed: a.elapsed}
	if a.playing {
		clk.Elapsed += a.now().Sub(a.since)
	}
	flicker, rgb := a.flicker, a.rgb
	a.mu.Unlock()

	if flicker != nil {
		clk.FlickerIndex = flicker.Index()
	}
	if rgb != nil {
		clk.RGBIndex = rgb.Index()
	}
	if a.level != nil {
		clk.Level = a.level.Level()
	}
	return clk
}

// Frame derives the frame for the live configuration at this instant.
func (a *Animator) Frame() present.Frame {
	return present.Derive(a.src.Get(), a.Clock())
}

// Particles returns a snapshot of the particle field.
func (a *Animator) Particles() Snapshot {
	return a.field.Snapshot()
}

// Running reports which recurring effects are active.
func (a *Animator) Running() (flicker, rgb, particles bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flicker != nil, a.rgb != nil, a.particles != nil
}

// Reacting reports whether audio-reactive frames are being published.
func (a *Animator) Reacting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.audio != nil
}

// Close stops every effect, waits for their goroutines and unsubscribes
// from the source.
func (a *Animator) Close() {
	if a.unsub != nil {
		a.unsub()
	}
	a.reconcileMu.Lock()
	defer a.reconcileMu.Unlock()

	a.mu.Lock()
	var stops []func()
	for _, c := range []*Cycler{a.flicker, a.rgb} {
		if c != nil {
			stops = append(stops, c.Stop)
		}
	}
	for _, l := range []*loop{a.particles, a.audio} {
		if l != nil {
			stops = append(stops, l.stop)
		}
	}
	a.flicker, a.rgb, a.particles, a.audio = nil, nil, nil, nil
	a.mu.Unlock()

	a.cancel()
	for _, stop := range stops {
		stop()
	}
	a.reaping.Wait()
}

func (a *Animator) reconcile(cfg scene.Config) {
	a.reconcileMu.Lock()
	defer a.reconcileMu.Unlock()
	if a.ctx.Err() != nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg.Clone()
	a.flicker = a.syncCycler(a.flicker, cfg.FlickerEnabled, cfg.FlickerColors, cfg.FlickerSpeed)
	a.rgb = a.syncCycler(a.rgb, cfg.RGBBorderEnabled, cfg.RGBBorderColors, cfg.RGBBorderSpeed)

	now := a.now()
	switch {
	case cfg.IsPlaying && !a.playing:
		a.playing, a.since = true, now
	case !cfg.IsPlaying && a.playing:
		a.elapsed += now.Sub(a.since)
		a.playing = false
	}
	// A new scroll period restarts the scroll from the beginning.
	if cfg.Speed != a.lastSpeed || cfg.Direction != a.lastDir {
		a.elapsed, a.since = 0, now
		a.lastSpeed, a.lastDir = cfg.Speed, cfg.Direction
	}

	if a.field.Kind() != cfg.Background {
		a.field.Reset(cfg.Background)
	}
	wantParticles := cfg.IsPlaying && cfg.Background.HasParticles()
	switch {
	case wantParticles && a.particles == nil:
		field := a.field
		frames := 60 / float64(a.fps)
		a.particles = startLoop(a.ctx, time.Second/time.Duration(a.fps), func() { field.Step(frames) })
	case !wantParticles && a.particles != nil:
		a.particles.cancel()
		a.retire(a.particles.stop)
		a.particles = nil
	}

	wantAudio := cfg.IsPlaying && cfg.AudioSource != scene.AudioNone && cfg.AudioSource != ""
	switch {
	case wantAudio && a.audio == nil:
		a.audio = startLoop(a.ctx, audioTick, a.publish)
		slog.Debug("audio reaction started", "source", cfg.AudioSource)
	case !wantAudio && a.audio != nil:
		a.audio.cancel()
		a.retire(a.audio.stop)
		a.audio = nil
	}
}

// retire reaps a cancelled effect in the background. It must be called with
// mu held.
func (a *Animator) retire(stop func()) {
	a.reaping.Add(1)
	go func() {
		defer a.reaping.Done()
		stop()
	}()
}

// syncCycler must be called with mu held.
func (a *Animator) syncCycler(cur *Cycler, enabled bool, colors scene.ColorSequence, speed int) *Cycler {
	if cur != nil && (!enabled || !cur.Matches(colors, speed)) {
		cur.Cancel()
		a.retire(cur.Stop)
		cur = nil
	}
	if enabled && cur == nil && len(colors) > 0 {
		cur = NewCycler(colors, speed, a.stepped)
		cur.Start(a.ctx)
		slog.Debug("color cycler started", "colors", len(colors), "speed", speed)
	}
	return cur
}

func (a *Animator) stepped(int, string) { a.publish() }

// publish derives a frame from the last reconciled configuration.
func (a *Animator) publish() {
	if a.onFrame == nil {
		return
	}
	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()
	a.onFrame(present.Derive(cfg, a.Clock()))
}
