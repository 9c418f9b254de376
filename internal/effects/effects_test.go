package effects

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jota2rz/led-scroller/internal/present"
	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/scene"
	"github.com/jota2rz/led-scroller/internal/store"
)

func TestCyclerStepsInOrder(t *testing.T) {
	var seen []string
	c := NewCycler(scene.ColorSequence{"A", "B", "C"}, 5, func(_ int, color string) {
		seen = append(seen, color)
	})
	assert.Equal(t, "A", c.Color())
	for range 5 {
		c.Step()
	}
	assert.Equal(t, []string{"B", "C", "A", "B", "C"}, seen)
	assert.Equal(t, 2, c.Index())
}

func TestCyclerStartStop(t *testing.T) {
	var mu sync.Mutex
	steps := 0
	c := NewCycler(scene.ColorSequence{"A", "B"}, 10, func(int, string) {
		mu.Lock()
		steps++
		mu.Unlock()
	})
	c.Start(context.Background())
	c.Start(context.Background())
	assert.True(t, c.Running())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return steps >= 2
	}, 2*time.Second, 10*time.Millisecond)

	c.Stop()
	c.Stop()
	assert.False(t, c.Running())

	mu.Lock()
	after := steps
	mu.Unlock()
	time.Sleep(250 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, after, steps, "no steps after Stop")
	mu.Unlock()
}

func TestCyclerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCycler(scene.ColorSequence{"A"}, 10, nil)
	c.Start(ctx)
	cancel()
	c.Stop()
	assert.False(t, c.Running())
}

func TestCyclerMatches(t *testing.T) {
	c := NewCycler(scene.ColorSequence{"A", "B"}, 3, nil)
	assert.True(t, c.Matches(scene.ColorSequence{"A", "B"}, 3))
	assert.False(t, c.Matches(scene.ColorSequence{"A", "B"}, 4))
	assert.False(t, c.Matches(scene.ColorSequence{"A"}, 3))
}

func TestMatrixRainFallsAndWraps(t *testing.T) {
	f := NewField(scene.BackgroundMatrix, 7)
	start := f.Snapshot()
	require.Len(t, start.Particles, 200)
	for _, p := range start.Particles {
		assert.Contains(t, []string{"0", "1"}, p.Char)
		assert.GreaterOrEqual(t, p.Speed, 0.02)
		assert.Less(t, p.Speed, 0.05)
	}

	f.Step(1)
	moved := f.Snapshot()
	for i, p := range moved.Particles {
		before := start.Particles[i]
		if before.Y-before.Speed < -FieldHalfHeight {
			assert.Equal(t, FieldHalfHeight, p.Y)
		} else {
			assert.InDelta(t, before.Y-before.Speed, p.Y, 1e-12)
			assert.Equal(t, before.X, p.X)
		}
	}

	for range 1000 {
		f.Step(1)
	}
	for _, p := range f.Snapshot().Particles {
		assert.GreaterOrEqual(t, p.Y, -FieldHalfHeight)
		assert.LessOrEqual(t, p.Y, FieldHalfHeight)
	}
}

func TestFieldIsReproducible(t *testing.T) {
	a := NewField(scene.BackgroundCyber, 42)
	b := NewField(scene.BackgroundCyber, 42)
	a.Step(3)
	b.Step(3)
	assert.Equal(t, a.Snapshot(), b.Snapshot())

	for range 500 {
		a.Step(2)
	}
	for _, p := range a.Snapshot().Particles {
		assert.GreaterOrEqual(t, p.X, -FieldHalfWidth)
		assert.Less(t, p.X, FieldHalfWidth)
	}
}

func TestSolidFieldIsEmpty(t *testing.T) {
	f := NewField(scene.BackgroundSolid, 1)
	f.Step(1)
	assert.Empty(t, f.Snapshot().Particles)
}

func TestAnimatorFollowsStore(t *testing.T) {
	st := store.New(presets.NewRegistry())
	a := NewAnimator(context.Background(), st, WithFrameRate(60))
	defer a.Close()

	flicker, rgb, particles := a.Running()
	assert.False(t, flicker)
	assert.False(t, rgb)
	assert.False(t, particles)

	st.ToggleFlicker()
	st.ToggleRGBBorder()
	flicker, rgb, _ = a.Running()
	assert.True(t, flicker)
	assert.True(t, rgb)

	st.TogglePlay()
	_, _, particles = a.Running()
	assert.True(t, particles)

	require.NoError(t, st.SetField("background", "solid"))
	_, _, particles = a.Running()
	assert.False(t, particles)

	st.ToggleFlicker()
	flicker, _, _ = a.Running()
	assert.False(t, flicker)
}

func TestAnimatorRestartsCyclerOnSpeedChange(t *testing.T) {
	st := store.New(presets.NewRegistry())
	a := NewAnimator(context.Background(), st)
	defer a.Close()

	st.ToggleRGBBorder()
	a.mu.Lock()
	first := a.rgb
	a.mu.Unlock()

	require.NoError(t, st.SetField("rgbBorderSpeed", 9))
	a.mu.Lock()
	second := a.rgb
	a.mu.Unlock()

	assert.NotSame(t, first, second)
	assert.False(t, first.Running())
	assert.True(t, second.Running())
	assert.True(t, second.Matches(st.Get().RGBBorderColors, 9))
}

func TestAnimatorClockOnlyRunsWhilePlaying(t *testing.T) {
	st := store.New(presets.NewRegistry())
	now := time.Unix(1000, 0)
	a := NewAnimator(context.Background(), st, func(a *Animator) {
		a.now = func() time.Time { return now }
	})
	defer a.Close()

	now = now.Add(5 * time.Second)
	assert.Zero(t, a.Clock().Elapsed)

	st.TogglePlay()
	now = now.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, a.Clock().Elapsed)

	st.TogglePlay()
	now = now.Add(10 * time.Second)
	assert.Equal(t, 3*time.Second, a.Clock().Elapsed)

	require.NoError(t, st.SetField("speed", 9))
	assert.Zero(t, a.Clock().Elapsed)
}

type fixedLevel float64

func (l fixedLevel) Level() float64 { return float64(l) }

func TestAnimatorFrameUsesLevel(t *testing.T) {
	st := store.New(presets.NewRegistry())
	require.NoError(t, st.SetField("audioSource", "file"))
	a := NewAnimator(context.Background(), st, WithLevel(fixedLevel(0.5)))
	defer a.Close()

	f := a.Frame()
	assert.True(t, f.Audio.Active)
	assert.InDelta(t, 0.25, f.Audio.Amount, 1e-9)
}

func TestAnimatorNeverWritesToStore(t *testing.T) {
	st := store.New(presets.NewRegistry())
	st.ToggleFlicker()
	st.TogglePlay()
	before := st.Get()

	a := NewAnimator(context.Background(), st, WithFrameRate(60))
	time.Sleep(300 * time.Millisecond)
	a.Close()

	assert.Equal(t, before, st.Get())
	flicker, rgb, particles := a.Running()
	assert.False(t, flicker || rgb || particles)
}

func TestAnimatorPublishesAudioFramesOnlyWhilePlaying(t *testing.T) {
	st := store.New(presets.NewRegistry())
	var mu sync.Mutex
	var frames []present.Frame
	a := NewAnimator(context.Background(), st,
		WithLevel(fixedLevel(0.5)),
		WithFrameHandler(func(f present.Frame) {
			mu.Lock()
			frames = append(frames, f)
			mu.Unlock()
		}),
	)
	defer a.Close()
	assert.False(t, a.Reacting())

	require.NoError(t, st.SetField("audioSource", "file"))
	assert.False(t, a.Reacting(), "paused scenes do not react")

	st.TogglePlay()
	assert.True(t, a.Reacting())
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	first := frames[0]
	mu.Unlock()
	assert.True(t, first.Audio.Active)
	assert.InDelta(t, 0.25, first.Audio.Amount, 1e-9)

	require.NoError(t, st.SetField("audioSource", "none"))
	assert.False(t, a.Reacting())

	require.NoError(t, st.SetField("audioSource", "microphone"))
	assert.True(t, a.Reacting())
	st.TogglePlay()
	assert.False(t, a.Reacting())
}

// A frame handler that reads the store while a mutation retires its cycler
// must not wedge the store.
func TestAnimatorStepRacingMutationsDoesNotDeadlock(t *testing.T) {
	st := store.New(presets.NewRegistry())
	require.NoError(t, st.SetField("flickerSpeed", 10))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	a := NewAnimator(context.Background(), st, WithFrameHandler(func(present.Frame) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
		}
		_ = st.Get()
	}))
	defer a.Close()

	st.ToggleFlicker()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("flicker never stepped")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			st.ToggleFlicker()
		}()
		time.Sleep(50 * time.Millisecond)
		go func() {
			defer wg.Done()
			_ = st.SetField("text", "RACE")
		}()
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()
		_ = st.Get()
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("store blocked while a cycler step was in flight")
	}
	assert.Equal(t, "RACE", st.Get().Text)
	assert.False(t, st.Get().FlickerEnabled)
}
