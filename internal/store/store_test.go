package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/scene"
)

type memRepo struct {
	mu      sync.Mutex
	saved   map[string]scene.Config
	saveErr error
}

func newMemRepo() *memRepo { return &memRepo{saved: make(map[string]scene.Config)} }

func (r *memRepo) List(context.Context) (map[string]scene.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]scene.Config, len(r.saved))
	for k, v := range r.saved {
		out[k] = v.Clone()
	}
	return out, nil
}

func (r *memRepo) Save(_ context.Context, name string, cfg scene.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[name] = cfg.Clone()
	return nil
}

func (r *memRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.saved, name)
	return nil
}

func record(s *Store) *[]Change {
	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })
	return &changes
}

func TestNewStartsFromDefault(t *testing.T) {
	s := New(presets.NewRegistry())
	assert.Equal(t, presets.Default(), s.Get())
}

func TestLoadMatrixPreset(t *testing.T) {
	s := New(presets.NewRegistry())
	changes := record(s)

	assert.Equal(t, "matrix", s.LoadPreset("matrix"))
	cfg := s.Get()
	assert.Equal(t, "MATRIX", cfg.Text)
	assert.Equal(t, "#00ff41", cfg.Color)
	assert.Equal(t, scene.BackgroundMatrix, cfg.Background)
	assert.True(t, cfg.RGBBorderEnabled)
	assert.Equal(t, scene.ColorSequence{"#00ff41", "#00b341", "#008241"}, cfg.RGBBorderColors)
	assert.Equal(t, presets.Default().Speed, cfg.Speed)

	require.Len(t, *changes, 1)
	assert.Equal(t, "matrix", (*changes)[0].Preset)
}

func TestLoadUnknownPresetFallsBackToDefault(t *testing.T) {
	s := New(presets.NewRegistry())
	s.LoadPreset("neon")

	assert.Equal(t, presets.DefaultName, s.LoadPreset("doesNotExist"))
	assert.Equal(t, presets.Default(), s.Get())
}

func TestResetMatchesLoadingDefaultWhenShadowed(t *testing.T) {
	s := New(presets.NewRegistry())
	require.NoError(t, s.SetField("text", "MINE"))
	require.NoError(t, s.SavePreset(context.Background(), presets.DefaultName))
	changes := record(s)

	require.NoError(t, s.SetField("text", "OTHER"))
	s.ResetToDefault()
	reset := s.Get()
	assert.Equal(t, "MINE", reset.Text)

	require.NoError(t, s.SetField("text", "OTHER"))
	s.LoadPreset(presets.DefaultName)
	assert.Equal(t, reset, s.Get())

	require.NoError(t, s.SetField("text", "OTHER"))
	s.LoadPreset("doesNotExist")
	assert.Equal(t, reset, s.Get())

	require.Len(t, *changes, 6)
	assert.Equal(t, presets.DefaultName, (*changes)[1].Preset)
}

func TestSaveThenLoadRestoresSnapshot(t *testing.T) {
	s := New(presets.NewRegistry())
	require.NoError(t, s.SetField("text", "SHOW TIME"))
	require.NoError(t, s.SetField("speed", 12))
	require.NoError(t, s.AddColor(scene.FieldFlickerColors, "#123456"))
	snapshot := s.Get()

	require.NoError(t, s.SavePreset(context.Background(), "  mine "))

	s.ResetToDefault()
	require.NoError(t, s.SetField("color", "#ffffff"))
	s.LoadPreset("mine")

	assert.Equal(t, snapshot, s.Get())
}

func TestSavedPresetIsIsolatedFromLaterEdits(t *testing.T) {
	s := New(presets.NewRegistry())
	require.NoError(t, s.SavePreset(context.Background(), "mine"))
	require.NoError(t, s.SetColor(scene.FieldRGBBorderColors, 0, "#abcdef"))

	s.LoadPreset("mine")
	assert.Equal(t, "#ff0000", s.Get().RGBBorderColors[0])
}

func TestSavePresetRejectsBlankName(t *testing.T) {
	s := New(presets.NewRegistry())
	assert.ErrorIs(t, s.SavePreset(context.Background(), "   "), presets.ErrEmptyName)
}

func TestTogglePlayTwiceIsIdentity(t *testing.T) {
	s := New(presets.NewRegistry())
	before := s.Get()
	changes := record(s)

	s.TogglePlay()
	assert.True(t, s.Get().IsPlaying)
	s.TogglePlay()

	assert.Equal(t, before, s.Get())
	require.Len(t, *changes, 2)
	for _, c := range *changes {
		assert.Equal(t, []string{"isPlaying"}, c.Fields)
	}
}

func TestRemoveColorKeepsOne(t *testing.T) {
	s := New(presets.NewRegistry())
	changes := record(s)

	for range 3 {
		require.NoError(t, s.RemoveColor(scene.FieldFlickerColors, 0))
	}
	assert.Equal(t, scene.ColorSequence{"#0000ff"}, s.Get().FlickerColors)
	assert.Len(t, *changes, 2, "removing the last color must not notify")
}

func TestColorEditsRejectUnknownSequence(t *testing.T) {
	s := New(presets.NewRegistry())
	assert.ErrorIs(t, s.AddColor("bgColor", "#fff"), ErrUnknownSequence)
	assert.ErrorIs(t, s.RemoveColor("nope", 0), ErrUnknownSequence)
}

func TestSetFieldNotifiesOnlyThatField(t *testing.T) {
	s := New(presets.NewRegistry())
	changes := record(s)

	require.NoError(t, s.SetField("background", "stars"))
	require.NoError(t, s.SetField("background", "stars"))
	assert.Error(t, s.SetField("background", "lava"))

	require.Len(t, *changes, 1)
	assert.Equal(t, []string{"background"}, (*changes)[0].Fields)
	assert.Equal(t, scene.BackgroundStars, (*changes)[0].Config.Background)
}

func TestPairedUpdatesAndToggles(t *testing.T) {
	s := New(presets.NewRegistry())
	changes := record(s)

	s.SetOutline("#ff00ff", 4)
	s.SetShadow("#00ffff", 25)
	s.ToggleFlicker()
	s.ToggleRGBBorder()
	s.ToggleCornerLights()

	cfg := s.Get()
	assert.Equal(t, "#ff00ff", cfg.OutlineColor)
	assert.Equal(t, 4, cfg.OutlineWidth)
	assert.Equal(t, 25, cfg.ShadowBlur)
	assert.True(t, cfg.FlickerEnabled)
	assert.True(t, cfg.RGBBorderEnabled)
	assert.False(t, cfg.CornerLights)
	require.Len(t, *changes, 5)
	assert.Equal(t, []string{"outlineColor", "outlineWidth"}, (*changes)[0].Fields)
}

func TestDeletePreset(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := New(presets.NewRegistry(), WithRepository(repo))

	assert.ErrorIs(t, s.DeletePreset(ctx, "neon"), presets.ErrBuiltinProtected)
	assert.ErrorIs(t, s.DeletePreset(ctx, "ghost"), presets.ErrNotFound)

	require.NoError(t, s.SetField("text", "MY NEON"))
	require.NoError(t, s.SavePreset(ctx, "neon"))
	s.LoadPreset("neon")
	assert.Equal(t, "MY NEON", s.Get().Text)

	require.NoError(t, s.DeletePreset(ctx, "neon"))
	assert.NotContains(t, repo.saved, "neon")
	s.LoadPreset("neon")
	assert.Equal(t, "NEON LIGHTS", s.Get().Text)
}

func TestPersistFailureKeepsInMemoryPreset(t *testing.T) {
	repo := newMemRepo()
	repo.saveErr = errors.New("disk full")
	s := New(presets.NewRegistry(), WithRepository(repo))
	require.NoError(t, s.SetField("text", "KEEP"))

	err := s.SavePreset(context.Background(), "kept")
	assert.ErrorIs(t, err, repo.saveErr)

	s.ResetToDefault()
	s.LoadPreset("kept")
	assert.Equal(t, "KEEP", s.Get().Text)
}

func TestRestoreLoadsStoredPresets(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	stored := presets.Default()
	stored.Text = "FROM DISK"
	require.NoError(t, repo.Save(ctx, "disk", stored))

	s := New(presets.NewRegistry(), WithRepository(repo))
	changes := record(s)
	require.NoError(t, s.Restore(ctx))

	require.Len(t, *changes, 1)
	assert.True(t, (*changes)[0].PresetsChanged)
	assert.Contains(t, presetNames(s), "disk")
	s.LoadPreset("disk")
	assert.Equal(t, "FROM DISK", s.Get().Text)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := New(presets.NewRegistry())
	calls := 0
	cancel := s.Subscribe(func(Change) { calls++ })
	s.TogglePlay()
	cancel()
	cancel()
	s.TogglePlay()
	assert.Equal(t, 1, calls)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	s := New(presets.NewRegistry())
	var mu sync.Mutex
	seen := 0
	s.Subscribe(func(c Change) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddColor(scene.FieldRGBBorderColors, "#000000")
			_ = s.SetField("speed", i%15+1)
		}()
	}
	wg.Wait()

	assert.Len(t, s.Get().RGBBorderColors, 53)
	assert.GreaterOrEqual(t, seen, 50)
}

func presetNames(s *Store) []string {
	var names []string
	for _, in := range s.Presets() {
		names = append(names, in.Name)
	}
	return names
}
