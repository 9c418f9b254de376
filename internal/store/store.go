// Package store owns the single live Scene Configuration and the preset
// registry it loads from and saves to.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/scene"
)

// ErrUnknownSequence is returned for a color sequence name other than
// flickerColors or rgbBorderColors.
var ErrUnknownSequence = errors.New("unknown color sequence")

// Change describes one committed mutation.
type Change struct {
	Fields         []string     // changed field names, in declaration order
	Config         scene.Config // configuration after the change
	Preset         string       // preset applied by LoadPreset or ResetToDefault
	PresetsChanged bool         // the preset list changed (save, delete, restore)
}

// Option configures a Store.
type Option func(*Store)

// WithRepository persists user presets through repo.
func WithRepository(repo presets.Repository) Option {
	return func(s *Store) { s.repo = repo }
}

// WithLogger sets the logger used for fail-soft events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store holds the live configuration. All mutators are serialized and
// observers see changes in commit order.
type Store struct {
	registry *presets.Registry
	repo     presets.Repository
	log      *slog.Logger

	mu  sync.Mutex
	cfg scene.Config

	// emitMu is taken before mu is released so notifications cannot reorder.
	emitMu sync.Mutex

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int
}

// New creates a store holding a copy of the registry's default preset.
func New(registry *presets.Registry, opts ...Option) *Store {
	s := &Store{
		registry:  registry,
		log:       slog.Default(),
		cfg:       registry.Default(),
		observers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the current configuration.
func (s *Store) Get() scene.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Subscribe registers fn to be called after every committed change. The
// callback runs on the mutating goroutine and must not call store mutators.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// SetField updates one field. The rest of the configuration is untouched.
func (s *Store) SetField(name string, value any) error {
	return s.mutate("", func(c *scene.Config) error {
		return c.SetField(name, value)
	})
}

// LoadPreset replaces every field with the named preset. An unknown name
// falls back to the default preset. It returns the name actually applied.
func (s *Store) LoadPreset(name string) string {
	cfg, ok := s.registry.Lookup(name)
	if !ok {
		s.log.Warn("unknown preset, loading default", "name", name, "available", s.registry.Names())
		name = presets.DefaultName
		if cfg, ok = s.registry.Lookup(name); !ok {
			cfg = s.registry.Default()
		}
	}
	_ = s.mutate(name, func(c *scene.Config) error {
		*c = cfg
		return nil
	})
	return name
}

// ResetToDefault loads the "default" preset. A user preset saved under that
// name wins over the built-in, exactly as LoadPreset resolves it.
func (s *Store) ResetToDefault() {
	s.LoadPreset(presets.DefaultName)
}

// SavePreset stores a snapshot of the current configuration under name.
// The in-memory save stands even when persisting it fails.
func (s *Store) SavePreset(ctx context.Context, name string) error {
	name, err := presets.NormalizeName(name)
	if err != nil {
		return err
	}

	snapshot := s.lockEmit()
	defer s.emitMu.Unlock()

	if err := s.registry.Save(name, snapshot); err != nil {
		return err
	}
	s.log.Info("preset saved", "name", name)
	s.notify(Change{Config: snapshot, PresetsChanged: true})

	if s.repo != nil {
		if err := s.repo.Save(ctx, name, snapshot); err != nil {
			s.log.Error("failed to persist preset", "name", name, "error", err)
			return fmt.Errorf("persist preset %q: %w", name, err)
		}
	}
	return nil
}

// DeletePreset removes a user preset. Built-ins cannot be deleted unless a
// user preset shadows them, in which case only the user preset goes.
func (s *Store) DeletePreset(ctx context.Context, name string) error {
	name, err := presets.NormalizeName(name)
	if err != nil {
		return err
	}

	current := s.lockEmit()
	defer s.emitMu.Unlock()

	if !s.registry.Clear(name) {
		if s.registry.IsBuiltin(name) {
			return presets.ErrBuiltinProtected
		}
		return fmt.Errorf("%w: %q", presets.ErrNotFound, name)
	}
	s.log.Info("preset deleted", "name", name)
	s.notify(Change{Config: current, PresetsChanged: true})

	if s.repo != nil {
		if err := s.repo.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete stored preset %q: %w", name, err)
		}
	}
	return nil
}

// Presets lists the visible presets.
func (s *Store) Presets() []presets.Info {
	return s.registry.List()
}

// Restore loads persisted user presets into the registry.
func (s *Store) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	stored, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored presets: %w", err)
	}
	for name, cfg := range stored {
		if err := s.registry.Save(name, cfg); err != nil {
			s.log.Warn("skipping stored preset", "name", name, "error", err)
		}
	}
	if len(stored) > 0 {
		s.log.Info("restored user presets", "count", len(stored))
		current := s.lockEmit()
		s.notify(Change{Config: current, PresetsChanged: true})
		s.emitMu.Unlock()
	}
	return nil
}

// mutate applies fn to a copy of the configuration and commits it if fn
// succeeds. Observers are notified only when some field actually changed.
func (s *Store) mutate(preset string, fn func(*scene.Config) error) error {
	s.mu.Lock()
	next := s.cfg.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	changed := s.cfg.Diff(next)
	if len(changed) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.cfg = next
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	s.notify(Change{Fields: changed, Config: next, Preset: preset})
	return nil
}

// lockEmit acquires emitMu in the same order as mutate and returns the
// configuration current at that point. The caller releases emitMu.
func (s *Store) lockEmit() scene.Config {
	s.mu.Lock()
	cfg := s.cfg.Clone()
	s.emitMu.Lock()
	s.mu.Unlock()
	return cfg
}

// notify must be called with emitMu held.
func (s *Store) notify(ch Change) {
	s.obsMu.Lock()
	fns := make([]func(Change), 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		c := ch
		c.Config = ch.Config.Clone()
		fn(c)
	}
}
