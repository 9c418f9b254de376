// Package presets holds the named Scene Configuration snapshots: an
// immutable built-in set seeded at start-up and a runtime user layer that
// may shadow built-ins by name.
package presets

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jota2rz/led-scroller/internal/scene"
)

var (
	// ErrEmptyName is returned when a preset name is blank.
	ErrEmptyName = errors.New("preset name cannot be empty")
	// ErrBuiltinProtected is returned when deleting a built-in preset.
	ErrBuiltinProtected = errors.New("built-in presets cannot be deleted")
	// ErrNotFound is returned when no preset has the given name.
	ErrNotFound = errors.New("preset not found")
)

// Repository persists user presets outside the process.
type Repository interface {
	List(ctx context.Context) (map[string]scene.Config, error)
	Save(ctx context.Context, name string, cfg scene.Config) error
	Delete(ctx context.Context, name string) error
}

// Info describes one entry of the preset list.
type Info struct {
	Name     string `json:"name"`
	Builtin  bool   `json:"builtin"`  // a built-in preset exists under this name
	User     bool   `json:"user"`     // a user preset exists under this name
	Shadowed bool   `json:"shadowed"` // the built-in is hidden by a user preset
}

// Registry maps preset names to complete configurations.
type Registry struct {
	builtin map[string]scene.Config
	mu      sync.RWMutex
	user    map[string]scene.Config
}

// NewRegistry creates a registry seeded with the built-in presets.
func NewRegistry() *Registry {
	return &Registry{
		builtin: builtins(),
		user:    make(map[string]scene.Config),
	}
}

// NormalizeName trims surrounding whitespace and rejects blank names.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// Lookup returns a copy of the named preset. User presets take precedence
// over built-ins of the same name.
func (r *Registry) Lookup(name string) (scene.Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.user[name]; ok {
		return cfg.Clone(), true
	}
	if cfg, ok := r.builtin[name]; ok {
		return cfg.Clone(), true
	}
	return scene.Config{}, false
}

// Default returns the built-in default preset, ignoring any user preset
// saved under the same name.
func (r *Registry) Default() scene.Config {
	return r.builtin[DefaultName].Clone()
}

// IsBuiltin reports whether name is one of the seeded presets.
func (r *Registry) IsBuiltin(name string) bool {
	_, ok := r.builtin[name]
	return ok
}

// Save stores a copy of cfg in the user layer, replacing any user preset
// with the same name.
func (r *Registry) Save(name string, cfg scene.Config) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.user[name] = cfg.Clone()
	r.mu.Unlock()
	return nil
}

// Clear removes a user preset. A built-in with the same name becomes
// visible again. It returns false if no user preset existed.
func (r *Registry) Clear(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.user[name]; !ok {
		return false
	}
	delete(r.user, name)
	return true
}

// Names lists built-ins in seed order followed by user-only presets sorted
// by name.
func (r *Registry) Names() []string {
	infos := r.List()
	names := make([]string, len(infos))
	for i, in := range infos {
		names[i] = in.Name
	}
	return names
}

// List describes every visible preset.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.builtin)+len(r.user))
	for _, name := range builtinOrder {
		_, shadowed := r.user[name]
		out = append(out, Info{Name: name, Builtin: true, User: shadowed, Shadowed: shadowed})
	}
	var extra []string
	for name := range r.user {
		if _, ok := r.builtin[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, Info{Name: name, User: true})
	}
	return out
}
