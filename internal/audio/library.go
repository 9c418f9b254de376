package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Track is one audio file in the library.
type Track struct {
	Name     string        `json:"name"`
	Tempo    float64       `json:"tempo"`
	Duration time.Duration `json:"duration"`
	Analysed bool          `json:"analysed"`
}

type entry struct {
	track Track
	env   Envelope
}

// Library indexes the audio files of one directory and keeps their
// envelopes ready for playback.
type Library struct {
	cache *Cache // optional

	mu      sync.RWMutex
	dir     string
	entries map[string]entry
}

// NewLibrary creates an empty library for dir. Call Scan to populate it.
// cache may be nil.
func NewLibrary(dir string, cache *Cache) *Library {
	return &Library{dir: dir, cache: cache, entries: make(map[string]entry)}
}

// SetDir changes the directory. The next Scan reads the new location.
func (l *Library) SetDir(dir string) {
	l.mu.Lock()
	l.dir = dir
	l.mu.Unlock()
}

// Dir returns the current directory.
func (l *Library) Dir() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dir
}

// Scan re-reads the directory and analyses every audio file.
func (l *Library) Scan() {
	snap, dir := l.snapshot()
	entries := make(map[string]entry, len(snap))
	for name, modTime := range snap {
		entries[name] = l.load(dir, name, modTime)
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	slog.Info("audio scan complete", "dir", dir, "count", len(entries))
}

// List returns the tracks sorted by name.
func (l *Library) List() []Track {
	l.mu.RLock()
	out := make([]Track, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.track)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Get returns the named track and its envelope.
func (l *Library) Get(name string) (Track, Envelope, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[name]
	return e.track, e.env, ok
}

// Watch polls the directory every interval and calls onChange after files
// are added, modified or removed. Only changed files are re-analysed.
func (l *Library) Watch(ctx context.Context, interval time.Duration, onChange func()) {
	prev, _ := l.snapshot()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			curr, dir := l.snapshot()
			if curr == nil || maps.Equal(prev, curr) {
				continue
			}
			l.apply(prev, curr, dir)
			prev = curr
			if onChange != nil {
				onChange()
			}
		}
	}
}

func (l *Library) apply(prev, curr map[string]int64, dir string) {
	changed := make(map[string]entry)
	for name, modTime := range curr {
		if old, ok := prev[name]; !ok || old != modTime {
			slog.Info("audio file changed", "file", name)
			changed[name] = l.load(dir, name, modTime)
		}
	}

	l.mu.Lock()
	for name := range l.entries {
		if _, ok := curr[name]; !ok {
			slog.Info("audio file removed", "file", name)
			delete(l.entries, name)
		}
	}
	maps.Copy(l.entries, changed)
	l.mu.Unlock()
}

// snapshot maps audio file names to modification times. The directory is
// captured under lock and returned so callers do not race with SetDir.
func (l *Library) snapshot() (map[string]int64, string) {
	dir := l.Dir()
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("audio dir unreadable", "dir", dir, "error", err)
		return nil, dir
	}
	snap := make(map[string]int64, len(dirEntries))
	for _, e := range dirEntries {
		if e.IsDir() || !Extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snap[e.Name()] = info.ModTime().Unix()
	}
	return snap, dir
}

// load returns the cached envelope for a file or analyses it.
func (l *Library) load(dir, name string, modTime int64) entry {
	path := filepath.Join(dir, name)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	e := entry{track: Track{Name: name}}

	env, ok := Envelope{}, false
	if l.cache != nil {
		env, ok = l.cache.Get(path, modTime)
	}
	if !ok {
		var err error
		env, err = Analyse(path)
		if err != nil {
			slog.Warn("audio analysis failed", "file", name, "error", err)
			return e
		}
		if l.cache != nil {
			if err := l.cache.Set(path, modTime, env); err != nil {
				slog.Warn("audio cache write failed", "file", name, "error", err)
			}
		}
		slog.Info("audio analysed", "file", name, "tempo", env.Tempo)
	}

	e.env = env
	e.track.Tempo = env.Tempo
	e.track.Duration = env.Duration
	e.track.Analysed = true
	return e
}
