package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jota2rz/led-scroller/internal/audio"
	"github.com/jota2rz/led-scroller/internal/config"
	"github.com/jota2rz/led-scroller/internal/controls"
	"github.com/jota2rz/led-scroller/internal/effects"
	"github.com/jota2rz/led-scroller/internal/present"
	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/scene"
	"github.com/jota2rz/led-scroller/internal/sse"
	"github.com/jota2rz/led-scroller/internal/store"
	"github.com/jota2rz/led-scroller/templates/pages"
)

// Deps bundles the collaborators the handlers need.
type Deps struct {
	Config   *config.Config
	Hub      *sse.Hub
	Store    *store.Store
	Controls *controls.Surface
	Animator *effects.Animator
	Library  *audio.Library
	Meter    *audio.Meter
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	cfg      *config.Config
	hub      *sse.Hub
	store    *store.Store
	controls *controls.Surface
	animator *effects.Animator
	library  *audio.Library
	meter    *audio.Meter
}

// New creates a Handlers instance.
func New(d Deps) *Handlers {
	return &Handlers{
		cfg:      d.Config,
		hub:      d.Hub,
		store:    d.Store,
		controls: d.Controls,
		animator: d.Animator,
		library:  d.Library,
		meter:    d.Meter,
	}
}

// Routes registers every endpoint on mux. ws serves the control socket.
func (h *Handlers) Routes(mux *http.ServeMux, ws http.Handler) {
	mux.HandleFunc("GET /api/scene", h.HandleGetScene)
	mux.HandleFunc("POST /api/scene/field", h.HandleSetField)
	mux.HandleFunc("POST /api/scene/toggle-play", h.HandleTogglePlay)
	mux.HandleFunc("POST /api/scene/reset", h.HandleReset)
	mux.HandleFunc("POST /api/scene/colors/{seq}", h.HandleAddColor)
	mux.HandleFunc("PUT /api/scene/colors/{seq}/{index}", h.HandleSetColor)
	mux.HandleFunc("DELETE /api/scene/colors/{seq}/{index}", h.HandleRemoveColor)

	mux.HandleFunc("GET /api/presets", h.HandleListPresets)
	mux.HandleFunc("POST /api/presets", h.HandleSavePreset)
	mux.HandleFunc("POST /api/presets/{name}/load", h.HandleLoadPreset)
	mux.HandleFunc("DELETE /api/presets/{name}", h.HandleDeletePreset)

	mux.HandleFunc("GET /api/frame", h.HandleFrame)
	mux.HandleFunc("GET /api/particles", h.HandleParticles)

	mux.HandleFunc("GET /api/audio", h.HandleAudio)
	mux.HandleFunc("POST /api/audio/select", h.HandleSelectAudio)
	mux.HandleFunc("POST /api/audio/level", h.HandlePushLevel)

	mux.HandleFunc("GET /api/config", h.HandleGetConfig)
	mux.HandleFunc("POST /api/config", h.HandleSetConfig)

	mux.HandleFunc("GET /events", h.HandleSSE)
	if ws != nil {
		mux.Handle("GET /ws/control", ws)
	}

	mux.HandleFunc("GET /preview", h.HandlePreview)
	mux.HandleFunc("GET /controls", h.HandleControls)
	mux.HandleFunc("GET /", h.HandleIndex)
}

// ── Broadcasts ──────────────────────────────────────────

type sceneEvent struct {
	Fields []string       `json:"fields"`
	Preset string         `json:"preset,omitempty"`
	Scene  scene.Config   `json:"scene"`
	Frame  present.Frame  `json:"frame"`
	Styles present.Styles `json:"styles"`
}

type accentEvent struct {
	Accent string                `json:"accent"`
	Audio  present.AudioReaction `json:"audio"`
	Styles present.Styles        `json:"styles"`
}

// PublishChange pushes a committed store change to preview pages.
func (h *Handlers) PublishChange(ch store.Change) {
	if len(ch.Fields) > 0 {
		f := present.Derive(ch.Config, h.animator.Clock())
		h.broadcast("scene", sceneEvent{
			Fields: ch.Fields,
			Preset: ch.Preset,
			Scene:  ch.Config,
			Frame:  f,
			Styles: f.Styles(),
		})
	}
	if ch.PresetsChanged {
		h.broadcast("presets", h.store.Presets())
	}
}

// PublishSnapshot pushes the whole live configuration and the preset list,
// so pages that connect before the first change start in sync.
func (h *Handlers) PublishSnapshot() {
	h.PublishChange(store.Change{
		Fields:         scene.FieldNames(),
		Config:         h.store.Get(),
		PresetsChanged: true,
	})
}

// PublishAccent pushes a frame produced by the animator between store
// changes: cycler steps and audio ticks.
func (h *Handlers) PublishAccent(f present.Frame) {
	h.broadcast("accent", accentEvent{Accent: f.Accent, Audio: f.Audio, Styles: f.Styles()})
}

// PublishLibrary tells clients the audio library changed.
func (h *Handlers) PublishLibrary() {
	h.broadcast("audio", h.audioStatus())
}

func (h *Handlers) broadcast(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal sse event", "event", event, "error", err)
		return
	}
	h.hub.Broadcast(event, data)
}

// ── Scene API ───────────────────────────────────────────

// HandleGetScene returns the live configuration.
func (h *Handlers) HandleGetScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Get())
}

// HandleSetField sets one field through the control surface.
func (h *Handlers) HandleSetField(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if !decodeBody(w, r, 8192, &body) {
		return
	}
	if err := h.controls.Apply(body.Name, body.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Get())
}

// HandleTogglePlay flips isPlaying.
func (h *Handlers) HandleTogglePlay(w http.ResponseWriter, r *http.Request) {
	h.store.TogglePlay()
	writeJSON(w, http.StatusOK, h.store.Get())
}

// HandleReset restores the default preset.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.store.ResetToDefault()
	writeJSON(w, http.StatusOK, h.store.Get())
}

// HandleAddColor appends a color to a sequence.
func (h *Handlers) HandleAddColor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Color string `json:"color"`
	}
	if !decodeBody(w, r, 256, &body) {
		return
	}
	if err := h.controls.AddColor(r.PathValue("seq"), body.Color); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Get())
}

// HandleSetColor replaces the color at an index.
func (h *Handlers) HandleSetColor(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		Color string `json:"color"`
	}
	if !decodeBody(w, r, 256, &body) {
		return
	}
	if err := h.controls.SetColor(r.PathValue("seq"), index, body.Color); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Get())
}

// HandleRemoveColor drops the color at an index. The last color of a
// sequence is kept.
func (h *Handlers) HandleRemoveColor(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := h.store.RemoveColor(r.PathValue("seq"), index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Get())
}

// ── Presets API ─────────────────────────────────────────

// HandleListPresets returns the visible presets.
func (h *Handlers) HandleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Presets())
}

// HandleLoadPreset applies a preset. Unknown names load the default; the
// response names the preset actually applied.
func (h *Handlers) HandleLoadPreset(w http.ResponseWriter, r *http.Request) {
	applied := h.store.LoadPreset(r.PathValue("name"))
	writeJSON(w, http.StatusOK, map[string]any{"preset": applied, "scene": h.store.Get()})
}

// HandleSavePreset snapshots the live configuration under a name.
func (h *Handlers) HandleSavePreset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, 1024, &body) {
		return
	}
	if err := h.store.SavePreset(r.Context(), body.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.store.Presets())
}

// HandleDeletePreset removes a user preset.
func (h *Handlers) HandleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePreset(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Derived state ───────────────────────────────────────

// HandleFrame returns the presentation derived for this instant.
func (h *Handlers) HandleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.animator.Frame())
}

// HandleParticles returns the particle field snapshot.
func (h *Handlers) HandleParticles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.animator.Particles())
}

// ── Audio API ───────────────────────────────────────────

type audioStatus struct {
	Dir    string        `json:"dir"`
	Track  string        `json:"track"`
	Level  float64       `json:"level"`
	Tracks []audio.Track `json:"tracks"`
}

func (h *Handlers) audioStatus() audioStatus {
	return audioStatus{
		Dir:    h.library.Dir(),
		Track:  h.meter.Track(),
		Level:  h.meter.Level(),
		Tracks: h.library.List(),
	}
}

// HandleAudio returns the library and the meter state.
func (h *Handlers) HandleAudio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.audioStatus())
}

// HandleSelectAudio plays a library track's envelope through the meter.
// An empty name silences the meter.
func (h *Handlers) HandleSelectAudio(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, 1024, &body) {
		return
	}
	if body.Name == "" {
		h.meter.Clear()
		h.PublishLibrary()
		writeJSON(w, http.StatusOK, h.audioStatus())
		return
	}
	_, env, ok := h.library.Get(body.Name)
	if !ok {
		http.Error(w, "track not found", http.StatusNotFound)
		return
	}
	h.meter.Use(body.Name, env)
	slog.Info("audio track selected", "track", body.Name, "tempo", env.Tempo)
	h.PublishLibrary()
	writeJSON(w, http.StatusOK, h.audioStatus())
}

// HandlePushLevel records a live level from an external capture source.
func (h *Handlers) HandlePushLevel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Level float64 `json:"level"`
	}
	if !decodeBody(w, r, 256, &body) {
		return
	}
	h.meter.Push(body.Level)
	w.WriteHeader(http.StatusNoContent)
}

// ── Config API ──────────────────────────────────────────

// HandleGetConfig returns all config as JSON.
func (h *Handlers) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.All())
}

// HandleSetConfig saves a config key-value pair.
func (h *Handlers) HandleSetConfig(w http.ResponseWriter, r *http.Request) {
	var entry struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if !decodeBody(w, r, 4096, &entry) {
		return
	}
	if err := h.cfg.Set(entry.Key, entry.Value); err != nil {
		if errors.Is(err, config.ErrInvalidSetting) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("save config", "key", entry.Key, "error", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if entry.Key == config.KeyAudioDir {
		h.library.SetDir(entry.Value)
		go func() {
			h.library.Scan()
			h.PublishLibrary()
		}()
	}

	h.broadcast("config-updated", entry)
	w.WriteHeader(http.StatusNoContent)
}

// ── SSE ─────────────────────────────────────────────────

// HandleSSE streams server-sent events to preview pages.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := sse.NewClient()
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case msg, ok := <-client.Events:
			if !ok {
				return
			}
			w.Write(msg)
			// Drain queued messages so bursts go out in one write.
		drain:
			for {
				select {
				case extra, ok := <-client.Events:
					if !ok {
						flusher.Flush()
						return
					}
					w.Write(extra)
				default:
					break drain
				}
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// ── Pages ───────────────────────────────────────────────

// HandleIndex redirects to the preview.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/preview", http.StatusFound)
}

// HandlePreview renders the display page at its current frame.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pages.Preview(h.animator.Frame()).Render(r.Context(), w)
}

// HandleControls renders the control page.
func (h *Handlers) HandleControls(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pages.Controls(h.store.Get(), h.store.Presets()).Render(r.Context(), w)
}

// ── Helpers ─────────────────────────────────────────────

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, limit)).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write json response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, controls.ErrInvalidValue),
		errors.Is(err, scene.ErrUnknownField),
		errors.Is(err, scene.ErrFieldType),
		errors.Is(err, store.ErrUnknownSequence),
		errors.Is(err, presets.ErrEmptyName):
		status = http.StatusBadRequest
	case errors.Is(err, presets.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, presets.ErrBuiltinProtected):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
