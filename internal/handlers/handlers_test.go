package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jota2rz/led-scroller/internal/audio"
	"github.com/jota2rz/led-scroller/internal/config"
	"github.com/jota2rz/led-scroller/internal/controls"
	"github.com/jota2rz/led-scroller/internal/db"
	"github.com/jota2rz/led-scroller/internal/effects"
	"github.com/jota2rz/led-scroller/internal/present"
	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/scene"
	"github.com/jota2rz/led-scroller/internal/sse"
	"github.com/jota2rz/led-scroller/internal/store"
)

type fixture struct {
	mux   *http.ServeMux
	store *store.Store
	h     *Handlers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	st := store.New(presets.NewRegistry(), store.WithRepository(presets.NewSQLiteRepository(database)))
	anim := effects.NewAnimator(context.Background(), st)
	t.Cleanup(anim.Close)

	hub := sse.NewHub()
	go hub.Run()
	t.Cleanup(hub.Close)

	h := New(Deps{
		Config:   config.New(database),
		Hub:      hub,
		Store:    st,
		Controls: controls.New(st),
		Animator: anim,
		Library:  audio.NewLibrary(t.TempDir(), nil),
		Meter:    audio.NewMeter(),
	})
	cancel := st.Subscribe(h.PublishChange)
	t.Cleanup(cancel)

	mux := http.NewServeMux()
	h.Routes(mux, nil)
	return &fixture{mux: mux, store: st, h: h}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeScene(t *testing.T, rec *httptest.ResponseRecorder) scene.Config {
	t.Helper()
	var cfg scene.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	return cfg
}

func TestGetScene(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/scene", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 5, decodeScene(t, rec).Speed)
}

func TestSetFieldClampsAndValidates(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/scene/field", `{"name":"speed","value":99}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 15, decodeScene(t, rec).Speed)
	assert.Equal(t, 15, f.store.Get().Speed)

	tests := []struct {
		name string
		body string
	}{
		{"bad color", `{"name":"color","value":"not a color!"}`},
		{"unknown field", `{"name":"sparkles","value":1}`},
		{"wrong type", `{"name":"isPlaying","value":"yes"}`},
		{"bad json", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/scene/field", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Equal(t, "#00ff00", f.store.Get().Color)
}

func TestTogglePlayAndReset(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/scene/toggle-play", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeScene(t, rec).IsPlaying)

	f.do(t, http.MethodPost, "/api/scene/field", `{"name":"text","value":"HELLO"}`)
	rec = f.do(t, http.MethodPost, "/api/scene/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, presets.Default(), decodeScene(t, rec))
}

func TestColorSequenceEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/scene/colors/flickerColors", `{"color":"#ffffff"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, scene.ColorSequence{"#ff0000", "#00ff00", "#0000ff", "#ffffff"}, decodeScene(t, rec).FlickerColors)

	rec = f.do(t, http.MethodPut, "/api/scene/colors/flickerColors/0", `{"color":"#123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#123456", decodeScene(t, rec).FlickerColors[0])

	rec = f.do(t, http.MethodDelete, "/api/scene/colors/flickerColors/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, scene.ColorSequence{"#123456", "#0000ff", "#ffffff"}, decodeScene(t, rec).FlickerColors)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/scene/colors/flickerColors", `{"color":"??"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/scene/colors/text", `{"color":"#fff"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodDelete, "/api/scene/colors/flickerColors/x", "").Code)
}

func TestPresetEndpoints(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/scene/field", `{"name":"text","value":"MINE"}`)
	rec := f.do(t, http.MethodPost, "/api/presets", `{"name":"  mine  "}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var list []presets.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "mine", list[len(list)-1].Name)

	f.do(t, http.MethodPost, "/api/scene/reset", "")
	rec = f.do(t, http.MethodPost, "/api/presets/mine/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded struct {
		Preset string       `json:"preset"`
		Scene  scene.Config `json:"scene"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, "mine", loaded.Preset)
	assert.Equal(t, "MINE", loaded.Scene.Text)

	rec = f.do(t, http.MethodPost, "/api/presets/nope/load", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, presets.DefaultName, loaded.Preset)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/presets", `{"name":"   "}`).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodDelete, "/api/presets/matrix", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/presets/ghost", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/presets/mine", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/presets/mine", "").Code)
}

func TestFrameAndParticles(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/frame", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var frame struct {
		Text   string `json:"text"`
		Accent string `json:"accent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frame))
	assert.Equal(t, "YOUR TEXT HERE", frame.Text)
	assert.Equal(t, "#00ff00", frame.Accent)

	rec = f.do(t, http.MethodGet, "/api/particles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"matrix"`)
}

func TestAudioEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/audio", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tracks":[]`)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/audio/select", `{"name":"missing.wav"}`).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/audio/select", `{"name":""}`).Code)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/audio/level", `{"level":0.75}`).Code)
	assert.InDelta(t, 0.75, f.h.meter.Level(), 1e-9)
}

func TestConfigEndpoints(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/config", `{"key":"frame_rate","value":"60"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/config", `{"key":"frame_rate","value":"fast"}`).Code)

	rec := f.do(t, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Equal(t, "60", all["frame_rate"])
}

func TestPages(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/preview", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/nowhere", "").Code)

	rec = f.do(t, http.MethodGet, "/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "YOUR TEXT HERE")

	rec = f.do(t, http.MethodGet, "/controls", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-preset="default"`)
}

func TestSSEStreamsSceneChanges(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	f.store.TogglePlay()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	var data string
	for scanner.Scan() {
		if scanner.Text() == "event: scene" && scanner.Scan() {
			data = strings.TrimPrefix(scanner.Text(), "data: ")
			break
		}
	}
	require.NotEmpty(t, data)

	var ev struct {
		Fields []string     `json:"fields"`
		Scene  scene.Config `json:"scene"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, []string{"isPlaying"}, ev.Fields)
	assert.True(t, ev.Scene.IsPlaying)
}

func TestSSEStreamsAudioFrames(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	cfg := f.store.Get()
	cfg.AudioSource = scene.AudioFile
	cfg.ReactTo = scene.ReactBrightness
	f.h.PublishAccent(present.Derive(cfg, present.Clock{Level: 0.5}))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	var data string
	for scanner.Scan() {
		if scanner.Text() == "event: accent" && scanner.Scan() {
			data = strings.TrimPrefix(scanner.Text(), "data: ")
			break
		}
	}
	require.NotEmpty(t, data)

	var ev struct {
		Audio  present.AudioReaction `json:"audio"`
		Styles present.Styles        `json:"styles"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.True(t, ev.Audio.Active)
	assert.Contains(t, ev.Styles.Text, "filter: brightness(")
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	CORS("http://127.0.0.1:5173", next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/scene", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://127.0.0.1:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	CORS("", next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/scene", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
