package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jota2rz/led-scroller/internal/controls"
	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/scene"
	"github.com/jota2rz/led-scroller/internal/store"
)

func newExecutor() (*Executor, *store.Store) {
	st := store.New(presets.NewRegistry())
	return NewExecutor(st, controls.New(st)), st
}

func TestExecuteSetField(t *testing.T) {
	e, st := newExecutor()
	r := e.Execute(context.Background(), Command{ID: "1", Op: "setField", Name: "speed", Value: json.RawMessage(`40`)})
	assert.True(t, r.OK)
	assert.Equal(t, "1", r.ID)
	assert.Equal(t, 15, r.Scene.Speed)
	assert.Equal(t, 15, st.Get().Speed)

	r = e.Execute(context.Background(), Command{Op: "setField", Name: "color", Value: json.RawMessage(`"nope!"`)})
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "invalid control value")
}

func TestExecutePresetOps(t *testing.T) {
	e, st := newExecutor()
	ctx := context.Background()

	r := e.Execute(ctx, Command{Op: "loadPreset", Name: "cyberpunk"})
	assert.True(t, r.OK)
	assert.Equal(t, "cyberpunk", r.Preset)
	assert.Equal(t, "CYBERPUNK 2077", st.Get().Text)

	r = e.Execute(ctx, Command{Op: "loadPreset", Name: "missing"})
	assert.Equal(t, presets.DefaultName, r.Preset)

	r = e.Execute(ctx, Command{Op: "savePreset", Name: "mine"})
	assert.True(t, r.OK)
	assert.Equal(t, "mine", r.Presets[len(r.Presets)-1].Name)

	r = e.Execute(ctx, Command{Op: "deletePreset", Name: "matrix"})
	assert.False(t, r.OK)

	r = e.Execute(ctx, Command{Op: "deletePreset", Name: "mine"})
	assert.True(t, r.OK)
}

func TestExecuteColorsAndToggles(t *testing.T) {
	e, st := newExecutor()
	ctx := context.Background()

	assert.True(t, e.Execute(ctx, Command{Op: "addColor", Name: scene.FieldFlickerColors, Color: "#abcdef"}).OK)
	assert.True(t, e.Execute(ctx, Command{Op: "setColor", Name: scene.FieldFlickerColors, Index: 0, Color: "#111111"}).OK)
	assert.True(t, e.Execute(ctx, Command{Op: "removeColor", Name: scene.FieldFlickerColors, Index: 1}).OK)
	assert.Equal(t, scene.ColorSequence{"#111111", "#0000ff", "#abcdef"}, st.Get().FlickerColors)

	assert.True(t, e.Execute(ctx, Command{Op: "togglePlay"}).OK)
	assert.True(t, e.Execute(ctx, Command{Op: "toggleFlicker"}).OK)
	assert.True(t, e.Execute(ctx, Command{Op: "toggleRgbBorder"}).OK)
	assert.True(t, e.Execute(ctx, Command{Op: "toggleCornerLights"}).OK)
	cfg := st.Get()
	assert.True(t, cfg.IsPlaying && cfg.FlickerEnabled && cfg.RGBBorderEnabled)
	assert.False(t, cfg.CornerLights)

	r := e.Execute(ctx, Command{Op: "reset"})
	assert.True(t, r.OK)
	assert.Equal(t, presets.Default(), r.Scene)

	r = e.Execute(ctx, Command{Op: "explode"})
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "unknown op")
}

func TestServerRoundTrip(t *testing.T) {
	e, st := newExecutor()
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	srv := NewServer(hub, e)
	st.Subscribe(srv.Publish)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Command{ID: "a", Op: "togglePlay"}))

	var gotReply, gotUpdate bool
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for !(gotReply && gotUpdate) {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg["type"] {
		case "reply":
			gotReply = true
			assert.Equal(t, "a", msg["id"])
			assert.Equal(t, true, msg["ok"])
		case "scene":
			gotUpdate = true
			assert.Equal(t, []any{"isPlaying"}, msg["fields"])
		}
	}
	assert.True(t, st.Get().IsPlaying)
}

func TestExecutePairedStyleOps(t *testing.T) {
	e, st := newExecutor()
	ctx := context.Background()

	r := e.Execute(ctx, Command{Op: "setOutline", Color: "#ff00ff", Value: json.RawMessage(`12`)})
	require.True(t, r.OK, r.Error)
	assert.Equal(t, "#ff00ff", r.Scene.OutlineColor)
	assert.Equal(t, 5, r.Scene.OutlineWidth)

	r = e.Execute(ctx, Command{Op: "setShadow", Color: "#00ffff", Value: json.RawMessage(`-4`)})
	require.True(t, r.OK, r.Error)
	assert.Equal(t, "#00ffff", r.Scene.ShadowColor)
	assert.Equal(t, 0, r.Scene.ShadowBlur)

	before := st.Get()
	assert.False(t, e.Execute(ctx, Command{Op: "setShadow", Color: "nope!", Value: json.RawMessage(`4`)}).OK)
	assert.False(t, e.Execute(ctx, Command{Op: "setOutline", Color: "#fff", Value: json.RawMessage(`"wide"`)}).OK)
	assert.Equal(t, before, st.Get())
}

func TestServerChecksOrigin(t *testing.T) {
	e, _ := newExecutor()
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	ts := httptest.NewServer(NewServer(hub, e, WithAllowedOrigin("http://panel.local:5173")))
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	dial := func(origin string) error {
		h := http.Header{}
		if origin != "" {
			h.Set("Origin", origin)
		}
		conn, _, err := websocket.DefaultDialer.Dial(url, h)
		if err == nil {
			conn.Close()
		}
		return err
	}

	assert.NoError(t, dial(""))
	assert.NoError(t, dial(ts.URL))
	assert.NoError(t, dial("http://panel.local:5173"))
	assert.ErrorIs(t, dial("http://evil.example"), websocket.ErrBadHandshake)

	strict := httptest.NewServer(NewServer(hub, e))
	defer strict.Close()
	h := http.Header{"Origin": {"http://panel.local:5173"}}
	_, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(strict.URL, "http"), h)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}
