package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jota2rz/led-scroller/internal/controls"
	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/scene"
	"github.com/jota2rz/led-scroller/internal/store"
)

// ErrUnknownOp is returned for a command op that does not exist.
var ErrUnknownOp = errors.New("unknown op")

// Command is one inbound control message.
type Command struct {
	ID    string          `json:"id,omitempty"` // echoed in the reply
	Op    string          `json:"op"`
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Index int             `json:"index,omitempty"`
	Color string          `json:"color,omitempty"`
}

// Reply answers a Command. Scene is the configuration after the command.
type Reply struct {
	Type    string         `json:"type"` // always "reply"
	ID      string         `json:"id,omitempty"`
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Preset  string         `json:"preset,omitempty"`
	Scene   scene.Config   `json:"scene"`
	Presets []presets.Info `json:"presets,omitempty"`
}

// Update is pushed to every client after a committed change.
type Update struct {
	Type   string       `json:"type"` // always "scene"
	Fields []string     `json:"fields"`
	Preset string       `json:"preset,omitempty"`
	Scene  scene.Config `json:"scene"`
}

// Executor runs commands against the store through the control surface.
type Executor struct {
	store    *store.Store
	controls *controls.Surface
}

// NewExecutor creates an executor.
func NewExecutor(st *store.Store, cs *controls.Surface) *Executor {
	return &Executor{store: st, controls: cs}
}

// Execute runs cmd and builds its reply.
func (e *Executor) Execute(ctx context.Context, cmd Command) Reply {
	r := Reply{Type: "reply", ID: cmd.ID}
	err := e.run(ctx, cmd, &r)
	if err != nil {
		r.Error = err.Error()
	} else {
		r.OK = true
	}
	r.Scene = e.store.Get()
	return r
}

func (e *Executor) run(ctx context.Context, cmd Command, r *Reply) error {
	switch cmd.Op {
	case "get":
		return nil
	case "setField":
		return e.controls.Apply(cmd.Name, cmd.Value)
	case "loadPreset":
		r.Preset = e.store.LoadPreset(cmd.Name)
		return nil
	case "savePreset":
		if err := e.store.SavePreset(ctx, cmd.Name); err != nil {
			return err
		}
		r.Presets = e.store.Presets()
		return nil
	case "deletePreset":
		if err := e.store.DeletePreset(ctx, cmd.Name); err != nil {
			return err
		}
		r.Presets = e.store.Presets()
		return nil
	case "listPresets":
		r.Presets = e.store.Presets()
		return nil
	case "reset":
		e.store.ResetToDefault()
		r.Preset = presets.DefaultName
		return nil
	case "togglePlay":
		e.store.TogglePlay()
		return nil
	case "toggleFlicker":
		e.store.ToggleFlicker()
		return nil
	case "toggleRgbBorder":
		e.store.ToggleRGBBorder()
		return nil
	case "toggleCornerLights":
		e.store.ToggleCornerLights()
		return nil
	case "addColor":
		return e.controls.AddColor(cmd.Name, cmd.Color)
	case "setOutline", "setShadow":
		var size float64
		if err := json.Unmarshal(cmd.Value, &size); err != nil {
			return fmt.Errorf("%w: %s value must be a number", controls.ErrInvalidValue, cmd.Op)
		}
		if cmd.Op == "setOutline" {
			return e.controls.SetOutline(cmd.Color, size)
		}
		return e.controls.SetShadow(cmd.Color, size)
	case "removeColor":
		return e.store.RemoveColor(cmd.Name, cmd.Index)
	case "setColor":
		return e.controls.SetColor(cmd.Name, cmd.Index, cmd.Color)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
}
