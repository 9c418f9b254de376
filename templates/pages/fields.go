// Package pages renders the preview and control pages.
package pages

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/jota2rz/led-scroller/internal/controls"
	"github.com/jota2rz/led-scroller/internal/present"
	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/scene"
)

var corners = []string{"tl", "tr", "bl", "br"}

// fieldInput is one form control on the control page.
type fieldInput struct {
	Name    string
	Type    string // checkbox, range, number, slice or text
	Min     string
	Max     string
	Step    string
	Value   string
	Checked bool
}

// fieldInputs describes a control for every scene field, sliders for the
// clamped numbers.
func fieldInputs(cfg scene.Config) []fieldInput {
	names := scene.FieldNames()
	out := make([]fieldInput, 0, len(names))
	for _, name := range names {
		v, _ := cfg.Field(name)
		kind, _ := scene.FieldKind(name)
		in := fieldInput{Name: name, Type: "text", Value: fmt.Sprint(v)}
		switch kind {
		case reflect.Bool:
			in.Type = "checkbox"
			in.Checked, _ = v.(bool)
		case reflect.Int, reflect.Float64:
			in.Type = "number"
			if r, ok := controls.RangeOf(name); ok {
				in.Type = "range"
				in.Min, in.Max = num(r.Min), num(r.Max)
				in.Step = "1"
				if kind == reflect.Float64 {
					in.Step = "0.1"
				}
			}
		case reflect.Slice:
			in.Type = "slice"
			seq, _ := v.(scene.ColorSequence)
			in.Value = strings.Join(seq, ", ")
		}
		out = append(out, in)
	}
	return out
}

func presetLabel(p presets.Info) string {
	if p.Shadowed {
		return p.Name + " *"
	}
	return p.Name
}

func particleKind(f present.Frame) string {
	if f.Background.Particles {
		return string(f.Background.Kind)
	}
	return ""
}

func itoa(n int) string { return strconv.Itoa(n) }

func num(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
