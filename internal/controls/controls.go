// Package controls is the validation boundary between user-facing control
// surfaces and the store. Numbers are clamped into their slider ranges,
// text and colors are checked, and only then is the store updated.
package controls

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"unicode/utf8"

	"github.com/jota2rz/led-scroller/internal/scene"
)

// MaxTextRunes is the longest text a control surface may submit.
const MaxTextRunes = 500

// ErrInvalidValue is returned for values that cannot be clamped into shape:
// malformed colors, unknown enum members, overlong text, wrong JSON types.
var ErrInvalidValue = errors.New("invalid control value")

// Range is an inclusive numeric bound.
type Range struct {
	Min, Max float64
}

var ranges = map[string]Range{
	"speed":              {1, 15},
	"flickerSpeed":       {1, 10},
	"rgbBorderSpeed":     {1, 10},
	"sensitivity":        {1, 200},
	"intensity":          {1, 100},
	"reflection":         {0, 100},
	"outlineWidth":       {0, 5},
	"shadowBlur":         {0, 50},
	"letterSpacing":      {-5, 20},
	"lineHeight":         {0.5, 3},
	"fontSize":           {8, 400},
	"staticTextFontSize": {8, 400},
	"maxLength":          {20, 150},
	"textSkew":           {-45, 45},
	"textRotation":       {-180, 180},
	"animationDuration":  {0.1, 60},
	"delay":              {0, 30},
}

var colorFields = map[string]bool{
	"color":        true,
	"outlineColor": true,
	"shadowColor":  true,
	"bgColor":      true,
}

var textFields = map[string]bool{
	"text":       true,
	"staticText": true,
}

var (
	hexColor   = regexp.MustCompile(`^#([0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	funcColor  = regexp.MustCompile(`^(rgb|rgba|hsl|hsla)\(\s*[-0-9.%,\s/a-z]+\)$`)
	namedColor = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)
)

// RangeOf returns the bound for a numeric field.
func RangeOf(name string) (Range, bool) {
	r, ok := ranges[name]
	return r, ok
}

// Clamp limits v to the field's range. Fields without a range pass through.
func Clamp(name string, v float64) float64 {
	r, ok := ranges[name]
	if !ok {
		return v
	}
	return math.Min(math.Max(v, r.Min), r.Max)
}

// ValidColor reports whether c is a CSS hex color, an rgb()/rgba()/hsl()
// function or a color keyword.
func ValidColor(c string) bool {
	return hexColor.MatchString(c) || funcColor.MatchString(c) || namedColor.MatchString(c)
}

// Target is the store surface the controls write to.
type Target interface {
	SetField(name string, value any) error
	AddColor(seq, color string) error
	SetColor(seq string, index int, color string) error
	SetOutline(color string, width int)
	SetShadow(color string, blur int)
}

// Surface applies user input to a Target.
type Surface struct {
	target Target
}

// New creates a control surface writing to t.
func New(t Target) *Surface {
	return &Surface{target: t}
}

// Apply decodes a raw JSON value and applies it to the named field.
func (s *Surface) Apply(name string, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidValue, name, err)
	}
	return s.Set(name, v)
}

// Set validates and normalizes value for the named field, then stores it.
func (s *Surface) Set(name string, value any) error {
	v, err := Normalize(name, value)
	if err != nil {
		return err
	}
	if err := s.target.SetField(name, v); err != nil {
		if errors.Is(err, scene.ErrFieldType) || errors.Is(err, scene.ErrEmptySequence) {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return err
	}
	return nil
}

// AddColor validates color and appends it to the named sequence.
func (s *Surface) AddColor(seq, color string) error {
	if !ValidColor(color) {
		return fmt.Errorf("%w: color %q", ErrInvalidValue, color)
	}
	return s.target.AddColor(seq, color)
}

// SetColor validates color and replaces the sequence entry at index.
func (s *Surface) SetColor(seq string, index int, color string) error {
	if !ValidColor(color) {
		return fmt.Errorf("%w: color %q", ErrInvalidValue, color)
	}
	return s.target.SetColor(seq, index, color)
}

// SetOutline validates color, clamps width and updates both in one change.
func (s *Surface) SetOutline(color string, width float64) error {
	w, err := pairedSize("outlineWidth", color, width)
	if err != nil {
		return err
	}
	s.target.SetOutline(color, w)
	return nil
}

// SetShadow validates color, clamps blur and updates both in one change.
func (s *Surface) SetShadow(color string, blur float64) error {
	b, err := pairedSize("shadowBlur", color, blur)
	if err != nil {
		return err
	}
	s.target.SetShadow(color, b)
	return nil
}

func pairedSize(name, color string, v float64) (int, error) {
	if !ValidColor(color) {
		return 0, fmt.Errorf("%w: color %q", ErrInvalidValue, color)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidValue, name)
	}
	return int(math.Round(Clamp(name, v))), nil
}

// Normalize returns value shaped for the named field: numbers clamped and
// rounded for integer fields, text and colors checked.
func Normalize(name string, value any) (any, error) {
	kind, ok := scene.FieldKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", scene.ErrUnknownField, name)
	}

	switch kind {
	case reflect.Int, reflect.Float64:
		f, ok := toFloat(value)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidValue, name)
		}
		f = Clamp(name, f)
		if kind == reflect.Int {
			return int(math.Round(f)), nil
		}
		return f, nil

	case reflect.String:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidValue, name)
		}
		if textFields[name] && utf8.RuneCountInString(str) > MaxTextRunes {
			return nil, fmt.Errorf("%w: %s is longer than %d characters", ErrInvalidValue, name, MaxTextRunes)
		}
		if colorFields[name] && !ValidColor(str) {
			return nil, fmt.Errorf("%w: color %q", ErrInvalidValue, str)
		}
		return str, nil

	case reflect.Slice:
		colors, ok := toStrings(value)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a list of colors", ErrInvalidValue, name)
		}
		for _, c := range colors {
			if !ValidColor(c) {
				return nil, fmt.Errorf("%w: color %q", ErrInvalidValue, c)
			}
		}
		return colors, nil
	}
	return value, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case scene.ColorSequence:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}
