// Package scene defines the Scene Configuration: the flat record that
// describes one renderable state of the LED sign.
//
// Fields are addressed by their JSON key ("speed", "flickerColors", ...)
// so control surfaces and persistence layers can work with names instead
// of Go identifiers.
package scene

import (
	"errors"
	"reflect"
	"slices"
)

var (
	// ErrUnknownField is returned when a field name does not exist.
	ErrUnknownField = errors.New("unknown scene field")
	// ErrFieldType is returned when a value does not fit the field's type.
	ErrFieldType = errors.New("value does not match field type")
	// ErrEmptySequence is returned when a color sequence would become empty.
	ErrEmptySequence = errors.New("color sequence cannot be empty")
)

// Config is a complete Scene Configuration.
type Config struct {
	// Content
	Text        string      `json:"text"`
	StaticText  string      `json:"staticText"`
	DisplayMode DisplayMode `json:"displayMode"`

	// Typography
	Font          string    `json:"font"`
	TextCase      TextCase  `json:"textCase"`
	LetterSpacing int       `json:"letterSpacing"` // px, signed
	LineHeight    float64   `json:"lineHeight"`
	FontSize      int       `json:"fontSize"` // px
	TextStyle     TextStyle `json:"textStyle"`
	VerticalText  bool      `json:"verticalText"`
	MirroredText  bool      `json:"mirroredText"`

	// Color & effects
	Color        string `json:"color"`
	OutlineColor string `json:"outlineColor"`
	OutlineWidth int    `json:"outlineWidth"`
	ShadowColor  string `json:"shadowColor"`
	ShadowBlur   int    `json:"shadowBlur"`
	Reflection   int    `json:"reflection"` // 0-100 percent

	// Transform (degrees)
	TextSkew     int `json:"textSkew"`
	TextRotation int `json:"textRotation"`

	// Motion
	Direction         Direction `json:"direction"`
	Speed             int       `json:"speed"` // 1-15
	AnimationType     string    `json:"animationType"`
	AnimationDuration float64   `json:"animationDuration"` // seconds
	TransitionStyle   string    `json:"transitionStyle"`
	Easing            string    `json:"easing"`
	Delay             float64   `json:"delay"` // seconds
	IsPlaying         bool      `json:"isPlaying"`

	// Background
	Background      BackgroundKind `json:"background"`
	BgColor         string         `json:"bgColor"`
	BackgroundImage string         `json:"backgroundImage"`

	// Border / flicker effects
	FlickerEnabled   bool          `json:"flickerEnabled"`
	FlickerSpeed     int           `json:"flickerSpeed"` // 1-10
	FlickerColors    ColorSequence `json:"flickerColors"`
	RGBBorderEnabled bool          `json:"rgbBorderEnabled"`
	RGBBorderSpeed   int           `json:"rgbBorderSpeed"` // 1-10
	RGBBorderColors  ColorSequence `json:"rgbBorderColors"`

	// Frame
	FrameStyle   FrameStyle `json:"frameStyle"`
	CornerLights bool       `json:"cornerLights"`

	// Audio reactivity
	AudioSource AudioSource `json:"audioSource"`
	Sensitivity int         `json:"sensitivity"` // 1-200
	ReactTo     ReactTo     `json:"reactTo"`
	Intensity   int         `json:"intensity"` // 1-100

	// Static-text layout
	StaticTextPosition  VerticalPosition `json:"staticTextPosition"`
	StaticTextAlignment Alignment        `json:"staticTextAlignment"`
	StaticTextFontSize  int              `json:"staticTextFontSize"`

	// Limits
	MaxLength int `json:"maxLength"`
}

// Sequence field names.
const (
	FieldFlickerColors   = "flickerColors"
	FieldRGBBorderColors = "rgbBorderColors"
)

// ColorSequence is an ordered, non-empty list of colors cycled by an effect.
type ColorSequence []string

// Add returns a copy of the sequence with color appended.
func (s ColorSequence) Add(color string) ColorSequence {
	out := make(ColorSequence, 0, len(s)+1)
	out = append(out, s...)
	return append(out, color)
}

// Remove returns a copy of the sequence without the color at index.
// Removing the last remaining color, or an index out of range, returns the
// sequence unchanged.
func (s ColorSequence) Remove(index int) ColorSequence {
	if len(s) <= 1 || index < 0 || index >= len(s) {
		return slices.Clone(s)
	}
	return slices.Delete(slices.Clone(s), index, index+1)
}

// Set returns a copy of the sequence with the color at index replaced.
func (s ColorSequence) Set(index int, color string) ColorSequence {
	out := slices.Clone(s)
	if index >= 0 && index < len(out) {
		out[index] = color
	}
	return out
}

// At returns the color at index modulo the sequence length.
func (s ColorSequence) At(index int) string {
	if len(s) == 0 {
		return ""
	}
	index %= len(s)
	if index < 0 {
		index += len(s)
	}
	return s[index]
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := c
	out.FlickerColors = slices.Clone(c.FlickerColors)
	out.RGBBorderColors = slices.Clone(c.RGBBorderColors)
	return out
}

// ActiveText returns the text that is rendered for the current display mode.
func (c Config) ActiveText() string {
	if c.DisplayMode == DisplayStatic {
		return c.StaticText
	}
	return c.Text
}

// Sequence returns the named color sequence.
func (c Config) Sequence(name string) (ColorSequence, bool) {
	switch name {
	case FieldFlickerColors:
		return slices.Clone(c.FlickerColors), true
	case FieldRGBBorderColors:
		return slices.Clone(c.RGBBorderColors), true
	}
	return nil, false
}

// Diff returns the names of the fields whose values differ between c and
// other, in declaration order.
func (c Config) Diff(other Config) []string {
	a := reflect.ValueOf(c)
	b := reflect.ValueOf(other)
	var changed []string
	for _, f := range fields {
		if !reflect.DeepEqual(a.Field(f.index).Interface(), b.Field(f.index).Interface()) {
			changed = append(changed, f.name)
		}
	}
	return changed
}
