// Package present derives paint-ready presentation parameters from a Scene
// Configuration. Derive is pure: the only temporal inputs arrive in Clock,
// which the effects package owns.
package present

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/jota2rz/led-scroller/internal/scene"
)

// Frame-style defaults used when no cycling effect drives the accent.
const (
	LEDColor  = "#00ff00"
	NeonColor = "#00ffff"
	NoneColor = "#333"
)

// Clock is the temporal input to Derive.
type Clock struct {
	Elapsed      time.Duration `json:"elapsed"`      // accumulated playing time
	FlickerIndex int           `json:"flickerIndex"` // position in flickerColors
	RGBIndex     int           `json:"rgbIndex"`     // position in rgbBorderColors
	Level        float64       `json:"level"`        // audio level 0-1
}

// Frame holds everything needed to paint one instant of the display.
type Frame struct {
	Text       string        `json:"text"`
	Static     bool          `json:"static"`
	Overflow   bool          `json:"overflow"` // active text exceeds maxLength
	Accent     string        `json:"accent"`
	Style      TextStyle     `json:"style"`
	Animation  Animation     `json:"animation"`
	Reflection Reflection    `json:"reflection"`
	Background Background    `json:"background"`
	Border     Border        `json:"border"`
	Corners    Corners       `json:"corners"`
	Audio      AudioReaction `json:"audio"`
	Layout     Layout        `json:"layout"`
}

// TextStyle carries the text styling inputs verbatim.
type TextStyle struct {
	Color         string          `json:"color"`
	FontFamily    string          `json:"fontFamily"`
	FontSize      int             `json:"fontSize"`
	TextTransform scene.TextCase  `json:"textTransform"`
	LetterSpacing int             `json:"letterSpacing"`
	LineHeight    float64         `json:"lineHeight"`
	ShadowColor   string          `json:"shadowColor"`
	ShadowBlur    int             `json:"shadowBlur"`
	OutlineColor  string          `json:"outlineColor"`
	OutlineWidth  int             `json:"outlineWidth"`
	Skew          int             `json:"skew"`
	Rotation      int             `json:"rotation"`
	Variant       scene.TextStyle `json:"variant"`
	Vertical      bool            `json:"vertical"`
	Mirrored      bool            `json:"mirrored"`
}

// Animation describes the keyframe animation applied to the text layer.
type Animation struct {
	Name     string  `json:"name"` // keyframes name, empty for none
	Duration float64 `json:"duration"`
	Easing   string  `json:"easing"`
	Delay    float64 `json:"delay"`
	Running  bool    `json:"running"`
	Phase    float64 `json:"phase"` // 0-1 position within the current period
}

// Reflection is the mirrored copy of the text layer.
type Reflection struct {
	Enabled bool    `json:"enabled"`
	Opacity float64 `json:"opacity"`
}

// Background is the backdrop layer.
type Background struct {
	Kind      scene.BackgroundKind `json:"kind"`
	Color     string               `json:"color"`
	Image     string               `json:"image,omitempty"`
	Particles bool                 `json:"particles"`
	Bordered  bool                 `json:"bordered"` // RGB border draws around the background
}

// Border is the frame drawn around the display.
type Border struct {
	Style scene.FrameStyle `json:"style"`
	Color string           `json:"color"`
	Glow  int              `json:"glow"` // box-shadow blur in px, 0 for none
}

// Corners are the four corner lights.
type Corners struct {
	Enabled bool   `json:"enabled"`
	Color   string `json:"color"`
}

// AudioReaction is the modulation applied from the audio level.
type AudioReaction struct {
	Active  bool          `json:"active"`
	ReactTo scene.ReactTo `json:"reactTo"`
	Amount  float64       `json:"amount"` // 0-1
}

// Layout positions static text.
type Layout struct {
	Position  scene.VerticalPosition `json:"position"`
	Alignment scene.Alignment        `json:"alignment"`
	FontSize  int                    `json:"fontSize"`
}

// ScrollDuration is the scroll period in seconds for a speed of 1-15.
func ScrollDuration(speed int) float64 {
	return math.Max(3, float64(20-speed))
}

// CycleInterval is the time between color steps at the given speed.
func CycleInterval(speed int) time.Duration {
	if speed < 1 {
		speed = 1
	}
	return time.Second / time.Duration(speed)
}

var keyframes = map[scene.Direction]string{
	scene.DirectionLeft:   "scroll-left",
	scene.DirectionRight:  "scroll-right",
	scene.DirectionBounce: "bounce",
	scene.DirectionGlitch: "glitch",
}

// Derive maps a configuration and clock onto a Frame.
func Derive(cfg scene.Config, clk Clock) Frame {
	f := Frame{
		Text:   cfg.ActiveText(),
		Static: cfg.DisplayMode == scene.DisplayStatic,
		Accent: Accent(cfg, clk),
		Style: TextStyle{
			Color:         cfg.Color,
			FontFamily:    cfg.Font,
			FontSize:      cfg.FontSize,
			TextTransform: cfg.TextCase,
			LetterSpacing: cfg.LetterSpacing,
			LineHeight:    cfg.LineHeight,
			ShadowColor:   cfg.ShadowColor,
			ShadowBlur:    cfg.ShadowBlur,
			OutlineColor:  cfg.OutlineColor,
			OutlineWidth:  cfg.OutlineWidth,
			Skew:          cfg.TextSkew,
			Rotation:      cfg.TextRotation,
			Variant:       cfg.TextStyle,
			Vertical:      cfg.VerticalText,
			Mirrored:      cfg.MirroredText,
		},
		Reflection: Reflection{
			Enabled: cfg.Reflection > 0,
			Opacity: float64(cfg.Reflection) / 100,
		},
		Layout: Layout{
			Position:  cfg.StaticTextPosition,
			Alignment: cfg.StaticTextAlignment,
			FontSize:  cfg.StaticTextFontSize,
		},
	}
	f.Overflow = utf8.RuneCountInString(f.Text) > cfg.MaxLength
	if f.Static {
		f.Style.FontSize = cfg.StaticTextFontSize
	}

	f.Audio = audioReaction(cfg, clk.Level)
	f.Animation = animation(cfg, clk.Elapsed, f.Audio)
	f.Background = Background{
		Kind:      cfg.Background,
		Color:     backgroundColor(cfg, clk),
		Image:     cfg.BackgroundImage,
		Particles: cfg.Background.HasParticles(),
		Bordered:  cfg.RGBBorderEnabled,
	}
	f.Border = Border{Style: cfg.FrameStyle, Color: f.Accent, Glow: glow(cfg)}
	f.Corners = Corners{Enabled: cfg.CornerLights, Color: f.Accent}
	return f
}

// Accent is the shared border color: the RGB border cycle when enabled,
// then the flicker cycle, then the frame style's fixed color.
func Accent(cfg scene.Config, clk Clock) string {
	switch {
	case cfg.RGBBorderEnabled && len(cfg.RGBBorderColors) > 0:
		return cfg.RGBBorderColors.At(clk.RGBIndex)
	case cfg.FlickerEnabled && len(cfg.FlickerColors) > 0:
		return cfg.FlickerColors.At(clk.FlickerIndex)
	}
	switch cfg.FrameStyle {
	case scene.FrameLED:
		return LEDColor
	case scene.FrameNeon:
		return NeonColor
	}
	return NoneColor
}

func backgroundColor(cfg scene.Config, clk Clock) string {
	switch {
	case cfg.RGBBorderEnabled && len(cfg.RGBBorderColors) > 0:
		return cfg.RGBBorderColors.At(clk.RGBIndex)
	case cfg.FlickerEnabled && len(cfg.FlickerColors) > 0:
		return cfg.FlickerColors.At(clk.FlickerIndex)
	}
	return cfg.BgColor
}

func glow(cfg scene.Config) int {
	switch cfg.FrameStyle {
	case scene.FrameLED:
		if cfg.RGBBorderEnabled {
			return 20
		}
		return 15
	case scene.FrameNeon:
		return 30
	}
	return 0
}

func animation(cfg scene.Config, elapsed time.Duration, audio AudioReaction) Animation {
	a := Animation{
		Easing:  cfg.Easing,
		Delay:   cfg.Delay,
		Running: cfg.IsPlaying,
	}
	if cfg.DisplayMode == scene.DisplayStatic {
		if cfg.AnimationType != "none" {
			a.Name = cfg.AnimationType
		}
		a.Duration = cfg.AnimationDuration
	} else {
		a.Name = keyframes[cfg.Direction]
		a.Duration = ScrollDuration(cfg.Speed)
		if a.Easing == "" {
			a.Easing = "linear"
		}
	}
	if audio.Active && audio.ReactTo == scene.ReactSpeed {
		a.Duration /= 1 + audio.Amount
	}
	if a.Name == "" {
		a.Running = false
	}
	if a.Running && a.Duration > 0 {
		a.Phase = math.Mod(elapsed.Seconds(), a.Duration) / a.Duration
	}
	return a
}

func audioReaction(cfg scene.Config, level float64) AudioReaction {
	if cfg.AudioSource == scene.AudioNone || cfg.AudioSource == "" {
		return AudioReaction{ReactTo: cfg.ReactTo}
	}
	gain := math.Min(math.Max(level*float64(cfg.Sensitivity)/100, 0), 1)
	return AudioReaction{
		Active:  true,
		ReactTo: cfg.ReactTo,
		Amount:  gain * float64(cfg.Intensity) / 100,
	}
}
