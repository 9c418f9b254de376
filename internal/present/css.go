package present

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jota2rz/led-scroller/internal/scene"
)

// Styles holds the inline style of every layer, for clients that apply
// them verbatim.
type Styles struct {
	Text       string `json:"text"`
	Reflection string `json:"reflection"`
	Border     string `json:"border"`
	Corner     string `json:"corner"`
	Background string `json:"background"`
	Stage      string `json:"stage"`
}

// Styles renders every layer's inline style.
func (f Frame) Styles() Styles {
	return Styles{
		Text:       f.TextCSS(),
		Reflection: f.ReflectionCSS(),
		Border:     f.BorderCSS(),
		Corner:     f.CornerCSS(),
		Background: f.BackgroundCSS(),
		Stage:      f.StageCSS(),
	}
}

var justify = map[scene.VerticalPosition]string{
	scene.PositionTop:    "flex-start",
	scene.PositionCenter: "center",
	scene.PositionBottom: "flex-end",
}

// StageCSS places the text vertically. Scrolling text is always centered.
func (f Frame) StageCSS() string {
	j := "center"
	if v, ok := justify[f.Layout.Position]; ok && f.Static {
		j = v
	}
	var b strings.Builder
	decl(&b, "justify-content", j)
	return b.String()
}

// TextCSS renders the text layer's inline style declarations.
func (f Frame) TextCSS() string {
	s := f.Style
	var b strings.Builder
	decl(&b, "color", s.Color)
	decl(&b, "font-family", s.FontFamily)
	decl(&b, "font-size", px(s.FontSize))
	decl(&b, "text-transform", string(s.TextTransform))
	decl(&b, "letter-spacing", px(s.LetterSpacing))
	decl(&b, "line-height", num(s.LineHeight))
	decl(&b, "text-shadow", fmt.Sprintf("%s 0 0 %dpx", s.ShadowColor, s.ShadowBlur))
	decl(&b, "-webkit-text-stroke", fmt.Sprintf("%dpx %s", s.OutlineWidth, s.OutlineColor))
	if s.Vertical {
		decl(&b, "writing-mode", "vertical-rl")
	}
	decl(&b, "transform", f.textTransform())
	if filter := f.filter(); filter != "" {
		decl(&b, "filter", filter)
	}
	decl(&b, "animation", f.Animation.CSS())
	if f.Static {
		decl(&b, "text-align", string(f.Layout.Alignment))
	}
	return b.String()
}

// ReflectionCSS renders the mirrored text copy's extra declarations. The
// flip itself lives on the wrapping element so the text animation's
// transform does not replace it.
func (f Frame) ReflectionCSS() string {
	if !f.Reflection.Enabled {
		return "display: none;"
	}
	var b strings.Builder
	decl(&b, "opacity", num(f.Reflection.Opacity))
	decl(&b, "mask-image", "linear-gradient(to bottom, transparent, black 70%)")
	return b.String()
}

// BorderCSS renders the frame's inline style declarations.
func (f Frame) BorderCSS() string {
	var b strings.Builder
	decl(&b, "border", "4px solid "+f.Border.Color)
	if f.Border.Glow > 0 {
		g := fmt.Sprintf("0 0 %dpx %s", f.Border.Glow, f.Border.Color)
		decl(&b, "box-shadow", g+", inset "+g)
	} else {
		decl(&b, "box-shadow", "none")
	}
	return b.String()
}

// CornerCSS renders a corner light's inline style declarations.
func (f Frame) CornerCSS() string {
	if !f.Corners.Enabled {
		return "display: none;"
	}
	c := f.Corners.Color
	var b strings.Builder
	decl(&b, "background-color", c)
	decl(&b, "box-shadow", fmt.Sprintf("0 0 10px %s, 0 0 20px %s", c, c))
	return b.String()
}

// BackgroundCSS renders the background layer's inline style declarations.
func (f Frame) BackgroundCSS() string {
	bg := f.Background
	var b strings.Builder
	decl(&b, "background-color", bg.Color)
	if bg.Image != "" {
		decl(&b, "background-image", "url("+strconv.Quote(bg.Image)+")")
		decl(&b, "background-size", "cover")
	}
	if bg.Bordered {
		decl(&b, "border", "4px solid "+bg.Color)
		decl(&b, "box-shadow", "0 0 20px "+bg.Color)
	} else {
		decl(&b, "border", "none")
		decl(&b, "box-shadow", "none")
	}
	return b.String()
}

// CSS renders the animation shorthand, or "none" when stopped.
func (a Animation) CSS() string {
	if !a.Running || a.Name == "" {
		return "none"
	}
	return fmt.Sprintf("%s %ss %s %ss infinite", a.Name, num(a.Duration), a.Easing, num(a.Delay))
}

func (f Frame) textTransform() string {
	parts := []string{
		fmt.Sprintf("skew(%ddeg)", f.Style.Skew),
		fmt.Sprintf("rotate(%ddeg)", f.Style.Rotation),
	}
	if f.Style.Mirrored {
		parts = append(parts, "scaleX(-1)")
	}
	if f.Audio.Active && f.Audio.ReactTo == scene.ReactSize {
		parts = append(parts, "scale("+num(1+f.Audio.Amount)+")")
	}
	return strings.Join(parts, " ")
}

func (f Frame) filter() string {
	if !f.Audio.Active {
		return ""
	}
	switch f.Audio.ReactTo {
	case scene.ReactBrightness:
		return "brightness(" + num(1+f.Audio.Amount) + ")"
	case scene.ReactColor:
		return "hue-rotate(" + num(f.Audio.Amount*360) + "deg)"
	}
	return ""
}

func decl(b *strings.Builder, prop, value string) {
	b.WriteString(prop)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("; ")
}

func px(n int) string { return strconv.Itoa(n) + "px" }

// num formats f with at most three decimals.
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
}
