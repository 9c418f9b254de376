package scene

// DisplayMode selects which text field is authoritative for rendering.
type DisplayMode string

const (
	DisplayScrolling DisplayMode = "scrolling"
	DisplayStatic    DisplayMode = "static"
)

func (m DisplayMode) Valid() bool { return oneOf(m, DisplayScrolling, DisplayStatic) }

// TextCase maps onto the CSS text-transform property.
type TextCase string

const (
	CaseNone       TextCase = "none"
	CaseUpper      TextCase = "uppercase"
	CaseLower      TextCase = "lowercase"
	CaseCapitalize TextCase = "capitalize"
)

func (c TextCase) Valid() bool { return oneOf(c, CaseNone, CaseUpper, CaseLower, CaseCapitalize) }

// TextStyle is the decorative variant applied to the text layer.
type TextStyle string

const (
	StyleNormal TextStyle = "normal"
	StyleBullet TextStyle = "bullet"
	StyleCloud  TextStyle = "cloud"
	StyleFunky  TextStyle = "funky"
)

func (s TextStyle) Valid() bool { return oneOf(s, StyleNormal, StyleBullet, StyleCloud, StyleFunky) }

// Direction is the scroll motion of the text layer.
type Direction string

const (
	DirectionLeft   Direction = "left"
	DirectionRight  Direction = "right"
	DirectionBounce Direction = "bounce"
	DirectionGlitch Direction = "glitch"
)

func (d Direction) Valid() bool {
	return oneOf(d, DirectionLeft, DirectionRight, DirectionBounce, DirectionGlitch)
}

// BackgroundKind selects the background effect.
type BackgroundKind string

const (
	BackgroundSolid   BackgroundKind = "solid"
	BackgroundMatrix  BackgroundKind = "matrix"
	BackgroundStars   BackgroundKind = "stars"
	BackgroundCircuit BackgroundKind = "circuit"
	BackgroundCyber   BackgroundKind = "cyber"
)

func (b BackgroundKind) Valid() bool {
	return oneOf(b, BackgroundSolid, BackgroundMatrix, BackgroundStars, BackgroundCircuit, BackgroundCyber)
}

// HasParticles reports whether the background animates a particle layer.
func (b BackgroundKind) HasParticles() bool { return b.Valid() && b != BackgroundSolid }

// FrameStyle is the border drawn around the sign.
type FrameStyle string

const (
	FrameNone FrameStyle = "none"
	FrameLED  FrameStyle = "led"
	FrameNeon FrameStyle = "neon"
)

func (f FrameStyle) Valid() bool { return oneOf(f, FrameNone, FrameLED, FrameNeon) }

// AudioSource names where audio levels come from.
type AudioSource string

const (
	AudioNone       AudioSource = "none"
	AudioMicrophone AudioSource = "microphone"
	AudioFile       AudioSource = "file"
	AudioLineIn     AudioSource = "line-in"
)

func (a AudioSource) Valid() bool {
	return oneOf(a, AudioNone, AudioMicrophone, AudioFile, AudioLineIn)
}

// ReactTo names the visual parameter modulated by the audio level.
type ReactTo string

const (
	ReactBrightness ReactTo = "brightness"
	ReactSize       ReactTo = "size"
	ReactSpeed      ReactTo = "speed"
	ReactColor      ReactTo = "color"
)

func (r ReactTo) Valid() bool { return oneOf(r, ReactBrightness, ReactSize, ReactSpeed, ReactColor) }

// VerticalPosition places static text inside the sign.
type VerticalPosition string

const (
	PositionTop    VerticalPosition = "top"
	PositionCenter VerticalPosition = "center"
	PositionBottom VerticalPosition = "bottom"
)

func (p VerticalPosition) Valid() bool { return oneOf(p, PositionTop, PositionCenter, PositionBottom) }

// Alignment is the horizontal alignment of static text.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

func (a Alignment) Valid() bool { return oneOf(a, AlignLeft, AlignCenter, AlignRight) }

func oneOf[T comparable](v T, set ...T) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
