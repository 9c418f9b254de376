package presets

import "github.com/jota2rz/led-scroller/internal/scene"

// DefaultName is the preset used for resets and unknown preset names.
const DefaultName = "default"

// builtinOrder is the seed order shown in preset lists.
var builtinOrder = []string{DefaultName, "matrix", "cyberpunk", "neon", "rgbParty", "minimalWhite"}

func defaultConfig() scene.Config {
	return scene.Config{
		Text:        "YOUR TEXT HERE",
		StaticText:  "",
		DisplayMode: scene.DisplayScrolling,

		Font:          "'Orbitron', sans-serif",
		TextCase:      scene.CaseUpper,
		LetterSpacing: 3,
		LineHeight:    1.2,
		FontSize:      96,
		TextStyle:     scene.StyleNormal,

		Color:        "#00ff00",
		OutlineColor: "#000000",
		OutlineWidth: 1,
		ShadowColor:  "#00ff00",
		ShadowBlur:   10,
		Reflection:   0,

		Direction:         scene.DirectionLeft,
		Speed:             5,
		AnimationType:     "none",
		AnimationDuration: 2,
		TransitionStyle:   "fade",
		Easing:            "linear",
		IsPlaying:         false,

		Background: scene.BackgroundMatrix,
		BgColor:    "#000000",

		FlickerEnabled:   false,
		FlickerSpeed:     5,
		FlickerColors:    scene.ColorSequence{"#ff0000", "#00ff00", "#0000ff"},
		RGBBorderEnabled: false,
		RGBBorderSpeed:   5,
		RGBBorderColors:  scene.ColorSequence{"#ff0000", "#00ff00", "#0000ff"},

		FrameStyle:   scene.FrameLED,
		CornerLights: true,

		AudioSource: scene.AudioNone,
		Sensitivity: 100,
		ReactTo:     scene.ReactBrightness,
		Intensity:   50,

		StaticTextPosition:  scene.PositionCenter,
		StaticTextAlignment: scene.AlignCenter,
		StaticTextFontSize:  48,

		MaxLength: 50,
	}
}

// builtins returns freshly built copies of every built-in preset. Themed
// presets are the default preset plus overrides.
func builtins() map[string]scene.Config {
	def := defaultConfig()

	matrix := def.Clone()
	matrix.Text = "MATRIX"
	matrix.Color = "#00ff41"
	matrix.Font = "'Courier New', monospace"
	matrix.Background = scene.BackgroundMatrix
	matrix.BgColor = "#001a00"
	matrix.RGBBorderEnabled = true
	matrix.RGBBorderColors = scene.ColorSequence{"#00ff41", "#00b341", "#008241"}
	matrix.TextStyle = scene.StyleBullet

	cyberpunk := def.Clone()
	cyberpunk.Text = "CYBERPUNK 2077"
	cyberpunk.Color = "#ff00ff"
	cyberpunk.Font = "'Rajdhani', sans-serif"
	cyberpunk.Background = scene.BackgroundCircuit
	cyberpunk.BgColor = "#110011"
	cyberpunk.OutlineWidth = 2
	cyberpunk.OutlineColor = "#00ffff"
	cyberpunk.RGBBorderEnabled = true
	cyberpunk.RGBBorderColors = scene.ColorSequence{"#ff00ff", "#00ffff", "#ffff00"}
	cyberpunk.TextStyle = scene.StyleFunky

	neon := def.Clone()
	neon.Text = "NEON LIGHTS"
	neon.Color = "#ffff00"
	neon.Font = "'Iceland', cursive"
	neon.Background = scene.BackgroundSolid
	neon.BgColor = "#000033"
	neon.FrameStyle = scene.FrameNeon
	neon.RGBBorderEnabled = true
	neon.RGBBorderColors = scene.ColorSequence{"#ff0000", "#ffff00", "#ff00ff"}
	neon.TextStyle = scene.StyleCloud

	party := def.Clone()
	party.Text = "RGB PARTY!"
	party.RGBBorderEnabled = true
	party.RGBBorderSpeed = 10
	party.RGBBorderColors = scene.ColorSequence{"#ff0000", "#00ff00", "#0000ff", "#ffff00", "#ff00ff", "#00ffff"}
	party.FlickerEnabled = true
	party.FlickerSpeed = 8
	party.FlickerColors = scene.ColorSequence{"#ff0000", "#00ff00", "#0000ff"}
	party.TextStyle = scene.StyleFunky

	minimal := def.Clone()
	minimal.Text = "MINIMAL"
	minimal.Color = "#ffffff"
	minimal.Font = "'Roboto', sans-serif"
	minimal.Background = scene.BackgroundSolid
	minimal.BgColor = "#000000"
	minimal.FrameStyle = scene.FrameNone
	minimal.OutlineWidth = 0
	minimal.ShadowBlur = 0
	minimal.TextStyle = scene.StyleNormal

	return map[string]scene.Config{
		DefaultName:    def,
		"matrix":       matrix,
		"cyberpunk":    cyberpunk,
		"neon":         neon,
		"rgbParty":     party,
		"minimalWhite": minimal,
	}
}

// Default returns a copy of the built-in default preset.
func Default() scene.Config { return defaultConfig() }
