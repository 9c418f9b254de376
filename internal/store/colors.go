package store

import (
	"fmt"

	"github.com/jota2rz/led-scroller/internal/scene"
)

// TogglePlay flips isPlaying and nothing else.
func (s *Store) TogglePlay() {
	_ = s.mutate("", func(c *scene.Config) error {
		c.IsPlaying = !c.IsPlaying
		return nil
	})
}

// ToggleFlicker flips flickerEnabled.
func (s *Store) ToggleFlicker() {
	_ = s.mutate("", func(c *scene.Config) error {
		c.FlickerEnabled = !c.FlickerEnabled
		return nil
	})
}

// ToggleRGBBorder flips rgbBorderEnabled.
func (s *Store) ToggleRGBBorder() {
	_ = s.mutate("", func(c *scene.Config) error {
		c.RGBBorderEnabled = !c.RGBBorderEnabled
		return nil
	})
}

// ToggleCornerLights flips cornerLights.
func (s *Store) ToggleCornerLights() {
	_ = s.mutate("", func(c *scene.Config) error {
		c.CornerLights = !c.CornerLights
		return nil
	})
}

// SetOutline updates the outline color and width together.
func (s *Store) SetOutline(color string, width int) {
	_ = s.mutate("", func(c *scene.Config) error {
		c.OutlineColor = color
		c.OutlineWidth = width
		return nil
	})
}

// SetShadow updates the shadow color and blur together.
func (s *Store) SetShadow(color string, blur int) {
	_ = s.mutate("", func(c *scene.Config) error {
		c.ShadowColor = color
		c.ShadowBlur = blur
		return nil
	})
}

// AddColor appends a color to the named sequence.
func (s *Store) AddColor(seq, color string) error {
	return s.editSequence(seq, func(cs scene.ColorSequence) scene.ColorSequence {
		return cs.Add(color)
	})
}

// RemoveColor drops the color at index. The last remaining color, or an
// index out of range, is left in place and nothing is notified.
func (s *Store) RemoveColor(seq string, index int) error {
	return s.editSequence(seq, func(cs scene.ColorSequence) scene.ColorSequence {
		return cs.Remove(index)
	})
}

// SetColor replaces the color at index. Out-of-range indices are ignored.
func (s *Store) SetColor(seq string, index int, color string) error {
	return s.editSequence(seq, func(cs scene.ColorSequence) scene.ColorSequence {
		return cs.Set(index, color)
	})
}

func (s *Store) editSequence(seq string, edit func(scene.ColorSequence) scene.ColorSequence) error {
	return s.mutate("", func(c *scene.Config) error {
		cur, ok := c.Sequence(seq)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSequence, seq)
		}
		return c.SetField(seq, edit(cur))
	})
}
