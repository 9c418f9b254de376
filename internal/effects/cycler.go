// Package effects owns the recurring animation state: color cyclers, the
// particle field and the scroll clock. Nothing here writes to the store.
package effects

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jota2rz/led-scroller/internal/present"
	"github.com/jota2rz/led-scroller/internal/scene"
)

// Cycler steps through a color sequence at speed steps per second.
type Cycler struct {
	colors scene.ColorSequence
	speed  int
	onStep func(index int, color string)

	mu     sync.Mutex
	index  int
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCycler creates a stopped cycler positioned on the first color.
// onStep may be nil.
func NewCycler(colors scene.ColorSequence, speed int, onStep func(index int, color string)) *Cycler {
	return &Cycler{
		colors: slices.Clone(colors),
		speed:  speed,
		onStep: onStep,
	}
}

// Start begins stepping every present.CycleInterval(speed) until Stop or
// ctx is cancelled. Starting a running cycler does nothing.
func (c *Cycler) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(present.CycleInterval(c.speed))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Step()
			}
		}
	}()
}

// Cancel halts the cycler without waiting for its goroutine. A step already
// in progress may still complete.
func (c *Cycler) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Stop halts the cycler and waits for its goroutine to exit. It is safe to
// call more than once. It must not be called from onStep.
func (c *Cycler) Stop() {
	c.Cancel()
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Step advances to the next color, wrapping at the end of the sequence.
func (c *Cycler) Step() string {
	if len(c.colors) == 0 {
		return ""
	}
	c.mu.Lock()
	c.index = (c.index + 1) % len(c.colors)
	index := c.index
	c.mu.Unlock()

	color := c.colors[index]
	if c.onStep != nil {
		c.onStep(index, color)
	}
	return color
}

// Index returns the current position in the sequence.
func (c *Cycler) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Color returns the current color.
func (c *Cycler) Color() string {
	return c.colors.At(c.Index())
}

// Running reports whether the cycler goroutine is active.
func (c *Cycler) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Matches reports whether the cycler was built for these colors and speed.
func (c *Cycler) Matches(colors scene.ColorSequence, speed int) bool {
	return c.speed == speed && slices.Equal(c.colors, colors)
}
