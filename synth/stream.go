package synth

import "fmt"

type (
	// Clip holds rendered stereo audio and implements beep.StreamSeeker over
	// it.
	Clip struct {
		pos   int
		left  []float32
		right []float32
	}

	// Live streams whatever is currently sounding on the engine. Hand it to
	// the speaker once and drive the engine with NoteOn/NoteOff.
	Live struct {
		engine *Engine
	}
)

// NewClip returns a silent clip of the given frame count.
func NewClip(frames int) *Clip {
	return &Clip{
		left:  make([]float32, frames),
		right: make([]float32, frames),
	}
}

// Stream implements beep.Streamer.
func (c *Clip) Stream(samples [][2]float64) (n int, ok bool) {
	if c.pos >= len(c.left) {
		return 0, false
	}
	for i := range samples {
		if c.pos >= len(c.left) {
			return i, true
		}
		samples[i][0] = float64(c.left[c.pos])
		samples[i][1] = float64(c.right[c.pos])
		c.pos++
		n++
	}
	return n, true
}

// Len returns the total number of frames in the clip.
func (c *Clip) Len() int {
	// left and right have the same length
	return len(c.left)
}

// Position returns the current position of the streamer.
func (c *Clip) Position() int {
	return c.pos
}

// Seek sets the position of the streamer to the provided value.
func (c *Clip) Seek(p int) error {
	if p < 0 || p > len(c.left) {
		return fmt.Errorf("p is out of range: %d", p)
	}
	c.pos = p
	return nil
}

func (c *Clip) Err() error { return nil }

// NewLive returns the engine's live output stream.
func NewLive(e *Engine) *Live {
	return &Live{engine: e}
}

// Stream implements beep.Streamer. It never drains; with no notes sounding
// it streams silence.
func (l *Live) Stream(samples [][2]float64) (n int, ok bool) {
	left := make([]float32, len(samples))
	right := make([]float32, len(samples))

	l.engine.render(left, right)

	for i := range samples {
		samples[i][0] = float64(left[i])
		samples[i][1] = float64(right[i])
	}
	return len(samples), true
}

func (l *Live) Err() error { return nil }
