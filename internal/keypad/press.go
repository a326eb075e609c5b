package keypad

import (
	"math"
	"time"
)

// Press detection constants.
const (
	// PressRadius is the maximum distance in pixels between the fingertip
	// and the key center for a dwell to count as a press. Requiring
	// proximity to the center instead of mere containment avoids
	// accidental triggers near key edges.
	PressRadius = 50.0

	// PressCooldown is the minimum interval between two presses of the
	// same key. Frames arrive every ~10ms and a physical dwell spans many
	// frames; without the cooldown one dwell would fire dozens of events.
	PressCooldown = 200 * time.Millisecond
)

// FingerPosition is the tracked index-fingertip location in canvas pixels.
type FingerPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PressEvent is a discrete, debounced key press.
type PressEvent struct {
	Label string    `json:"label"`
	At    time.Time `json:"at"`
}

// PressDetector converts a noisy, continuously-updating fingertip position
// into discrete key-press events. Debounce state is an explicit pair
// (last fired key, last fire time): an event fires only when the key under
// the fingertip differs from the last fired key, or the cooldown has
// elapsed.
type PressDetector struct {
	radius   float64
	cooldown time.Duration

	lastLabel string
	lastFire  time.Time
	hover     string
}

// NewPressDetector creates a PressDetector with the default press radius
// and cooldown.
func NewPressDetector() *PressDetector {
	return &PressDetector{
		radius:   PressRadius,
		cooldown: PressCooldown,
	}
}

// OnFrame feeds one frame's fingertip position to the detector and returns
// a PressEvent if a qualifying dwell occurred this frame.
//
// pos is nil when no hand was detected; the hover candidate is reset
// immediately in that case since the hand left the frame, but the debounce
// state persists so a rapid re-entry onto the same key stays suppressed.
func (d *PressDetector) OnFrame(pos *FingerPosition, grid *Grid, now time.Time) (PressEvent, bool) {
	if pos == nil {
		d.hover = ""
		return PressEvent{}, false
	}

	key, ok := grid.HitTest(int(pos.X), int(pos.Y))
	if !ok {
		d.hover = ""
		return PressEvent{}, false
	}
	d.hover = key.Label

	dx := pos.X - key.CenterX()
	dy := pos.Y - key.CenterY()
	if math.Sqrt(dx*dx+dy*dy) > d.radius {
		return PressEvent{}, false
	}

	if key.Label == d.lastLabel && now.Sub(d.lastFire) < d.cooldown {
		return PressEvent{}, false
	}

	d.lastLabel = key.Label
	d.lastFire = now
	return PressEvent{Label: key.Label, At: now}, true
}

// Hover returns the label of the key currently under the fingertip, or ""
// if none. Used by the presentation layer to highlight the candidate key.
func (d *PressDetector) Hover() string {
	return d.hover
}

// Reset clears both the hover candidate and the debounce state.
func (d *PressDetector) Reset() {
	d.lastLabel = ""
	d.lastFire = time.Time{}
	d.hover = ""
}
