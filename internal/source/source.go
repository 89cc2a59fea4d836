package source

import (
	"sync"

	"rheedview/internal/frame"
)

// Playback fps bounds shared by all sources.
const (
	minFPS = 1.0
	maxFPS = 120.0
)

// FrameSource is the uniform interface over the three acquisition backends:
// image sequence, video file, and live camera. A source is exclusively owned
// by its caller; it owns its backend handle and releases it exactly once.
type FrameSource interface {
	// Open binds the source to a path (directory, file, or device id).
	// A failed open reports an error event, returns false, and leaves the
	// source closed and reusable.
	Open(path string) bool

	// Close stops playback, releases backend resources, and resets all
	// counters. Idempotent.
	Close()

	// Start begins playback or capture.
	Start()

	// Stop halts playback and resets the current index (non-live sources).
	Stop()

	// Pause halts playback at the current frame. Live sources map this to
	// Stop.
	Pause()

	// Seek moves to a frame index and synchronously emits that frame.
	// Returns false outside [0, TotalFrames) and always for live sources.
	Seek(index int) bool

	// GetFrame fetches a frame by index, bypassing playback state. Live
	// sources ignore the index and return the next available frame.
	GetFrame(index int) (*frame.Frame, bool)

	State() State
	CurrentIndex() int
	TotalFrames() int
	FPS() float64
	SetFPS(fps float64)
	IsLive() bool
	Grayscale() bool
	SetGrayscale(grayscale bool)
	Events() *Events
}

// playback holds the state shared by all source variants.
type playback struct {
	mu        sync.RWMutex
	state     State
	current   int
	total     int
	fps       float64
	grayscale bool
	events    *Events
}

func newPlayback() playback {
	return playback{
		fps:    30.0,
		events: NewEvents(),
	}
}

// State returns the current playback state.
func (p *playback) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// setState updates the state and emits state_changed on transitions.
func (p *playback) setState(s State) {
	p.mu.Lock()
	changed := p.state != s
	p.state = s
	p.mu.Unlock()

	if changed {
		p.events.EmitState(s)
	}
}

// CurrentIndex returns the 0-based current frame index.
func (p *playback) CurrentIndex() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// TotalFrames returns the total frame count (0 for live sources).
func (p *playback) TotalFrames() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total
}

// FPS returns the target frame rate.
func (p *playback) FPS() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fps
}

// SetFPS sets the target frame rate, clamped to [1, 120].
func (p *playback) SetFPS(fps float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fps = clampFPS(fps)
}

// IsLive reports whether this is a live source. Overridden by CameraSource.
func (p *playback) IsLive() bool {
	return false
}

// Grayscale reports the output color mode.
func (p *playback) Grayscale() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.grayscale
}

// SetGrayscale toggles single-channel output. Takes effect on the next
// frame fetch.
func (p *playback) SetGrayscale(grayscale bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grayscale = grayscale
}

// Events returns the source's notification dispatcher.
func (p *playback) Events() *Events {
	return p.events
}

func clampFPS(fps float64) float64 {
	if fps < minFPS {
		return minFPS
	}
	if fps > maxFPS {
		return maxFPS
	}
	return fps
}
