// Package source provides a uniform interface over three frame acquisition
// backends: image sequences, video files, and live cameras. All variants
// share the same playback state machine and push notifications through a
// per-source event dispatcher.
package source

// State is the playback state of a frame source.
type State int

const (
	// Stopped - no playback; current index reset for non-live sources.
	Stopped State = iota
	// Playing - frames are being emitted.
	Playing
	// Paused - playback halted at the current frame (non-live sources only).
	Paused
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}
