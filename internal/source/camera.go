package source

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"rheedview/internal/frame"
)

// CameraInfo describes an opened capture device.
type CameraInfo struct {
	DeviceID   int
	Width      int
	Height     int
	FPS        float64
	Backend    string
	Brightness float64
	Exposure   float64
}

// CaptureDevice is the opaque capture backend behind a CameraSource. The
// camera source owns exactly one device handle; while the capture worker is
// running it is the only reader.
type CaptureDevice interface {
	// Open binds the device by numeric id and returns its properties.
	Open(deviceID int) (CameraInfo, error)

	// ReadFrame blocks until the next frame is captured. The returned
	// frame is 3-channel RGB.
	ReadFrame() (*frame.Frame, error)

	// Info returns current device properties.
	Info() CameraInfo

	// Best-effort property setters; false means the device refused or
	// does not support the property.
	SetResolution(width, height int) bool
	SetExposure(exposure float64) bool
	SetBrightness(brightness float64) bool

	// Close releases the device.
	Close() error
}

// CameraSource captures live frames from a camera device. Capture runs on a
// dedicated worker goroutine because the underlying read blocks; Stop
// signals the worker and waits for it to exit before returning, so the
// device handle is never released underneath it.
type CameraSource struct {
	playback
	device    CaptureDevice
	newDevice func() CaptureDevice
	opened    bool
	deviceID  int
	lastFrame *frame.Frame

	workerMu sync.Mutex // Serializes start/stop of the capture worker
	stopCh   chan struct{}
	workerWG sync.WaitGroup
}

// CameraOption configures a CameraSource.
type CameraOption func(*CameraSource)

// WithCaptureDevice overrides the capture backend constructor.
func WithCaptureDevice(newDevice func() CaptureDevice) CameraOption {
	return func(s *CameraSource) {
		s.newDevice = newDevice
	}
}

// NewCameraSource creates an unopened live camera source backed by the
// ffmpeg V4L2 capture device.
func NewCameraSource(opts ...CameraOption) *CameraSource {
	s := &CameraSource{
		playback:  newPlayback(),
		newDevice: func() CaptureDevice { return newV4L2Device() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsLive reports true: a camera has no fixed length and no random access.
func (s *CameraSource) IsLive() bool {
	return true
}

// TotalFrames is always 0 for a live source.
func (s *CameraSource) TotalFrames() int {
	return 0
}

// Open binds the source to a camera device. The path must be a non-negative
// integer device id encoded as a string; anything else is rejected before
// any backend call is attempted.
func (s *CameraSource) Open(path string) bool {
	deviceID, err := strconv.Atoi(path)
	if err != nil || deviceID < 0 {
		s.events.EmitError(fmt.Sprintf("Invalid device ID: %s", path))
		return false
	}

	// Release any previously bound device first.
	s.Close()

	dev := s.newDevice()
	info, err := dev.Open(deviceID)
	if err != nil {
		s.events.EmitError(fmt.Sprintf("Failed to open camera %d: %v", deviceID, err))
		return false
	}

	s.mu.Lock()
	s.device = dev
	s.opened = true
	s.deviceID = deviceID
	if info.FPS > 0 {
		s.fps = clampFPS(info.FPS)
	}
	s.mu.Unlock()

	return true
}

// Close stops capture and releases the device. Idempotent.
func (s *CameraSource) Close() {
	s.Stop()

	s.mu.Lock()
	if s.device != nil {
		s.device.Close()
		s.device = nil
	}
	s.opened = false
	s.deviceID = 0
	s.lastFrame = nil
	s.current = 0
	s.mu.Unlock()
}

// Start spawns the capture worker. No-op when already capturing.
func (s *CameraSource) Start() {
	s.mu.RLock()
	opened := s.opened
	s.mu.RUnlock()

	if !opened {
		s.events.EmitError("No camera opened. Call Open() first.")
		return
	}

	s.workerMu.Lock()
	defer s.workerMu.Unlock()

	if s.stopCh != nil {
		return // Already running
	}

	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.workerWG.Add(1)
	go s.captureLoop(stopCh)

	s.setState(Playing)
}

// Stop signals the capture worker and blocks until it has fully exited.
// The join happens before any resource release; stopping while the worker
// still holds the device would risk a read on a released handle.
func (s *CameraSource) Stop() {
	s.workerMu.Lock()
	stopCh := s.stopCh
	s.stopCh = nil
	s.workerMu.Unlock()

	if stopCh != nil {
		close(stopCh)
		s.workerWG.Wait()
	}

	s.setState(Stopped)
}

// Pause maps to Stop: a live camera has no meaningful pause.
func (s *CameraSource) Pause() {
	s.Stop()
}

// Seek is unsupported for live sources and always returns false.
func (s *CameraSource) Seek(index int) bool {
	return false
}

// GetFrame ignores the index and returns the next available capture frame:
// the most recently captured frame while the worker is running, otherwise a
// direct read from the device.
func (s *CameraSource) GetFrame(index int) (*frame.Frame, bool) {
	s.workerMu.Lock()
	running := s.stopCh != nil
	s.workerMu.Unlock()

	if running {
		s.mu.RLock()
		f := s.lastFrame
		s.mu.RUnlock()
		return f, f != nil
	}

	s.mu.Lock()
	dev := s.device
	gray := s.grayscale
	s.mu.Unlock()

	if dev == nil {
		return nil, false
	}
	f, err := dev.ReadFrame()
	if err != nil || f == nil {
		return nil, false
	}
	return convertColorMode(f, gray), true
}

// Info returns the device properties, or false when no device is open.
func (s *CameraSource) Info() (CameraInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.device == nil {
		return CameraInfo{}, false
	}
	return s.device.Info(), true
}

// SetResolution asks the device for a capture resolution. Best effort.
func (s *CameraSource) SetResolution(width, height int) bool {
	s.mu.RLock()
	dev := s.device
	s.mu.RUnlock()
	return dev != nil && dev.SetResolution(width, height)
}

// SetExposure sets the device exposure. Best effort.
func (s *CameraSource) SetExposure(exposure float64) bool {
	s.mu.RLock()
	dev := s.device
	s.mu.RUnlock()
	return dev != nil && dev.SetExposure(exposure)
}

// SetBrightness sets the device brightness. Best effort.
func (s *CameraSource) SetBrightness(brightness float64) bool {
	s.mu.RLock()
	dev := s.device
	s.mu.RUnlock()
	return dev != nil && dev.SetBrightness(brightness)
}

// captureLoop continuously pulls frames from the device, converts the color
// mode, and publishes them. It also reports the observed capture rate over
// windows of at least one second. The loop owns the device exclusively
// until it exits.
func (s *CameraSource) captureLoop(stopCh chan struct{}) {
	defer s.workerWG.Done()

	frameIndex := 0
	windowStart := time.Now()
	windowFrames := 0

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		s.mu.RLock()
		dev := s.device
		gray := s.grayscale
		s.mu.RUnlock()

		if dev == nil {
			return
		}

		f, err := dev.ReadFrame()
		if err != nil || f == nil {
			// A single failed read is tolerated; capture continues.
			s.events.EmitError("Failed to read frame from camera")
			continue
		}

		converted := convertColorMode(f, gray)

		s.mu.Lock()
		s.lastFrame = converted
		s.current = frameIndex
		s.mu.Unlock()

		s.events.EmitFrame(converted, frameIndex)
		frameIndex++

		windowFrames++
		if elapsed := time.Since(windowStart); elapsed >= time.Second {
			s.events.EmitRate(float64(windowFrames) / elapsed.Seconds())
			windowStart = time.Now()
			windowFrames = 0
		}
	}
}

// convertColorMode reduces an RGB frame to grayscale when requested.
func convertColorMode(f *frame.Frame, grayscale bool) *frame.Frame {
	if !grayscale || f.IsGray() {
		return f
	}
	out := frame.NewGray(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			out.Data[y*f.Width+x] = f.GrayAt(x, y)
		}
	}
	return out
}

var _ FrameSource = (*CameraSource)(nil)
