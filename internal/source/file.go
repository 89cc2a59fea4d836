package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"rheedview/internal/frame"
)

// videoExtensions is the accepted video container extension set.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
}

// VideoInfo describes an opened video container.
type VideoInfo struct {
	Path        string
	TotalFrames int
	FPS         float64
	Width       int
	Height      int
	Codec       string
}

// Duration returns the video length in seconds.
func (v VideoInfo) Duration() float64 {
	if v.FPS <= 0 {
		return 0
	}
	return float64(v.TotalFrames) / v.FPS
}

// VideoDecoder is the opaque decode backend behind a FileSource. The file
// source owns exactly one decoder handle at a time and drives it from a
// single goroutine.
type VideoDecoder interface {
	// Open binds the decoder to a container and returns its metadata.
	Open(path string) (VideoInfo, error)

	// ReadFrame decodes the next sequential frame. Returns io.EOF at end
	// of stream. The returned frame is 3-channel RGB.
	ReadFrame() (*frame.Frame, error)

	// SeekFrame repositions the decoder so the next ReadFrame returns the
	// frame at index.
	SeekFrame(index int) error

	// Close releases the decoder.
	Close() error
}

// FileSource plays a video file through a VideoDecoder. Timed emission
// reads sequentially and loops to frame 0 at end of stream.
type FileSource struct {
	playback
	decoder    VideoDecoder
	newDecoder func() VideoDecoder
	opened     bool
	decoderPos int // Index of the next frame ReadFrame will return
	info       VideoInfo
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithDecoder overrides the decoder constructor. Used to substitute decode
// backends.
func WithDecoder(newDecoder func() VideoDecoder) FileOption {
	return func(s *FileSource) {
		s.newDecoder = newDecoder
	}
}

// NewFileSource creates an unopened video file source backed by the ffmpeg
// decoder.
func NewFileSource(opts ...FileOption) *FileSource {
	s := &FileSource{
		playback:   newPlayback(),
		newDecoder: func() VideoDecoder { return newFFmpegDecoder() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open binds the source to a video file. The extension is validated against
// the supported set before any decode attempt. Returns false and emits an
// error on failure, leaving the source closed and reusable.
func (s *FileSource) Open(path string) bool {
	if _, err := os.Stat(path); err != nil {
		s.events.EmitError(fmt.Sprintf("File not found: %s", path))
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !videoExtensions[ext] {
		s.events.EmitError(fmt.Sprintf("Unsupported format: %s. Supported: %s",
			ext, strings.Join(sortedExtensions(videoExtensions), ", ")))
		return false
	}

	dec := s.newDecoder()
	info, err := dec.Open(path)
	if err != nil {
		s.events.EmitError(fmt.Sprintf("Failed to open video: %s: %v", path, err))
		return false
	}

	s.mu.Lock()
	if s.decoder != nil {
		s.decoder.Close()
	}
	s.decoder = dec
	s.opened = true
	s.info = info
	s.total = info.TotalFrames
	if info.FPS > 0 {
		s.fps = clampFPS(info.FPS)
	}
	s.current = 0
	s.decoderPos = 0
	s.mu.Unlock()

	return true
}

// Close stops playback and releases the decoder.
func (s *FileSource) Close() {
	s.Stop()

	s.mu.Lock()
	if s.decoder != nil {
		s.decoder.Close()
		s.decoder = nil
	}
	s.opened = false
	s.info = VideoInfo{}
	s.total = 0
	s.current = 0
	s.decoderPos = 0
	s.mu.Unlock()
}

// Start begins timed playback at the container's frame rate (or the rate
// set with SetFPS). Calling Start while playing restarts the timer.
func (s *FileSource) Start() {
	s.mu.RLock()
	opened := s.opened
	s.mu.RUnlock()

	if !opened {
		s.events.EmitError("No video loaded. Call Open() first.")
		return
	}

	s.startTimer()
	s.setState(Playing)
}

// Stop halts playback, rewinds the decoder, and resets to frame 0.
func (s *FileSource) Stop() {
	s.stopTimer()

	s.mu.Lock()
	s.current = 0
	if s.decoder != nil {
		if err := s.decoder.SeekFrame(0); err == nil {
			s.decoderPos = 0
		}
	}
	s.mu.Unlock()

	s.setState(Stopped)
}

// Pause halts playback at the current frame. No-op unless playing.
func (s *FileSource) Pause() {
	if s.State() != Playing {
		return
	}
	s.stopTimer()
	s.setState(Paused)
}

// SetFPS overrides the playback rate (does not affect the file) and
// restarts the timer when playing.
func (s *FileSource) SetFPS(fps float64) {
	s.playback.SetFPS(fps)
	if s.State() == Playing {
		s.startTimer()
	}
}

// Seek repositions the decoder and synchronously emits the frame at index.
func (s *FileSource) Seek(index int) bool {
	s.mu.Lock()
	if s.decoder == nil || index < 0 || index >= s.total {
		s.mu.Unlock()
		return false
	}
	s.current = index
	s.mu.Unlock()

	if f, ok := s.GetFrame(index); ok {
		s.events.EmitFrame(f, index)
	}
	return true
}

// GetFrame decodes the frame at index, bypassing playback state. Returns
// false when out of range or the decode fails.
func (s *FileSource) GetFrame(index int) (*frame.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readFrameAt(index)
}

// readFrameAt seeks if needed and decodes one frame. Caller holds mu.
func (s *FileSource) readFrameAt(index int) (*frame.Frame, bool) {
	if s.decoder == nil || index < 0 || index >= s.total {
		return nil, false
	}

	if s.decoderPos != index {
		if err := s.decoder.SeekFrame(index); err != nil {
			return nil, false
		}
		s.decoderPos = index
	}

	f, err := s.decoder.ReadFrame()
	if err != nil || f == nil {
		return nil, false
	}
	s.decoderPos++

	return convertColorMode(f, s.grayscale), true
}

// Info returns the opened container's metadata.
func (s *FileSource) Info() VideoInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

func (s *FileSource) startTimer() {
	s.stopTimer()

	stopCh := make(chan struct{})
	s.mu.Lock()
	s.stopCh = stopCh
	interval := time.Duration(1000/s.fps) * time.Millisecond
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *FileSource) stopTimer() {
	s.mu.Lock()
	stopCh := s.stopCh
	s.stopCh = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		s.wg.Wait()
	}
}

// tick reads the next sequential frame and emits it. A failed read is
// treated as end of stream: the decoder rewinds to frame 0 and playback
// continues from there on the next tick.
func (s *FileSource) tick() {
	s.mu.Lock()
	index := s.current
	f, ok := s.readFrameAt(index)
	if !ok {
		s.current = 0
		if s.decoder != nil {
			if err := s.decoder.SeekFrame(0); err == nil {
				s.decoderPos = 0
			}
		}
		s.mu.Unlock()
		return
	}
	s.current = index + 1
	s.mu.Unlock()

	s.events.EmitFrame(f, index)
}

func sortedExtensions(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for ext := range set {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

var _ FrameSource = (*FileSource)(nil)
