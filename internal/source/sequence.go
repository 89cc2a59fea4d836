package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"rheedview/internal/frame"
)

// imageExtensions is the accepted image container extension set.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// SequenceSource plays a folder of images as a frame sequence. Files are
// sorted lexicographically by name; the sort order defines the frame index
// order. Playback loops back to index 0 after the last frame.
type SequenceSource struct {
	playback
	paths     []string
	cache     *frameCache
	cacheGray bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// SequenceOption configures a SequenceSource.
type SequenceOption func(*SequenceSource)

// WithCacheSize sets the decode cache capacity (default 10).
func WithCacheSize(n int) SequenceOption {
	return func(s *SequenceSource) {
		s.cache = newFrameCache(n)
	}
}

// NewSequenceSource creates an unopened image sequence source.
func NewSequenceSource(opts ...SequenceOption) *SequenceSource {
	s := &SequenceSource{
		playback: newPlayback(),
		cache:    newFrameCache(defaultCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open binds the source to a directory of images. Returns false and emits
// an error if the path is not a directory or contains no supported images.
func (s *SequenceSource) Open(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		s.events.EmitError(fmt.Sprintf("Not a directory: %s", path))
		return false
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		s.events.EmitError(fmt.Sprintf("Cannot read directory %s: %v", path, err))
		return false
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		s.events.EmitError(fmt.Sprintf("No images found in: %s", path))
		return false
	}

	s.mu.Lock()
	s.paths = paths
	s.total = len(paths)
	s.current = 0
	s.cache.clear()
	s.mu.Unlock()

	return true
}

// Close stops playback and releases the image list.
func (s *SequenceSource) Close() {
	s.Stop()

	s.mu.Lock()
	s.paths = nil
	s.cache.clear()
	s.total = 0
	s.current = 0
	s.mu.Unlock()
}

// Start begins timed playback at the configured fps. Calling Start while
// already playing restarts the emission timer.
func (s *SequenceSource) Start() {
	s.mu.RLock()
	loaded := len(s.paths) > 0
	s.mu.RUnlock()

	if !loaded {
		s.events.EmitError("No images loaded. Call Open() first.")
		return
	}

	s.startTimer()
	s.setState(Playing)
}

// Stop halts playback and resets to the first frame.
func (s *SequenceSource) Stop() {
	s.stopTimer()

	s.mu.Lock()
	s.current = 0
	s.mu.Unlock()

	s.setState(Stopped)
}

// Pause halts playback at the current frame. No-op unless playing.
func (s *SequenceSource) Pause() {
	if s.State() != Playing {
		return
	}
	s.stopTimer()
	s.setState(Paused)
}

// SetFPS sets the playback rate and restarts the timer when playing.
func (s *SequenceSource) SetFPS(fps float64) {
	s.playback.SetFPS(fps)
	if s.State() == Playing {
		s.startTimer()
	}
}

// Seek moves to frame index and synchronously emits it. Returns false and
// leaves the position unchanged when index is outside [0, TotalFrames).
func (s *SequenceSource) Seek(index int) bool {
	s.mu.Lock()
	if index < 0 || index >= s.total {
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

// GetFrame loads the frame at index, serving it from the decode cache when
// possible. Returns false when the index is out of range or the image fails
// to decode. The color mode in effect at call time applies; toggling the
// mode invalidates the cache.
func (s *SequenceSource) GetFrame(index int) (*frame.Frame, bool) {
	s.mu.Lock()
	if index < 0 || index >= len(s.paths) {
		s.mu.Unlock()
		return nil, false
	}
	gray := s.grayscale
	if s.cacheGray != gray {
		s.cache.clear()
		s.cacheGray = gray
	}
	if f, ok := s.cache.get(index); ok {
		s.mu.Unlock()
		return f, true
	}
	path := s.paths[index]
	s.mu.Unlock()

	f, err := decodeImageFile(path, gray)
	if err != nil {
		s.events.EmitError(fmt.Sprintf("Failed to load frame %d: %v", index, err))
		return nil, false
	}

	s.mu.Lock()
	s.cache.put(index, f, s.current)
	s.mu.Unlock()

	return f, true
}

// ImagePath returns the file path backing a frame index.
func (s *SequenceSource) ImagePath(index int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.paths) {
		return "", false
	}
	return s.paths[index], true
}

// startTimer (re)spawns the emission loop at the current fps.
func (s *SequenceSource) startTimer() {
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

// stopTimer signals the emission loop and waits for it to exit.
func (s *SequenceSource) stopTimer() {
	s.mu.Lock()
	stopCh := s.stopCh
	s.stopCh = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		s.wg.Wait()
	}
}

// tick emits the current frame and advances, wrapping at the end.
func (s *SequenceSource) tick() {
	s.mu.RLock()
	index := s.current
	total := s.total
	s.mu.RUnlock()

	if f, ok := s.GetFrame(index); ok {
		s.events.EmitFrame(f, index)
	}

	s.mu.Lock()
	s.current++
	if s.current >= total {
		s.current = 0 // Loop back
	}
	s.mu.Unlock()
}

func decodeImageFile(path string, grayscale bool) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return frame.FromImage(img, grayscale), nil
}

var _ FrameSource = (*SequenceSource)(nil)
