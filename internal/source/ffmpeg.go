package source

import (
	"bufio"
	"bytes"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"rheedview/internal/frame"
)

// mjpegPipe wraps an ffmpeg subprocess emitting an MJPEG image2pipe stream
// on stdout and hands out decoded frames one at a time.
type mjpegPipe struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	buf    []byte
	chunk  []byte
}

func startMJPEGPipe(args ...string) (*mjpegPipe, error) {
	cmd := exec.Command("ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	// Consume stderr silently so ffmpeg never blocks on it.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
		}
	}()

	return &mjpegPipe{
		cmd:    cmd,
		stdout: stdout,
		buf:    make([]byte, 0, 1024*1024),
		chunk:  make([]byte, 8192),
	}, nil
}

// next blocks until a complete JPEG frame is available and returns it
// decoded as a 3-channel RGB frame. Returns io.EOF when the stream ends.
func (p *mjpegPipe) next() (*frame.Frame, error) {
	for {
		if data := nextJPEGFrame(&p.buf); data != nil {
			img, err := jpeg.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("decode jpeg: %w", err)
			}
			return frame.FromImage(img, false), nil
		}

		n, err := p.stdout.Read(p.chunk)
		if n > 0 {
			p.buf = append(p.buf, p.chunk[:n]...)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *mjpegPipe) close() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
	}
}

// nextJPEGFrame extracts one complete JPEG frame (FFD8..FFD9) from the
// buffer, consuming it, or returns nil when no complete frame is present.
func nextJPEGFrame(buffer *[]byte) []byte {
	if len(*buffer) < 4 {
		return nil
	}

	startIdx := -1
	for i := 0; i < len(*buffer)-1; i++ {
		if (*buffer)[i] == 0xFF && (*buffer)[i+1] == 0xD8 {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		return nil
	}

	endIdx := -1
	for i := startIdx + 2; i < len(*buffer)-1; i++ {
		if (*buffer)[i] == 0xFF && (*buffer)[i+1] == 0xD9 {
			endIdx = i + 2
			break
		}
	}
	if endIdx == -1 {
		return nil
	}

	data := make([]byte, endIdx-startIdx)
	copy(data, (*buffer)[startIdx:endIdx])
	*buffer = (*buffer)[endIdx:]

	return data
}

// ffmpegDecoder is the production VideoDecoder. It probes container
// metadata with ffprobe and decodes frames through an MJPEG image2pipe
// stream; seeking restarts the pipe at the target timestamp.
type ffmpegDecoder struct {
	path string
	info VideoInfo
	pipe *mjpegPipe
}

func newFFmpegDecoder() *ffmpegDecoder {
	return &ffmpegDecoder{}
}

func (d *ffmpegDecoder) Open(path string) (VideoInfo, error) {
	info, err := probeVideo(path)
	if err != nil {
		return VideoInfo{}, err
	}

	d.path = path
	d.info = info

	if err := d.startPipe(0); err != nil {
		return VideoInfo{}, err
	}
	return info, nil
}

func (d *ffmpegDecoder) ReadFrame() (*frame.Frame, error) {
	if d.pipe == nil {
		return nil, fmt.Errorf("decoder not open")
	}
	return d.pipe.next()
}

func (d *ffmpegDecoder) SeekFrame(index int) error {
	if d.path == "" {
		return fmt.Errorf("decoder not open")
	}
	return d.startPipe(index)
}

func (d *ffmpegDecoder) Close() error {
	if d.pipe != nil {
		d.pipe.close()
		d.pipe = nil
	}
	d.path = ""
	return nil
}

func (d *ffmpegDecoder) startPipe(index int) error {
	if d.pipe != nil {
		d.pipe.close()
		d.pipe = nil
	}

	args := []string{}
	if index > 0 && d.info.FPS > 0 {
		offset := float64(index) / d.info.FPS
		args = append(args, "-ss", strconv.FormatFloat(offset, 'f', 6, 64))
	}
	args = append(args,
		"-i", d.path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "5",
		"-",
	)

	pipe, err := startMJPEGPipe(args...)
	if err != nil {
		return err
	}
	d.pipe = pipe
	return nil
}

// probeVideo reads stream metadata with ffprobe.
func probeVideo(path string) (VideoInfo, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=width,height,avg_frame_rate,nb_read_packets,codec_name",
		"-of", "default=noprint_wrappers=1",
		path,
	).Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe: %w", err)
	}

	info := VideoInfo{Path: path, FPS: 30.0}
	for _, line := range strings.Split(string(out), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "width":
			info.Width, _ = strconv.Atoi(value)
		case "height":
			info.Height, _ = strconv.Atoi(value)
		case "nb_read_packets":
			info.TotalFrames, _ = strconv.Atoi(value)
		case "codec_name":
			info.Codec = value
		case "avg_frame_rate":
			if fps := parseFrameRate(value); fps > 0 {
				info.FPS = fps
			}
		}
	}

	if info.TotalFrames == 0 {
		return VideoInfo{}, fmt.Errorf("no video frames in %s", path)
	}
	return info, nil
}

// parseFrameRate parses ffprobe's rational frame rate ("30000/1001").
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// v4l2Device is the production CaptureDevice for V4L2 cameras. Frames are
// pulled from an ffmpeg MJPEG pipe; property setters shell out to v4l2-ctl
// and are best effort.
type v4l2Device struct {
	deviceID int
	device   string
	info     CameraInfo
	pipe     *mjpegPipe
}

func newV4L2Device() *v4l2Device {
	return &v4l2Device{}
}

func (d *v4l2Device) Open(deviceID int) (CameraInfo, error) {
	device := fmt.Sprintf("/dev/video%d", deviceID)
	if !deviceAccessible(device) {
		return CameraInfo{}, fmt.Errorf("camera device %s is not accessible", device)
	}

	d.deviceID = deviceID
	d.device = device
	d.info = CameraInfo{
		DeviceID: deviceID,
		FPS:      30.0,
		Backend:  "v4l2",
	}

	if err := d.startPipe(); err != nil {
		return CameraInfo{}, err
	}
	return d.info, nil
}

func (d *v4l2Device) ReadFrame() (*frame.Frame, error) {
	if d.pipe == nil {
		return nil, fmt.Errorf("device not open")
	}
	f, err := d.pipe.next()
	if err != nil {
		return nil, err
	}
	// Track the actual capture resolution.
	d.info.Width = f.Width
	d.info.Height = f.Height
	return f, nil
}

func (d *v4l2Device) Info() CameraInfo {
	return d.info
}

func (d *v4l2Device) SetResolution(width, height int) bool {
	if d.device == "" {
		return false
	}
	arg := fmt.Sprintf("--set-fmt-video=width=%d,height=%d,pixelformat=MJPG", width, height)
	if err := exec.Command("v4l2-ctl", "-d", d.device, arg).Run(); err != nil {
		return false
	}
	// The capture pipe must be restarted for the new format to apply.
	if err := d.startPipe(); err != nil {
		return false
	}
	d.info.Width = width
	d.info.Height = height
	return true
}

func (d *v4l2Device) SetExposure(exposure float64) bool {
	if !d.setControl(fmt.Sprintf("exposure_absolute=%d", int(exposure))) {
		return false
	}
	d.info.Exposure = exposure
	return true
}

func (d *v4l2Device) SetBrightness(brightness float64) bool {
	if !d.setControl(fmt.Sprintf("brightness=%d", int(brightness))) {
		return false
	}
	d.info.Brightness = brightness
	return true
}

func (d *v4l2Device) setControl(ctrl string) bool {
	if d.device == "" {
		return false
	}
	return exec.Command("v4l2-ctl", "-d", d.device, "--set-ctrl="+ctrl).Run() == nil
}

func (d *v4l2Device) Close() error {
	if d.pipe != nil {
		d.pipe.close()
		d.pipe = nil
	}
	d.device = ""
	return nil
}

func (d *v4l2Device) startPipe() error {
	if d.pipe != nil {
		d.pipe.close()
		d.pipe = nil
	}

	pipe, err := startMJPEGPipe(
		"-f", "v4l2",
		"-i", d.device,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "5",
		"-",
	)
	if err != nil {
		return err
	}
	d.pipe = pipe
	return nil
}

// deviceAccessible checks that a V4L2 device node exists and is readable.
func deviceAccessible(device string) bool {
	if _, err := os.Stat(device); err != nil {
		return false
	}
	file, err := os.OpenFile(device, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// EnumerateCameras probes /dev/video0..maxDevices-1 and returns the
// accessible devices.
func EnumerateCameras(maxDevices int) []CameraInfo {
	var devices []CameraInfo
	for i := 0; i < maxDevices; i++ {
		if deviceAccessible(fmt.Sprintf("/dev/video%d", i)) {
			devices = append(devices, CameraInfo{
				DeviceID: i,
				Backend:  "v4l2",
			})
		}
	}
	return devices
}
