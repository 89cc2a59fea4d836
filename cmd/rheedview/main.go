package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"rheedview/internal/config"
	"rheedview/internal/frame"
	"rheedview/internal/intensity"
	"rheedview/internal/roi"
	"rheedview/internal/source"
)

// roiFlags collects repeatable -roi flags of the form "x,y,w,h[,label]".
type roiFlags []string

func (r *roiFlags) String() string {
	return strings.Join(*r, "; ")
}

func (r *roiFlags) Set(value string) error {
	*r = append(*r, value)
	return nil
}

func parseROI(s string) (x, y, w, h int, label string, err error) {
	parts := strings.Split(s, ",")
	if len(parts) < 4 || len(parts) > 5 {
		return 0, 0, 0, 0, "", fmt.Errorf("want x,y,w,h[,label], got %q", s)
	}
	vals := make([]int, 4)
	for i := 0; i < 4; i++ {
		vals[i], err = strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return 0, 0, 0, 0, "", fmt.Errorf("bad coordinate %q in %q", parts[i], s)
		}
	}
	if len(parts) == 5 {
		label = strings.TrimSpace(parts[4])
	}
	return vals[0], vals[1], vals[2], vals[3], label, nil
}

func newSource(kind string, cacheSize int) (source.FrameSource, error) {
	switch kind {
	case "sequence":
		return source.NewSequenceSource(source.WithCacheSize(cacheSize)), nil
	case "file":
		return source.NewFileSource(), nil
	case "camera":
		return source.NewCameraSource(), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q (want sequence, file, or camera)", kind)
	}
}

func main() {
	// .env is optional; system environment and defaults apply otherwise.
	config.Load()

	var rois roiFlags
	var (
		sourceF    = flag.String("source", "sequence", "Source kind: sequence, file, or camera")
		pathF      = flag.String("path", "", "Image folder, video file, or camera device id")
		fpsF       = flag.Float64("fps", config.GetEnvFloat("RHEEDVIEW_FPS", 0), "Playback rate override (0 = source default)")
		grayF      = flag.Bool("grayscale", config.GetEnvBool("RHEEDVIEW_GRAYSCALE", true), "Deliver single-channel frames")
		durationF  = flag.Duration("duration", 0, "Tracking duration (0 = run until interrupted)")
		outF       = flag.String("out", "intensity.csv", "CSV output path")
		historyF   = flag.Int("max-history", config.GetEnvInt("RHEEDVIEW_MAX_HISTORY", intensity.DefaultMaxHistory), "Per-series measurement cap")
		cacheF     = flag.Int("cache-size", config.GetEnvInt("RHEEDVIEW_CACHE_SIZE", 10), "Sequence decode cache capacity")
		listCamsF  = flag.Bool("list-cameras", false, "List available camera devices and exit")
	)
	flag.Var(&rois, "roi", "ROI as x,y,w,h[,label] (repeatable)")
	flag.Parse()

	logger := log.New(os.Stderr, "[rheedview] ", log.Ltime)

	if *listCamsF {
		for _, cam := range source.EnumerateCameras(10) {
			fmt.Printf("camera %d (%s)\n", cam.DeviceID, cam.Backend)
		}
		return
	}

	if *pathF == "" {
		logger.Fatal("missing -path")
	}

	src, err := newSource(*sourceF, *cacheF)
	if err != nil {
		logger.Fatal(err)
	}

	regions := roi.NewManager()
	for _, spec := range rois {
		x, y, w, h, label, err := parseROI(spec)
		if err != nil {
			logger.Fatalf("invalid -roi: %v", err)
		}
		var opts []roi.Option
		if label != "" {
			opts = append(opts, roi.WithLabel(label))
		}
		r := regions.Add(x, y, w, h, opts...)
		logger.Printf("[ROI] %s at (%d,%d) %dx%d color %s", r.ID, r.X, r.Y, r.Width, r.Height, r.Color)
	}

	tracker := intensity.NewTracker(*historyF)

	// All frame handlers run on the source's single producer goroutine, so
	// the tracker and ROI manager never see concurrent access.
	src.Events().OnFrame(func(f *frame.Frame, index int) {
		tracker.Add(intensity.FullFrameSeries, index, intensity.FrameIntensity(f, true))
		for _, r := range regions.All() {
			if v, ok := intensity.ROIIntensity(f, r, true); ok {
				tracker.Add(r.ID, index, v)
			}
		}
	})
	src.Events().OnError(func(msg string) {
		logger.Printf("[Source] error: %s", msg)
	})
	src.Events().OnState(func(s source.State) {
		logger.Printf("[Source] state: %s", s)
	})
	src.Events().OnRate(func(fps float64) {
		logger.Printf("[Source] capture rate: %.1f fps", fps)
	})

	if !src.Open(*pathF) {
		logger.Fatalf("failed to open %s source at %s", *sourceF, *pathF)
	}
	defer src.Close()

	src.SetGrayscale(*grayF)
	if *fpsF > 0 {
		src.SetFPS(*fpsF)
	}

	if src.IsLive() {
		logger.Printf("tracking live source %s", *pathF)
	} else {
		logger.Printf("tracking %d frames at %.1f fps", src.TotalFrames(), src.FPS())
	}

	src.Start()

	// Run until the duration elapses or the process is interrupted.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	if *durationF > 0 {
		select {
		case <-time.After(*durationF):
		case sig := <-sigc:
			logger.Printf("interrupted (%v)", sig)
		}
	} else {
		sig := <-sigc
		logger.Printf("interrupted (%v)", sig)
	}

	// Stop joins the producer before we read the tracker.
	src.Stop()

	cols := make([]intensity.Column, 0, regions.Len())
	for _, r := range regions.All() {
		label := r.Label
		if label == "" {
			label = r.ID
		}
		cols = append(cols, intensity.Column{SeriesID: r.ID, Label: label})
	}

	out, err := os.Create(*outF)
	if err != nil {
		logger.Fatalf("create %s: %v", *outF, err)
	}
	defer out.Close()

	if err := intensity.ExportCSV(out, tracker, cols); err != nil {
		logger.Fatalf("export: %v", err)
	}
	logger.Printf("wrote %s (%d series, %d full-frame samples)",
		*outF, tracker.Len(), tracker.FrameCount(intensity.FullFrameSeries))
}
