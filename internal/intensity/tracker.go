package intensity

import (
	"sort"
)

// FullFrameSeries is the reserved series key for whole-frame intensity.
const FullFrameSeries = "full_frame"

// DefaultMaxHistory is the per-series measurement cap used by NewTracker
// when given a non-positive value.
const DefaultMaxHistory = 1000

// Sample is one intensity measurement at a frame index.
type Sample struct {
	FrameIndex int
	Value      float64
}

// Tracker stores bounded intensity histories for multiple series, keyed by
// frame index. Re-adding an existing frame index overwrites the prior value
// instead of appending, so replaying a frame never grows a series. Tracker
// is not safe for concurrent use.
type Tracker struct {
	data       map[string]map[int]float64
	maxHistory int
}

// NewTracker creates a tracker keeping at most maxHistory measurements per
// series.
func NewTracker(maxHistory int) *Tracker {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Tracker{
		data:       make(map[string]map[int]float64),
		maxHistory: maxHistory,
	}
}

// Len returns the number of distinct series.
func (t *Tracker) Len() int {
	return len(t.data)
}

// Add records value for seriesID at frameIndex, overwriting any existing
// measurement at that index. When the series exceeds the history cap the
// entries with the smallest frame indices are evicted.
func (t *Tracker) Add(seriesID string, frameIndex int, value float64) {
	series, ok := t.data[seriesID]
	if !ok {
		series = make(map[int]float64)
		t.data[seriesID] = series
	}
	series[frameIndex] = value

	if len(series) > t.maxHistory {
		keys := make([]int, 0, len(series))
		for k := range series {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys[:len(keys)-t.maxHistory] {
			delete(series, k)
		}
	}
}

// History returns the samples for seriesID sorted ascending by frame index.
// Unknown series yield an empty slice.
func (t *Tracker) History(seriesID string) []Sample {
	series := t.data[seriesID]
	out := make([]Sample, 0, len(series))
	for idx, v := range series {
		out = append(out, Sample{FrameIndex: idx, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FrameIndex < out[j].FrameIndex
	})
	return out
}

// Latest returns the value at the numerically largest frame index in the
// series, or false if the series is empty or unknown.
func (t *Tracker) Latest(seriesID string) (float64, bool) {
	series := t.data[seriesID]
	if len(series) == 0 {
		return 0, false
	}
	maxIdx := -1
	first := true
	for idx := range series {
		if first || idx > maxIdx {
			maxIdx = idx
			first = false
		}
	}
	return series[maxIdx], true
}

// FrameCount returns the number of distinct frame indices recorded for the
// series.
func (t *Tracker) FrameCount(seriesID string) int {
	return len(t.data[seriesID])
}

// ClearSeries removes all measurements for one series.
func (t *Tracker) ClearSeries(seriesID string) {
	delete(t.data, seriesID)
}

// Clear removes all series.
func (t *Tracker) Clear() {
	t.data = make(map[string]map[int]float64)
}
