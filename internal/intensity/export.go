package intensity

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
)

// Column names one exported series. Label is the CSV header cell; SeriesID
// selects the tracker series.
type Column struct {
	SeriesID string
	Label    string
}

// ExportCSV writes tracker contents as a text table. The header row is
// "frame,full_frame,<label_1>,...". One row is written per distinct frame
// index present in any listed series, ascending by index; cells hold a
// fixed 6-decimal value or are left empty when the series has no measurement
// at that index. The full-frame series is always the first value column;
// cols lists the remaining series in order.
func ExportCSV(w io.Writer, t *Tracker, cols []Column) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(cols)+2)
	header = append(header, "frame", FullFrameSeries)
	for _, c := range cols {
		header = append(header, c.Label)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	series := make([]string, 0, len(cols)+1)
	series = append(series, FullFrameSeries)
	for _, c := range cols {
		series = append(series, c.SeriesID)
	}

	// Union of frame indices across all exported series.
	indexSet := make(map[int]struct{})
	for _, id := range series {
		for _, s := range t.History(id) {
			indexSet[s.FrameIndex] = struct{}{}
		}
	}
	indices := make([]int, 0, len(indexSet))
	for idx := range indexSet {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	row := make([]string, len(series)+1)
	for _, idx := range indices {
		row[0] = fmt.Sprintf("%d", idx)
		for i, id := range series {
			if v, ok := t.data[id][idx]; ok {
				row[i+1] = fmt.Sprintf("%.6f", v)
			} else {
				row[i+1] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", idx, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
