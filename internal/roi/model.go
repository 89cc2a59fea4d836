package roi

import (
	"github.com/google/uuid"
)

// DefaultColors is the palette cycled through when ROIs are added without an
// explicit color.
var DefaultColors = []string{
	"#FF6B6B", // Red
	"#4ECDC4", // Teal
	"#45B7D1", // Blue
	"#96CEB4", // Green
	"#FFEAA7", // Yellow
	"#DDA0DD", // Plum
	"#98D8C8", // Mint
	"#F7DC6F", // Gold
	"#BB8FCE", // Purple
	"#85C1E9", // Light Blue
}

// generateID returns a short unique ROI identifier.
func generateID() string {
	return uuid.NewString()[:8]
}

// ROI is a rectangular region of interest on an image. X/Y is the top-left
// corner. All fields except ID may be mutated after creation.
type ROI struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Color  string `json:"color"`
	Label  string `json:"label,omitempty"`
}

// Bounds returns (x, y, width, height).
func (r *ROI) Bounds() (x, y, w, h int) {
	return r.X, r.Y, r.Width, r.Height
}

// Center returns the center point of the rectangle.
func (r *ROI) Center() (cx, cy int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point (px, py) lies inside the ROI using
// half-open intervals [x, x+w) x [y, y+h).
func (r *ROI) Contains(px, py int) bool {
	return px >= r.X && px < r.X+r.Width &&
		py >= r.Y && py < r.Y+r.Height
}

// Option configures an ROI at creation time.
type Option func(*ROI)

// WithColor overrides the automatic palette color.
func WithColor(color string) Option {
	return func(r *ROI) {
		r.Color = color
	}
}

// WithLabel sets the display label.
func WithLabel(label string) Option {
	return func(r *ROI) {
		r.Label = label
	}
}

// Patch describes a partial ROI update. Nil fields are left untouched.
// The ID of an ROI can never be changed.
type Patch struct {
	X      *int
	Y      *int
	Width  *int
	Height *int
	Color  *string
	Label  *string
}

// Manager owns a collection of ROIs. Iteration order is insertion order.
// Manager is not safe for concurrent use; callers drive it from a single
// event loop.
type Manager struct {
	rois       map[string]*ROI
	order      []string
	colorIndex int
}

// NewManager creates an empty ROI collection.
func NewManager() *Manager {
	return &Manager{
		rois: make(map[string]*ROI),
	}
}

// Len returns the number of ROIs in the collection.
func (m *Manager) Len() int {
	return len(m.rois)
}

// Has reports whether an ROI with the given id exists.
func (m *Manager) Has(id string) bool {
	_, ok := m.rois[id]
	return ok
}

func (m *Manager) nextColor() string {
	color := DefaultColors[m.colorIndex%len(DefaultColors)]
	m.colorIndex++
	return color
}

// Add creates a new ROI with a freshly generated id. The color is taken from
// the palette in round-robin order unless WithColor is given. Dimensions are
// stored as passed; validation is the caller's responsibility.
func (m *Manager) Add(x, y, width, height int, opts ...Option) *ROI {
	r := &ROI{
		ID:     generateID(),
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Color == "" {
		r.Color = m.nextColor()
	}

	m.rois[r.ID] = r
	m.order = append(m.order, r.ID)
	return r
}

// Get returns the ROI with the given id.
func (m *Manager) Get(id string) (*ROI, bool) {
	r, ok := m.rois[id]
	return r, ok
}

// Remove deletes the ROI with the given id. Returns true if it existed.
func (m *Manager) Remove(id string) bool {
	if _, ok := m.rois[id]; !ok {
		return false
	}
	delete(m.rois, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Update applies the non-nil fields of patch to the ROI with the given id.
// Returns false if the id is unknown.
func (m *Manager) Update(id string, patch Patch) bool {
	r, ok := m.rois[id]
	if !ok {
		return false
	}
	if patch.X != nil {
		r.X = *patch.X
	}
	if patch.Y != nil {
		r.Y = *patch.Y
	}
	if patch.Width != nil {
		r.Width = *patch.Width
	}
	if patch.Height != nil {
		r.Height = *patch.Height
	}
	if patch.Color != nil {
		r.Color = *patch.Color
	}
	if patch.Label != nil {
		r.Label = *patch.Label
	}
	return true
}

// Clear removes all ROIs and resets the palette cursor.
func (m *Manager) Clear() {
	m.rois = make(map[string]*ROI)
	m.order = nil
	m.colorIndex = 0
}

// All returns the ROIs in insertion order. The returned slice is a snapshot;
// the ROIs themselves are shared references.
func (m *Manager) All() []*ROI {
	out := make([]*ROI, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.rois[id])
	}
	return out
}
