package roi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerAdd(t *testing.T) {
	t.Parallel()

	m := NewManager()
	r := m.Add(100, 100, 50, 50)

	require.NotNil(t, r)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 100, r.X)
	assert.Equal(t, 50, r.Width)
	assert.Equal(t, DefaultColors[0], r.Color)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(r.ID)
	require.True(t, ok)
	assert.Same(t, r, got)
}

func TestManagerAddGeneratesUniqueIDs(t *testing.T) {
	t.Parallel()

	m := NewManager()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		r := m.Add(0, 0, 10, 10)
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
}

func TestManagerColorCycle(t *testing.T) {
	t.Parallel()

	m := NewManager()
	a := m.Add(0, 0, 10, 10)
	b := m.Add(0, 0, 10, 10)
	c := m.Add(0, 0, 10, 10)

	assert.Equal(t, DefaultColors[0], a.Color)
	assert.Equal(t, DefaultColors[1], b.Color)
	assert.Equal(t, DefaultColors[2], c.Color)

	// Cycle wraps around the palette.
	for i := 3; i < len(DefaultColors); i++ {
		m.Add(0, 0, 10, 10)
	}
	wrapped := m.Add(0, 0, 10, 10)
	assert.Equal(t, DefaultColors[0], wrapped.Color)
}

func TestManagerExplicitColorDoesNotAdvanceCursor(t *testing.T) {
	t.Parallel()

	m := NewManager()
	custom := m.Add(0, 0, 10, 10, WithColor("#123456"))
	assert.Equal(t, "#123456", custom.Color)

	auto := m.Add(0, 0, 10, 10)
	assert.Equal(t, DefaultColors[0], auto.Color)
}

func TestManagerAddWithLabel(t *testing.T) {
	t.Parallel()

	m := NewManager()
	r := m.Add(5, 5, 10, 10, WithLabel("specular"))
	assert.Equal(t, "specular", r.Label)
}

func TestManagerRemove(t *testing.T) {
	t.Parallel()

	m := NewManager()
	r := m.Add(0, 0, 10, 10)

	assert.True(t, m.Remove(r.ID))
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Remove(r.ID))
	assert.False(t, m.Remove("nonexistent"))
}

func TestManagerUpdate(t *testing.T) {
	t.Parallel()

	m := NewManager()
	r := m.Add(10, 20, 30, 40)
	id := r.ID

	x, label := 99, "shifted"
	ok := m.Update(id, Patch{X: &x, Label: &label})
	require.True(t, ok)
	assert.Equal(t, 99, r.X)
	assert.Equal(t, 20, r.Y)
	assert.Equal(t, "shifted", r.Label)
	assert.Equal(t, id, r.ID)

	assert.False(t, m.Update("nonexistent", Patch{X: &x}))
}

func TestManagerClearResetsColorCursor(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.Add(0, 0, 10, 10)
	m.Add(0, 0, 10, 10)
	m.Clear()

	assert.Equal(t, 0, m.Len())
	r := m.Add(0, 0, 10, 10)
	assert.Equal(t, DefaultColors[0], r.Color)
}

func TestManagerAllInsertionOrder(t *testing.T) {
	t.Parallel()

	m := NewManager()
	a := m.Add(0, 0, 10, 10)
	b := m.Add(0, 0, 10, 10)
	c := m.Add(0, 0, 10, 10)
	m.Remove(b.ID)
	d := m.Add(0, 0, 10, 10)

	all := m.All()
	require.Len(t, all, 3)
	assert.Same(t, a, all[0])
	assert.Same(t, c, all[1])
	assert.Same(t, d, all[2])
}

func TestROIContainsHalfOpen(t *testing.T) {
	t.Parallel()

	r := &ROI{X: 10, Y: 20, Width: 30, Height: 40}

	assert.True(t, r.Contains(10, 20))
	assert.True(t, r.Contains(39, 59))
	assert.False(t, r.Contains(40, 20))
	assert.False(t, r.Contains(10, 60))
	assert.False(t, r.Contains(9, 20))
}

func TestROIBoundsAndCenter(t *testing.T) {
	t.Parallel()

	r := &ROI{X: 10, Y: 20, Width: 30, Height: 40}

	x, y, w, h := r.Bounds()
	assert.Equal(t, []int{10, 20, 30, 40}, []int{x, y, w, h})

	cx, cy := r.Center()
	assert.Equal(t, 25, cx)
	assert.Equal(t, 40, cy)
}
