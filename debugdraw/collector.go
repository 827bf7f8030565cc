// Package debugdraw collects debug lines emitted by the physics debug pass,
// possibly from many workers at once, into a single renderable buffer.
package debugdraw

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/jobs"
	"github.com/pthm-cable/rigs/physics"
)

// Usage is a hint to the renderer about how often a buffer changes.
type Usage uint8

const (
	UsageStatic Usage = iota
	UsageDynamic
)

// LineSegments is the renderable line list. Positions and Colors hold three
// floats per vertex and two vertices per line. Only the range
// [DrawStart, DrawStart+DrawCount) vertices is valid.
type LineSegments struct {
	Positions  []float32
	Colors     []float32
	Usage      Usage
	DrawStart  int
	DrawCount  int
	Visible    bool
	Generation uint64 // incremented whenever the storage is reallocated
}

// Capacity returns the number of vertices the storage can hold.
func (l *LineSegments) Capacity() int {
	return len(l.Positions) / 3
}

// slot is one per-worker line buffer.
type slot struct {
	positions []float32
	colors    []float32
}

// Collector implements physics.DebugRenderer.
//
// Each pool worker claims a slot on its first DrawLine and keeps it for its
// lifetime. Slots beyond the last are never handed out: late claimers and calls
// without a worker share the last slot under a mutex.
type Collector struct {
	slots  []slot
	next   atomic.Int32
	shared sync.Mutex

	mergedPositions []float32
	mergedColors    []float32

	lines *LineSegments
}

var _ physics.DebugRenderer = (*Collector)(nil)

// NewCollector creates a collector for a pool of the given size.
func NewCollector(workers, initialVertices int) *Collector {
	if workers < 1 {
		workers = 1
	}
	if initialVertices < 2 {
		initialVertices = 2
	}
	return &Collector{
		slots: make([]slot, 2*workers),
		lines: &LineSegments{
			Positions: make([]float32, initialVertices*3),
			Colors:    make([]float32, initialVertices*3),
			Usage:     UsageDynamic,
		},
	}
}

// Lines returns the renderable buffer.
func (c *Collector) Lines() *LineSegments {
	return c.lines
}

// SlotCount returns the number of slots.
func (c *Collector) SlotCount() int {
	return len(c.slots)
}

// ClaimedSlots returns how many slot claims have been made, including claims
// that fell through to the shared slot.
func (c *Collector) ClaimedSlots() int {
	return int(c.next.Load())
}

// BeginFrame clears every slot and the merged buffers. It must not run
// concurrently with DrawLine.
func (c *Collector) BeginFrame() {
	for i := range c.slots {
		c.slots[i].positions = c.slots[i].positions[:0]
		c.slots[i].colors = c.slots[i].colors[:0]
	}
	c.mergedPositions = c.mergedPositions[:0]
	c.mergedColors = c.mergedColors[:0]
}

// slotFor returns the slot index owned by w.
func (c *Collector) slotFor(w *jobs.Worker) int {
	last := len(c.slots) - 1
	if w == nil {
		return last
	}
	return w.Local(c, func() any {
		idx := int(c.next.Add(1)) - 1
		if idx > last {
			idx = last
		}
		return idx
	}).(int)
}

// DrawLine appends one line to the calling worker's slot.
func (c *Collector) DrawLine(w *jobs.Worker, from, to mgl64.Vec3, col physics.Color) {
	idx := c.slotFor(w)
	if idx == len(c.slots)-1 {
		c.shared.Lock()
		defer c.shared.Unlock()
	}
	s := &c.slots[idx]
	s.positions = append(s.positions,
		float32(from[0]), float32(from[1]), float32(from[2]),
		float32(to[0]), float32(to[1]), float32(to[2]),
	)
	r, g, b := float32(col.R)/255, float32(col.G)/255, float32(col.B)/255
	s.colors = append(s.colors, r, g, b, r, g, b)
}

// DrawText3D is accepted and ignored.
func (c *Collector) DrawText3D(*jobs.Worker, mgl64.Vec3, string, physics.Color, float64) {}

// EndFrame merges every slot and uploads the result to the renderable buffer.
// It must not run concurrently with DrawLine.
func (c *Collector) EndFrame() *LineSegments {
	for i := range c.slots {
		c.mergedPositions = append(c.mergedPositions, c.slots[i].positions...)
		c.mergedColors = append(c.mergedColors, c.slots[i].colors...)
	}

	l := c.lines
	vertices := len(c.mergedPositions) / 3
	if vertices == 0 {
		l.Visible = false
		l.DrawStart = 0
		l.DrawCount = 0
		return l
	}

	if vertices > l.Capacity() {
		newCap := max(vertices, 2*l.Capacity())
		l.Positions = make([]float32, newCap*3)
		l.Colors = make([]float32, newCap*3)
		l.Generation++
		slog.Debug("debug line buffer grown",
			"vertices", vertices,
			"capacity", newCap,
			"generation", l.Generation,
		)
	}

	copy(l.Positions, c.mergedPositions)
	copy(l.Colors, c.mergedColors)
	l.DrawStart = 0
	l.DrawCount = vertices
	l.Visible = true
	return l
}

// LineCount returns the number of lines merged by the last EndFrame.
func (c *Collector) LineCount() int {
	return len(c.mergedPositions) / 6
}
