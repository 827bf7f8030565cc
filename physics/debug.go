package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/jobs"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

var (
	ColorRed    = Color{255, 0, 0, 255}
	ColorGreen  = Color{0, 255, 0, 255}
	ColorBlue   = Color{0, 0, 255, 255}
	ColorYellow = Color{255, 255, 0, 255}
	ColorGrey   = Color{128, 128, 128, 255}
	ColorOrange = Color{255, 160, 0, 255}
	ColorCyan   = Color{0, 255, 255, 255}
)

// DebugRenderer receives debug geometry. DrawLine may be called concurrently
// from several pool workers; w identifies the calling worker and is nil when
// the call comes from outside the pool.
type DebugRenderer interface {
	DrawLine(w *jobs.Worker, from, to mgl64.Vec3, c Color)
	DrawText3D(w *jobs.Worker, at mgl64.Vec3, text string, c Color, height float64)
}

// DrawSettings selects what DrawBodies emits.
type DrawSettings struct {
	DrawShape                 bool
	DrawCenterOfMassTransform bool
	DrawBoundingBox           bool
	DrawVelocity              bool
}

// boxEdges lists corner index pairs of boxCorners that form the 12 edges.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along z
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along x
}

// DrawBodies emits debug geometry for every added body, spread across the pool.
func (s *System) DrawBodies(settings DrawSettings, r DebugRenderer, pool *jobs.Pool) {
	var bodies []*Body
	for _, id := range s.order {
		if b := s.bodies[id]; b.added {
			bodies = append(bodies, b)
		}
	}
	pool.Run(len(bodies), func(w *jobs.Worker, start, end int) {
		for i := start; i < end; i++ {
			drawBody(w, r, bodies[i], settings)
		}
	})
}

// DrawConstraints emits debug geometry for every constraint, spread across the pool.
func (s *System) DrawConstraints(r DebugRenderer, pool *jobs.Pool) {
	constraints := s.constraints
	pool.Run(len(constraints), func(w *jobs.Worker, start, end int) {
		for i := start; i < end; i++ {
			constraints[i].DrawConstraint(w, r)
		}
	})
}

func drawBody(w *jobs.Worker, r DebugRenderer, b *Body, settings DrawSettings) {
	origin := b.Position()
	h := b.shape.HalfExtent()

	if settings.DrawShape {
		col := ColorGrey
		switch {
		case b.motion == MotionStatic:
		case b.active:
			col = ColorGreen
		default:
			col = ColorBlue
		}
		var local [8]mgl64.Vec3
		boxCorners(h, &local)
		var world [8]mgl64.Vec3
		for i, c := range local {
			world[i] = origin.Add(b.rotation.Rotate(c))
		}
		for _, e := range boxEdges {
			r.DrawLine(w, world[e[0]], world[e[1]], col)
		}
	}

	if settings.DrawBoundingBox {
		// World-space AABB of the rotated box.
		var ext mgl64.Vec3
		m := b.rotation.Mat4()
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				v := m.At(row, col)
				if v < 0 {
					v = -v
				}
				ext[row] += v * h[col]
			}
		}
		var local [8]mgl64.Vec3
		boxCorners(ext, &local)
		for _, e := range boxEdges {
			r.DrawLine(w, origin.Add(local[e[0]]), origin.Add(local[e[1]]), ColorOrange)
		}
	}

	if settings.DrawCenterOfMassTransform {
		const axis = 0.5
		r.DrawLine(w, b.com, b.com.Add(b.rotation.Rotate(mgl64.Vec3{axis, 0, 0})), ColorRed)
		r.DrawLine(w, b.com, b.com.Add(b.rotation.Rotate(mgl64.Vec3{0, axis, 0})), ColorGreen)
		r.DrawLine(w, b.com, b.com.Add(b.rotation.Rotate(mgl64.Vec3{0, 0, axis})), ColorBlue)
	}

	if settings.DrawVelocity && b.motion != MotionStatic {
		r.DrawLine(w, b.com, b.com.Add(b.linVel.Mul(0.1)), ColorCyan)
	}
}
