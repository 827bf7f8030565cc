// Package scene holds the visual node hierarchy on top of an ark ECS world.
//
// Every node carries a local Transform and a Parent link; nodes with a Mesh are
// drawn. The window layer walks the meshes with Each and never touches physics.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
)

// Transform is a node's pose relative to its parent.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

// Compose returns the pose of child (relative to t) in t's parent space.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Position: t.Position.Add(t.Rotation.Rotate(child.Position)),
		Rotation: t.Rotation.Mul(child.Rotation),
	}
}

// Parent links a node to its parent. A zero entity means the node hangs off the root.
type Parent struct {
	Entity ecs.Entity
}

// MeshKind selects the primitive drawn for a node.
type MeshKind uint8

const (
	MeshBox MeshKind = iota
	MeshCylinder
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Mesh describes a primitive. Boxes use Size (full extents); cylinders use
// Radius and Width along their local Y axis.
type Mesh struct {
	Kind   MeshKind
	Size   mgl64.Vec3
	Radius float64
	Width  float64
	Color  Color
}

// Scene owns the ECS world and the component accessors.
type Scene struct {
	world *ecs.World

	nodes      *ecs.Map2[Transform, Parent]
	meshNodes  *ecs.Map3[Transform, Parent, Mesh]
	transforms *ecs.Map1[Transform]
	parents    *ecs.Map1[Parent]
	meshes     *ecs.Map1[Mesh]

	nodeFilter *ecs.Filter2[Transform, Parent]
	meshFilter *ecs.Filter3[Transform, Parent, Mesh]
}

// New creates an empty scene.
func New() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:      world,
		nodes:      ecs.NewMap2[Transform, Parent](world),
		meshNodes:  ecs.NewMap3[Transform, Parent, Mesh](world),
		transforms: ecs.NewMap1[Transform](world),
		parents:    ecs.NewMap1[Parent](world),
		meshes:     ecs.NewMap1[Mesh](world),
		nodeFilter: ecs.NewFilter2[Transform, Parent](world),
		meshFilter: ecs.NewFilter3[Transform, Parent, Mesh](world),
	}
}

// NewGroup adds an empty node under parent. Pass a zero entity for the root.
func (s *Scene) NewGroup(parent ecs.Entity) ecs.Entity {
	t := Identity()
	return s.nodes.NewEntity(&t, &Parent{Entity: parent})
}

// AddMesh adds a drawable node under parent with the given local transform.
func (s *Scene) AddMesh(parent ecs.Entity, mesh Mesh, local Transform) ecs.Entity {
	return s.meshNodes.NewEntity(&local, &Parent{Entity: parent}, &mesh)
}

// Alive reports whether e is a live node.
func (s *Scene) Alive(e ecs.Entity) bool {
	return !e.IsZero() && s.world.Alive(e)
}

// SetTransform replaces a node's local transform.
func (s *Scene) SetTransform(e ecs.Entity, t Transform) {
	if !s.Alive(e) {
		return
	}
	*s.transforms.Get(e) = t
}

// Transform returns a node's local transform.
func (s *Scene) Transform(e ecs.Entity) Transform {
	if !s.Alive(e) {
		return Identity()
	}
	return *s.transforms.Get(e)
}

// Mesh returns a node's mesh, or nil if it has none.
func (s *Scene) Mesh(e ecs.Entity) *Mesh {
	if !s.Alive(e) || !s.meshes.HasAll(e) {
		return nil
	}
	return s.meshes.Get(e)
}

// WorldTransform composes the transforms from the root down to e.
func (s *Scene) WorldTransform(e ecs.Entity) Transform {
	world := Identity()
	for s.Alive(e) {
		world = s.transforms.Get(e).Compose(world)
		e = s.parents.Get(e).Entity
	}
	return world
}

// Remove deletes e and all of its descendants.
func (s *Scene) Remove(e ecs.Entity) {
	if !s.Alive(e) {
		return
	}

	children := make(map[ecs.Entity][]ecs.Entity)
	query := s.nodeFilter.Query()
	for query.Next() {
		_, p := query.Get()
		if !p.Entity.IsZero() {
			children[p.Entity] = append(children[p.Entity], query.Entity())
		}
	}

	// Collect first: entities cannot be removed while the query is open.
	var doomed []ecs.Entity
	stack := []ecs.Entity{e}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		doomed = append(doomed, n)
		stack = append(stack, children[n]...)
	}
	for _, n := range doomed {
		s.world.RemoveEntity(n)
	}
}

// Count returns the number of live nodes.
func (s *Scene) Count() int {
	n := 0
	query := s.nodeFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Each calls fn for every mesh node with its world transform.
func (s *Scene) Each(fn func(e ecs.Entity, world Transform, mesh *Mesh)) {
	type item struct {
		e    ecs.Entity
		mesh *Mesh
	}
	var items []item
	query := s.meshFilter.Query()
	for query.Next() {
		_, _, m := query.Get()
		items = append(items, item{query.Entity(), m})
	}
	for _, it := range items {
		fn(it.e, s.WorldTransform(it.e), it.mesh)
	}
}
