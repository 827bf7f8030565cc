package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rigs/world"
)

// OverlayID uniquely identifies a debug overlay.
type OverlayID string

// Debug overlay IDs. Each maps onto one flag of world.DebugSettings.
const (
	OverlayShapes      OverlayID = "shapes"
	OverlayCOM         OverlayID = "com"
	OverlayBoundingBox OverlayID = "bounding_box"
	OverlayVelocity    OverlayID = "velocity"
	OverlayWheels      OverlayID = "wheels"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID // Unique identifier
	Name        string    // Display name
	Description string    // What this overlay shows
	Key         int32     // Keyboard key to toggle (0 = no key)
	KeyLabel    string    // Key label for display (e.g., "F2")
	Category    string    // Grouping ("bodies", "constraints")
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the debug overlays, initialised
// from settings.
func NewOverlayRegistry(settings world.DebugSettings) *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	reg.enabled[OverlayShapes] = settings.Bodies.DrawShape
	reg.enabled[OverlayCOM] = settings.Bodies.DrawCenterOfMassTransform
	reg.enabled[OverlayBoundingBox] = settings.Bodies.DrawBoundingBox
	reg.enabled[OverlayVelocity] = settings.Bodies.DrawVelocity
	reg.enabled[OverlayWheels] = settings.Constraints
	return reg
}

// registerDefaults adds the standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayShapes,
		Name:        "Shapes",
		Description: "Wireframe of every collision box",
		Key:         rl.KeyF2,
		KeyLabel:    "F2",
		Category:    "bodies",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayCOM,
		Name:        "Center of Mass",
		Description: "Axes at each body's center of mass",
		Key:         rl.KeyF3,
		KeyLabel:    "F3",
		Category:    "bodies",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayBoundingBox,
		Name:        "Bounds",
		Description: "World-space bounding boxes",
		Key:         rl.KeyF4,
		KeyLabel:    "F4",
		Category:    "bodies",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayVelocity,
		Name:        "Velocity",
		Description: "Linear velocity vectors",
		Key:         rl.KeyF5,
		KeyLabel:    "F5",
		Category:    "bodies",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayWheels,
		Name:        "Wheels",
		Description: "Suspension lines and wheel rims",
		Key:         rl.KeyF6,
		KeyLabel:    "F6",
		Category:    "constraints",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// Apply writes the overlay state into settings.
func (r *OverlayRegistry) Apply(settings *world.DebugSettings) {
	settings.Bodies.DrawShape = r.enabled[OverlayShapes]
	settings.Bodies.DrawCenterOfMassTransform = r.enabled[OverlayCOM]
	settings.Bodies.DrawBoundingBox = r.enabled[OverlayBoundingBox]
	settings.Bodies.DrawVelocity = r.enabled[OverlayVelocity]
	settings.Constraints = r.enabled[OverlayWheels]
}
