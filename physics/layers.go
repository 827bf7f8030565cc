package physics

// ObjectLayer is the collision layer a body lives in.
type ObjectLayer uint8

// BroadPhaseLayer groups object layers for coarse culling.
type BroadPhaseLayer uint8

// Object layers.
const (
	LayerStatic  ObjectLayer = 0
	LayerDynamic ObjectLayer = 1
	NumLayers                = 2
)

// Broad-phase layers.
const (
	BroadPhaseNonMoving BroadPhaseLayer = 0
	BroadPhaseMoving    BroadPhaseLayer = 1
	NumBroadPhaseLayers                 = 2
)

// BroadPhaseLayerInterface maps object layers to broad-phase layers.
type BroadPhaseLayerInterface interface {
	NumBroadPhaseLayers() int
	BroadPhaseLayer(layer ObjectLayer) BroadPhaseLayer
}

// ObjectVsBroadPhaseLayerFilter decides whether an object layer can touch a broad-phase layer.
type ObjectVsBroadPhaseLayerFilter interface {
	ShouldCollide(layer ObjectLayer, bp BroadPhaseLayer) bool
}

// ObjectLayerPairFilter decides whether two object layers can touch.
type ObjectLayerPairFilter interface {
	ShouldCollide(a, b ObjectLayer) bool
}

// TwoLayerBroadPhase maps Static to NonMoving and Dynamic to Moving.
type TwoLayerBroadPhase struct {
	table [NumLayers]BroadPhaseLayer
}

// NewTwoLayerBroadPhase creates the two-layer mapping.
func NewTwoLayerBroadPhase() *TwoLayerBroadPhase {
	bp := &TwoLayerBroadPhase{}
	bp.table[LayerStatic] = BroadPhaseNonMoving
	bp.table[LayerDynamic] = BroadPhaseMoving
	return bp
}

// NumBroadPhaseLayers returns 2.
func (bp *TwoLayerBroadPhase) NumBroadPhaseLayers() int {
	return NumBroadPhaseLayers
}

// BroadPhaseLayer returns the broad-phase layer of an object layer.
func (bp *TwoLayerBroadPhase) BroadPhaseLayer(layer ObjectLayer) BroadPhaseLayer {
	return bp.table[layer]
}

// StaticVsMovingFilter lets the static layer see only moving objects.
type StaticVsMovingFilter struct{}

// ShouldCollide implements ObjectVsBroadPhaseLayerFilter.
func (StaticVsMovingFilter) ShouldCollide(layer ObjectLayer, bp BroadPhaseLayer) bool {
	if layer == LayerStatic {
		return bp == BroadPhaseMoving
	}
	return true
}

// StaticVsDynamicPairs lets static bodies collide only with dynamic ones.
type StaticVsDynamicPairs struct{}

// ShouldCollide implements ObjectLayerPairFilter.
func (StaticVsDynamicPairs) ShouldCollide(a, b ObjectLayer) bool {
	if a == LayerStatic {
		return b == LayerDynamic
	}
	if b == LayerStatic {
		return a == LayerDynamic
	}
	return true
}
