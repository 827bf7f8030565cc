package main

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/input"
	"github.com/pthm-cable/rigs/physics"
	"github.com/pthm-cable/rigs/vehicle"
	"github.com/pthm-cable/rigs/world"
)

// Drive test phases in seconds.
const (
	settleSec = 1.0
	accelSec  = 3.0
	brakeSec  = 2.0
)

// Fitness weights (lower fitness = better).
const (
	weightAccel   = 1.0   // per meter covered under throttle (rewarded)
	weightStop    = 2.0   // per meter of stopping distance
	weightBounce  = 20.0  // per meter of ride height spread after settling
	weightTip     = 100.0 // per unit of up.y lost below uprightLimit
	weightResidue = 5.0   // per m/s still moving at the end
	uprightLimit  = 0.9
)

// DriveResult holds one vehicle's drive test measurements.
type DriveResult struct {
	Archetype     vehicle.Archetype
	Bounce        float64 // Std dev of chassis height in the second half of settling
	AccelDistance float64 // Forward distance under full throttle
	StopDistance  float64 // Forward distance while braking
	FinalSpeed    float64
	MinUp         float64 // Lowest chassis up.y seen
}

// Fitness scores the result (lower = better).
func (r DriveResult) Fitness() float64 {
	f := -weightAccel*r.AccelDistance +
		weightStop*r.StopDistance +
		weightBounce*r.Bounce +
		weightResidue*r.FinalSpeed
	if r.MinUp < uprightLimit {
		f += weightTip * (uprightLimit - r.MinUp)
	}
	return f
}

// FitnessEvaluator runs headless drive tests and computes fitness.
// Only one physics world may exist per process, so evaluations are serialized.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	bestResults []DriveResult
	lastResults []DriveResult
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestResults returns the per-vehicle results of the best evaluation.
func (fe *FitnessEvaluator) BestResults() []DriveResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestResults
}

// LastResults returns the per-vehicle results of the most recent evaluation.
func (fe *FitnessEvaluator) LastResults() []DriveResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResults
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	results, err := RunDriveTest(cfg)
	if err != nil {
		// Unbuildable configurations are the worst possible outcome.
		fe.lastResults = nil
		return math.Inf(1)
	}

	var fitness float64
	for _, r := range results {
		fitness += r.Fitness()
	}
	fe.lastResults = results
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestResults = results
	}
	return fitness
}

// copyConfig returns a copy of the base config safe to mutate.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Archetypes = append([]config.ArchetypeConfig(nil), fe.baseConfig.Archetypes...)
	return &cfg
}

// RunDriveTest builds every archetype side by side on flat ground and drives
// them all through settle, full throttle and full brake.
func RunDriveTest(cfg *config.Config) ([]DriveResult, error) {
	table, err := vehicle.NewTable(cfg)
	if err != nil {
		return nil, err
	}
	if len(cfg.Scene.SpawnX) < int(vehicle.NumArchetypes) {
		return nil, fmt.Errorf("scene: %d spawn lanes for %d archetypes", len(cfg.Scene.SpawnX), vehicle.NumArchetypes)
	}
	opts := vehicle.OptionsFromConfig(cfg)

	w := world.New(cfg.Physics)
	defer w.Close()

	if _, err := w.AddBody(physics.BodyCreationSettings{
		Shape:      physics.NewBoxShape(mgl64.Vec3(cfg.Scene.GroundHalfExtent)),
		Position:   mgl64.Vec3(cfg.Scene.GroundPosition),
		Rotation:   mgl64.QuatIdent(),
		MotionType: physics.MotionStatic,
		Layer:      physics.LayerStatic,
	}, physics.DontActivate); err != nil {
		return nil, fmt.Errorf("creating ground: %w", err)
	}

	vehicles := make([]*vehicle.Vehicle, 0, vehicle.NumArchetypes)
	defer func() {
		for _, v := range vehicles {
			v.Close()
		}
	}()
	for a := vehicle.Archetype(0); a < vehicle.NumArchetypes; a++ {
		t := table.Lookup(a)
		spawn := mgl64.Vec3{cfg.Scene.SpawnX[a], vehicle.SpawnHeight(t, opts.Suspension), cfg.Scene.SpawnZ}
		v, err := vehicle.New(w, nil, t, opts, spawn)
		if err != nil {
			return nil, fmt.Errorf("spawning %s: %w", a, err)
		}
		vehicles = append(vehicles, v)
	}

	dt := cfg.Physics.DT
	results := make([]DriveResult, len(vehicles))
	heights := make([][]float64, len(vehicles))
	for i, v := range vehicles {
		results[i] = DriveResult{Archetype: v.Archetype(), MinUp: 1}
	}

	run := func(seconds float64, in input.Input, each func(i int, v *vehicle.Vehicle, tick, total int)) {
		total := int(math.Round(seconds / dt))
		for tick := 0; tick < total; tick++ {
			for _, v := range vehicles {
				v.ApplyInput(in)
			}
			w.Step(dt)
			for i, v := range vehicles {
				up := v.Rotation().Rotate(mgl64.Vec3{0, 1, 0})
				if up[1] < results[i].MinUp {
					results[i].MinUp = up[1]
				}
				each(i, v, tick, total)
			}
		}
	}

	run(settleSec, input.Input{}, func(i int, v *vehicle.Vehicle, tick, total int) {
		if tick >= total/2 {
			heights[i] = append(heights[i], v.Position()[1])
		}
	})
	for i := range results {
		if len(heights[i]) > 1 {
			results[i].Bounce = stat.StdDev(heights[i], nil)
		}
	}

	start := positions(vehicles)
	run(accelSec, input.Input{Throttle: 1}, func(int, *vehicle.Vehicle, int, int) {})
	mid := positions(vehicles)
	run(brakeSec, input.Input{Brake: true, Handbrake: true}, func(int, *vehicle.Vehicle, int, int) {})
	end := positions(vehicles)

	for i, v := range vehicles {
		results[i].AccelDistance = mid[i][2] - start[i][2]
		results[i].StopDistance = math.Abs(end[i][2] - mid[i][2])
		results[i].FinalSpeed = v.Speed()
	}
	return results, nil
}

func positions(vs []*vehicle.Vehicle) []mgl64.Vec3 {
	p := make([]mgl64.Vec3, len(vs))
	for i, v := range vs {
		p[i] = v.Position()
	}
	return p
}
