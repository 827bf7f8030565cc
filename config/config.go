// Package config provides configuration loading and access for the sandbox.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all sandbox configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Suspension  SuspensionConfig  `yaml:"suspension"`
	Arbitration ArbitrationConfig `yaml:"arbitration"`
	Controller  ControllerConfig  `yaml:"controller"`
	Camera      CameraConfig      `yaml:"camera"`
	DebugDraw   DebugDrawConfig   `yaml:"debug_draw"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Scene       SceneConfig       `yaml:"scene"`
	Archetypes  []ArchetypeConfig `yaml:"archetypes"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds engine and world parameters.
type PhysicsConfig struct {
	DT             float64    `yaml:"dt"`               // Fixed step used by headless runs
	MaxFrameDT     float64    `yaml:"max_frame_dt"`     // Frame dt clamp for windowed runs
	Gravity        [3]float64 `yaml:"gravity"`          // World gravity vector
	TempArenaBytes int        `yaml:"temp_arena_bytes"` // Per-step scratch arena size
	MaxBodies      int        `yaml:"max_bodies"`
	Workers        int        `yaml:"workers"`          // 0 = hardware threads - 1 (min 1)
	SleepVelocity  float64    `yaml:"sleep_velocity"`   // Below this speed a body may fall asleep
	SleepTime      float64    `yaml:"sleep_time"`       // Seconds below SleepVelocity before sleeping
	Friction       float64    `yaml:"friction"`         // Chassis vs ground friction
	Restitution    float64    `yaml:"restitution"`
}

// SuspensionConfig holds the wheel parameters shared by every archetype.
type SuspensionConfig struct {
	MinLength  float64 `yaml:"min_length"`
	MaxLength  float64 `yaml:"max_length"`
	RestLength float64 `yaml:"rest_length"` // Used for spawn height
	Frequency  float64 `yaml:"frequency"`   // Spring frequency in Hz
	Damping    float64 `yaml:"damping"`     // Damping ratio
	TireGrip   float64 `yaml:"tire_grip"`   // Friction coefficient of the tire contact
	MaxPairs   int     `yaml:"max_pairs"`   // Maximum driven axle pairs
	COMFactor  float64 `yaml:"com_factor"`  // COM offset = -COMFactor * chassis half height

	TireForceDepth float64 `yaml:"tire_force_depth"` // Tire forces act this far below the COM
}

// ArbitrationConfig holds the throttle/brake arbitration thresholds.
type ArbitrationConfig struct {
	Deadband        float64 `yaml:"deadband"`         // Forward speed disagreement that forces a full brake
	CoastThreshold  float64 `yaml:"coast_threshold"`  // |throttle| below this counts as released
	MovingThreshold float64 `yaml:"moving_threshold"` // |speed| above this counts as moving
	CoastBrake      float64 `yaml:"coast_brake"`      // Engine drag brake when coasting
}

// ControllerConfig holds input smoothing parameters.
type ControllerConfig struct {
	SmoothingRate float64 `yaml:"smoothing_rate"` // Per-second approach rate of throttle/steer
}

// CameraConfig holds camera defaults.
type CameraConfig struct {
	FOV                 float64    `yaml:"fov"`
	OrbitTarget         [3]float64 `yaml:"orbit_target"`
	OrbitDistance       float64    `yaml:"orbit_distance"`
	OrbitYaw            float64    `yaml:"orbit_yaw"`   // degrees
	OrbitPitch          float64    `yaml:"orbit_pitch"` // degrees
	ThirdPersonDistance float64    `yaml:"third_person_distance"`
	ThirdPersonHeight   float64    `yaml:"third_person_height"`
	ThirdPersonLookAt   float64    `yaml:"third_person_look_at"`
}

// DebugDrawConfig holds debug line renderer parameters.
type DebugDrawConfig struct {
	Enabled         bool `yaml:"enabled"`
	InitialVertices int  `yaml:"initial_vertices"`
	DrawShapes      bool `yaml:"draw_shapes"`
	DrawCOM         bool `yaml:"draw_com"`
	DrawBoundingBox bool `yaml:"draw_bounding_box"`
	DrawVelocity    bool `yaml:"draw_velocity"`
	DrawWheels      bool `yaml:"draw_wheels"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int     `yaml:"perf_window"`  // Ticks in the rolling perf window
	StatsWindow float64 `yaml:"stats_window"` // Seconds between logged/exported records
}

// SceneConfig holds the test track layout.
type SceneConfig struct {
	GroundHalfExtent [3]float64 `yaml:"ground_half_extent"`
	GroundPosition   [3]float64 `yaml:"ground_position"`
	SpawnX           []float64  `yaml:"spawn_x"` // One spawn lane per archetype, in archetype order
	SpawnZ           float64    `yaml:"spawn_z"`
}

// ArchetypeConfig is the immutable tuning of one vehicle archetype.
type ArchetypeConfig struct {
	Name           string     `yaml:"name"`
	HalfExtent     [3]float64 `yaml:"half_extent"`     // Chassis half extents (x = width, y = height, z = length)
	WheelRadius    float64    `yaml:"wheel_radius"`
	WheelWidth     float64    `yaml:"wheel_width"`
	WheelLateral   float64    `yaml:"wheel_lateral"`   // |x| of each wheel; 0 = single-track
	WheelForward   []float64  `yaml:"wheel_forward"`   // z of each axle, front first
	MaxSteerAngle  float64    `yaml:"max_steer_angle"` // degrees, front wheels only
	Mass           float64    `yaml:"mass"`
	EngineForce    float64    `yaml:"engine_force"`
	MaxSpeed       float64    `yaml:"max_speed"`
	SteerTorque    float64    `yaml:"steer_torque"`
	BrakeForce     float64    `yaml:"brake_force"`
	LinearDamping  float64    `yaml:"linear_damping"`
	AngularDamping float64    `yaml:"angular_damping"`
	UprightAssist  float64    `yaml:"upright_assist"` // Roll-stabilising stiffness; single-track vehicles
	DriveBias      []float64  `yaml:"drive_bias"`     // Relative engine torque per driven axle, front first; empty = equal
	Color          [3]uint8   `yaml:"color"`
}

// WheelCount returns the number of wheels the layout describes.
func (a ArchetypeConfig) WheelCount() int {
	if a.WheelLateral == 0 {
		return len(a.WheelForward)
	}
	return 2 * len(a.WheelForward)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32        // Physics.DT as float32
	ArchetypeIndex map[string]int // lowercase name -> index
	MaxSteerRad    []float64      // Archetypes[i].MaxSteerAngle in radians
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the vehicle model cannot be built from.
func (c *Config) validate() error {
	if len(c.Archetypes) == 0 {
		return fmt.Errorf("config: no archetypes defined")
	}
	if c.Suspension.MinLength > c.Suspension.MaxLength {
		return fmt.Errorf("config: suspension min_length %.3f exceeds max_length %.3f",
			c.Suspension.MinLength, c.Suspension.MaxLength)
	}
	if c.Suspension.TireForceDepth < 0 {
		return fmt.Errorf("config: suspension tire_force_depth %.3f is negative", c.Suspension.TireForceDepth)
	}
	for i, arch := range c.Archetypes {
		if arch.Name == "" {
			return fmt.Errorf("config: archetype %d has no name", i)
		}
		if len(arch.WheelForward) == 0 {
			return fmt.Errorf("config: archetype %q has no wheels", arch.Name)
		}
		if arch.Mass <= 0 {
			return fmt.Errorf("config: archetype %q has non-positive mass", arch.Name)
		}
		if len(arch.DriveBias) > len(arch.WheelForward) {
			return fmt.Errorf("config: archetype %q has %d drive_bias entries for %d axles",
				arch.Name, len(arch.DriveBias), len(arch.WheelForward))
		}
		biasSum := 0.0
		for _, w := range arch.DriveBias {
			if w < 0 {
				return fmt.Errorf("config: archetype %q drive_bias must not be negative", arch.Name)
			}
			biasSum += w
		}
		if len(arch.DriveBias) > 0 && biasSum == 0 {
			return fmt.Errorf("config: archetype %q drive_bias drives no axle", arch.Name)
		}
		for axis, h := range arch.HalfExtent {
			if h <= 0 {
				return fmt.Errorf("config: archetype %q half_extent[%d] must be positive", arch.Name, axis)
			}
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)

	if c.Physics.TempArenaBytes <= 0 {
		c.Physics.TempArenaBytes = 10 * 1024 * 1024
	}
	if c.Suspension.MaxPairs <= 0 {
		c.Suspension.MaxPairs = 3
	}
	if c.Controller.SmoothingRate <= 0 {
		c.Controller.SmoothingRate = 6
	}
	if c.DebugDraw.InitialVertices <= 0 {
		c.DebugDraw.InitialVertices = 4096
	}

	c.Derived.ArchetypeIndex = make(map[string]int, len(c.Archetypes))
	c.Derived.MaxSteerRad = make([]float64, len(c.Archetypes))
	for i, arch := range c.Archetypes {
		c.Derived.ArchetypeIndex[strings.ToLower(arch.Name)] = i
		c.Derived.MaxSteerRad[i] = arch.MaxSteerAngle * math.Pi / 180
	}
}

// Archetype returns the archetype with the given name (case-insensitive).
func (c *Config) Archetype(name string) (ArchetypeConfig, bool) {
	idx, ok := c.Derived.ArchetypeIndex[strings.ToLower(name)]
	if !ok {
		return ArchetypeConfig{}, false
	}
	return c.Archetypes[idx], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
