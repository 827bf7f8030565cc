package main

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/rigs/input"
	"github.com/pthm-cable/rigs/session"
	"github.com/pthm-cable/rigs/vehicle"
)

//go:embed default.yaml
var defaultScript []byte

// Script is a timed sequence of held keys.
type Script struct {
	DT    float64 `yaml:"dt"`
	Steps []Step  `yaml:"steps"`
}

// Step holds Keys for Seconds, optionally after switching vehicle or resetting.
type Step struct {
	Vehicle string   `yaml:"vehicle"`
	Reset   bool     `yaml:"reset"`
	Camera  bool     `yaml:"camera"`
	Debug   bool     `yaml:"debug"`
	Seconds float64  `yaml:"seconds"`
	Keys    []string `yaml:"keys"`
}

var keyNames = map[string]input.Key{
	"w":     input.KeyW,
	"s":     input.KeyS,
	"a":     input.KeyA,
	"d":     input.KeyD,
	"up":    input.KeyUp,
	"down":  input.KeyDown,
	"left":  input.KeyLeft,
	"right": input.KeyRight,
	"space": input.KeySpace,
}

// LoadScript reads a script from path, or the embedded default if path is empty.
func LoadScript(path string) (*Script, error) {
	data := defaultScript
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading script: %w", err)
		}
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a script.
func ParseScript(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("script has no steps")
	}
	for i, st := range sc.Steps {
		if st.Seconds < 0 {
			return nil, fmt.Errorf("step %d: negative duration", i)
		}
		if st.Vehicle != "" {
			if _, err := vehicle.ParseArchetype(st.Vehicle); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		}
		for _, k := range st.Keys {
			if _, ok := keyNames[strings.ToLower(k)]; !ok {
				return nil, fmt.Errorf("step %d: unknown key %q", i, k)
			}
		}
	}
	return &sc, nil
}

// Ticks returns the number of frames the step lasts at dt.
func (st Step) Ticks(dt float64) int {
	return int(math.Round(st.Seconds / dt))
}

// TotalTicks returns the number of frames the whole script lasts at dt.
func (sc *Script) TotalTicks(dt float64) int {
	n := 0
	for _, st := range sc.Steps {
		n += st.Ticks(dt)
	}
	return n
}

// Run plays the script against s, stepping dt per frame.
func (sc *Script) Run(s *session.Session, dt float64) error {
	c := s.Controller()
	for i, st := range sc.Steps {
		if st.Vehicle != "" {
			a, _ := vehicle.ParseArchetype(st.Vehicle)
			s.SetActiveIndex(int(a))
		}
		if st.Reset {
			s.RequestReset()
		}
		if st.Camera {
			s.ToggleCamera()
		}
		if st.Debug {
			s.SetDebugDraw(!s.DebugDrawEnabled())
		}

		for _, k := range st.Keys {
			c.KeyPressed(keyNames[strings.ToLower(k)])
		}
		for t := st.Ticks(dt); t > 0; t-- {
			if err := s.Update(dt); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
		for _, k := range st.Keys {
			c.KeyReleased(keyNames[strings.ToLower(k)])
		}
	}
	return nil
}
