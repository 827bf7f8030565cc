// Package input turns discrete key events into smoothed driving signals and
// one-shot scene requests.
package input

// Key is a key the controller understands. The window layer maps its own key
// codes onto these.
type Key int

const (
	KeyW Key = iota
	KeyS
	KeyA
	KeyD
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	Key1
	Key2
	Key3
	Key4
	Key5
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyR
	KeyC
	KeyF1
	numKeys
)

// Input is one frame of driver intent.
type Input struct {
	Throttle  float64 // [-1, 1], forward positive
	Steer     float64 // [-1, 1], right positive
	Brake     bool
	Handbrake bool
}

// Controller tracks held keys and pending requests.
type Controller struct {
	rate float64
	held [numKeys]bool

	throttle float64
	steer    float64

	switchRequest int
	resetRequest  bool
	cameraRequest bool
	debugRequest  bool
}

// NewController creates a controller whose signals approach their target at
// rate per second.
func NewController(rate float64) *Controller {
	return &Controller{rate: rate, switchRequest: -1}
}

// KeyPressed records a key going down.
func (c *Controller) KeyPressed(k Key) {
	if k < 0 || k >= numKeys {
		return
	}
	c.held[k] = true

	switch {
	case k >= Key1 && k <= Key5:
		c.switchRequest = int(k - Key1)
	case k >= KeyKP1 && k <= KeyKP5:
		c.switchRequest = int(k - KeyKP1)
	case k == KeyR:
		c.resetRequest = true
	case k == KeyC:
		c.cameraRequest = true
	case k == KeyF1:
		c.debugRequest = true
	}
}

// KeyReleased records a key going up.
func (c *Controller) KeyReleased(k Key) {
	if k < 0 || k >= numKeys {
		return
	}
	c.held[k] = false
}

// Held reports whether k is down.
func (c *Controller) Held(k Key) bool {
	if k < 0 || k >= numKeys {
		return false
	}
	return c.held[k]
}

// Update moves throttle and steer toward the held directions. A pair with
// neither key held snaps to zero.
func (c *Controller) Update(dt float64) {
	alpha := dt * c.rate
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}

	forward := c.held[KeyW] || c.held[KeyUp]
	back := c.held[KeyS] || c.held[KeyDown]
	left := c.held[KeyA] || c.held[KeyLeft]
	right := c.held[KeyD] || c.held[KeyRight]

	c.throttle = approach(c.throttle, axis(forward, back), forward || back, alpha)
	c.steer = approach(c.steer, axis(right, left), left || right, alpha)
}

func axis(pos, neg bool) float64 {
	v := 0.0
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}

func approach(v, target float64, active bool, alpha float64) float64 {
	if !active {
		return 0
	}
	return v + (target-v)*alpha
}

// Input returns the current driving signals.
func (c *Controller) Input() Input {
	brake := c.held[KeySpace]
	return Input{
		Throttle:  c.throttle,
		Steer:     c.steer,
		Brake:     brake,
		Handbrake: brake,
	}
}

// ConsumeSwitchRequest returns the most recently requested vehicle index and
// clears it, or -1 if none is pending.
func (c *Controller) ConsumeSwitchRequest() int {
	r := c.switchRequest
	c.switchRequest = -1
	return r
}

// ConsumeResetRequest reports and clears a pending reset.
func (c *Controller) ConsumeResetRequest() bool {
	r := c.resetRequest
	c.resetRequest = false
	return r
}

// ConsumeCameraToggleRequest reports and clears a pending camera toggle.
func (c *Controller) ConsumeCameraToggleRequest() bool {
	r := c.cameraRequest
	c.cameraRequest = false
	return r
}

// ConsumeDebugToggleRequest reports and clears a pending debug draw toggle.
func (c *Controller) ConsumeDebugToggleRequest() bool {
	r := c.debugRequest
	c.debugRequest = false
	return r
}
