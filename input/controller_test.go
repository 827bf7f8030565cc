package input

import (
	"math"
	"testing"
)

func TestSmoothingApproachesTarget(t *testing.T) {
	c := NewController(6)
	c.KeyPressed(KeyW)

	const dt = 1.0 / 60
	s := dt * 6
	for n := 1; n <= 30; n++ {
		c.Update(dt)
		want := 1 - math.Pow(1-s, float64(n))
		if got := c.Input().Throttle; math.Abs(got-want) > 1e-12 {
			t.Fatalf("step %d: expected throttle %v, got %v", n, want, got)
		}
	}
}

func TestLargeDTClampsToTarget(t *testing.T) {
	c := NewController(6)
	c.KeyPressed(KeyD)
	c.Update(1)
	if got := c.Input().Steer; got != 1 {
		t.Errorf("expected steer clamped to target 1, got %v", got)
	}
}

func TestReleaseSnapsToZero(t *testing.T) {
	c := NewController(6)
	c.KeyPressed(KeyUp)
	c.KeyPressed(KeyLeft)
	for i := 0; i < 10; i++ {
		c.Update(1.0 / 60)
	}
	if c.Input().Throttle <= 0 || c.Input().Steer >= 0 {
		t.Fatalf("expected forward throttle and left steer, got %+v", c.Input())
	}

	c.KeyReleased(KeyUp)
	c.KeyReleased(KeyLeft)
	c.Update(1.0 / 60)
	if in := c.Input(); in.Throttle != 0 || in.Steer != 0 {
		t.Errorf("expected snap to zero on release, got %+v", in)
	}
}

func TestOpposingKeysCancel(t *testing.T) {
	c := NewController(6)
	c.KeyPressed(KeyW)
	c.Update(1.0 / 60)
	c.KeyPressed(KeyS)
	for i := 0; i < 200; i++ {
		c.Update(1.0 / 60)
	}
	if got := c.Input().Throttle; math.Abs(got) > 1e-9 {
		t.Errorf("expected throttle to decay toward 0 with both keys held, got %v", got)
	}
}

func TestBrakeDrivesHandbrake(t *testing.T) {
	c := NewController(6)
	if in := c.Input(); in.Brake || in.Handbrake {
		t.Fatalf("expected no brake, got %+v", in)
	}
	c.KeyPressed(KeySpace)
	if in := c.Input(); !in.Brake || !in.Handbrake {
		t.Errorf("expected brake and handbrake, got %+v", in)
	}
	c.KeyReleased(KeySpace)
	if in := c.Input(); in.Brake || in.Handbrake {
		t.Errorf("expected brake released, got %+v", in)
	}
}

func TestSwitchRequest(t *testing.T) {
	tests := []struct {
		name string
		keys []Key
		want int
	}{
		{"none", nil, -1},
		{"digit", []Key{Key3}, 2},
		{"keypad", []Key{KeyKP5}, 4},
		{"newest wins", []Key{Key1, KeyKP4}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(6)
			for _, k := range tt.keys {
				c.KeyPressed(k)
			}
			if got := c.ConsumeSwitchRequest(); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
			if got := c.ConsumeSwitchRequest(); got != -1 {
				t.Errorf("expected -1 on second consume, got %d", got)
			}
		})
	}
}

func TestOneShotRequests(t *testing.T) {
	c := NewController(6)
	c.KeyPressed(KeyR)
	c.KeyPressed(KeyC)
	c.KeyPressed(KeyF1)

	if !c.ConsumeResetRequest() || c.ConsumeResetRequest() {
		t.Error("expected reset request consumed exactly once")
	}
	if !c.ConsumeCameraToggleRequest() || c.ConsumeCameraToggleRequest() {
		t.Error("expected camera toggle consumed exactly once")
	}
	if !c.ConsumeDebugToggleRequest() || c.ConsumeDebugToggleRequest() {
		t.Error("expected debug toggle consumed exactly once")
	}
}

func TestOutOfRangeKeysIgnored(t *testing.T) {
	c := NewController(6)
	c.KeyPressed(Key(-1))
	c.KeyPressed(numKeys)
	c.KeyReleased(numKeys + 3)
	if c.Held(numKeys) {
		t.Error("expected out of range key to never be held")
	}
}
