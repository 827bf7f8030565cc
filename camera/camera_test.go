package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/config"
)

func testConfig() config.CameraConfig {
	return config.CameraConfig{
		FOV:                 60,
		OrbitTarget:         [3]float64{0, 1, 0},
		OrbitDistance:       17.5,
		OrbitYaw:            40,
		OrbitPitch:          27,
		ThirdPersonDistance: 8,
		ThirdPersonHeight:   3,
		ThirdPersonLookAt:   1,
	}
}

func TestNew(t *testing.T) {
	cam := New(testConfig(), 1280, 720)

	if cam.Mode != ModeOrbit {
		t.Errorf("expected orbit mode, got %s", cam.Mode)
	}
	if cam.Target != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("expected target (0,1,0), got %v", cam.Target)
	}
	if d := cam.Position.Sub(cam.Target).Len(); math.Abs(d-17.5) > 1e-9 {
		t.Errorf("expected eye 17.5 from target, got %f", d)
	}
}

func TestToggle(t *testing.T) {
	cam := New(testConfig(), 1280, 720)
	cam.Toggle()
	if cam.Mode != ModeThirdPerson {
		t.Fatalf("expected third-person after toggle, got %s", cam.Mode)
	}
	cam.Toggle()
	if cam.Mode != ModeOrbit {
		t.Errorf("expected orbit after second toggle, got %s", cam.Mode)
	}
}

func TestFollowPlacesCameraBehindTarget(t *testing.T) {
	cam := New(testConfig(), 1280, 720)
	cam.Toggle()

	// Facing +X: rotate +Z by 90° about Y.
	rot := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	cam.Follow(mgl64.Vec3{10, 0, 5}, rot)

	want := mgl64.Vec3{10 - 8, 3, 5}
	if !cam.Position.ApproxEqualThreshold(want, 1e-6) {
		t.Errorf("expected eye %v, got %v", want, cam.Position)
	}
	if !cam.Target.ApproxEqualThreshold(mgl64.Vec3{10, 1, 5}, 1e-6) {
		t.Errorf("expected look-at (10,1,5), got %v", cam.Target)
	}
}

func TestFollowIgnoredInOrbitMode(t *testing.T) {
	cam := New(testConfig(), 1280, 720)
	before := cam.Position
	cam.Follow(mgl64.Vec3{100, 0, 100}, mgl64.QuatIdent())
	if cam.Position != before {
		t.Errorf("expected orbit camera unaffected by Follow")
	}
}

func TestOrbitClampsPitchAndWrapsYaw(t *testing.T) {
	cam := New(testConfig(), 1280, 720)

	cam.Orbit(350, 200)
	if cam.Pitch != cam.MaxPitch {
		t.Errorf("expected pitch clamped to %f, got %f", cam.MaxPitch, cam.Pitch)
	}
	if math.Abs(cam.Yaw-30) > 1e-9 {
		t.Errorf("expected yaw wrapped to 30, got %f", cam.Yaw)
	}

	cam.Orbit(-100, -400)
	if cam.Pitch != cam.MinPitch {
		t.Errorf("expected pitch clamped to %f, got %f", cam.MinPitch, cam.Pitch)
	}
	if math.Abs(cam.Yaw-290) > 1e-9 {
		t.Errorf("expected yaw wrapped to 290, got %f", cam.Yaw)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(testConfig(), 1280, 720)

	cam.ZoomBy(0.001)
	if cam.Distance != cam.MinDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MinDistance, cam.Distance)
	}
	cam.ZoomBy(1e6)
	if cam.Distance != cam.MaxDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MaxDistance, cam.Distance)
	}
}

func TestReset(t *testing.T) {
	cam := New(testConfig(), 1280, 720)
	cam.Orbit(45, 10)
	cam.ZoomBy(2)
	cam.FollowDistance = 20

	cam.Reset()
	if cam.Yaw != 40 || cam.Pitch != 27 || cam.Distance != 17.5 || cam.FollowDistance != 8 {
		t.Errorf("expected defaults after reset, got yaw=%f pitch=%f dist=%f follow=%f",
			cam.Yaw, cam.Pitch, cam.Distance, cam.FollowDistance)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(testConfig(), 1280, 720)

	// The look-at point projects to the screen center.
	s, ok := cam.WorldToScreen(cam.Target)
	if !ok {
		t.Fatal("expected target in front of the camera")
	}
	if math.Abs(s[0]-640) > 0.01 || math.Abs(s[1]-360) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", s[0], s[1])
	}

	behind := cam.Position.Sub(cam.Forward().Mul(5))
	if _, ok := cam.WorldToScreen(behind); ok {
		t.Error("expected point behind the camera to be rejected")
	}
}
