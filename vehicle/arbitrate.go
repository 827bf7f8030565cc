package vehicle

import (
	"math"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/input"
)

// Command is what the drivetrain receives for one step.
type Command struct {
	Throttle  float64
	Steer     float64
	Brake     float64
	Handbrake float64
}

// Arbitrate turns driver input into a drivetrain command given the current
// forward speed. Past maxSpeed the throttle is cut. Throttle against the
// direction of travel becomes a full brake, a released throttle while moving
// becomes the coast brake, and a held brake is always a full brake.
func Arbitrate(in input.Input, forwardSpeed, maxSpeed float64, t config.ArbitrationConfig) Command {
	cmd := Command{Throttle: in.Throttle, Steer: in.Steer}

	if math.Abs(forwardSpeed) > maxSpeed {
		cmd.Throttle = 0
	}

	if cmd.Throttle*forwardSpeed < 0 && math.Abs(forwardSpeed) > t.Deadband {
		cmd.Brake = 1
		cmd.Throttle = 0
	} else if math.Abs(cmd.Throttle) < t.CoastThreshold && math.Abs(forwardSpeed) > t.MovingThreshold {
		cmd.Brake = t.CoastBrake
	}

	if in.Brake {
		cmd.Brake = 1
	}
	if in.Handbrake {
		cmd.Handbrake = 1
	}
	return cmd
}
