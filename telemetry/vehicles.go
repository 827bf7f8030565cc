package telemetry

// VehicleSample is one vehicle's state at a tick, exported to vehicles.csv.
type VehicleSample struct {
	Tick         int32   `csv:"tick"`
	Index        int     `csv:"index"`
	Archetype    string  `csv:"archetype"`
	Active       bool    `csv:"active"`
	Speed        float64 `csv:"speed"`
	ForwardSpeed float64 `csv:"forward_speed"`
	X            float64 `csv:"x"`
	Y            float64 `csv:"y"`
	Z            float64 `csv:"z"`
	Throttle     float64 `csv:"throttle"`
	Steer        float64 `csv:"steer"`
	Brake        float64 `csv:"brake"`
	Contacts     int     `csv:"wheel_contacts"`
}
