// Package physics is the rigid-body engine the sandbox drives.
//
// It exposes what the vehicle layer consumes: box shapes with an optional
// center-of-mass offset, bodies with two collision layers, a per-step temp
// arena, step listeners, a wheeled vehicle constraint and a debug-draw pass.
// The solver is intentionally small: semi-implicit Euler integration, chassis
// corners against box tops, and ray-cast wheels.
package physics

import "sync/atomic"

// registered tracks the process-wide type registration.
var registered atomic.Bool

// Init registers the engine's types. It must be called exactly once before any
// System is created and paired with Shutdown. Calling Init twice without a
// Shutdown in between panics.
func Init() {
	if !registered.CompareAndSwap(false, true) {
		panic("physics: Init called twice without Shutdown")
	}
}

// Shutdown unregisters the engine's types. Calling it without a matching Init panics.
func Shutdown() {
	if !registered.CompareAndSwap(true, false) {
		panic("physics: Shutdown called without Init")
	}
}

// Registered reports whether Init has been called without a matching Shutdown.
func Registered() bool {
	return registered.Load()
}
