// Package radio defines the boundary to the WiFi stack.
//
// The Radio interface covers the small surface the networking controller
// needs: bring an interface up in station or access point mode, issue a
// connect attempt, tear everything down, and count joined clients. Outcomes
// that depend on the air arrive asynchronously as Event values on the
// global bus, never as return values.
//
// The package ships a single implementation, Sim, a deterministic simulator
// used by the daemon and the test suite. Real hardware drivers would
// implement the same interface and emit the same events.
package radio
