// Package networking manages the device's network connectivity.
//
// A single controller goroutine owns the connection state and drains a
// bounded notification queue. Commands (start, stop, restart) and translated
// radio events both arrive through that queue, so every state mutation runs
// on the controller goroutine and no lock guards the state itself.
//
// On startup the controller tries station mode with credentials from the
// persistent store. When no credentials exist, or when the configured number
// of connection attempts fails, it falls back to a local access point so the
// device stays reachable for configuration. An idle access point shuts down
// after a configurable lifetime.
//
// Lifecycle changes are announced on the event bus: TopicNetworkingReady
// when connectivity is usable, TopicNetworkingUnavailable before teardown
// and TopicNetworkingStatus with a Snapshot payload on every monitor tick.
package networking
