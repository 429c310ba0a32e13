package events

// Topic identifies a class of events on the bus.
type Topic string

// Topics published and consumed by the daemon's components.
const (
	// TopicNetworkingReady signals that the network is usable. Carries no
	// payload.
	TopicNetworkingReady Topic = "networking.ready"

	// TopicNetworkingUnavailable signals that the network is about to go
	// down. Carries no payload.
	TopicNetworkingUnavailable Topic = "networking.unavailable"

	// TopicNetworkingStatus carries a periodic snapshot of the networking
	// state machine. Payload is networking.Snapshot.
	TopicNetworkingStatus Topic = "networking.status"

	// TopicRadioLink carries link-layer events emitted by the radio driver.
	// Payload is radio.Event.
	TopicRadioLink Topic = "radio.link"

	// TopicRadioIP carries IP-stack events emitted by the radio driver.
	// These are logged by the controller but not acted upon. Payload is
	// radio.Event.
	TopicRadioIP Topic = "radio.ip"

	// TopicHTTPDReady signals that the HTTP server is up and serving.
	// Payload is the listener address as a string.
	TopicHTTPDReady Topic = "httpd.ready"
)

// Event is a single occurrence delivered to subscribed handlers.
type Event struct {
	Topic   Topic
	Payload interface{}
}

// Handler processes a single event. Handlers run on the bus delivery
// goroutine and must not block for long periods.
type Handler func(Event)

// Token identifies a registered handler and is required to unsubscribe.
type Token struct {
	topic Topic
	id    uint64
}

// Stats tracks delivery metrics of the bus.
type Stats struct {
	Published uint64
	Delivered uint64
	Dropped   uint64
}
