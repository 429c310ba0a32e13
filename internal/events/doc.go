// Package events implements the daemon's global publish/subscribe bus.
//
// The bus decouples the networking state machine from the components that
// react to it: the radio driver publishes link-layer events, the controller
// publishes readiness and status events, and the HTTP server announces when
// URI handlers may be attached.
//
// Delivery is ordered: a single goroutine drains a bounded queue and invokes
// handlers sequentially. Publish never blocks; when the queue is full the
// event is dropped and counted, never silently lost.
//
// # Usage Example
//
//	bus := events.NewBus()
//	defer bus.Close()
//
//	token, _ := bus.Subscribe(events.TopicNetworkingReady, func(e events.Event) {
//	    // attach handlers, announce services, ...
//	})
//	defer bus.Unsubscribe(token)
//
//	bus.Publish(events.Event{Topic: events.TopicNetworkingReady})
package events
