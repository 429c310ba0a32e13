package radio

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is returned for operations that require an active
	// interface.
	ErrNotStarted = errors.New("radio: not started")

	// ErrAlreadyStarted is returned when a mode is started while another
	// one is still active.
	ErrAlreadyStarted = errors.New("radio: already started")

	// ErrWrongMode is returned for operations that are only valid in the
	// other mode (e.g. Connect while in access point mode).
	ErrWrongMode = errors.New("radio: operation not valid in current mode")
)

// EventKind enumerates the events a radio driver emits. This is the
// driver-side vocabulary; the networking controller translates it into its
// own notification codes and never switches on these values directly.
type EventKind int

const (
	// EventStationStarted: the interface came up in station mode.
	EventStationStarted EventKind = iota
	// EventStationConnected: the station associated with the configured
	// access point.
	EventStationConnected
	// EventStationDisconnected: association failed or an established
	// connection was lost.
	EventStationDisconnected
	// EventAccessPointStarted: the self-hosted access point is up.
	EventAccessPointStarted
	// EventClientConnected: a client joined the access point.
	EventClientConnected
	// EventClientDisconnected: a client left the access point.
	EventClientDisconnected
	// EventClientIPAssigned: the IP stack leased an address to a client.
	EventClientIPAssigned
)

// String returns the driver-side name of the event.
func (k EventKind) String() string {
	switch k {
	case EventStationStarted:
		return "STA_START"
	case EventStationConnected:
		return "STA_CONNECTED"
	case EventStationDisconnected:
		return "STA_DISCONNECTED"
	case EventAccessPointStarted:
		return "AP_START"
	case EventClientConnected:
		return "AP_STACONNECTED"
	case EventClientDisconnected:
		return "AP_STADISCONNECTED"
	case EventClientIPAssigned:
		return "AP_STAIPASSIGNED"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event is a single radio occurrence. Link-layer events are published under
// events.TopicRadioLink, IP-stack events under events.TopicRadioIP.
type Event struct {
	Kind EventKind

	// SSID is set on station events.
	SSID string

	// ClientMAC is set on access point client events.
	ClientMAC string

	// IP is set on EventClientIPAssigned.
	IP string
}

// Interface is an opaque handle to an active network interface. It is owned
// by the radio driver; holders keep a non-owning reference.
type Interface struct {
	name string
}

// Name returns the system name of the interface.
func (i *Interface) Name() string {
	if i == nil {
		return ""
	}
	return i.name
}

// StationConfig holds the parameters for joining an existing network.
type StationConfig struct {
	SSID string
	PSK  string
}

// AccessPointConfig holds the parameters for the self-hosted fallback
// network.
type AccessPointConfig struct {
	SSID       string
	PSK        string
	Channel    int
	MaxClients int
}

// Radio is the boundary to the WiFi stack. All calls are synchronous and
// bounded; outcomes that depend on the air (association, clients joining)
// are reported asynchronously as events on the bus.
//
// A driver is in exactly one of three states: stopped, station or access
// point. Start calls fail with ErrAlreadyStarted unless the driver is
// stopped; Stop returns the driver to stopped from any state.
type Radio interface {
	// StartStation brings the interface up in station mode. The returned
	// handle stays valid until Stop. Association is NOT attempted here;
	// the driver emits EventStationStarted once the interface is up and
	// the caller issues Connect in response.
	StartStation(cfg StationConfig) (*Interface, error)

	// StartAccessPoint brings the interface up in access point mode and
	// emits EventAccessPointStarted once clients may join.
	StartAccessPoint(cfg AccessPointConfig) (*Interface, error)

	// Connect attempts to associate with the configured station network.
	// The outcome arrives as EventStationConnected or
	// EventStationDisconnected.
	Connect() error

	// Stop tears down the active mode and releases the interface.
	Stop() error

	// ConnectedStations reports the number of clients currently joined to
	// the access point.
	ConnectedStations() (int, error)
}
