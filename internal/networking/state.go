package networking

import (
	"time"

	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/radio"
)

// Medium is the physical connectivity layer.
type Medium int

const (
	MediumUnspecified Medium = iota
	MediumWired
	MediumWireless
)

// String returns a human-readable medium name.
func (m Medium) String() string {
	switch m {
	case MediumWired:
		return "wired"
	case MediumWireless:
		return "wireless"
	default:
		return "unspecified"
	}
}

// Mode is the wireless operation mode. It is only meaningful while the
// medium is wireless.
type Mode int

const (
	ModeNotApplicable Mode = iota
	ModeAccessPoint
	ModeStation
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeAccessPoint:
		return "access_point"
	case ModeStation:
		return "station"
	default:
		return "not_applicable"
	}
}

// Status is the connection status. Idle and Busy are only valid in access
// point mode, Connecting and Ready only in station mode.
type Status int

const (
	StatusDown Status = iota
	StatusReady
	StatusConnecting
	StatusIdle
	StatusBusy
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusConnecting:
		return "connecting"
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	default:
		return "down"
	}
}

// accessPointExtra is the mode-specific state while hosting the fallback
// access point.
type accessPointExtra struct {
	// shutdownTimer is non-nil exactly while the idle shutdown countdown
	// is armed.
	shutdownTimer *time.Timer
}

// stationExtra is the mode-specific state while in station mode.
type stationExtra struct {
	connectionAttempts int
}

// connectionState is the state record of the controller. It is created when
// the controller goroutine starts and mutated exclusively by that
// goroutine; everything else observes it through Snapshot copies.
//
// Exactly one of apExtra / staExtra is non-nil while mode is set; both are
// nil, together with iface, while mode is ModeNotApplicable.
type connectionState struct {
	medium Medium
	mode   Mode
	status Status

	iface *radio.Interface

	linkToken events.Token
	ipToken   events.Token

	apExtra  *accessPointExtra
	staExtra *stationExtra

	// ssid is the network currently targeted (station) or hosted (access
	// point), carried along for status reporting.
	ssid string
}

func newConnectionState(linkToken, ipToken events.Token) *connectionState {
	return &connectionState{
		medium:    MediumUnspecified,
		mode:      ModeNotApplicable,
		status:    StatusDown,
		linkToken: linkToken,
		ipToken:   ipToken,
	}
}

// enterAccessPoint records access point mode entry.
func (s *connectionState) enterAccessPoint(iface *radio.Interface, ssid string) {
	s.mode = ModeAccessPoint
	s.iface = iface
	s.apExtra = &accessPointExtra{}
	s.staExtra = nil
	s.ssid = ssid
}

// enterStation records station mode entry.
func (s *connectionState) enterStation(iface *radio.Interface, ssid string) {
	s.mode = ModeStation
	s.iface = iface
	s.staExtra = &stationExtra{}
	s.apExtra = nil
	s.ssid = ssid
}

// clearMode records mode exit, releasing the interface reference and the
// mode extension together so the state never holds a partial mode.
func (s *connectionState) clearMode() {
	s.mode = ModeNotApplicable
	s.iface = nil
	s.apExtra = nil
	s.staExtra = nil
	s.ssid = ""
}

// shutdownTimerArmed reports whether the access point idle countdown is
// running.
func (s *connectionState) shutdownTimerArmed() bool {
	return s.apExtra != nil && s.apExtra.shutdownTimer != nil
}

// Snapshot is a copy of the controller state, safe to share outside the
// controller goroutine. It is published on the bus as the payload of
// TopicNetworkingStatus and served over the portal's status feed.
type Snapshot struct {
	Medium             string `json:"medium"`
	Mode               string `json:"mode"`
	Status             string `json:"status"`
	SSID               string `json:"ssid,omitempty"`
	ConnectionAttempts int    `json:"connection_attempts,omitempty"`
	Stations           int    `json:"stations,omitempty"`
	ShutdownTimerArmed bool   `json:"shutdown_timer_armed,omitempty"`
}
