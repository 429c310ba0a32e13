package networking

import (
	"fmt"

	"github.com/mischback/krachkiste/internal/radio"
)

// notification is the controller's internal command vocabulary. It is
// deliberately distinct from radio.EventKind: the state machine never
// depends on the radio SDK's event numbering.
type notification int

const (
	// Commands issued by the embedding application or by the controller
	// itself.
	notifyStop notification = iota
	notifyWifiStart
	notifyWifiRestart

	// Radio events, translated by translateRadioEvent.
	notifyStationStarted
	notifyStationConnected
	notifyStationDisconnected
	notifyAccessPointStarted
	notifyClientConnected
	notifyClientDisconnected

	// Internal signal from the idle shutdown timer.
	notifyShutdownTimerExpired
)

// String returns the command name for logging.
func (n notification) String() string {
	switch n {
	case notifyStop:
		return "CMD_NETWORKING_STOP"
	case notifyWifiStart:
		return "CMD_WIFI_START"
	case notifyWifiRestart:
		return "CMD_WIFI_RESTART"
	case notifyStationStarted:
		return "EVENT_STA_START"
	case notifyStationConnected:
		return "EVENT_STA_CONNECTED"
	case notifyStationDisconnected:
		return "EVENT_STA_DISCONNECTED"
	case notifyAccessPointStarted:
		return "EVENT_AP_START"
	case notifyClientConnected:
		return "EVENT_AP_STACONNECTED"
	case notifyClientDisconnected:
		return "EVENT_AP_STADISCONNECTED"
	case notifyShutdownTimerExpired:
		return "EVENT_AP_TIMER_EXPIRED"
	default:
		return fmt.Sprintf("notification(%d)", int(n))
	}
}

// translateRadioEvent maps a driver event to the internal notification
// vocabulary. Events the controller does not act on (e.g. IP leases, which
// are logged only) report ok == false.
func translateRadioEvent(kind radio.EventKind) (notification, bool) {
	switch kind {
	case radio.EventStationStarted:
		return notifyStationStarted, true
	case radio.EventStationConnected:
		return notifyStationConnected, true
	case radio.EventStationDisconnected:
		return notifyStationDisconnected, true
	case radio.EventAccessPointStarted:
		return notifyAccessPointStarted, true
	case radio.EventClientConnected:
		return notifyClientConnected, true
	case radio.EventClientDisconnected:
		return notifyClientDisconnected, true
	default:
		return 0, false
	}
}
