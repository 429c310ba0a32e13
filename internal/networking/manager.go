package networking

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mischback/krachkiste/internal/config"
	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/logging"
	"github.com/mischback/krachkiste/internal/nvstore"
	"github.com/mischback/krachkiste/internal/radio"
)

var (
	// ErrAlreadyRunning is returned by Start when the controller is up.
	ErrAlreadyRunning = errors.New("networking: already running")

	// ErrNotRunning is returned by Stop and Restart when the controller is
	// not up. Stopping twice is a defined failure, not a crash.
	ErrNotRunning = errors.New("networking: not initialized")
)

// notificationQueueSize bounds the controller's pending notifications. The
// queue is FIFO; distinct rapid-fire events are preserved in order instead
// of overwriting each other.
const notificationQueueSize = 16

// Manager owns the networking lifecycle: it runs the controller goroutine,
// reacts to radio events, falls back from station to access point mode and
// emits readiness events on the bus.
//
// The embedding application constructs one Manager and calls Start; all
// state lives inside the controller goroutine and is observed through
// Status snapshots.
type Manager struct {
	cfg   *config.Config
	bus   *events.Bus
	store *nvstore.Store
	radio radio.Radio

	mu       sync.Mutex
	running  bool
	notifyCh chan notification
	done     chan struct{}
	snap     Snapshot
}

// New creates a Manager. Nothing happens until Start.
func New(cfg *config.Config, bus *events.Bus, store *nvstore.Store, r radio.Radio) *Manager {
	return &Manager{
		cfg:   cfg,
		bus:   bus,
		store: store,
		radio: r,
		snap:  Snapshot{Medium: MediumUnspecified.String(), Mode: ModeNotApplicable.String(), Status: StatusDown.String()},
	}
}

// Start subscribes to radio events, spawns the controller goroutine and
// issues the initial WIFI_START command.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}

	linkToken, err := m.bus.Subscribe(events.TopicRadioLink, m.handleLinkEvent)
	if err != nil {
		return err
	}
	ipToken, err := m.bus.Subscribe(events.TopicRadioIP, m.handleIPEvent)
	if err != nil {
		_ = m.bus.Unsubscribe(linkToken)
		return err
	}

	state := newConnectionState(linkToken, ipToken)
	m.notifyCh = make(chan notification, notificationQueueSize)
	m.done = make(chan struct{})
	m.running = true
	m.snap = m.snapshot(state)

	go m.run(state)

	m.notify(notifyWifiStart)
	return nil
}

// Stop commands the controller to tear everything down and waits for the
// controller goroutine to exit.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	done := m.done
	m.mu.Unlock()

	m.notify(notifyStop)
	<-done
	return nil
}

// Restart commands the controller to drop the current wifi setup and start
// over, picking up freshly stored credentials.
func (m *Manager) Restart() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.mu.Unlock()

	m.notify(notifyWifiRestart)
	return nil
}

// Running reports whether the controller goroutine is up.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Status returns the most recent state snapshot.
func (m *Manager) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Done returns a channel closed when the controller goroutine exits, either
// through Stop or through a self-issued shutdown (idle timeout, fatal
// failure). Returns nil when the controller never started.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// notify appends a notification to the controller queue. A full queue means
// the controller has stalled; the notification is discarded with an error
// log rather than blocking the caller.
func (m *Manager) notify(n notification) {
	select {
	case m.notifyCh <- n:
	default:
		logging.Error("Notification queue full, discarding",
			zap.String("notification", n.String()),
		)
	}
}

// handleLinkEvent translates link-layer radio events into controller
// notifications. Runs on the bus delivery goroutine; it only signals, never
// touches state.
func (m *Manager) handleLinkEvent(e events.Event) {
	ev, ok := e.Payload.(radio.Event)
	if !ok {
		logging.Warn("Unexpected payload on radio link topic")
		return
	}

	logging.LogRadioEvent(ev.Kind.String(), ev.SSID+ev.ClientMAC)

	n, handled := translateRadioEvent(ev.Kind)
	if !handled {
		logging.Debug("Unhandled radio event", zap.String("event", ev.Kind.String()))
		return
	}
	m.notify(n)
}

// handleIPEvent logs IP-stack events. They are informational only.
func (m *Manager) handleIPEvent(e events.Event) {
	ev, ok := e.Payload.(radio.Event)
	if !ok {
		return
	}
	if ev.Kind == radio.EventClientIPAssigned {
		logging.Info("Station connected, IP assigned",
			zap.String("client", ev.ClientMAC),
			zap.String("ip", ev.IP),
		)
	}
}

// run is the controller goroutine: a single loop draining the notification
// queue, with a periodic wake-up for status reporting.
func (m *Manager) run(state *connectionState) {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.MonitorFrequency())
	defer ticker.Stop()

	for {
		select {
		case n := <-m.notifyCh:
			logging.Debug("Notification", zap.String("notification", n.String()))
			terminal := m.dispatch(state, n)
			m.storeSnapshot(state)
			if terminal {
				m.mu.Lock()
				m.running = false
				m.mu.Unlock()
				return
			}
		case <-ticker.C:
			// Best-effort status event, at most one per period.
			m.storeSnapshot(state)
			m.bus.Publish(events.Event{
				Topic:   events.TopicNetworkingStatus,
				Payload: m.Status(),
			})
		}
	}
}

// dispatch applies one notification to the state machine. The return value
// reports whether the controller reached its terminal state.
func (m *Manager) dispatch(state *connectionState, n notification) bool {
	switch n {
	case notifyStop:
		m.shutdown(state)
		return true

	case notifyWifiStart:
		if err := m.wifiStart(state); err != nil {
			logging.Error("Could not start WiFi", zap.Error(err))
			m.notify(notifyStop)
		}

	case notifyWifiRestart:
		// Emit the unavailability event before actually shutting down, so
		// other components get a chance to react while the link is alive.
		m.bus.Publish(events.Event{Topic: events.TopicNetworkingUnavailable})
		m.wifiDeinit(state)
		if err := m.wifiStart(state); err != nil {
			logging.Error("Could not restart WiFi", zap.Error(err))
			m.notify(notifyStop)
		}

	case notifyStationStarted:
		if state.mode != ModeStation {
			logging.Warn("Station start event outside station mode")
			break
		}
		state.status = StatusConnecting
		m.stationConnect(state)

	case notifyStationConnected:
		if state.mode != ModeStation {
			break
		}
		state.staExtra.connectionAttempts = 0
		state.status = StatusReady
		logging.LogStateTransition(state.medium.String(), state.mode.String(), state.status.String())
		m.bus.Publish(events.Event{Topic: events.TopicNetworkingReady})

	case notifyStationDisconnected:
		if state.mode != ModeStation {
			break
		}
		if state.staExtra.connectionAttempts >= m.cfg.Station.MaxAttempts {
			logging.Warn("Connection attempts exhausted, falling back to access point",
				zap.Int("attempts", state.staExtra.connectionAttempts),
			)
			m.stationDeinit(state)
			if err := m.accessPointInit(state); err != nil {
				logging.Error("Could not start access point", zap.Error(err))
				m.notify(notifyStop)
			}
		} else {
			logging.Info("Got disconnected, trying to reconnect",
				zap.Int("attempt", state.staExtra.connectionAttempts),
				zap.Int("max_attempts", m.cfg.Station.MaxAttempts),
			)
			state.status = StatusConnecting
			m.stationConnect(state)
		}

	case notifyAccessPointStarted:
		if state.mode != ModeAccessPoint {
			logging.Warn("Access point start event outside access point mode")
			break
		}
		state.status = StatusIdle
		m.shutdownTimerStart(state)
		logging.LogStateTransition(state.medium.String(), state.mode.String(), state.status.String())
		m.bus.Publish(events.Event{Topic: events.TopicNetworkingReady})

	case notifyClientConnected:
		if state.mode != ModeAccessPoint {
			break
		}
		// A client might be consuming the portal, keep the access point up.
		state.status = StatusBusy
		m.shutdownTimerStop(state)

	case notifyClientDisconnected:
		if state.mode != ModeAccessPoint {
			break
		}
		remaining, err := m.radio.ConnectedStations()
		if err != nil {
			logging.Warn("Could not determine number of connected stations", zap.Error(err))
			break
		}
		if remaining == 0 {
			logging.Debug("No more stations connected, restarting shutdown timer")
			state.status = StatusIdle
			m.shutdownTimerStart(state)
		}

	case notifyShutdownTimerExpired:
		if state.mode == ModeAccessPoint && state.status == StatusIdle {
			logging.Info("Access point idle lifetime expired, shutting down networking")
			m.shutdown(state)
			return true
		}
		// Raced with a client that just connected; the timer is not
		// re-armed here, only the regular disconnect transition does that.
		logging.Warn("Access point is not idle, skipping shutdown")
		if state.apExtra != nil {
			state.apExtra.shutdownTimer = nil
		}

	default:
		logging.Warn("Got unhandled notification", zap.String("notification", n.String()))
	}

	return false
}

// shutdown emits the unavailability event and tears everything down. This
// is the terminal transition.
func (m *Manager) shutdown(state *connectionState) {
	// Emit before deinit so other components can handle the loss of
	// networking while it is still up.
	m.bus.Publish(events.Event{Topic: events.TopicNetworkingUnavailable})

	if state.medium == MediumWireless {
		m.wifiDeinit(state)
	}

	if err := m.bus.Unsubscribe(state.linkToken); err != nil {
		logging.Warn("Could not unsubscribe link event handler", zap.Error(err))
	}
	if err := m.bus.Unsubscribe(state.ipToken); err != nil {
		logging.Warn("Could not unsubscribe IP event handler", zap.Error(err))
	}

	state.status = StatusDown
	logging.LogStateTransition(state.medium.String(), state.mode.String(), state.status.String())
}

// storeSnapshot refreshes the externally visible state copy.
func (m *Manager) storeSnapshot(state *connectionState) {
	snap := m.snapshot(state)
	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()
}

func (m *Manager) snapshot(state *connectionState) Snapshot {
	snap := Snapshot{
		Medium:             state.medium.String(),
		Mode:               state.mode.String(),
		Status:             state.status.String(),
		SSID:               state.ssid,
		ShutdownTimerArmed: state.shutdownTimerArmed(),
	}
	if state.staExtra != nil {
		snap.ConnectionAttempts = state.staExtra.connectionAttempts
	}
	if state.mode == ModeAccessPoint {
		if n, err := m.radio.ConnectedStations(); err == nil {
			snap.Stations = n
		}
	}
	return snap
}
