package radio

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/logging"
)

// minAccessPointPSKLen is the shortest PSK the WiFi stack accepts for WPA2.
// Shorter PSKs silently fall back to an open network, matching the vendor
// SDK constraint the firmware worked around.
const minAccessPointPSKLen = 8

type simMode int

const (
	simStopped simMode = iota
	simStation
	simAccessPoint
)

// Sim is a deterministic Radio implementation. It models the air as a fixed
// set of reachable networks and lets tests (and the demo daemon) drive
// client joins and leaves explicitly.
type Sim struct {
	bus *events.Bus

	mu       sync.Mutex
	mode     simMode
	iface    *Interface
	staCfg   StationConfig
	apCfg    AccessPointConfig
	apOpen   bool
	networks map[string]string
	clients  map[string]bool

	stationStartErr     error
	accessPointStartErr error
}

// NewSim creates a simulator publishing its events to bus.
func NewSim(bus *events.Bus) *Sim {
	return &Sim{
		bus:      bus,
		networks: make(map[string]string),
		clients:  make(map[string]bool),
	}
}

// AddNetwork makes a network reachable for station mode. Connecting with a
// different PSK fails the association.
func (s *Sim) AddNetwork(ssid, psk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networks[ssid] = psk
}

// RemoveNetwork takes a network off the air.
func (s *Sim) RemoveNetwork(ssid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.networks, ssid)
}

// FailStationStart makes the next StartStation call return err. Pass nil to
// clear.
func (s *Sim) FailStationStart(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stationStartErr = err
}

// FailAccessPointStart makes the next StartAccessPoint call return err.
// Pass nil to clear.
func (s *Sim) FailAccessPointStart(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessPointStartErr = err
}

// StartStation implements Radio.
func (s *Sim) StartStation(cfg StationConfig) (*Interface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stationStartErr != nil {
		err := s.stationStartErr
		s.stationStartErr = nil
		return nil, err
	}
	if s.mode != simStopped {
		return nil, ErrAlreadyStarted
	}

	s.mode = simStation
	s.staCfg = cfg
	s.iface = &Interface{name: "sim-sta0"}

	s.emitLink(Event{Kind: EventStationStarted, SSID: cfg.SSID})
	return s.iface, nil
}

// StartAccessPoint implements Radio.
func (s *Sim) StartAccessPoint(cfg AccessPointConfig) (*Interface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessPointStartErr != nil {
		err := s.accessPointStartErr
		s.accessPointStartErr = nil
		return nil, err
	}
	if s.mode != simStopped {
		return nil, ErrAlreadyStarted
	}

	s.apOpen = len(cfg.PSK) < minAccessPointPSKLen
	if s.apOpen {
		logging.Warn("Access point PSK shorter than 8 characters, hosting an open network",
			zap.String("ssid", cfg.SSID),
		)
		cfg.PSK = ""
	}

	s.mode = simAccessPoint
	s.apCfg = cfg
	s.iface = &Interface{name: "sim-ap0"}
	s.clients = make(map[string]bool)

	s.emitLink(Event{Kind: EventAccessPointStarted, SSID: cfg.SSID})
	return s.iface, nil
}

// Connect implements Radio. Association succeeds when the configured SSID
// is reachable and the PSK matches; the outcome is emitted as an event, the
// call itself only fails when no station interface is up.
func (s *Sim) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == simStopped {
		return ErrNotStarted
	}
	if s.mode != simStation {
		return ErrWrongMode
	}

	psk, reachable := s.networks[s.staCfg.SSID]
	if reachable && psk == s.staCfg.PSK {
		s.emitLink(Event{Kind: EventStationConnected, SSID: s.staCfg.SSID})
	} else {
		s.emitLink(Event{Kind: EventStationDisconnected, SSID: s.staCfg.SSID})
	}
	return nil
}

// Stop implements Radio.
func (s *Sim) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == simStopped {
		return ErrNotStarted
	}

	s.mode = simStopped
	s.iface = nil
	s.clients = make(map[string]bool)
	return nil
}

// ConnectedStations implements Radio.
func (s *Sim) ConnectedStations() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != simAccessPoint {
		return 0, ErrWrongMode
	}
	return len(s.clients), nil
}

// JoinClient simulates a client associating with the access point. The
// client also receives a leased IP, reported as an IP-stack event.
func (s *Sim) JoinClient(mac string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != simAccessPoint {
		return ErrWrongMode
	}
	if len(s.clients) >= s.apCfg.MaxClients {
		return fmt.Errorf("radio: access point full (%d clients)", s.apCfg.MaxClients)
	}
	if s.clients[mac] {
		return fmt.Errorf("radio: client %s already joined", mac)
	}

	s.clients[mac] = true
	s.emitLink(Event{Kind: EventClientConnected, ClientMAC: mac})
	s.emitIP(Event{
		Kind:      EventClientIPAssigned,
		ClientMAC: mac,
		IP:        fmt.Sprintf("192.168.4.%d", len(s.clients)+1),
	})
	return nil
}

// LeaveClient simulates a client disassociating from the access point.
func (s *Sim) LeaveClient(mac string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != simAccessPoint {
		return ErrWrongMode
	}
	if !s.clients[mac] {
		return fmt.Errorf("radio: client %s not joined", mac)
	}

	delete(s.clients, mac)
	s.emitLink(Event{Kind: EventClientDisconnected, ClientMAC: mac})
	return nil
}

func (s *Sim) emitLink(event Event) {
	s.bus.Publish(events.Event{Topic: events.TopicRadioLink, Payload: event})
}

func (s *Sim) emitIP(event Event) {
	s.bus.Publish(events.Event{Topic: events.TopicRadioIP, Payload: event})
}
