package discovery

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/logging"
	"github.com/mischback/krachkiste/internal/version"
)

const (
	// ServiceType is the mDNS service type announced by the daemon.
	ServiceType = "_krachkiste._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."
)

// Announcer advertises the configuration portal via mDNS. It follows the
// HTTP server's lifecycle on the event bus: registration happens when the
// server reports its listener address, deregistration when networking goes
// down.
type Announcer struct {
	bus *events.Bus

	mu         sync.Mutex
	server     *zeroconf.Server
	readyToken events.Token
	downToken  events.Token
	bound      bool
}

// NewAnnouncer creates an Announcer. Nothing is advertised until Bind.
func NewAnnouncer(bus *events.Bus) *Announcer {
	return &Announcer{bus: bus}
}

// Bind subscribes the announcer to the lifecycle events.
func (a *Announcer) Bind() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bound {
		return fmt.Errorf("discovery: already bound")
	}

	readyToken, err := a.bus.Subscribe(events.TopicHTTPDReady, func(e events.Event) {
		addr, ok := e.Payload.(string)
		if !ok {
			return
		}
		a.register(addr)
	})
	if err != nil {
		return err
	}
	downToken, err := a.bus.Subscribe(events.TopicNetworkingUnavailable, func(events.Event) {
		a.deregister()
	})
	if err != nil {
		_ = a.bus.Unsubscribe(readyToken)
		return err
	}

	a.readyToken = readyToken
	a.downToken = downToken
	a.bound = true
	return nil
}

// Close deregisters the service and detaches from the bus.
func (a *Announcer) Close() {
	a.mu.Lock()
	if a.bound {
		_ = a.bus.Unsubscribe(a.readyToken)
		_ = a.bus.Unsubscribe(a.downToken)
		a.bound = false
	}
	a.mu.Unlock()

	a.deregister()
}

func (a *Announcer) register(addr string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		logging.Debug("mDNS service already registered")
		return
	}

	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		logging.Warn("Could not parse listener address for mDNS",
			zap.String("addr", addr),
			zap.Error(err),
		)
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		logging.Warn("Could not parse listener port for mDNS",
			zap.String("port", portStr),
			zap.Error(err),
		)
		return
	}

	instance := instanceName()
	server, err := zeroconf.Register(
		instance,
		ServiceType,
		ServiceDomain,
		port,
		[]string{"path=/config/wifi", "version=" + version.Version},
		nil,
	)
	if err != nil {
		logging.Warn("Could not register mDNS service", zap.Error(err))
		return
	}

	a.server = server
	logging.Info("mDNS service registered",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
}

func (a *Announcer) deregister() {
	a.mu.Lock()
	server := a.server
	a.server = nil
	a.mu.Unlock()

	if server == nil {
		return
	}

	server.Shutdown()
	logging.Info("mDNS service deregistered")
}

// instanceName derives a stable per-device instance name from the hostname.
func instanceName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "krachkiste"
	}
	return "krachkiste-" + hostname
}
