package radio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mischback/krachkiste/internal/events"
)

// eventRecorder collects radio events from the bus.
type eventRecorder struct {
	mu   sync.Mutex
	link []Event
	ip   []Event
}

func newEventRecorder(t *testing.T, bus *events.Bus) *eventRecorder {
	t.Helper()

	rec := &eventRecorder{}
	if _, err := bus.Subscribe(events.TopicRadioLink, func(e events.Event) {
		if ev, ok := e.Payload.(Event); ok {
			rec.mu.Lock()
			rec.link = append(rec.link, ev)
			rec.mu.Unlock()
		}
	}); err != nil {
		t.Fatalf("subscribing link events: %v", err)
	}
	if _, err := bus.Subscribe(events.TopicRadioIP, func(e events.Event) {
		if ev, ok := e.Payload.(Event); ok {
			rec.mu.Lock()
			rec.ip = append(rec.ip, ev)
			rec.mu.Unlock()
		}
	}); err != nil {
		t.Fatalf("subscribing IP events: %v", err)
	}
	return rec
}

func (r *eventRecorder) waitLink(t *testing.T, n int) []Event {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		if len(r.link) >= n {
			out := make([]Event, len(r.link))
			copy(out, r.link)
			r.mu.Unlock()
			return out
		}
		r.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d link events", n)
	return nil
}

func (r *eventRecorder) waitIP(t *testing.T, n int) []Event {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		if len(r.ip) >= n {
			out := make([]Event, len(r.ip))
			copy(out, r.ip)
			r.mu.Unlock()
			return out
		}
		r.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d IP events", n)
	return nil
}

func newSimWithRecorder(t *testing.T) (*Sim, *eventRecorder) {
	t.Helper()

	bus := events.NewBus()
	t.Cleanup(bus.Close)
	return NewSim(bus), newEventRecorder(t, bus)
}

func TestStationConnectSucceedsOnMatchingPSK(t *testing.T) {
	sim, rec := newSimWithRecorder(t)
	sim.AddNetwork("homenet", "secretpass")

	iface, err := sim.StartStation(StationConfig{SSID: "homenet", PSK: "secretpass"})
	if err != nil {
		t.Fatalf("StartStation() failed: %v", err)
	}
	if iface == nil || iface.Name() == "" {
		t.Fatal("StartStation() returned no interface")
	}

	if err := sim.Connect(); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	got := rec.waitLink(t, 2)
	if got[0].Kind != EventStationStarted {
		t.Errorf("first event = %s, want %s", got[0].Kind, EventStationStarted)
	}
	if got[1].Kind != EventStationConnected {
		t.Errorf("second event = %s, want %s", got[1].Kind, EventStationConnected)
	}
}

func TestStationConnectFails(t *testing.T) {
	tests := []struct {
		name string
		psk  string
		add  bool
	}{
		{"wrong psk", "wrongpass", true},
		{"unreachable network", "secretpass", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sim, rec := newSimWithRecorder(t)
			if tc.add {
				sim.AddNetwork("homenet", "secretpass")
			}

			if _, err := sim.StartStation(StationConfig{SSID: "homenet", PSK: tc.psk}); err != nil {
				t.Fatalf("StartStation() failed: %v", err)
			}
			if err := sim.Connect(); err != nil {
				t.Fatalf("Connect() failed: %v", err)
			}

			got := rec.waitLink(t, 2)
			if got[1].Kind != EventStationDisconnected {
				t.Errorf("association event = %s, want %s", got[1].Kind, EventStationDisconnected)
			}
		})
	}
}

func TestConnectRequiresStationMode(t *testing.T) {
	sim, _ := newSimWithRecorder(t)

	if err := sim.Connect(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Connect() while stopped = %v, want ErrNotStarted", err)
	}

	if _, err := sim.StartAccessPoint(AccessPointConfig{SSID: "ap", PSK: "longenough", MaxClients: 3}); err != nil {
		t.Fatalf("StartAccessPoint() failed: %v", err)
	}
	if err := sim.Connect(); !errors.Is(err, ErrWrongMode) {
		t.Errorf("Connect() in AP mode = %v, want ErrWrongMode", err)
	}
}

func TestStartTwiceFails(t *testing.T) {
	sim, _ := newSimWithRecorder(t)

	if _, err := sim.StartStation(StationConfig{SSID: "homenet"}); err != nil {
		t.Fatalf("StartStation() failed: %v", err)
	}
	if _, err := sim.StartStation(StationConfig{SSID: "homenet"}); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second StartStation() = %v, want ErrAlreadyStarted", err)
	}
	if _, err := sim.StartAccessPoint(AccessPointConfig{SSID: "ap", MaxClients: 3}); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("StartAccessPoint() while in station mode = %v, want ErrAlreadyStarted", err)
	}
}

func TestShortAccessPointPSKFallsBackToOpenNetwork(t *testing.T) {
	sim, rec := newSimWithRecorder(t)

	if _, err := sim.StartAccessPoint(AccessPointConfig{SSID: "krachkiste_ap", PSK: "foobar", MaxClients: 3}); err != nil {
		t.Fatalf("StartAccessPoint() failed: %v", err)
	}

	got := rec.waitLink(t, 1)
	if got[0].Kind != EventAccessPointStarted {
		t.Errorf("event = %s, want %s", got[0].Kind, EventAccessPointStarted)
	}

	sim.mu.Lock()
	defer sim.mu.Unlock()
	if !sim.apOpen {
		t.Error("six character PSK did not fall back to an open network")
	}
	if sim.apCfg.PSK != "" {
		t.Errorf("open network still carries PSK %q", sim.apCfg.PSK)
	}
}

func TestClientJoinAndLeave(t *testing.T) {
	sim, rec := newSimWithRecorder(t)

	if _, err := sim.StartAccessPoint(AccessPointConfig{SSID: "ap", PSK: "longenough", MaxClients: 2}); err != nil {
		t.Fatalf("StartAccessPoint() failed: %v", err)
	}

	if err := sim.JoinClient("aa:bb:cc:dd:ee:01"); err != nil {
		t.Fatalf("JoinClient() failed: %v", err)
	}

	link := rec.waitLink(t, 2)
	if link[1].Kind != EventClientConnected || link[1].ClientMAC != "aa:bb:cc:dd:ee:01" {
		t.Errorf("join event = %+v, want client connected", link[1])
	}
	ip := rec.waitIP(t, 1)
	if ip[0].Kind != EventClientIPAssigned || ip[0].IP == "" {
		t.Errorf("ip event = %+v, want assigned address", ip[0])
	}

	if n, err := sim.ConnectedStations(); err != nil || n != 1 {
		t.Errorf("ConnectedStations() = %d, %v; want 1", n, err)
	}

	if err := sim.LeaveClient("aa:bb:cc:dd:ee:01"); err != nil {
		t.Fatalf("LeaveClient() failed: %v", err)
	}
	link = rec.waitLink(t, 3)
	if link[2].Kind != EventClientDisconnected {
		t.Errorf("leave event = %s, want %s", link[2].Kind, EventClientDisconnected)
	}
	if n, _ := sim.ConnectedStations(); n != 0 {
		t.Errorf("ConnectedStations() after leave = %d, want 0", n)
	}
}

func TestAccessPointClientLimit(t *testing.T) {
	sim, _ := newSimWithRecorder(t)

	if _, err := sim.StartAccessPoint(AccessPointConfig{SSID: "ap", PSK: "longenough", MaxClients: 1}); err != nil {
		t.Fatalf("StartAccessPoint() failed: %v", err)
	}

	if err := sim.JoinClient("aa:bb:cc:dd:ee:01"); err != nil {
		t.Fatalf("JoinClient() failed: %v", err)
	}
	if err := sim.JoinClient("aa:bb:cc:dd:ee:02"); err == nil {
		t.Error("JoinClient() beyond the client limit succeeded, want error")
	}
	if err := sim.JoinClient("aa:bb:cc:dd:ee:01"); err == nil {
		t.Error("repeated JoinClient() succeeded, want error")
	}
}

func TestFailureInjectionIsOneShot(t *testing.T) {
	sim, _ := newSimWithRecorder(t)

	injected := errors.New("radio dead")
	sim.FailAccessPointStart(injected)

	if _, err := sim.StartAccessPoint(AccessPointConfig{SSID: "ap", MaxClients: 3}); !errors.Is(err, injected) {
		t.Fatalf("StartAccessPoint() = %v, want injected error", err)
	}
	if _, err := sim.StartAccessPoint(AccessPointConfig{SSID: "ap", MaxClients: 3}); err != nil {
		t.Errorf("second StartAccessPoint() failed: %v", err)
	}
}

func TestStopResetsMode(t *testing.T) {
	sim, _ := newSimWithRecorder(t)

	if err := sim.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Stop() while stopped = %v, want ErrNotStarted", err)
	}

	if _, err := sim.StartStation(StationConfig{SSID: "homenet"}); err != nil {
		t.Fatalf("StartStation() failed: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	// A fresh start in the other mode must work after a stop.
	if _, err := sim.StartAccessPoint(AccessPointConfig{SSID: "ap", MaxClients: 3}); err != nil {
		t.Errorf("StartAccessPoint() after Stop failed: %v", err)
	}
}

func TestEventKindStrings(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventStationStarted, "STA_START"},
		{EventStationConnected, "STA_CONNECTED"},
		{EventStationDisconnected, "STA_DISCONNECTED"},
		{EventAccessPointStarted, "AP_START"},
		{EventClientConnected, "AP_STACONNECTED"},
		{EventClientDisconnected, "AP_STADISCONNECTED"},
		{EventClientIPAssigned, "AP_STAIPASSIGNED"},
	}

	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}
