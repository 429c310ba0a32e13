package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantHostname string
		wantIP       string
		wantPort     int
	}{
		{
			name: "valid device",
			entry: &zeroconf.ServiceEntry{
				HostName: "toolbox.local.",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.1")},
				Text:     []string{"path=/config/wifi", "version=v0.1.0"},
			},
			wantInstance: "",
			wantHostname: "toolbox.local",
			wantIP:       "192.168.4.1",
			wantPort:     8080,
		},
		{
			name: "no IPv4 address",
			entry: &zeroconf.ServiceEntry{
				HostName: "toolbox.local.",
				Port:     8080,
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			device := parseServiceEntry(tc.entry)
			if tc.wantNil {
				if device != nil {
					t.Fatalf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}
			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want device")
			}
			if device.Hostname != tc.wantHostname {
				t.Errorf("hostname = %q, want %q", device.Hostname, tc.wantHostname)
			}
			if device.IP != tc.wantIP {
				t.Errorf("ip = %q, want %q", device.IP, tc.wantIP)
			}
			if device.Port != tc.wantPort {
				t.Errorf("port = %d, want %d", device.Port, tc.wantPort)
			}
		})
	}
}

func TestDeviceMetadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "toolbox.local.",
		Port:     8080,
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.1")},
		Text:     []string{"path=/config/wifi", "version=v0.1.0", "malformed"},
	}

	device := parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	if got := device.GetMetadata("path"); got != "/config/wifi" {
		t.Errorf("metadata path = %q, want %q", got, "/config/wifi")
	}
	if got := device.GetMetadata("version"); got != "v0.1.0" {
		t.Errorf("metadata version = %q, want %q", got, "v0.1.0")
	}
	if got := device.GetMetadata("malformed"); got != "" {
		t.Errorf("metadata malformed = %q, want empty", got)
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("metadata missing = %q, want empty", got)
	}
}

func TestDevicePortalURL(t *testing.T) {
	device := &Device{IP: "192.168.4.1", Port: 8080}
	if got, want := device.PortalURL(), "http://192.168.4.1:8080/config/wifi"; got != want {
		t.Errorf("PortalURL() = %q, want %q", got, want)
	}
}
