package discovery

import (
	"fmt"
	"time"
)

// Device represents a krachkiste device found on the local network.
type Device struct {
	// Instance is the mDNS instance name (e.g., "krachkiste-a1b2c3").
	Instance string

	// Hostname is the mDNS hostname.
	Hostname string

	// IP is the IPv4 address.
	IP string

	// Port is the configuration portal's HTTP port.
	Port int

	// Metadata contains the mDNS TXT record data.
	Metadata map[string]string

	// DiscoveredAt is when the device was seen.
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the device.
func (d *Device) String() string {
	return fmt.Sprintf("krachkiste device %s (%s) at %s:%d", d.Instance, d.Hostname, d.IP, d.Port)
}

// PortalURL returns the URL of the device's configuration portal.
func (d *Device) PortalURL() string {
	return fmt.Sprintf("http://%s:%d/config/wifi", d.IP, d.Port)
}

// GetMetadata retrieves a TXT record value by key, or an empty string.
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
