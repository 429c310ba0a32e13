package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// DefaultScanTimeout is the default timeout for device discovery.
const DefaultScanTimeout = 10 * time.Second

// Scanner finds krachkiste devices on the local network via mDNS.
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery.
	Timeout time.Duration
}

// NewScanner creates a Scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForDevices discovers all krachkiste devices on the local network.
func (s *Scanner) ScanForDevices() ([]*Device, error) {
	return s.ScanForDevicesWithContext(context.Background())
}

// ScanForDevicesWithContext discovers devices with a custom context.
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	devices := make([]*Device, 0)
	collected := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(collected)
		for entry := range entries {
			if device := parseServiceEntry(entry); device != nil {
				devices = append(devices, device)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-collected

	return devices, nil
}

// parseServiceEntry converts a zeroconf service entry to a Device. Returns
// nil for entries without a usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, found := strings.Cut(txt, "=")
		if !found {
			continue
		}
		metadata[key] = value
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     strings.TrimSuffix(entry.HostName, "."),
		IP:           entry.AddrIPv4[0].String(),
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
