package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mischback/krachkiste/internal/config"
	"github.com/mischback/krachkiste/internal/discovery"
	"github.com/mischback/krachkiste/internal/monitor"
	"github.com/mischback/krachkiste/internal/networking"
	"github.com/mischback/krachkiste/internal/nvstore"
)

// Command flags
var (
	deviceAddr  string
	storePath   string
	scanTimeout int
	credsSSID   string
	credsPSK    string
	pskFromFlag bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceAddr, "device", "", "Device address as host:port (skips discovery)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(credsCmd)
	rootCmd.AddCommand(monitorCmd)

	credsCmd.AddCommand(credsGetCmd)
	credsCmd.AddCommand(credsSetCmd)
	credsCmd.AddCommand(credsClearCmd)

	credsCmd.PersistentFlags().StringVar(&storePath, "store", "", "Path to a local credential store (default: OS config directory)")

	credsSetCmd.Flags().StringVar(&credsSSID, "ssid", "", "Network name")
	credsSetCmd.Flags().StringVar(&credsPSK, "psk", "", "Passphrase (prompted when omitted)")

	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

// scanCmd discovers devices on the network.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for krachkiste devices on the network",
	Long: `Scan for krachkiste devices using mDNS/DNS-SD discovery.

Devices announce their configuration portal while it is reachable. A device
in access point mode announces on its own network, so connect to the
device's access point first when it is not on your infrastructure network.`,
	Example: `  # Scan for 10 seconds (default)
  krachkiste-cfg scan

  # Quick 3-second scan
  krachkiste-cfg scan --timeout 3`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for krachkiste devices (timeout: %ds)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	devices, err := scanner.ScanForDevices()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device is powered on")
		fmt.Println("  - A device in access point mode only announces on its own network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --device to specify an address manually")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))
	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Instance)
		fmt.Printf("   Host:   %s\n", device.Hostname)
		fmt.Printf("   Portal: %s\n", device.PortalURL())
		if v := device.GetMetadata("version"); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		fmt.Println()
	}

	fmt.Println("Use 'krachkiste-cfg monitor --device <host:port>' to follow a device's state")
	return nil
}

// credsCmd groups the credential subcommands.
var credsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Manage stored WiFi credentials",
	Long: `Manage the WiFi credentials a device uses for station mode.

With --device, 'creds set' submits the credentials to a running device's
configuration portal, exactly like the web form does. Without --device,
the commands operate on a local credential store file, which is useful
when preparing a device before first boot.`,
}

var credsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the stored network name",
	Long: `Show the stored network name from a local credential store.

The passphrase is never printed. There is deliberately no way to read
credentials back from a running device.`,
	RunE: runCredsGet,
}

func runCredsGet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	creds, err := networking.LoadCredentials(store)
	if errors.Is(err, networking.ErrNoCredentials) {
		fmt.Println("No credentials stored.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	fmt.Printf("SSID: %s\n", creds.SSID)
	if creds.PSK == "" {
		fmt.Println("PSK:  (open network)")
	} else {
		fmt.Println("PSK:  (set, not shown)")
	}
	return nil
}

var credsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store new WiFi credentials",
	Example: `  # Submit to a running device's portal
  krachkiste-cfg creds set --device 192.168.4.1:8080 --ssid homenet

  # Write to a local store file
  krachkiste-cfg creds set --store ./store.yaml --ssid homenet

  # Open network, no passphrase prompt
  krachkiste-cfg creds set --ssid cafe-guest --psk ""`,
	RunE: runCredsSet,
}

func runCredsSet(cmd *cobra.Command, args []string) error {
	if credsSSID == "" {
		return fmt.Errorf("--ssid is required")
	}
	pskFromFlag = cmd.Flags().Changed("psk")

	psk := credsPSK
	if !pskFromFlag {
		var err error
		psk, err = promptPSK()
		if err != nil {
			return err
		}
	}

	creds := networking.Credentials{SSID: credsSSID, PSK: psk}
	if err := creds.Validate(); err != nil {
		return err
	}

	if deviceAddr != "" {
		return submitToPortal(deviceAddr, creds)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if err := networking.SaveCredentials(store, creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Stored credentials for %q in %s\n", creds.SSID, store.Path())
	return nil
}

var credsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove stored WiFi credentials",
	Long: `Remove stored WiFi credentials from a local store file.

A device booting without credentials opens its configuration access
point.`,
	RunE: runCredsClear,
}

func runCredsClear(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if err := networking.ClearCredentials(store); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	fmt.Println("Credentials cleared.")
	return nil
}

// monitorCmd follows a device's state live.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Follow a device's connection state live",
	Long: `Follow a device's connection state live.

Connects to the device's status WebSocket and renders every state change.
Without --device, the first device found via mDNS discovery is used.`,
	Example: `  # Monitor a known device
  krachkiste-cfg monitor --device 192.168.4.1:8080

  # Discover and monitor the first device found
  krachkiste-cfg monitor`,
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	addr := deviceAddr
	if addr == "" {
		fmt.Println("Discovering devices...")
		scanner := discovery.NewScanner()
		scanner.Timeout = 5 * time.Second
		devices, err := scanner.ScanForDevices()
		if err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
		if len(devices) == 0 {
			return fmt.Errorf("no devices found, use --device to specify an address")
		}
		addr = fmt.Sprintf("%s:%d", devices[0].IP, devices[0].Port)
		fmt.Printf("Monitoring %s\n", devices[0].Instance)
	}

	return monitor.Run(addr)
}

// promptPSK reads the passphrase without echoing it.
func promptPSK() (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase (empty for an open network): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(raw), nil
}

// submitToPortal posts the credentials to a running device, the same way
// the web form does.
func submitToPortal(addr string, creds networking.Credentials) error {
	form := url.Values{}
	form.Set("ssid", creds.SSID)
	form.Set("psk", creds.PSK)

	portalURL := "http://" + addr + "/config/wifi"
	resp, err := http.Post(portalURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to reach the device portal: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("device rejected credentials: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	fmt.Printf("Credentials for %q submitted, the device is reconnecting.\n", creds.SSID)
	return nil
}

// openStore opens the local credential store named by --store, falling back
// to the daemon's default location.
func openStore() (*nvstore.Store, error) {
	path := storePath
	if path == "" {
		cfg, err := config.GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to determine config path: %w", err)
		}
		loaded, err := config.Load(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		path = loaded.StorePath
	}
	if path == "" {
		return nil, fmt.Errorf("no credential store path, use --store")
	}

	return nvstore.Open(path)
}
