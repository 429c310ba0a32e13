package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mischback/krachkiste/internal/config"
	"github.com/mischback/krachkiste/internal/discovery"
	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/httpd"
	"github.com/mischback/krachkiste/internal/logging"
	"github.com/mischback/krachkiste/internal/networking"
	"github.com/mischback/krachkiste/internal/nvstore"
	"github.com/mischback/krachkiste/internal/radio"
	"github.com/mischback/krachkiste/internal/web"
)

// Serve command flags
var (
	configPath string
	listenAddr string
	storePath  string
	logLevel   string
	networks   []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the connectivity daemon",
	Long: `Run the connectivity daemon.

The daemon drives a simulated radio. Networks reachable by the simulation
are seeded with the --network flag; connecting to any other SSID fails,
which exercises the access point fallback exactly like an unreachable
real-world network would.`,
	Example: `  # Run with a reachable network; stored credentials for it will connect
  krachkisted serve --network homenet=secretpass

  # Run without reachable networks; the daemon opens its access point
  krachkisted serve

  # Custom portal address and verbose logging
  krachkisted serve --listen :8888 --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file (default: OS config directory)")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Portal listen address (overrides config)")
	serveCmd.Flags().StringVar(&storePath, "store", "", "Path to the credential store (overrides config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringArrayVar(&networks, "network", nil, "Reachable network as ssid=psk (repeatable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := nvstore.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	bus := events.NewBus()
	defer bus.Close()

	sim := radio.NewSim(bus)
	for _, network := range networks {
		ssid, psk, _ := strings.Cut(network, "=")
		if ssid == "" {
			return fmt.Errorf("invalid --network value %q, want ssid=psk", network)
		}
		sim.AddNetwork(ssid, psk)
	}

	manager := networking.New(cfg, bus, store, sim)

	srv := httpd.New(cfg, bus)
	portal := web.NewPortal(bus, store, manager)
	srv.Mount(portal.Routes)
	if err := srv.Bind(); err != nil {
		return fmt.Errorf("failed to bind HTTP server: %w", err)
	}
	defer srv.Close()

	announcer := discovery.NewAnnouncer(bus)
	if err := announcer.Bind(); err != nil {
		return fmt.Errorf("failed to bind mDNS announcer: %w", err)
	}
	defer announcer.Close()

	if err := manager.Start(); err != nil {
		return fmt.Errorf("failed to start networking: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping daemon...")
		if err := manager.Stop(); err != nil && !errors.Is(err, networking.ErrNotRunning) {
			return fmt.Errorf("failed to stop networking: %w", err)
		}
	case <-manager.Done():
		// The controller stopped on its own, e.g. the idle access point
		// reached the end of its lifetime.
		logging.Info("Networking controller stopped, exiting")
	}

	return nil
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if listenAddr != "" {
		cfg.HTTP.Listen = listenAddr
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	if cfg.StorePath == "" {
		return nil, fmt.Errorf("no credential store path configured")
	}

	return cfg, nil
}
