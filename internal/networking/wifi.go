package networking

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mischback/krachkiste/internal/logging"
	"github.com/mischback/krachkiste/internal/radio"
)

// wifiStart brings up the wireless medium: station mode when stored
// credentials are available, the fallback access point otherwise. Only
// called from the controller goroutine.
func (m *Manager) wifiStart(state *connectionState) error {
	if state.mode != ModeNotApplicable {
		logging.Warn("WiFi seems to be already initialized")
		return nil
	}

	state.medium = MediumWireless

	creds, err := LoadCredentials(m.store)
	if err != nil {
		logging.Info("Could not read credentials, starting access point", zap.Error(err))
		return m.accessPointInit(state)
	}

	logging.Debug("Retrieved station credentials", zap.String("ssid", creds.SSID))

	if err := m.stationInit(state, creds); err != nil {
		logging.Error("Could not start WiFi station mode", zap.Error(err))
		logging.Info("Starting access point")
		m.stationDeinit(state)
		return m.accessPointInit(state)
	}

	// The station interface is up. All further actions are triggered by
	// radio events.
	return nil
}

// wifiDeinit tears down whatever wireless mode is active. Failures during
// teardown are logged and ignored; teardown always continues.
func (m *Manager) wifiDeinit(state *connectionState) {
	switch state.mode {
	case ModeAccessPoint:
		m.accessPointDeinit(state)
	case ModeStation:
		m.stationDeinit(state)
	}
	state.medium = MediumUnspecified
}

// stationInit brings the interface up in station mode.
func (m *Manager) stationInit(state *connectionState, creds Credentials) error {
	iface, err := m.radio.StartStation(radio.StationConfig{
		SSID: creds.SSID,
		PSK:  creds.PSK,
	})
	if err != nil {
		return fmt.Errorf("failed to start station interface: %w", err)
	}

	state.enterStation(iface, creds.SSID)
	return nil
}

// stationDeinit stops station mode. Safe to call when station mode never
// came up.
func (m *Manager) stationDeinit(state *connectionState) {
	if state.mode != ModeStation {
		return
	}

	if err := m.radio.Stop(); err != nil {
		logging.Error("Could not stop WiFi (station mode)", zap.Error(err))
		logging.Warn("Continuing with de-initialization...")
	}
	state.clearMode()
}

// stationConnect issues one association attempt and counts it. The outcome
// arrives later as a radio event.
func (m *Manager) stationConnect(state *connectionState) {
	state.staExtra.connectionAttempts++

	if err := m.radio.Connect(); err != nil {
		logging.Error("Connect command failed", zap.Error(err))
	}
}

// accessPointInit brings the interface up in access point mode.
func (m *Manager) accessPointInit(state *connectionState) error {
	iface, err := m.radio.StartAccessPoint(radio.AccessPointConfig{
		SSID:       m.cfg.AccessPoint.SSID,
		PSK:        m.cfg.AccessPoint.PSK,
		Channel:    m.cfg.AccessPoint.Channel,
		MaxClients: m.cfg.AccessPoint.MaxClients,
	})
	if err != nil {
		return fmt.Errorf("failed to start access point: %w", err)
	}

	state.enterAccessPoint(iface, m.cfg.AccessPoint.SSID)
	return nil
}

// accessPointDeinit stops access point mode, including a possibly armed
// shutdown timer.
func (m *Manager) accessPointDeinit(state *connectionState) {
	if state.mode != ModeAccessPoint {
		return
	}

	m.shutdownTimerStop(state)

	if err := m.radio.Stop(); err != nil {
		logging.Error("Could not stop WiFi (AP mode)", zap.Error(err))
		logging.Warn("Continuing with de-initialization...")
	}
	state.clearMode()
}

// shutdownTimerStart arms the one-shot idle countdown. On expiry the timer
// only signals the controller; the idle check and the actual teardown run
// inside the controller loop.
func (m *Manager) shutdownTimerStart(state *connectionState) {
	if state.apExtra == nil {
		logging.Warn("The shutdown timer is not available")
		return
	}
	if state.apExtra.shutdownTimer != nil {
		logging.Warn("Access point's shutdown timer is already running")
		return
	}

	state.apExtra.shutdownTimer = time.AfterFunc(m.cfg.AccessPointLifetime(), func() {
		m.notify(notifyShutdownTimerExpired)
	})
	logging.Debug("Access point's shutdown timer started",
		zap.Duration("lifetime", m.cfg.AccessPointLifetime()),
	)
}

// shutdownTimerStop cancels the idle countdown if it is armed.
func (m *Manager) shutdownTimerStop(state *connectionState) {
	if state.apExtra == nil || state.apExtra.shutdownTimer == nil {
		logging.Debug("Access point's shutdown timer is not running")
		return
	}

	state.apExtra.shutdownTimer.Stop()
	state.apExtra.shutdownTimer = nil
	logging.Debug("Access point's shutdown timer stopped")
}
