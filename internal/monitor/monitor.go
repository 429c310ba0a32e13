package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mischback/krachkiste/internal/networking"
)

const reconnectDelay = 2 * time.Second

// Message types for async feed operations.
type connectedMsg struct {
	feed *Feed
}

type snapshotMsg networking.Snapshot

type feedLostMsg struct {
	err error
}

type retryMsg struct{}

// monitorKeyMap defines key bindings for the monitor screen.
type monitorKeyMap struct {
	Reconnect key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reconnect, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Reconnect, k.Quit},
	}
}

// Model is the live status monitor screen. It connects to a device's status
// feed and renders each snapshot as it arrives.
type Model struct {
	addr string
	feed *Feed

	snap      *networking.Snapshot
	connected bool
	lastErr   error

	spinner spinner.Model
	help    help.Model
	keys    monitorKeyMap
	width   int
}

// New creates a monitor model for the device at addr (host:port).
func New(addr string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	keys := monitorKeyMap{
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconnect"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return Model{
		addr:    addr,
		spinner: s,
		help:    help.New(),
		keys:    keys,
	}
}

// Init starts the spinner and the initial connection attempt.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, connect(m.addr))
}

func connect(addr string) tea.Cmd {
	return func() tea.Msg {
		feed, err := Dial(FeedURL(addr))
		if err != nil {
			return feedLostMsg{err: err}
		}
		return connectedMsg{feed: feed}
	}
}

func waitForSnapshot(feed *Feed) tea.Cmd {
	return func() tea.Msg {
		snap, err := feed.Read()
		if err != nil {
			return feedLostMsg{err: err}
		}
		return snapshotMsg(snap)
	}
}

func retryLater() tea.Cmd {
	return tea.Tick(reconnectDelay, func(time.Time) tea.Msg {
		return retryMsg{}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.feed != nil {
				m.feed.Close()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reconnect):
			if m.feed != nil {
				m.feed.Close()
				m.feed = nil
			}
			m.connected = false
			return m, connect(m.addr)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case connectedMsg:
		m.feed = msg.feed
		m.connected = true
		m.lastErr = nil
		return m, waitForSnapshot(m.feed)

	case snapshotMsg:
		snap := networking.Snapshot(msg)
		m.snap = &snap
		return m, waitForSnapshot(m.feed)

	case feedLostMsg:
		if m.feed != nil {
			m.feed.Close()
			m.feed = nil
		}
		m.connected = false
		m.lastErr = msg.err
		return m, retryLater()

	case retryMsg:
		return m, connect(m.addr)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the monitor screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("KRACHKISTE STATUS MONITOR"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("device: " + m.addr))
	b.WriteString("\n\n")

	switch {
	case !m.connected && m.lastErr != nil:
		b.WriteString(errStyle.Render("disconnected"))
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(m.lastErr.Error()))
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(fmt.Sprintf("retrying every %s...", reconnectDelay)))
	case !m.connected:
		b.WriteString(m.spinner.View())
		b.WriteString(" connecting...")
	case m.snap == nil:
		b.WriteString(m.spinner.View())
		b.WriteString(" waiting for first snapshot...")
	default:
		b.WriteString(renderSnapshot(*m.snap))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func renderSnapshot(snap networking.Snapshot) string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("medium", snap.Medium)
	row("mode", snap.Mode)
	b.WriteString(labelStyle.Render("status"))
	b.WriteString(statusStyle(snap.Status).Render(snap.Status))
	b.WriteString("\n")

	if snap.SSID != "" {
		row("ssid", snap.SSID)
	}
	if snap.Mode == "station" {
		row("attempts", fmt.Sprintf("%d", snap.ConnectionAttempts))
	}
	if snap.Mode == "access_point" {
		row("stations", fmt.Sprintf("%d", snap.Stations))
		if snap.ShutdownTimerArmed {
			row("shutdown", warnStyle.Render("timer armed"))
		}
	}

	return b.String()
}

// Run starts the monitor program and blocks until the user quits.
func Run(addr string) error {
	p := tea.NewProgram(New(addr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
