package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/logging"
	"github.com/mischback/krachkiste/internal/networking"
)

const statusWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The portal is served from the device's own access point; there is no
	// origin to validate against.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatusFeed upgrades the connection and streams state snapshots to
// the client until it goes away. The form page uses this to show connection
// progress after a submit.
func (p *Portal) handleStatusFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	defer func() { _ = conn.Close() }()

	logging.Debug("Status feed client connected",
		zap.String("remote_addr", r.RemoteAddr),
	)

	snapCh := make(chan networking.Snapshot, 8)
	token, err := p.bus.Subscribe(events.TopicNetworkingStatus, func(e events.Event) {
		snap, ok := e.Payload.(networking.Snapshot)
		if !ok {
			return
		}
		select {
		case snapCh <- snap:
		default:
			// The client is not keeping up; skip this snapshot.
		}
	})
	if err != nil {
		logging.Warn("Could not subscribe status feed", zap.Error(err))
		return
	}
	defer func() { _ = p.bus.Unsubscribe(token) }()

	// Send the current state right away, before the first periodic event.
	if err := p.writeSnapshot(conn, p.manager.Status()); err != nil {
		return
	}

	// The feed is write-only; the read loop only exists to notice the
	// client closing the connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap := <-snapCh:
			if err := p.writeSnapshot(conn, snap); err != nil {
				logging.Debug("Status feed client gone",
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				return
			}
		case <-closed:
			logging.Debug("Status feed client disconnected",
				zap.String("remote_addr", r.RemoteAddr),
			)
			return
		}
	}
}

func (p *Portal) writeSnapshot(conn *websocket.Conn, snap networking.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(statusWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(snap)
}
