package monitor

import (
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/mischback/krachkiste/internal/networking"
)

// Feed is a client connection to a device's status WebSocket.
type Feed struct {
	conn *websocket.Conn
}

// Dial connects to the status feed at the given WebSocket URL.
func Dial(url string) (*Feed, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to status feed: %w", err)
	}
	return &Feed{conn: conn}, nil
}

// Read blocks until the next snapshot arrives.
func (f *Feed) Read() (networking.Snapshot, error) {
	var snap networking.Snapshot
	if err := f.conn.ReadJSON(&snap); err != nil {
		return networking.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snap, nil
}

// Close closes the underlying connection.
func (f *Feed) Close() {
	if f.conn != nil {
		_ = f.conn.Close()
	}
}

// FeedURL builds the status feed URL for a host:port address.
func FeedURL(addr string) string {
	return "ws://" + addr + "/config/wifi/ws"
}
