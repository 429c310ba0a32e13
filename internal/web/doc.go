// Package web serves the WiFi configuration portal.
//
// The portal is intentionally small: a static HTML form, a POST handler
// that persists submitted credentials and restarts the networking
// controller, and a WebSocket feed streaming state snapshots so the page
// can show reconnection progress.
package web
