// Package monitor implements the cfg tool's live status screen.
//
// The monitor connects to a device's status WebSocket and renders state
// snapshots as they arrive, reconnecting automatically when the device
// drops the link (which it does whenever new credentials are applied).
package monitor
