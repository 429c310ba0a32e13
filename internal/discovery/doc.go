// Package discovery handles mDNS announcement and discovery of krachkiste
// devices.
//
// The daemon announces its configuration portal as a "_krachkiste._tcp"
// service while the HTTP server is up, so the companion CLI (and anything
// else speaking mDNS) can find devices without knowing their addresses.
// The Scanner side browses for those announcements.
package discovery
