// Package config provides the daemon configuration for krachkiste.
//
// The configuration is a YAML file at an OS-appropriate location (e.g.
// $HOME/.config/krachkiste/config.yaml on Linux) carrying the access point
// defaults, the station retry limit, the portal listen address and the
// location of the persistent store. Every field has a default; a missing
// file is not an error.
//
// # Security
//
// Station credentials (SSID and PSK) are never stored in this file. They
// live in the persistent store managed by the nvstore package and are only
// written through the configuration portal or the krachkiste-cfg utility.
package config
