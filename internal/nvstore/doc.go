// Package nvstore provides namespaced persistent key-value storage.
//
// This is the Go counterpart of the non-volatile storage the firmware kept
// its WiFi credentials in. Values are plain strings, grouped by namespace,
// and persisted to a single YAML file with atomic writes (temporary file
// plus rename) so a crash never leaves a half-written store behind.
//
// # Usage Example
//
//	store, err := nvstore.Open("/var/lib/krachkiste/store.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := store.SetString("krachkiste", "net_ssid", "MyNetwork"); err != nil {
//	    log.Fatal(err)
//	}
//
//	ssid, err := store.GetString("krachkiste", "net_ssid")
//
// # Thread Safety
//
// All operations are protected by a mutex; the store may be shared between
// the controller goroutine and the web form handlers.
package nvstore
