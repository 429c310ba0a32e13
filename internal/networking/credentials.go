package networking

import (
	"errors"
	"fmt"

	"github.com/mischback/krachkiste/internal/nvstore"
)

// Storage location of the station credentials. The length limits are the
// IEEE 802.11 maxima.
const (
	StoreNamespace = "krachkiste"
	StoreKeySSID   = "net_ssid"
	StoreKeyPSK    = "net_psk"

	MaxSSIDLen = 32
	MaxPSKLen  = 64
	MinPSKLen  = 8
)

// ErrNoCredentials indicates that no usable station credentials are stored.
// The controller treats this as "start the access point".
var ErrNoCredentials = errors.New("networking: no stored credentials")

// Credentials are the station-mode SSID and pre-shared key.
type Credentials struct {
	SSID string
	PSK  string
}

// ValidateSSID checks the IEEE 802.11 SSID constraints.
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return errors.New("ssid must not be empty")
	}
	if len(ssid) > MaxSSIDLen {
		return fmt.Errorf("ssid exceeds %d bytes", MaxSSIDLen)
	}
	return nil
}

// ValidatePSK checks the IEEE 802.11 PSK constraints. An empty PSK is valid
// and means an open network.
func ValidatePSK(psk string) error {
	if psk == "" {
		return nil
	}
	if len(psk) < MinPSKLen {
		return fmt.Errorf("psk shorter than %d bytes", MinPSKLen)
	}
	if len(psk) > MaxPSKLen {
		return fmt.Errorf("psk exceeds %d bytes", MaxPSKLen)
	}
	return nil
}

// Validate checks both fields.
func (c Credentials) Validate() error {
	if err := ValidateSSID(c.SSID); err != nil {
		return err
	}
	return ValidatePSK(c.PSK)
}

// LoadCredentials reads the stored station credentials. Any storage failure
// (missing namespace, missing key) and any stored value that fails
// validation map to ErrNoCredentials: the caller cannot distinguish "never
// configured" from "corrupted", and both degrade to the access point.
func LoadCredentials(store *nvstore.Store) (Credentials, error) {
	ssid, err := store.GetString(StoreNamespace, StoreKeySSID)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}

	psk, err := store.GetString(StoreNamespace, StoreKeyPSK)
	if err != nil && !errors.Is(err, nvstore.ErrKeyNotFound) {
		return Credentials{}, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}

	creds := Credentials{SSID: ssid, PSK: psk}
	if err := creds.Validate(); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return creds, nil
}

// SaveCredentials validates and persists station credentials.
func SaveCredentials(store *nvstore.Store, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	if err := store.SetString(StoreNamespace, StoreKeySSID, creds.SSID); err != nil {
		return fmt.Errorf("failed to store ssid: %w", err)
	}
	if err := store.SetString(StoreNamespace, StoreKeyPSK, creds.PSK); err != nil {
		return fmt.Errorf("failed to store psk: %w", err)
	}
	return nil
}

// ClearCredentials removes the stored station credentials.
func ClearCredentials(store *nvstore.Store) error {
	if err := store.Delete(StoreNamespace, StoreKeySSID); err != nil {
		return err
	}
	return store.Delete(StoreNamespace, StoreKeyPSK)
}
