package networking

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mischback/krachkiste/internal/nvstore"
)

func newTestStore(t *testing.T) *nvstore.Store {
	t.Helper()

	store, err := nvstore.Open(filepath.Join(t.TempDir(), "store.yaml"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return store
}

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", Credentials{SSID: "homenet", PSK: "secretpass"}, false},
		{"open network", Credentials{SSID: "homenet"}, false},
		{"max lengths", Credentials{SSID: strings.Repeat("s", 32), PSK: strings.Repeat("p", 64)}, false},
		{"minimal psk", Credentials{SSID: "s", PSK: strings.Repeat("p", 8)}, false},
		{"empty ssid", Credentials{PSK: "secretpass"}, true},
		{"overlong ssid", Credentials{SSID: strings.Repeat("s", 33), PSK: "secretpass"}, true},
		{"short psk", Credentials{SSID: "homenet", PSK: "short"}, true},
		{"overlong psk", Credentials{SSID: "homenet", PSK: strings.Repeat("p", 65)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.creds.Validate()
			if tc.wantErr && err == nil {
				t.Error("Validate() succeeded, want error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Validate() failed: %v", err)
			}
		})
	}
}

func TestSaveAndLoadCredentials(t *testing.T) {
	store := newTestStore(t)

	want := Credentials{SSID: "homenet", PSK: "secretpass"}
	if err := SaveCredentials(store, want); err != nil {
		t.Fatalf("SaveCredentials() failed: %v", err)
	}

	got, err := LoadCredentials(store)
	if err != nil {
		t.Fatalf("LoadCredentials() failed: %v", err)
	}
	if got != want {
		t.Errorf("LoadCredentials() = %+v, want %+v", got, want)
	}
}

func TestLoadCredentialsFromEmptyStore(t *testing.T) {
	store := newTestStore(t)

	if _, err := LoadCredentials(store); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("LoadCredentials() on empty store = %v, want ErrNoCredentials", err)
	}
}

func TestLoadCredentialsMissingPSKMeansOpenNetwork(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetString(StoreNamespace, StoreKeySSID, "opennet"); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	got, err := LoadCredentials(store)
	if err != nil {
		t.Fatalf("LoadCredentials() failed: %v", err)
	}
	if got.SSID != "opennet" || got.PSK != "" {
		t.Errorf("LoadCredentials() = %+v, want open network", got)
	}
}

func TestLoadCredentialsRejectsCorruptValues(t *testing.T) {
	store := newTestStore(t)

	// A stored SSID beyond the 802.11 limit is unusable; it degrades to
	// "no credentials" instead of being handed to the radio.
	if err := store.SetString(StoreNamespace, StoreKeySSID, strings.Repeat("s", 40)); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	if _, err := LoadCredentials(store); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("LoadCredentials() with corrupt ssid = %v, want ErrNoCredentials", err)
	}
}

func TestSaveCredentialsRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	if err := SaveCredentials(store, Credentials{SSID: "", PSK: "secretpass"}); err == nil {
		t.Error("SaveCredentials() with empty ssid succeeded, want error")
	}
	if _, err := LoadCredentials(store); !errors.Is(err, ErrNoCredentials) {
		t.Error("rejected save still wrote to the store")
	}
}

func TestClearCredentials(t *testing.T) {
	store := newTestStore(t)

	if err := SaveCredentials(store, Credentials{SSID: "homenet", PSK: "secretpass"}); err != nil {
		t.Fatalf("SaveCredentials() failed: %v", err)
	}
	if err := ClearCredentials(store); err != nil {
		t.Fatalf("ClearCredentials() failed: %v", err)
	}

	if _, err := LoadCredentials(store); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("LoadCredentials() after clear = %v, want ErrNoCredentials", err)
	}

	// Clearing an already empty store is fine.
	if err := ClearCredentials(store); err != nil {
		t.Errorf("repeated ClearCredentials() failed: %v", err)
	}
}
